package topology

import (
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var _ interfaces.StoreView = storeView{}

// storeView 交给选择层的只读视图
//
// 只在持有 Topology 锁期间有效，返回值都是副本。
type storeView struct {
	s *store
}

func (v storeView) Self() types.PeerProfile {
	return v.s.self.Clone()
}

func (v storeView) Profile(id types.NodeID) (types.PeerProfile, bool) {
	rec := v.s.get(id)
	if rec == nil {
		return types.PeerProfile{}, false
	}
	return rec.profile.Clone(), true
}

func (v storeView) Classify(id types.NodeID) types.Classification {
	return v.s.classify(id)
}

// Contactable 依次返回 Available、Unreachable、Unknown 节点
func (v storeView) Contactable() []types.PeerProfile {
	return v.s.profiles(types.ClassAvailable, types.ClassUnreachable, types.ClassUnknown)
}

func (v storeView) Available() []types.PeerProfile {
	return v.s.profiles(types.ClassAvailable)
}

func (v storeView) Unreachable() []types.PeerProfile {
	return v.s.profiles(types.ClassUnreachable)
}

func (v storeView) Len() int {
	return v.s.len()
}
