// Package vicinity 实现按能力重叠度选择的邻近层
package vicinity

import (
	"slices"

	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Alias 层别名
const Alias = "vicinity"

var _ interfaces.LayerGossiper = (*Layer)(nil)

// Layer 邻近选择层
//
// 按与参考节点共享的能力数排序，相同时 Available 优先，再按 ID。
type Layer struct {
	size int
}

// New 创建邻近选择层
func New(size int) *Layer {
	if size <= 0 {
		size = 1
	}
	return &Layer{size: size}
}

// Alias 实现 interfaces.Layer
func (l *Layer) Alias() string { return Alias }

// Reset 无状态，空操作
func (l *Layer) Reset() {}

// Select 选择与本地节点能力最接近的节点
//
// 主题选择时只考虑具备该能力的节点。
func (l *Layer) Select(view interfaces.StoreView, sel types.Selection) []types.NodeID {
	candidates := view.Contactable()
	if sel.Kind == types.SelectTopic {
		candidates = slices.DeleteFunc(candidates, func(p types.PeerProfile) bool {
			return !p.HasCapability(sel.Topic)
		})
	}
	return l.rank(view, view.Self(), candidates)
}

// Gossip 推荐与接收方能力最接近的节点
func (l *Layer) Gossip(view interfaces.StoreView, to types.NodeID) []types.NodeID {
	target, ok := view.Profile(to)
	if !ok {
		return nil
	}
	self := view.Self().ID
	candidates := slices.DeleteFunc(view.Contactable(), func(p types.PeerProfile) bool {
		return p.ID == to || p.ID == self
	})
	return l.rank(view, target, candidates)
}

func (l *Layer) rank(view interfaces.StoreView, ref types.PeerProfile, candidates []types.PeerProfile) []types.NodeID {
	type scored struct {
		id        types.NodeID
		shared    int
		available bool
	}
	list := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		if p.ID == ref.ID {
			continue
		}
		list = append(list, scored{
			id:        p.ID,
			shared:    ref.SharedCapabilities(p),
			available: view.Classify(p.ID) == types.ClassAvailable,
		})
	}
	slices.SortFunc(list, func(a, b scored) int {
		if a.shared != b.shared {
			return b.shared - a.shared
		}
		if a.available != b.available {
			if a.available {
				return -1
			}
			return 1
		}
		return a.id.Compare(b.id)
	})

	n := min(l.size, len(list))
	out := make([]types.NodeID, 0, n)
	for _, s := range list[:n] {
		out = append(out, s.id)
	}
	return out
}
