// Package rings 实现环形选择层
package rings

import (
	"slices"

	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Alias 层别名
const Alias = "rings"

var _ interfaces.LayerPopulator = (*Layer)(nil)
var _ interfaces.LayerGossiper = (*Layer)(nil)

// Layer 环形选择层
//
// 所有可联系节点按 ID 排成一个环，选择本地节点两侧最近的 size 个
// 前驱和 size 个后继。
type Layer struct {
	size  int
	ring  []types.NodeID
	dirty bool
}

// New 创建环形选择层
func New(size int) *Layer {
	if size <= 0 {
		size = 1
	}
	return &Layer{size: size, dirty: true}
}

// Alias 实现 interfaces.Layer
func (l *Layer) Alias() string { return Alias }

// Reset 清空环，下次选择时重建
func (l *Layer) Reset() {
	l.ring = nil
	l.dirty = true
}

// Populate 把新节点插入环
func (l *Layer) Populate(_ interfaces.StoreView, updated []types.NodeID) {
	for _, id := range updated {
		l.insert(id)
	}
}

func (l *Layer) insert(id types.NodeID) {
	i, found := slices.BinarySearchFunc(l.ring, id, types.NodeID.Compare)
	if !found {
		l.ring = slices.Insert(l.ring, i, id)
	}
}

func (l *Layer) rebuild(view interfaces.StoreView) {
	contactable := view.Contactable()
	l.ring = make([]types.NodeID, 0, len(contactable))
	for _, p := range contactable {
		l.ring = append(l.ring, p.ID)
	}
	slices.SortFunc(l.ring, types.NodeID.Compare)
	l.dirty = false
}

// prune 移除已不在存储中或已隔离的节点，返回满足选择条件的环
func (l *Layer) prune(view interfaces.StoreView, sel types.Selection) []types.NodeID {
	if l.dirty {
		l.rebuild(view)
	}
	kept := l.ring[:0]
	for _, id := range l.ring {
		if _, ok := view.Profile(id); ok {
			kept = append(kept, id)
		}
	}
	l.ring = kept

	out := make([]types.NodeID, 0, len(l.ring))
	for _, id := range l.ring {
		if view.Classify(id) == types.ClassQuarantined {
			continue
		}
		if sel.Kind == types.SelectTopic {
			p, _ := view.Profile(id)
			if !p.HasCapability(sel.Topic) {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

// Select 选择本地节点的前驱与后继，后继与前驱交替排列
func (l *Layer) Select(view interfaces.StoreView, sel types.Selection) []types.NodeID {
	ring := l.prune(view, sel)
	return neighbours(ring, view.Self().ID, l.size)
}

// Gossip 推荐接收方 to 在环上的邻居
func (l *Layer) Gossip(view interfaces.StoreView, to types.NodeID) []types.NodeID {
	ring := l.prune(view, types.SelectAnyPeers())
	out := neighbours(ring, to, l.size)
	return slices.DeleteFunc(out, func(id types.NodeID) bool { return id == view.Self().ID })
}

// neighbours 返回 center 两侧最近的 size 个节点（不含 center）
func neighbours(ring []types.NodeID, center types.NodeID, size int) []types.NodeID {
	others := slices.DeleteFunc(slices.Clone(ring), func(id types.NodeID) bool { return id == center })
	n := len(others)
	if n == 0 {
		return nil
	}

	// 第一个大于 center 的位置即为后继起点
	start, _ := slices.BinarySearchFunc(others, center, types.NodeID.Compare)

	out := make([]types.NodeID, 0, min(2*size, n))
	seen := make(map[types.NodeID]struct{}, 2*size)
	push := func(id types.NodeID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for i := 0; i < size && len(out) < n; i++ {
		push(others[(start+i)%n])
		push(others[((start-1-i)%n+n)%n])
	}
	return out
}
