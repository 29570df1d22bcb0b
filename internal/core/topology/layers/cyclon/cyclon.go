// Package cyclon 实现随机老化缓存选择层
package cyclon

import (
	"math/rand/v2"
	"slices"

	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Alias 层别名
const Alias = "cyclon"

// cacheFactor 缓存容量为 size 的倍数
const cacheFactor = 4

var _ interfaces.LayerPopulator = (*Layer)(nil)
var _ interfaces.LayerGossiper = (*Layer)(nil)

type entry struct {
	id  types.NodeID
	age int
}

// Layer 随机老化缓存层
//
// 缓存最多保存 size*4 个节点，每次选择时所有条目老化一次，
// 满员时淘汰最老的条目。
type Layer struct {
	size  int
	cache []entry
	rnd   *rand.Rand
}

// Option 选项
type Option func(*Layer)

// WithRand 设置随机源（测试使用固定种子）
func WithRand(r *rand.Rand) Option {
	return func(l *Layer) {
		if r != nil {
			l.rnd = r
		}
	}
}

// New 创建随机老化缓存层
func New(size int, opts ...Option) *Layer {
	if size <= 0 {
		size = 1
	}
	l := &Layer{
		size: size,
		rnd:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Alias 实现 interfaces.Layer
func (l *Layer) Alias() string { return Alias }

// Reset 清空缓存
func (l *Layer) Reset() {
	l.cache = nil
}

// Len 缓存条目数
func (l *Layer) Len() int {
	return len(l.cache)
}

// Populate 把节点放入缓存，已有条目年龄归零
func (l *Layer) Populate(_ interfaces.StoreView, updated []types.NodeID) {
	for _, id := range updated {
		if i := l.indexOf(id); i >= 0 {
			l.cache[i].age = 0
			continue
		}
		if len(l.cache) >= l.size*cacheFactor {
			l.evictOldest()
		}
		l.cache = append(l.cache, entry{id: id})
	}
}

func (l *Layer) indexOf(id types.NodeID) int {
	return slices.IndexFunc(l.cache, func(e entry) bool { return e.id == id })
}

func (l *Layer) evictOldest() {
	oldest := 0
	for i, e := range l.cache {
		if e.age > l.cache[oldest].age {
			oldest = i
		}
	}
	l.cache = slices.Delete(l.cache, oldest, oldest+1)
}

// Select 老化缓存后随机抽取 size 个节点
func (l *Layer) Select(view interfaces.StoreView, sel types.Selection) []types.NodeID {
	l.prune(view)
	for i := range l.cache {
		l.cache[i].age++
	}
	return l.sample(view, func(p types.PeerProfile) bool {
		return sel.Kind != types.SelectTopic || p.HasCapability(sel.Topic)
	})
}

// Gossip 随机推荐 size 个节点（不含接收方）
func (l *Layer) Gossip(view interfaces.StoreView, to types.NodeID) []types.NodeID {
	l.prune(view)
	return l.sample(view, func(p types.PeerProfile) bool { return p.ID != to })
}

// prune 移除已不在存储中的条目
func (l *Layer) prune(view interfaces.StoreView) {
	l.cache = slices.DeleteFunc(l.cache, func(e entry) bool {
		_, ok := view.Profile(e.id)
		return !ok
	})
}

func (l *Layer) sample(view interfaces.StoreView, keep func(types.PeerProfile) bool) []types.NodeID {
	self := view.Self().ID
	out := make([]types.NodeID, 0, l.size)
	for _, i := range l.rnd.Perm(len(l.cache)) {
		if len(out) >= l.size {
			break
		}
		id := l.cache[i].id
		if id == self || view.Classify(id) == types.ClassQuarantined {
			continue
		}
		p, ok := view.Profile(id)
		if !ok || !keep(p) {
			continue
		}
		out = append(out, id)
	}
	return out
}
