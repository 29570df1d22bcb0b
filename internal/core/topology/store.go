package topology

import (
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// quarantineMemo 被驱逐的隔离节点的残留信息
type quarantineMemo struct {
	at      time.Time
	count   int
	strikes []types.Strike
}

// store 节点记录存储
//
// 每个节点只属于一个分类索引。store 不加锁，由 Topology 的锁保护。
type store struct {
	self      types.PeerProfile
	records   map[types.NodeID]*PeerRecord
	index     map[types.Classification]map[types.NodeID]struct{}
	maxPeers  int
	retention time.Duration

	// memory 记住被驱逐的隔离节点，重新学到时恢复隔离
	memory *lru.Cache[types.NodeID, quarantineMemo]
}

func newStore(self types.PeerProfile, maxPeers int, retention time.Duration, memorySize int) (*store, error) {
	memory, err := lru.New[types.NodeID, quarantineMemo](memorySize)
	if err != nil {
		return nil, err
	}
	s := &store{
		self:      self.Clone(),
		records:   make(map[types.NodeID]*PeerRecord),
		index:     make(map[types.Classification]map[types.NodeID]struct{}, 4),
		maxPeers:  maxPeers,
		retention: retention,
		memory:    memory,
	}
	for _, c := range []types.Classification{
		types.ClassUnknown, types.ClassUnreachable, types.ClassAvailable, types.ClassQuarantined,
	} {
		s.index[c] = make(map[types.NodeID]struct{})
	}
	return s, nil
}

func (s *store) get(id types.NodeID) *PeerRecord {
	return s.records[id]
}

func (s *store) len() int {
	return len(s.records)
}

func (s *store) classify(id types.NodeID) types.Classification {
	if rec, ok := s.records[id]; ok {
		return rec.class
	}
	return types.ClassUnknown
}

func (s *store) put(rec *PeerRecord) {
	id := rec.profile.ID
	s.records[id] = rec
	s.index[rec.class][id] = struct{}{}
}

// insertOrMerge 插入新节点或合并已知节点的档案
//
// 已知节点：仅当 Sequence 更大时替换档案，分类不变。
// 新节点：以 class 分类插入；曾被驱逐的隔离节点恢复隔离。
// 存储已满且没有可驱逐的节点时返回 nil。
func (s *store) insertOrMerge(profile types.PeerProfile, class types.Classification, now time.Time) (*PeerRecord, bool) {
	if rec, ok := s.records[profile.ID]; ok {
		if profile.NewerThan(rec.profile) {
			rec.profile = profile.Clone()
		}
		rec.lastSeen = now
		return rec, false
	}

	if len(s.records) >= s.maxPeers && !s.evictOne() {
		return nil, false
	}

	rec := newPeerRecord(profile, class, now)
	if memo, ok := s.memory.Get(profile.ID); ok {
		s.memory.Remove(profile.ID)
		rec.class = types.ClassQuarantined
		rec.quarantinedAt = memo.at
		rec.quarantines = memo.count
		rec.strikes = memo.strikes
		if n := len(memo.strikes); n > 0 {
			rec.anchor = memo.strikes[n-1].At
		}
	}
	s.put(rec)
	return rec, true
}

// restore 从缓存条目恢复记录，已存在的节点不覆盖
func (s *store) restore(e peercache.Entry, now time.Time) bool {
	id := e.Profile.ID
	if id.IsEmpty() || id == s.self.ID {
		return false
	}
	if _, ok := s.records[id]; ok {
		return false
	}
	if len(s.records) >= s.maxPeers && !s.evictOne() {
		return false
	}
	s.put(recordFromEntry(e, now))
	return true
}

// reindex 在分类变化后更新索引
func (s *store) reindex(rec *PeerRecord, from types.Classification) {
	if rec.class == from {
		return
	}
	id := rec.profile.ID
	delete(s.index[from], id)
	s.index[rec.class][id] = struct{}{}
}

// remove 删除记录，隔离节点写入 memory
func (s *store) remove(id types.NodeID) {
	rec, ok := s.records[id]
	if !ok {
		return
	}
	if rec.class == types.ClassQuarantined {
		s.memory.Add(id, quarantineMemo{
			at:      rec.quarantinedAt,
			count:   rec.quarantines,
			strikes: rec.Strikes(),
		})
	}
	delete(s.index[rec.class], id)
	delete(s.records, id)
}

// evictOne 驱逐最久未出现的 Unknown/Unreachable 节点，
// 没有时驱逐最久未出现的隔离节点。Available 节点不驱逐。
func (s *store) evictOne() bool {
	victim, ok := s.leastRecentlySeen(types.ClassUnknown, types.ClassUnreachable)
	if !ok {
		victim, ok = s.leastRecentlySeen(types.ClassQuarantined)
	}
	if !ok {
		return false
	}
	logger.Debug("存储已满，驱逐节点", "peer", victim.ShortString(), "class", s.classify(victim).String())
	s.remove(victim)
	return true
}

func (s *store) leastRecentlySeen(classes ...types.Classification) (types.NodeID, bool) {
	var (
		victim types.NodeID
		oldest time.Time
		found  bool
	)
	for _, c := range classes {
		for id := range s.index[c] {
			seen := s.records[id].lastSeen
			if !found || seen.Before(oldest) || (seen.Equal(oldest) && id.Compare(victim) < 0) {
				victim, oldest, found = id, seen, true
			}
		}
	}
	return victim, found
}

// evictExpired 驱逐超过保留期未出现的 Unknown/Unreachable 节点
func (s *store) evictExpired(now time.Time) []types.NodeID {
	if s.retention <= 0 {
		return nil
	}
	var evicted []types.NodeID
	for _, c := range []types.Classification{types.ClassUnknown, types.ClassUnreachable} {
		for id := range s.index[c] {
			if now.Sub(s.records[id].lastSeen) >= s.retention {
				evicted = append(evicted, id)
			}
		}
	}
	for _, id := range evicted {
		s.remove(id)
	}
	return evicted
}

// ids 返回指定分类的有序 ID 列表
func (s *store) ids(classes ...types.Classification) []types.NodeID {
	n := 0
	for _, c := range classes {
		n += len(s.index[c])
	}
	out := make([]types.NodeID, 0, n)
	for _, c := range classes {
		start := len(out)
		for id := range s.index[c] {
			out = append(out, id)
		}
		slices.SortFunc(out[start:], types.NodeID.Compare)
	}
	return out
}

// profiles 返回指定分类的有序档案副本
func (s *store) profiles(classes ...types.Classification) []types.PeerProfile {
	ids := s.ids(classes...)
	out := make([]types.PeerProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].profile.Clone())
	}
	return out
}

// all 返回全部记录，按 ID 排序
func (s *store) all() []*PeerRecord {
	out := make([]*PeerRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b *PeerRecord) int {
		return a.profile.ID.Compare(b.profile.ID)
	})
	return out
}

func (s *store) counts() types.NodeCount {
	return types.NodeCount{
		Available:   len(s.index[types.ClassAvailable]),
		Unreachable: len(s.index[types.ClassUnreachable]),
		Quarantined: len(s.index[types.ClassQuarantined]),
	}
}
