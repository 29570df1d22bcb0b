package topology

import (
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// InitiateGossip 构造发往 to 的 gossip
//
// 本地档案在首位，然后依次是各层推荐的节点、Available 节点、
// Unreachable 节点、Unknown 节点。不包含 to 和隔离节点，最多 MaxGossipSize 条。
func (t *Topology) InitiateGossip(to types.NodeID) (*types.Gossips, error) {
	var g *types.Gossips
	err := t.write("initiate gossip", func() error {
		g = t.initiate(to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// AcceptGossip 合并来自 from 的 gossip
//
// 来自本地节点的 gossip 被忽略，来自隔离节点的 gossip 被丢弃。
// 收到 gossip 视为与发送方的一次直接联系。
func (t *Topology) AcceptGossip(from types.NodeID, gossips *types.Gossips) error {
	return t.write("accept gossip", func() error {
		t.accept(from, gossips)
		return nil
	})
}

// ExchangeGossip 在同一临界区内合并 gossip 并构造回复
func (t *Topology) ExchangeGossip(with types.NodeID, gossips *types.Gossips) (*types.Gossips, error) {
	var reply *types.Gossips
	err := t.write("exchange gossip", func() error {
		t.accept(with, gossips)
		reply = t.initiate(with)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (t *Topology) initiate(to types.NodeID) *types.Gossips {
	limit := t.cfg.MaxGossipSize
	out := make([]types.PeerProfile, 0, limit)
	out = append(out, t.self.Clone())

	seen := map[types.NodeID]struct{}{t.self.ID: {}, to: {}}
	add := func(id types.NodeID) {
		if len(out) >= limit {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		rec := t.store.get(id)
		if rec == nil || rec.class == types.ClassQuarantined {
			return
		}
		seen[id] = struct{}{}
		out = append(out, rec.profile.Clone())
	}

	view := storeView{t.store}
	for _, layer := range t.layers {
		if g, ok := layer.(interfaces.LayerGossiper); ok {
			for _, id := range g.Gossip(view, to) {
				add(id)
			}
		}
	}
	for _, id := range t.store.ids(types.ClassAvailable, types.ClassUnreachable, types.ClassUnknown) {
		if len(out) >= limit {
			break
		}
		add(id)
	}
	return &types.Gossips{Profiles: out}
}

func (t *Topology) accept(from types.NodeID, gossips *types.Gossips) {
	if from == t.self.ID {
		return
	}
	if sender := t.store.get(from); sender != nil && sender.class == types.ClassQuarantined {
		t.metrics.observeDropped()
		logger.Debug("丢弃隔离节点的 gossip", "peer", from.ShortString())
		return
	}

	now := t.clock.Now()
	var updated []types.NodeID
	for i, p := range gossipProfiles(gossips) {
		if i >= t.cfg.MaxGossipSize {
			break
		}
		if p.ID.IsEmpty() || p.ID == t.self.ID {
			continue
		}
		if rec, _ := t.store.insertOrMerge(p, t.cfg.NewPeerClass, now); rec != nil {
			updated = append(updated, p.ID)
		}
	}
	t.metrics.observeAccepted(len(updated))

	if sender := t.store.get(from); sender != nil {
		prev := sender.class
		t.applyReport(sender, prev, t.policy.Contact(sender))
	}

	if len(updated) == 0 {
		return
	}
	view := storeView{t.store}
	for _, layer := range t.layers {
		if p, ok := layer.(interfaces.LayerPopulator); ok {
			p.Populate(view, updated)
		}
	}
}

func gossipProfiles(g *types.Gossips) []types.PeerProfile {
	if g == nil {
		return nil
	}
	return g.Profiles
}
