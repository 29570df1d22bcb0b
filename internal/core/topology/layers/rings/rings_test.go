package rings

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// fakeView 测试用存储视图
type fakeView struct {
	self  types.PeerProfile
	peers map[types.NodeID]types.PeerProfile
	class map[types.NodeID]types.Classification
}

func newFakeView(self types.NodeID, ids ...types.NodeID) *fakeView {
	v := &fakeView{
		self:  types.PeerProfile{ID: self},
		peers: make(map[types.NodeID]types.PeerProfile),
		class: make(map[types.NodeID]types.Classification),
	}
	for _, id := range ids {
		v.peers[id] = types.PeerProfile{ID: id}
		v.class[id] = types.ClassAvailable
	}
	return v
}

func (v *fakeView) Self() types.PeerProfile { return v.self }
func (v *fakeView) Profile(id types.NodeID) (types.PeerProfile, bool) {
	p, ok := v.peers[id]
	return p, ok
}
func (v *fakeView) Classify(id types.NodeID) types.Classification { return v.class[id] }
func (v *fakeView) Contactable() []types.PeerProfile {
	var out []types.PeerProfile
	for id, p := range v.peers {
		if v.class[id] != types.ClassQuarantined {
			out = append(out, p)
		}
	}
	return out
}
func (v *fakeView) Available() []types.PeerProfile   { return v.Contactable() }
func (v *fakeView) Unreachable() []types.PeerProfile { return nil }
func (v *fakeView) Len() int                         { return len(v.peers) }

func id(b byte) types.NodeID {
	var n types.NodeID
	n[0] = b
	return n
}

func TestSelect_Neighbours(t *testing.T) {
	v := newFakeView(id(50), id(10), id(20), id(40), id(60), id(70), id(90))
	l := New(2)

	got := l.Select(v, types.SelectAnyPeers())
	// 后继与前驱交替
	assert.Equal(t, []types.NodeID{id(60), id(40), id(70), id(20)}, got)
}

func TestSelect_WrapsAround(t *testing.T) {
	v := newFakeView(id(95), id(10), id(20), id(90))
	l := New(1)

	got := l.Select(v, types.SelectAnyPeers())
	assert.Equal(t, []types.NodeID{id(10), id(90)}, got)
}

func TestSelect_SkipsQuarantinedAndEvicted(t *testing.T) {
	v := newFakeView(id(50), id(40), id(60), id(70))
	l := New(1)
	require.Len(t, l.Select(v, types.SelectAnyPeers()), 2)

	v.class[id(60)] = types.ClassQuarantined
	delete(v.peers, id(40))

	got := l.Select(v, types.SelectAnyPeers())
	assert.Equal(t, []types.NodeID{id(70)}, got)
}

func TestSelect_Topic(t *testing.T) {
	v := newFakeView(id(50), id(40), id(60))
	v.peers[id(40)] = types.PeerProfile{ID: id(40), Capabilities: []string{"blocks"}}

	got := New(2).Select(v, types.SelectTopicPeers("blocks"))
	assert.Equal(t, []types.NodeID{id(40)}, got)
}

func TestPopulateAndReset(t *testing.T) {
	v := newFakeView(id(50), id(40))
	l := New(2)
	l.Select(v, types.SelectAnyPeers())

	v.peers[id(60)] = types.PeerProfile{ID: id(60)}
	v.class[id(60)] = types.ClassUnreachable
	l.Populate(v, []types.NodeID{id(60), id(60)})
	assert.True(t, slices.Contains(l.Select(v, types.SelectAnyPeers()), id(60)))

	l.Reset()
	assert.Empty(t, l.ring)
	assert.Len(t, l.Select(v, types.SelectAnyPeers()), 2)
}

func TestGossip_ExcludesSelfAndTarget(t *testing.T) {
	v := newFakeView(id(50), id(40), id(60), id(70))
	l := New(2)

	got := l.Gossip(v, id(60))
	assert.NotContains(t, got, id(60))
	assert.NotContains(t, got, id(50))
	assert.Contains(t, got, id(70))
}

func TestNeighbours_Small(t *testing.T) {
	assert.Nil(t, neighbours(nil, id(1), 3))
	assert.Equal(t, []types.NodeID{id(2)}, neighbours([]types.NodeID{id(1), id(2)}, id(1), 3))
}
