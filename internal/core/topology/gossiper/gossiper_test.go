package gossiper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-p2ptopology/internal/core/topology"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/wire"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

func init() {
	log.Discard()
}

// ============================================================================
//                              测试辅助
// ============================================================================

func profile(seed string) types.PeerProfile {
	return types.PeerProfile{
		ID:       types.DeriveNodeID([]byte(seed)),
		Address:  seed + ".example:9000",
		Sequence: 1,
	}
}

// node 测试节点
type node struct {
	self types.PeerProfile
	topo *topology.Topology
	g    *Gossiper
}

func newNode(t *testing.T, net *MemoryNetwork, seed string, cfg Config, knows ...types.PeerProfile) *node {
	t.Helper()
	seeds := make([]peercache.Entry, 0, len(knows))
	for _, p := range knows {
		seeds = append(seeds, peercache.Entry{Profile: p, Classification: types.ClassUnreachable})
	}

	self := profile(seed)
	topo, err := topology.New(self, topology.DefaultConfig(), topology.WithSeeds(seeds))
	require.NoError(t, err)

	g, err := New(topo, net.Transport(self.ID), cfg)
	require.NoError(t, err)
	net.Register(self.ID, g)
	return &node{self: self, topo: topo, g: g}
}

func testConfig() Config {
	return DefaultConfig().WithExchangeTimeout(50 * time.Millisecond)
}

func strikesOf(t *testing.T, topo *topology.Topology, id types.NodeID) int {
	t.Helper()
	entries, err := topo.Export()
	require.NoError(t, err)
	for _, e := range entries {
		if e.Profile.ID == id {
			return len(e.Strikes)
		}
	}
	return 0
}

func classOf(t *testing.T, topo *topology.Topology, id types.NodeID) types.Classification {
	t.Helper()
	class, err := topo.Classify(id)
	require.NoError(t, err)
	return class
}

// transportFunc 函数形式的传输
type transportFunc func(ctx context.Context, to types.PeerProfile, payload []byte) ([]byte, error)

func (f transportFunc) Exchange(ctx context.Context, to types.PeerProfile, payload []byte) ([]byte, error) {
	return f(ctx, to, payload)
}

// panicLayer 选择时 panic 的层
type panicLayer struct{}

func (panicLayer) Alias() string { return "panic" }
func (panicLayer) Reset()        {}
func (panicLayer) Select(interfaces.StoreView, types.Selection) []types.NodeID {
	panic("select exploded")
}

// ============================================================================
//                              构造
// ============================================================================

func TestNew_Validation(t *testing.T) {
	net := NewMemoryNetwork()
	topo, err := topology.New(profile("self"), topology.DefaultConfig())
	require.NoError(t, err)

	_, err = New(nil, net.Transport(topo.Node().ID), DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(topo, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.Fanout = 0
	_, err = New(topo, net.Transport(topo.Node().ID), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(topo, net.Transport(topo.Node().ID), DefaultConfig().WithInbound(0, 1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// ============================================================================
//                              出站轮次
// ============================================================================

func TestRound_NoTargets(t *testing.T) {
	net := NewMemoryNetwork()
	a := newNode(t, net, "a", testConfig())

	stats, err := a.g.Round(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, stats.ID)
	assert.Zero(t, stats.Targets)
}

func TestRound_ExchangeMakesBothAvailable(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	a := newNode(t, net, "a", testConfig(), b.self)

	stats, err := a.g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Targets)
	assert.Equal(t, 1, stats.Exchanged)
	assert.Zero(t, stats.Failed)

	assert.Equal(t, types.ClassAvailable, classOf(t, a.topo, b.self.ID))
	assert.Equal(t, types.ClassAvailable, classOf(t, b.topo, a.self.ID))
}

func TestRound_SpreadsProfiles(t *testing.T) {
	net := NewMemoryNetwork()
	c := newNode(t, net, "c", testConfig())
	b := newNode(t, net, "b", testConfig(), c.self)
	a := newNode(t, net, "a", testConfig(), b.self)

	_, err := a.g.Round(context.Background())
	require.NoError(t, err)

	// a 从 b 的回复中得知 c
	assert.NotEqual(t, types.ClassUnknown, classOf(t, a.topo, c.self.ID))
}

func TestRound_DownPeerQuarantined(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	a := newNode(t, net, "a", testConfig(), b.self)
	net.SetDown(b.self.ID, true)

	stats, err := a.g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, strikesOf(t, a.topo, b.self.ID))

	for i := 0; i < 2; i++ {
		_, err = a.g.Round(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, types.ClassQuarantined, classOf(t, a.topo, b.self.ID))

	// 隔离后不再被选为目标
	stats, err = a.g.Round(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Targets)
}

func TestRound_TimeoutStrike(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	a := newNode(t, net, "a", DefaultConfig().WithExchangeTimeout(10*time.Millisecond), b.self)
	net.SetBlackhole(b.self.ID, true)

	stats, err := a.g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)

	entries, err := a.topo.Export()
	require.NoError(t, err)
	var reasons []types.StrikeReason
	for _, e := range entries {
		if e.Profile.ID == b.self.ID {
			for _, s := range e.Strikes {
				reasons = append(reasons, s.Reason)
			}
		}
	}
	assert.Equal(t, []types.StrikeReason{types.StrikeTimeout}, reasons)
}

func newMockedGossiper(t *testing.T, knows ...types.PeerProfile) (*Gossiper, *topology.Topology, *MockGossipTransport) {
	t.Helper()
	seeds := make([]peercache.Entry, 0, len(knows))
	for _, p := range knows {
		seeds = append(seeds, peercache.Entry{Profile: p, Classification: types.ClassUnreachable})
	}
	topo, err := topology.New(profile("a"), topology.DefaultConfig(), topology.WithSeeds(seeds))
	require.NoError(t, err)

	transport := NewMockGossipTransport(gomock.NewController(t))
	g, err := New(topo, transport, testConfig())
	require.NoError(t, err)
	return g, topo, transport
}

func TestRound_InvalidReplyStrike(t *testing.T) {
	b := profile("b")
	g, topo, transport := newMockedGossiper(t, b)
	transport.EXPECT().
		Exchange(gomock.Any(), b, gomock.Any()).
		Return([]byte{0xff, 0xff}, nil)

	stats, err := g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, strikesOf(t, topo, b.ID))
	assert.Equal(t, types.ClassUnreachable, classOf(t, topo, b.ID))
}

func TestRound_ConnectionFailedStrike(t *testing.T) {
	b := profile("b")
	g, topo, transport := newMockedGossiper(t, b)
	transport.EXPECT().
		Exchange(gomock.Any(), b, gomock.Any()).
		Return(nil, errors.New("connection refused")).
		Times(1)

	_, err := g.Round(context.Background())
	require.NoError(t, err)

	entries, err := topo.Export()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Strikes, 1)
	assert.Equal(t, types.StrikeConnectionFailed, entries[0].Strikes[0].Reason)
}

func TestRound_SendsDecodablePayload(t *testing.T) {
	b := profile("b")
	g, _, transport := newMockedGossiper(t, b)
	codec := wire.NewCodec(0)
	transport.EXPECT().
		Exchange(gomock.Any(), b, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ types.PeerProfile, payload []byte) ([]byte, error) {
			decoded, err := codec.Decode(payload)
			require.NoError(t, err)
			require.NotZero(t, decoded.Len())
			assert.Equal(t, profile("a").ID, decoded.Profiles[0].ID)
			return codec.Encode(&types.Gossips{Profiles: []types.PeerProfile{b}})
		})

	stats, err := g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Exchanged)
}

func TestRound_CancelledContextNoStrike(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	a := newNode(t, net, "a", testConfig(), b.self)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := a.g.Round(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, strikesOf(t, a.topo, b.self.ID))
}

func TestRound_RespectsParallelism(t *testing.T) {
	var peers []types.PeerProfile
	var seeds []peercache.Entry
	for _, s := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		p := profile(s)
		peers = append(peers, p)
		seeds = append(seeds, peercache.Entry{Profile: p, Classification: types.ClassUnreachable})
	}
	topo, err := topology.New(profile("a"), topology.DefaultConfig(), topology.WithSeeds(seeds))
	require.NoError(t, err)

	var inflight, peak atomic.Int32
	slow := transportFunc(func(context.Context, types.PeerProfile, []byte) ([]byte, error) {
		n := inflight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return nil, errors.New("refused")
	})

	cfg := testConfig()
	cfg.Fanout = len(peers)
	cfg.Parallelism = 2
	g, err := New(topo, slow, cfg)
	require.NoError(t, err)

	stats, err := g.Round(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(peers), stats.Targets)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRound_PoisonedTopology(t *testing.T) {
	b := profile("b")
	topo, err := topology.New(profile("a"), topology.DefaultConfig(),
		topology.WithSeeds([]peercache.Entry{{Profile: b, Classification: types.ClassUnreachable}}))
	require.NoError(t, err)
	require.NoError(t, topo.RegisterLayer(&panicLayer{}))

	g, err := New(topo, NewMemoryNetwork().Transport(topo.Node().ID), testConfig())
	require.NoError(t, err)

	_, err = g.Round(context.Background())
	assert.ErrorIs(t, err, topology.ErrPoisoned)
}

// ============================================================================
//                              入站交换
// ============================================================================

func TestHandleExchange_RateLimited(t *testing.T) {
	mock := clock.NewMock()
	net := NewMemoryNetwork()
	self := profile("self")
	topo, err := topology.New(self, topology.DefaultConfig())
	require.NoError(t, err)
	g, err := New(topo, net.Transport(self.ID), testConfig().WithInbound(1, 2), WithClock(mock))
	require.NoError(t, err)

	sender := profile("sender")
	payload, err := wire.NewCodec(0).Encode(&types.Gossips{Profiles: []types.PeerProfile{sender}})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := g.HandleExchange(context.Background(), sender.ID, payload)
		require.NoError(t, err)
	}
	_, err = g.HandleExchange(context.Background(), sender.ID, payload)
	assert.ErrorIs(t, err, ErrRateLimited)

	// 其他发送方不受影响
	other := profile("other")
	otherPayload, err := wire.NewCodec(0).Encode(&types.Gossips{Profiles: []types.PeerProfile{other}})
	require.NoError(t, err)
	_, err = g.HandleExchange(context.Background(), other.ID, otherPayload)
	assert.NoError(t, err)

	mock.Add(time.Second)
	_, err = g.HandleExchange(context.Background(), sender.ID, payload)
	assert.NoError(t, err)
}

func TestHandleExchange_ReplyIncludesSelf(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	sender := profile("sender")

	codec := wire.NewCodec(0)
	payload, err := codec.Encode(&types.Gossips{Profiles: []types.PeerProfile{sender}})
	require.NoError(t, err)

	reply, err := b.g.HandleExchange(context.Background(), sender.ID, payload)
	require.NoError(t, err)

	decoded, err := codec.Decode(reply)
	require.NoError(t, err)
	require.NotZero(t, decoded.Len())
	assert.Equal(t, b.self.ID, decoded.Profiles[0].ID)
	assert.Equal(t, types.ClassAvailable, classOf(t, b.topo, sender.ID))
}

func TestHandleExchange_MalformedStrikesSender(t *testing.T) {
	net := NewMemoryNetwork()
	sender := profile("sender")
	b := newNode(t, net, "b", testConfig(), sender)

	_, err := b.g.HandleExchange(context.Background(), sender.ID, []byte{0xff})
	assert.ErrorIs(t, err, wire.ErrMalformed)
	assert.Equal(t, 1, strikesOf(t, b.topo, sender.ID))
}

// ============================================================================
//                              生命周期
// ============================================================================

func TestStartStop(t *testing.T) {
	mock := clock.NewMock()
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())

	self := profile("a")
	topo, err := topology.New(self, topology.DefaultConfig(),
		topology.WithSeeds([]peercache.Entry{{Profile: b.self, Classification: types.ClassUnreachable}}))
	require.NoError(t, err)
	g, err := New(topo, net.Transport(self.ID), testConfig(), WithClock(mock))
	require.NoError(t, err)

	require.NoError(t, g.Start(context.Background()))
	assert.ErrorIs(t, g.Start(context.Background()), ErrAlreadyStarted)
	assert.True(t, g.Running())

	mock.Add(g.cfg.Interval)
	assert.Eventually(t, func() bool {
		class, err := topo.Classify(b.self.ID)
		return err == nil && class == types.ClassAvailable
	}, time.Second, 5*time.Millisecond)

	g.Stop()
	assert.False(t, g.Running())
	g.Stop()
}

// ============================================================================
//                              MemoryNetwork
// ============================================================================

func TestMemoryNetwork(t *testing.T) {
	net := NewMemoryNetwork()
	b := newNode(t, net, "b", testConfig())
	tr := net.Transport(profile("a").ID)

	_, err := tr.Exchange(context.Background(), profile("missing"), nil)
	assert.ErrorIs(t, err, ErrUnreachable)

	net.SetDown(b.self.ID, true)
	_, err = tr.Exchange(context.Background(), b.self, nil)
	assert.ErrorIs(t, err, ErrUnreachable)

	net.SetDown(b.self.ID, false)
	net.SetBlackhole(b.self.ID, true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Exchange(ctx, b.self, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	net.Unregister(b.self.ID)
	_, err = tr.Exchange(context.Background(), b.self, nil)
	assert.ErrorIs(t, err, ErrUnreachable)
}
