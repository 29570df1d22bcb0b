package gossiper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/arc/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-p2ptopology/internal/core/topology"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/wire"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var logger = log.Logger("topology/gossiper")

// RoundStats 一轮 gossip 的统计
type RoundStats struct {
	ID        string
	Targets   int
	Exchanged int
	Failed    int
}

// Option Gossiper 选项
type Option func(*Gossiper)

// WithClock 设置时钟（轮次定时器与入站限流使用）
func WithClock(clk clock.Clock) Option {
	return func(g *Gossiper) {
		if clk != nil {
			g.clock = clk
		}
	}
}

// Gossiper gossip 轮次驱动器
type Gossiper struct {
	topo      interfaces.Topology
	transport interfaces.GossipTransport
	codec     *wire.Codec
	cfg       Config
	clock     clock.Clock

	limMu    sync.Mutex
	limiters *arc.ARCCache[types.NodeID, *rate.Limiter]

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

// New 创建 Gossiper
func New(topo interfaces.Topology, transport interfaces.GossipTransport, cfg Config, opts ...Option) (*Gossiper, error) {
	if topo == nil || transport == nil {
		return nil, fmt.Errorf("%w: topology and transport are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limiters, err := arc.NewARC[types.NodeID, *rate.Limiter](cfg.LimiterCacheSize)
	if err != nil {
		return nil, err
	}

	g := &Gossiper{
		topo:      topo,
		transport: transport,
		codec:     wire.NewCodec(max(cfg.MaxGossipSize, wire.DefaultMaxProfiles)),
		cfg:       cfg,
		clock:     clock.New(),
		limiters:  limiters,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ============================================================================
//                              出站轮次
// ============================================================================

// Round 执行一轮 gossip
//
// 只有拓扑本身的错误（例如已中毒）会作为错误返回，
// 单个交换的失败以惩罚的形式报告给拓扑。
func (g *Gossiper) Round(ctx context.Context) (RoundStats, error) {
	stats := RoundStats{ID: uuid.NewString()}

	targets, err := g.topo.View(types.Selection{Kind: types.SelectAny, Max: g.cfg.Fanout})
	if err != nil {
		return stats, err
	}
	stats.Targets = len(targets)
	if len(targets) == 0 {
		logger.Debug("没有可交换的节点", "round", stats.ID)
		return stats, nil
	}

	var exchanged, failed atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Parallelism)
	for _, target := range targets {
		eg.Go(func() error {
			ok, err := g.exchange(egCtx, stats.ID, target)
			if ok {
				exchanged.Add(1)
			} else {
				failed.Add(1)
			}
			return err
		})
	}
	err = eg.Wait()

	stats.Exchanged = int(exchanged.Load())
	stats.Failed = int(failed.Load())
	logger.Debug("gossip 轮次完成",
		"round", stats.ID,
		"targets", stats.Targets,
		"exchanged", stats.Exchanged,
		"failed", stats.Failed)
	return stats, err
}

// exchange 与单个节点交换 gossip
//
// 返回的错误只来自拓扑本身，交换失败返回 false, nil。
func (g *Gossiper) exchange(ctx context.Context, roundID string, to types.PeerProfile) (bool, error) {
	payload, err := g.topo.InitiateGossip(to.ID)
	if err != nil {
		return false, err
	}
	data, err := g.codec.Encode(payload)
	if err != nil {
		return false, fmt.Errorf("encode gossip: %w", err)
	}

	exCtx, cancel := context.WithTimeout(ctx, g.cfg.ExchangeTimeout)
	reply, err := g.transport.Exchange(exCtx, to, data)
	deadline := errors.Is(exCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			// 轮次本身被取消，不归咎于对端
			return false, nil
		}
		reason := types.StrikeConnectionFailed
		if deadline || errors.Is(err, context.DeadlineExceeded) {
			reason = types.StrikeTimeout
		}
		logger.Debug("gossip 交换失败", "round", roundID, "peer", to.ID.ShortString(), "reason", reason.String(), "error", err)
		return false, g.strike(to.ID, reason)
	}

	decoded, err := g.codec.Decode(reply)
	if err != nil {
		logger.Debug("gossip 回复无效", "round", roundID, "peer", to.ID.ShortString(), "error", err)
		return false, g.strike(to.ID, types.StrikeInvalidGossip)
	}
	if err := g.topo.AcceptGossip(to.ID, decoded); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gossiper) strike(id types.NodeID, reason types.StrikeReason) error {
	report, err := g.topo.ReportStrike(id, reason)
	if err != nil {
		return err
	}
	if report != nil {
		logger.Info("节点因 gossip 失败被隔离", "peer", id.ShortString(), "reason", report.Reason, "to", report.To.String())
	}
	return nil
}

// ============================================================================
//                              入站交换
// ============================================================================

// HandleExchange 处理来自 from 的入站 gossip 并返回回复
func (g *Gossiper) HandleExchange(_ context.Context, from types.NodeID, payload []byte) ([]byte, error) {
	if !g.allow(from) {
		return nil, ErrRateLimited
	}

	decoded, err := g.codec.Decode(payload)
	if err != nil {
		if serr := g.strike(from, types.StrikeInvalidGossip); serr != nil {
			return nil, serr
		}
		return nil, err
	}

	reply, err := g.topo.ExchangeGossip(from, decoded)
	if err != nil {
		return nil, err
	}
	return g.codec.Encode(reply)
}

func (g *Gossiper) allow(from types.NodeID) bool {
	g.limMu.Lock()
	defer g.limMu.Unlock()

	lim, ok := g.limiters.Get(from)
	if !ok {
		lim = rate.NewLimiter(rate.Limit(g.cfg.InboundRate), g.cfg.InboundBurst)
		g.limiters.Add(from, lim)
	}
	return lim.AllowN(g.clock.Now(), 1)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动周期性轮次
func (g *Gossiper) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started.Load() {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	ticker := g.clock.Ticker(g.cfg.Interval)
	g.cancel = cancel
	g.done = make(chan struct{})
	g.started.Store(true)

	go g.loop(ctx, ticker, g.done)
	logger.Info("gossiper 已启动", "interval", g.cfg.Interval, "fanout", g.cfg.Fanout)
	return nil
}

func (g *Gossiper) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := g.Round(ctx); err != nil {
				if errors.Is(err, topology.ErrPoisoned) {
					logger.Error("拓扑不可用，停止 gossip", "error", err)
					return
				}
				if ctx.Err() == nil {
					logger.Warn("gossip 轮次失败", "error", err)
				}
			}
		}
	}
}

// Stop 停止周期性轮次并等待当前轮次结束
func (g *Gossiper) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return
	}
	g.cancel()
	<-g.done
	g.started.Store(false)
	logger.Info("gossiper 已停止")
}

// Running 是否正在运行
func (g *Gossiper) Running() bool {
	return g.started.Load()
}
