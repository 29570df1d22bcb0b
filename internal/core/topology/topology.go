package topology

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/layers/cyclon"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/layers/rings"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/layers/vicinity"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/policy"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var logger = log.Logger("core/topology")

var _ interfaces.Topology = (*Topology)(nil)

// Topology 拓扑协调器
//
// 所有操作在同一把锁下执行（Node 除外）。临界区内的 panic 会让
// 拓扑进入中毒状态，之后的所有操作都返回 ErrPoisoned。
type Topology struct {
	mu sync.RWMutex

	self  types.PeerProfile
	cfg   Config
	clock clock.Clock

	store  *store
	layers []interfaces.Layer
	policy interfaces.Policy

	policyFactory PolicyFactory
	metrics       *Metrics
	seeds         []peercache.Entry

	poisoned atomic.Bool
}

// New 创建拓扑协调器
func New(self types.PeerProfile, cfg Config, opts ...Option) (*Topology, error) {
	if self.ID.IsEmpty() {
		return nil, ErrEmptySelf
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Topology{
		self:          self.Clone(),
		cfg:           cfg,
		clock:         clock.New(),
		policyFactory: policy.Factory,
	}
	for _, opt := range opts {
		opt(t)
	}

	s, err := newStore(t.self, cfg.MaxPeers, cfg.RetentionPeriod, cfg.QuarantineMemory)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	t.store = s

	t.policy = t.policyFactory(cfg.Policy, t.clock)
	if t.policy == nil {
		return nil, ErrNoPolicy
	}

	now := t.clock.Now()
	restored := 0
	for _, e := range t.seeds {
		if s.restore(e.Restored(), now) {
			restored++
		}
	}
	t.seeds = nil
	if restored > 0 {
		logger.Info("已恢复节点记录", "count", restored)
	}
	return t, nil
}

// ============================================================================
//                              锁与中毒处理
// ============================================================================

func (t *Topology) write(op string, fn func() error) (err error) {
	if t.poisoned.Load() {
		return fmt.Errorf("%s: %w", op, ErrPoisoned)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.guarded(op, fn)
}

func (t *Topology) read(op string, fn func() error) (err error) {
	if t.poisoned.Load() {
		return fmt.Errorf("%s: %w", op, ErrPoisoned)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.guarded(op, fn)
}

func (t *Topology) guarded(op string, fn func() error) (err error) {
	if t.poisoned.Load() {
		return fmt.Errorf("%s: %w", op, ErrPoisoned)
	}
	defer func() {
		if r := recover(); r != nil {
			t.poisoned.Store(true)
			logger.Error("临界区发生 panic，拓扑已不可用", "op", op, "panic", r)
			err = fmt.Errorf("%s: %w: %v", op, ErrPoisoned, r)
		}
	}()
	return fn()
}

// Poisoned 是否已中毒
func (t *Topology) Poisoned() bool {
	return t.poisoned.Load()
}

// ============================================================================
//                              配置
// ============================================================================

// Node 返回本地节点档案
func (t *Topology) Node() types.PeerProfile {
	return t.self.Clone()
}

// RegisterLayer 注册选择层
//
// 层按注册顺序参与视图合并。实现 LayerPopulator 的层会立即
// 收到当前可联系的节点。
func (t *Topology) RegisterLayer(layer interfaces.Layer) error {
	if layer == nil {
		return ErrNilLayer
	}
	return t.write("register layer", func() error {
		alias := layer.Alias()
		for _, l := range t.layers {
			if l.Alias() == alias {
				return fmt.Errorf("%w: %s", ErrDuplicateLayer, alias)
			}
		}
		t.layers = append(t.layers, layer)
		if p, ok := layer.(interfaces.LayerPopulator); ok {
			p.Populate(storeView{t.store}, t.store.ids(types.ClassAvailable, types.ClassUnreachable, types.ClassUnknown))
		}
		logger.Info("注册拓扑层", "alias", alias, "layers", len(t.layers))
		return nil
	})
}

// RegisterDefaultLayers 按配置注册默认选择层
func (t *Topology) RegisterDefaultLayers() error {
	for _, name := range t.cfg.DefaultLayers {
		var layer interfaces.Layer
		switch name {
		case config.LayerRings:
			layer = rings.New(t.cfg.LayerSize)
		case config.LayerVicinity:
			layer = vicinity.New(t.cfg.LayerSize)
		case config.LayerCyclon:
			layer = cyclon.New(t.cfg.LayerSize)
		default:
			return fmt.Errorf("%w: unknown layer %q", ErrInvalidConfig, name)
		}
		if err := t.RegisterLayer(layer); err != nil {
			return err
		}
	}
	return nil
}

// Layers 返回已注册层的别名
func (t *Topology) Layers() ([]string, error) {
	var out []string
	err := t.read("layers", func() error {
		for _, l := range t.layers {
			out = append(out, l.Alias())
		}
		return nil
	})
	return out, err
}

// SetPolicy 替换策略引擎，已有分类保持不变
func (t *Topology) SetPolicy(cfg config.PolicyConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return t.write("set policy", func() error {
		p := t.policyFactory(cfg, t.clock)
		if p == nil {
			return ErrNoPolicy
		}
		t.policy = p
		t.cfg.Policy = cfg
		logger.Info("策略已更新", "maxStrikes", cfg.MaxStrikes, "decay", cfg.DecayMode)
		return nil
	})
}

// ============================================================================
//                              视图
// ============================================================================

// View 返回选择层合并后的节点视图
//
// 先执行策略衰减与保留期驱逐，再按注册顺序合并各层结果并去重。
// 结果不包含本地节点、存储中不存在的节点和隔离节点。没有注册层时返回所有
// 可联系节点。
func (t *Topology) View(sel types.Selection) ([]types.PeerProfile, error) {
	var out []types.PeerProfile
	err := t.write("view", func() error {
		t.checkAll()

		if len(t.layers) == 0 {
			out = t.fallbackView(sel)
			return nil
		}

		view := storeView{t.store}
		seen := make(map[types.NodeID]struct{})
		for _, layer := range t.layers {
			for _, id := range layer.Select(view, sel) {
				if sel.Max > 0 && len(out) >= sel.Max {
					return nil
				}
				if _, dup := seen[id]; dup || id == t.self.ID {
					continue
				}
				seen[id] = struct{}{}
				rec := t.store.get(id)
				if rec == nil || rec.class == types.ClassQuarantined {
					continue
				}
				out = append(out, rec.profile.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Topology) fallbackView(sel types.Selection) []types.PeerProfile {
	var out []types.PeerProfile
	view := storeView{t.store}
	for _, p := range view.Contactable() {
		if sel.Kind == types.SelectTopic && !p.HasCapability(sel.Topic) {
			continue
		}
		out = append(out, p)
		if sel.Max > 0 && len(out) >= sel.Max {
			break
		}
	}
	return out
}

// checkAll 对所有记录执行策略检查并驱逐过期节点
func (t *Topology) checkAll() {
	for _, rec := range t.store.all() {
		from := rec.class
		t.applyReport(rec, from, t.policy.Check(rec))
	}
	if evicted := t.store.evictExpired(t.clock.Now()); len(evicted) > 0 {
		logger.Debug("驱逐过期节点", "count", len(evicted))
	}
}

// applyReport 更新索引并记录策略报告
func (t *Topology) applyReport(rec *PeerRecord, from types.Classification, r *types.PolicyReport) {
	t.store.reindex(rec, from)
	if r == nil {
		return
	}
	t.metrics.observeReport(r)
	logger.Info("节点分类变更",
		"peer", r.ID.ShortString(),
		"from", r.From.String(),
		"to", r.To.String(),
		"reason", r.Reason,
		"strikes", r.Strikes)
}

// ============================================================================
//                              惩罚
// ============================================================================

// ReportStrike 报告一次节点惩罚
//
// 未知节点返回 nil, nil。仅在分类发生转换时返回报告。
func (t *Topology) ReportStrike(id types.NodeID, reason types.StrikeReason) (*types.PolicyReport, error) {
	var report *types.PolicyReport
	err := t.write("report strike", func() error {
		rec := t.store.get(id)
		if rec == nil {
			return nil
		}
		from := rec.class
		report = t.policy.Strike(rec, reason)
		t.metrics.observeStrike(reason)
		t.applyReport(rec, from, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ============================================================================
//                              查询
// ============================================================================

// NodeCounts 返回各分类的节点数
func (t *Topology) NodeCounts() (types.NodeCount, error) {
	var counts types.NodeCount
	err := t.write("node counts", func() error {
		counts = t.store.counts()
		return nil
	})
	return counts, err
}

// ListAvailable 返回所有 Available 节点（按 ID 排序）
func (t *Topology) ListAvailable() ([]types.PeerProfile, error) {
	return t.list("list available", types.ClassAvailable)
}

// ListUnreachable 返回所有 Unreachable 节点（按 ID 排序）
func (t *Topology) ListUnreachable() ([]types.PeerProfile, error) {
	return t.list("list unreachable", types.ClassUnreachable)
}

// ListQuarantined 返回所有隔离节点（按 ID 排序）
func (t *Topology) ListQuarantined() ([]types.PeerProfile, error) {
	return t.list("list quarantined", types.ClassQuarantined)
}

func (t *Topology) list(op string, class types.Classification) ([]types.PeerProfile, error) {
	var out []types.PeerProfile
	err := t.write(op, func() error {
		out = t.store.profiles(class)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Classify 返回节点分类，未知节点为 ClassUnknown
func (t *Topology) Classify(id types.NodeID) (types.Classification, error) {
	class := types.ClassUnknown
	err := t.read("classify", func() error {
		class = t.store.classify(id)
		return nil
	})
	return class, err
}

// Export 导出所有记录，用于持久化
func (t *Topology) Export() ([]peercache.Entry, error) {
	var out []peercache.Entry
	err := t.read("export", func() error {
		for _, rec := range t.store.all() {
			out = append(out, rec.entry())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForceResetLayers 重置所有选择层并用当前可联系节点重新填充
func (t *Topology) ForceResetLayers() error {
	return t.write("force reset layers", func() error {
		view := storeView{t.store}
		ids := t.store.ids(types.ClassAvailable, types.ClassUnreachable, types.ClassUnknown)
		for _, layer := range t.layers {
			layer.Reset()
			if p, ok := layer.(interfaces.LayerPopulator); ok {
				p.Populate(view, ids)
			}
		}
		logger.Info("选择层已重置", "layers", len(t.layers), "peers", len(ids))
		return nil
	})
}
