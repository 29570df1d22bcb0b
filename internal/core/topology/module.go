package topology

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Params Topology 模块依赖参数
type Params struct {
	fx.In

	Self       types.PeerProfile
	UnifiedCfg *config.Config        `optional:"true"`
	Engine     engine.Engine         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Output Topology 模块输出
type Output struct {
	fx.Out

	Topology  *Topology
	Interface interfaces.Topology
	Cache     *peercache.Cache
}

// Module 返回 Topology Fx 模块
//
// 提供:
//   - *Topology / interfaces.Topology: 拓扑协调器
//   - *peercache.Cache: 节点缓存（没有存储引擎时为 nil）
//
// 生命周期:
//   - OnStop: 保存节点缓存
//
// 存储引擎需在本模块之前停止之后关闭，因此 storage.Module() 应放在前面。
func Module() fx.Option {
	return fx.Module("topology",
		fx.Provide(ProvideTopology),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTopology 创建拓扑协调器
//
// 先恢复节点缓存，再加入配置中的已知节点，最后注册默认选择层。
func ProvideTopology(p Params) (Output, error) {
	unified := p.UnifiedCfg
	if unified == nil {
		unified = config.NewConfig()
	}
	cfg := ConfigFromUnified(unified)

	var (
		opts  []Option
		cache *peercache.Cache
	)
	if p.Engine != nil {
		cache = peercache.New(p.Engine)
		entries, err := cache.Load()
		if err != nil {
			logger.Warn("加载节点缓存失败", "error", err)
		}
		opts = append(opts, WithSeeds(entries))
	}

	known, err := config.ParseKnownPeers(unified.KnownPeers)
	if err != nil {
		return Output{}, fmt.Errorf("topology: known peers: %w", err)
	}
	opts = append(opts, WithSeeds(knownPeerEntries(known)))

	var metrics *Metrics
	if unified.Metrics.Enabled && p.Registerer != nil {
		metrics = NewMetrics(unified.Metrics.Namespace)
		if err := metrics.Register(p.Registerer); err != nil {
			return Output{}, fmt.Errorf("topology: register metrics: %w", err)
		}
		opts = append(opts, WithMetrics(metrics))
	}

	t, err := New(p.Self, cfg, opts...)
	if err != nil {
		return Output{}, err
	}
	if metrics != nil {
		if err := p.Registerer.Register(NewCollector(t, unified.Metrics.Namespace)); err != nil {
			return Output{}, fmt.Errorf("topology: register collector: %w", err)
		}
	}
	if err := t.RegisterDefaultLayers(); err != nil {
		return Output{}, err
	}

	return Output{
		Topology:  t,
		Interface: t,
		Cache:     cache,
	}, nil
}

func knownPeerEntries(profiles []types.PeerProfile) []peercache.Entry {
	entries := make([]peercache.Entry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, peercache.Entry{
			Profile:        p,
			Classification: types.ClassUnreachable,
		})
	}
	return entries
}

type lifecycleInput struct {
	fx.In

	LC       fx.Lifecycle
	Topology *Topology
	Cache    *peercache.Cache
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			counts, err := in.Topology.NodeCounts()
			if err != nil {
				return err
			}
			logger.Info("拓扑已启动",
				"node", in.Topology.Node().ID.ShortString(),
				"available", counts.Available,
				"unreachable", counts.Unreachable,
				"quarantined", counts.Quarantined)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if in.Cache == nil {
				return nil
			}
			entries, err := in.Topology.Export()
			if err != nil {
				logger.Warn("导出节点记录失败", "error", err)
				return nil
			}
			if err := in.Cache.Save(entries); err != nil {
				logger.Warn("保存节点缓存失败", "error", err)
				return err
			}
			logger.Info("节点缓存已保存", "entries", len(entries))
			return nil
		},
	})
}
