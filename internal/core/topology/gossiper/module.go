package gossiper

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
)

// Params Gossiper 模块依赖参数
type Params struct {
	fx.In

	Topology   interfaces.Topology
	Transport  interfaces.GossipTransport
	UnifiedCfg *config.Config `optional:"true"`
}

// Output Gossiper 模块输出
type Output struct {
	fx.Out

	Gossiper *Gossiper
	Handler  Handler
}

// Module 返回 Gossiper Fx 模块
//
// 提供:
//   - *Gossiper: gossip 轮次驱动器
//   - Handler: 入站交换处理器（供传输层注册）
//
// 生命周期:
//   - OnStart: 启动轮次循环
//   - OnStop: 停止轮次循环
//
// 依赖 interfaces.GossipTransport，由调用方提供。
func Module() fx.Option {
	return fx.Module("gossiper",
		fx.Provide(ProvideGossiper),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideGossiper 创建 Gossiper
func ProvideGossiper(p Params) (Output, error) {
	g, err := New(p.Topology, p.Transport, ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return Output{}, err
	}
	return Output{Gossiper: g, Handler: g}, nil
}

func registerLifecycle(lc fx.Lifecycle, g *Gossiper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// 启动 context 在 OnStart 返回后即失效，循环使用独立 context
			return g.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			g.Stop()
			return nil
		},
	})
}
