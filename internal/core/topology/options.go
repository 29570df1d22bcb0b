package topology

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
)

// PolicyFactory 根据配置创建策略引擎
type PolicyFactory func(cfg config.PolicyConfig, clk clock.Clock) interfaces.Policy

// Option Topology 选项
type Option func(*Topology)

// WithClock 设置时钟（测试使用 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(t *Topology) {
		if clk != nil {
			t.clock = clk
		}
	}
}

// WithPolicyFactory 设置策略工厂，SetPolicy 也使用它
func WithPolicyFactory(f PolicyFactory) Option {
	return func(t *Topology) {
		if f != nil {
			t.policyFactory = f
		}
	}
}

// WithSeeds 启动时恢复的节点条目
func WithSeeds(entries []peercache.Entry) Option {
	return func(t *Topology) {
		t.seeds = append(t.seeds, entries...)
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(t *Topology) {
		t.metrics = m
	}
}
