package topology

import (
	"fmt"
	"time"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Config Topology 配置
type Config struct {
	// NewPeerClass 首次在 gossip 中出现的节点的分类
	NewPeerClass types.Classification

	// MaxPeers 最多保存的节点记录数
	MaxPeers int

	// RetentionPeriod Unknown/Unreachable 节点的保留期（0 = 永久）
	RetentionPeriod time.Duration

	// QuarantineMemory 记住被驱逐的隔离节点的数量
	QuarantineMemory int

	// MaxGossipSize 单次 gossip 的档案上限
	MaxGossipSize int

	// LayerSize 默认选择层的目标大小
	LayerSize int

	// DefaultLayers RegisterDefaultLayers 注册的层
	DefaultLayers []string

	// Policy 策略配置
	Policy config.PolicyConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建 Topology 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	class := types.ClassUnreachable
	if cfg.Topology.NewPeerClass == config.NewPeerUnknown {
		class = types.ClassUnknown
	}
	return Config{
		NewPeerClass:     class,
		MaxPeers:         cfg.Topology.MaxPeers,
		RetentionPeriod:  cfg.Topology.RetentionPeriod.Duration(),
		QuarantineMemory: cfg.Topology.QuarantineMemory,
		MaxGossipSize:    cfg.Gossip.MaxGossipSize,
		LayerSize:        cfg.Topology.LayerSize,
		DefaultLayers:    append([]string(nil), cfg.Topology.DefaultLayers...),
		Policy:           cfg.Policy,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	switch c.NewPeerClass {
	case types.ClassUnknown, types.ClassUnreachable:
	default:
		return fmt.Errorf("%w: new peer class %s", ErrInvalidConfig, c.NewPeerClass)
	}
	if c.MaxPeers <= 0 || c.QuarantineMemory <= 0 || c.MaxGossipSize <= 0 || c.LayerSize <= 0 {
		return fmt.Errorf("%w: sizes must be positive", ErrInvalidConfig)
	}
	if c.RetentionPeriod < 0 {
		return fmt.Errorf("%w: negative retention period", ErrInvalidConfig)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// WithNewPeerClass 设置新节点分类
func (c Config) WithNewPeerClass(class types.Classification) Config {
	c.NewPeerClass = class
	return c
}

// WithMaxPeers 设置节点记录上限
func (c Config) WithMaxPeers(n int) Config {
	c.MaxPeers = n
	return c
}

// WithRetention 设置保留期
func (c Config) WithRetention(d time.Duration) Config {
	c.RetentionPeriod = d
	return c
}

// WithMaxGossipSize 设置 gossip 档案上限
func (c Config) WithMaxGossipSize(n int) Config {
	c.MaxGossipSize = n
	return c
}

// WithPolicy 设置策略配置
func (c Config) WithPolicy(p config.PolicyConfig) Config {
	c.Policy = p
	return c
}
