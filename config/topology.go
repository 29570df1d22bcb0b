package config

import (
	"errors"
	"fmt"
	"time"
)

// 新节点的初始分类
const (
	NewPeerUnreachable = "unreachable"
	NewPeerUnknown     = "unknown"
)

// 默认选择层名称
const (
	LayerRings    = "rings"
	LayerVicinity = "vicinity"
	LayerCyclon   = "cyclon"
)

// TopologyConfig 拓扑存储配置
type TopologyConfig struct {
	// NewPeerClass 通过 gossip 首次得知的节点的初始分类
	// "unreachable"（默认）或 "unknown"
	NewPeerClass string `json:"new_peer_class"`

	// MaxPeers 存储中最多保留的节点记录数
	MaxPeers int `json:"max_peers"`

	// RetentionPeriod 未再出现的 unknown/unreachable 节点的保留时间（0 = 永久）
	RetentionPeriod Duration `json:"retention_period"`

	// QuarantineMemory 被淘汰的隔离节点的记忆容量
	// 重新从 gossip 得知这些节点时恢复其隔离状态
	QuarantineMemory int `json:"quarantine_memory"`

	// DefaultLayers 启动时注册的默认选择层（rings/vicinity/cyclon）
	DefaultLayers []string `json:"default_layers,omitempty"`

	// LayerSize 每个默认选择层的视图大小
	LayerSize int `json:"layer_size"`
}

// DefaultTopologyConfig 返回默认拓扑配置
func DefaultTopologyConfig() TopologyConfig {
	return TopologyConfig{
		NewPeerClass:     NewPeerUnreachable,
		MaxPeers:         4096,
		RetentionPeriod:  Duration(24 * time.Hour),
		QuarantineMemory: 1024,
		DefaultLayers:    []string{LayerRings, LayerVicinity, LayerCyclon},
		LayerSize:        4,
	}
}

// Validate 验证拓扑配置
func (c TopologyConfig) Validate() error {
	switch c.NewPeerClass {
	case NewPeerUnreachable, NewPeerUnknown:
	default:
		return fmt.Errorf("topology: invalid new_peer_class %q", c.NewPeerClass)
	}
	if c.MaxPeers <= 0 {
		return errors.New("topology: max_peers must be positive")
	}
	if c.RetentionPeriod < 0 {
		return errors.New("topology: retention_period must be non-negative")
	}
	if c.QuarantineMemory <= 0 {
		return errors.New("topology: quarantine_memory must be positive")
	}
	if c.LayerSize <= 0 {
		return errors.New("topology: layer_size must be positive")
	}
	for _, l := range c.DefaultLayers {
		switch l {
		case LayerRings, LayerVicinity, LayerCyclon:
		default:
			return fmt.Errorf("topology: unknown default layer %q", l)
		}
	}
	return nil
}

// WithNewPeerClass 设置新节点初始分类
func (c TopologyConfig) WithNewPeerClass(class string) TopologyConfig {
	c.NewPeerClass = class
	return c
}

// WithMaxPeers 设置最大节点数
func (c TopologyConfig) WithMaxPeers(n int) TopologyConfig {
	c.MaxPeers = n
	return c
}
