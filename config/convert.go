package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "policy": {"max_strikes": 5, "decay_mode": "exponential"},
//	  "gossip": {"interval": "5s", "fanout": 4}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 将配置序列化为缩进的 JSON
func ToJSON(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// CloneConfig 克隆配置
//
// 创建配置的深拷贝，用于安全地修改配置而不影响原始配置。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	cloned.Topology.DefaultLayers = slices.Clone(cfg.Topology.DefaultLayers)
	if cfg.KnownPeers != nil {
		cloned.KnownPeers = make([]KnownPeer, len(cfg.KnownPeers))
		for i, kp := range cfg.KnownPeers {
			kp.Capabilities = slices.Clone(kp.Capabilities)
			cloned.KnownPeers[i] = kp
		}
	}
	return &cloned
}
