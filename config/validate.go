package config

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 非正的数值 -> 使用默认值
//   - 未知的衰减模式或初始分类 -> 使用默认值
//   - 并发数大于扇出 -> 截断为扇出
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	topo := DefaultTopologyConfig()
	if c.Topology.NewPeerClass != NewPeerUnreachable && c.Topology.NewPeerClass != NewPeerUnknown {
		c.Topology.NewPeerClass = topo.NewPeerClass
	}
	if c.Topology.MaxPeers <= 0 {
		c.Topology.MaxPeers = topo.MaxPeers
	}
	if c.Topology.QuarantineMemory <= 0 {
		c.Topology.QuarantineMemory = topo.QuarantineMemory
	}
	if c.Topology.LayerSize <= 0 {
		c.Topology.LayerSize = topo.LayerSize
	}

	pol := DefaultPolicyConfig()
	if c.Policy.MaxStrikes <= 0 {
		c.Policy.MaxStrikes = pol.MaxStrikes
	}
	switch c.Policy.DecayMode {
	case DecayNone, DecayLinear, DecayExponential:
	default:
		c.Policy.DecayMode = pol.DecayMode
	}
	if c.Policy.DecayInterval <= 0 {
		c.Policy.DecayInterval = pol.DecayInterval
	}

	gos := DefaultGossipConfig()
	if c.Gossip.Fanout <= 0 {
		c.Gossip.Fanout = gos.Fanout
	}
	if c.Gossip.Parallelism <= 0 {
		c.Gossip.Parallelism = gos.Parallelism
	}
	if c.Gossip.Parallelism > c.Gossip.Fanout {
		c.Gossip.Parallelism = c.Gossip.Fanout
	}
	if c.Gossip.MaxGossipSize <= 0 {
		c.Gossip.MaxGossipSize = gos.MaxGossipSize
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func validateKnownPeers(peers []KnownPeer) error {
	for i, kp := range peers {
		if _, err := types.ParseNodeID(kp.PeerID); err != nil {
			return fmt.Errorf("known_peers[%d]: %w", i, err)
		}
		if kp.Address == "" {
			return fmt.Errorf("known_peers[%d]: address cannot be empty", i)
		}
	}
	return nil
}

// ParseKnownPeers 将已知节点配置转换为节点档案
func ParseKnownPeers(peers []KnownPeer) ([]types.PeerProfile, error) {
	out := make([]types.PeerProfile, 0, len(peers))
	for i, kp := range peers {
		id, err := types.ParseNodeID(kp.PeerID)
		if err != nil {
			return nil, fmt.Errorf("known_peers[%d]: %w", i, err)
		}
		out = append(out, types.PeerProfile{
			ID:           id,
			Address:      kp.Address,
			Capabilities: append([]string(nil), kp.Capabilities...),
		})
	}
	return out, nil
}
