package config

import (
	"errors"
	"time"
)

// GossipConfig gossip 轮次配置
type GossipConfig struct {
	// Interval gossip 轮次间隔
	Interval Duration `json:"interval"`

	// Fanout 每轮联系的邻居数
	Fanout int `json:"fanout"`

	// MaxGossipSize 单个 gossip 负载的最大档案数（出站与入站）
	MaxGossipSize int `json:"max_gossip_size"`

	// ExchangeTimeout 单次远程交换的超时
	ExchangeTimeout Duration `json:"exchange_timeout"`

	// Parallelism 每轮并发交换数
	Parallelism int `json:"parallelism"`

	// InboundRate 每个发送方每秒允许的入站交换数
	InboundRate float64 `json:"inbound_rate"`

	// InboundBurst 入站突发容量
	InboundBurst int `json:"inbound_burst"`
}

// DefaultGossipConfig 返回默认 gossip 配置
func DefaultGossipConfig() GossipConfig {
	return GossipConfig{
		Interval:        Duration(10 * time.Second),
		Fanout:          3,
		MaxGossipSize:   32,
		ExchangeTimeout: Duration(5 * time.Second),
		Parallelism:     4,
		InboundRate:     1,
		InboundBurst:    5,
	}
}

// Validate 验证 gossip 配置
func (c GossipConfig) Validate() error {
	if c.Interval <= 0 {
		return errors.New("gossip: interval must be positive")
	}
	if c.Fanout <= 0 {
		return errors.New("gossip: fanout must be positive")
	}
	if c.MaxGossipSize <= 0 {
		return errors.New("gossip: max_gossip_size must be positive")
	}
	if c.ExchangeTimeout <= 0 {
		return errors.New("gossip: exchange_timeout must be positive")
	}
	if c.Parallelism <= 0 {
		return errors.New("gossip: parallelism must be positive")
	}
	if c.InboundRate <= 0 || c.InboundBurst <= 0 {
		return errors.New("gossip: inbound_rate and inbound_burst must be positive")
	}
	return nil
}
