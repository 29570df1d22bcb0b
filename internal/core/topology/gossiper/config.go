package gossiper

import (
	"fmt"
	"time"

	"github.com/dep2p/go-p2ptopology/config"
)

// Config Gossiper 配置
type Config struct {
	// Interval 轮次间隔
	Interval time.Duration

	// Fanout 每轮交换的目标数
	Fanout int

	// MaxGossipSize 单次载荷的档案上限（解码限制）
	MaxGossipSize int

	// ExchangeTimeout 单次交换超时
	ExchangeTimeout time.Duration

	// Parallelism 并行交换数
	Parallelism int

	// InboundRate 每个发送方每秒允许的入站交换数
	InboundRate float64

	// InboundBurst 入站突发上限
	InboundBurst int

	// LimiterCacheSize 保留的发送方限流器数量
	LimiterCacheSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建 Gossiper 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	g := cfg.Gossip
	return Config{
		Interval:         g.Interval.Duration(),
		Fanout:           g.Fanout,
		MaxGossipSize:    g.MaxGossipSize,
		ExchangeTimeout:  g.ExchangeTimeout.Duration(),
		Parallelism:      g.Parallelism,
		InboundRate:      g.InboundRate,
		InboundBurst:     g.InboundBurst,
		LimiterCacheSize: 1024,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Interval <= 0 || c.ExchangeTimeout <= 0 {
		return fmt.Errorf("%w: interval and exchange timeout must be positive", ErrInvalidConfig)
	}
	if c.Fanout <= 0 || c.MaxGossipSize <= 0 || c.Parallelism <= 0 || c.LimiterCacheSize <= 0 {
		return fmt.Errorf("%w: sizes must be positive", ErrInvalidConfig)
	}
	if c.InboundRate <= 0 || c.InboundBurst <= 0 {
		return fmt.Errorf("%w: inbound rate and burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithInterval 设置轮次间隔
func (c Config) WithInterval(d time.Duration) Config {
	c.Interval = d
	return c
}

// WithExchangeTimeout 设置交换超时
func (c Config) WithExchangeTimeout(d time.Duration) Config {
	c.ExchangeTimeout = d
	return c
}

// WithInbound 设置入站限流
func (c Config) WithInbound(rate float64, burst int) Config {
	c.InboundRate = rate
	c.InboundBurst = burst
	return c
}
