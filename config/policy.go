package config

import (
	"errors"
	"fmt"
	"time"
)

// 惩罚衰减模式
const (
	DecayNone        = "none"
	DecayLinear      = "linear"
	DecayExponential = "exponential"
)

// PolicyConfig 惩罚与隔离策略配置
type PolicyConfig struct {
	// MaxStrikes 触发隔离的惩罚数
	MaxStrikes int `json:"max_strikes"`

	// QuarantineDuration 隔离时长（0 = 永久隔离，直到被淘汰）
	QuarantineDuration Duration `json:"quarantine_duration"`

	// DecayMode 惩罚衰减模式：none/linear/exponential
	DecayMode string `json:"decay_mode"`

	// DecayInterval 衰减间隔
	// linear: 每个间隔原谅一次惩罚；exponential: 每个间隔惩罚数减半
	DecayInterval Duration `json:"decay_interval"`

	// AvailabilityTimeout 可用节点超过此时间未被直接联系即降为不可达（0 = 不降级）
	AvailabilityTimeout Duration `json:"availability_timeout"`
}

// DefaultPolicyConfig 返回默认策略配置
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MaxStrikes:          3,
		QuarantineDuration:  Duration(30 * time.Minute),
		DecayMode:           DecayLinear,
		DecayInterval:       Duration(10 * time.Minute),
		AvailabilityTimeout: Duration(20 * time.Minute),
	}
}

// Validate 验证策略配置
func (c PolicyConfig) Validate() error {
	if c.MaxStrikes <= 0 {
		return errors.New("policy: max_strikes must be positive")
	}
	if c.QuarantineDuration < 0 {
		return errors.New("policy: quarantine_duration must be non-negative")
	}
	switch c.DecayMode {
	case DecayNone:
	case DecayLinear, DecayExponential:
		if c.DecayInterval <= 0 {
			return fmt.Errorf("policy: decay_interval must be positive for %s decay", c.DecayMode)
		}
	default:
		return fmt.Errorf("policy: invalid decay_mode %q", c.DecayMode)
	}
	if c.AvailabilityTimeout < 0 {
		return errors.New("policy: availability_timeout must be non-negative")
	}
	return nil
}

// WithMaxStrikes 设置触发隔离的惩罚数
func (c PolicyConfig) WithMaxStrikes(n int) PolicyConfig {
	c.MaxStrikes = n
	return c
}

// WithDecay 设置衰减模式与间隔
func (c PolicyConfig) WithDecay(mode string, interval time.Duration) PolicyConfig {
	c.DecayMode = mode
	c.DecayInterval = Duration(interval)
	return c
}

// WithQuarantineDuration 设置隔离时长
func (c PolicyConfig) WithQuarantineDuration(d time.Duration) PolicyConfig {
	c.QuarantineDuration = Duration(d)
	return c
}
