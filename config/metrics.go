package config

import (
	"errors"
	"fmt"

	plog "github.com/dep2p/go-p2ptopology/pkg/lib/log"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "p2ptopology",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return errors.New("metrics: namespace cannot be empty when enabled")
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug/info/warn/error
	Level string `json:"level"`

	// JSON 是否输出 JSON 格式
	JSON bool `json:"json,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info"}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, err := plog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
