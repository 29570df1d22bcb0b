package storage

import (
	"time"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
)

// Config Storage 模块配置
type Config struct {
	// Path 存储路径（BadgerDB 数据库目录）
	Path string

	// InMemory 内存模式，不落盘（测试与模拟使用）
	InMemory bool

	// SyncWrites 是否同步写入
	SyncWrites bool

	// GCInterval 值日志 GC 间隔
	GCInterval time.Duration

	// GCDiscardRatio 值日志 GC 丢弃比例
	GCDiscardRatio float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path:           "./data/topology.db",
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// MemoryConfig 返回内存模式配置
func MemoryConfig() Config {
	cfg := DefaultConfig()
	cfg.Path = ""
	cfg.InMemory = true
	return cfg
}

// ConfigFromUnified 从统一配置创建 Storage 配置
func ConfigFromUnified(cfg *config.Config) Config {
	storageCfg := DefaultConfig()
	if cfg == nil {
		return storageCfg
	}

	if cfg.Storage.InMemory {
		return MemoryConfig()
	}
	if cfg.Storage.DataDir != "" {
		storageCfg.Path = cfg.Storage.DBPath()
	}
	return storageCfg
}

// ToEngineConfig 转换为引擎配置
func (c *Config) ToEngineConfig() *engine.Config {
	if c.InMemory {
		return engine.MemoryConfig()
	}
	engineCfg := engine.DefaultConfig(c.Path)
	engineCfg.SyncWrites = c.SyncWrites
	engineCfg.GCInterval = c.GCInterval
	engineCfg.GCDiscardRatio = c.GCDiscardRatio
	return engineCfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.InMemory {
		return nil
	}
	if c.Path == "" {
		return ErrInvalidConfig
	}
	if c.GCInterval < time.Minute {
		c.GCInterval = time.Minute
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		c.GCDiscardRatio = 0.5
	}
	return nil
}

// WithPath 设置存储路径
func (c Config) WithPath(path string) Config {
	c.Path = path
	return c
}

// WithInMemory 设置内存模式
func (c Config) WithInMemory(inMemory bool) Config {
	c.InMemory = inMemory
	return c
}
