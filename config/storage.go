package config

import (
	"fmt"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 节点缓存使用 BadgerDB 持久化，通过 Key 前缀隔离数据。
//
//	${DataDir}/
//	└── topology.db/        # BadgerDB 数据库
type StorageConfig struct {
	// DataDir 数据目录路径
	// 默认值: "./data"
	DataDir string `json:"data_dir"`

	// InMemory 仅在内存中保存（测试与模拟使用，重启后丢失）
	InMemory bool `json:"in_memory,omitempty"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置的有效性
func (c *StorageConfig) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "topology.db")
}
