// Package storage 提供拓扑模块的持久化存储服务
//
// 基于 BadgerDB 实现，为节点缓存（peercache）提供键值存储后端，
// 支持磁盘模式与内存模式。
//
// # 键空间设计
//
//	前缀     | 模块           | 说明
//	---------|----------------|------------------
//	t/p/     | peercache      | 保留的节点记录
//	t/m/     | peercache      | 缓存元数据
//
// # 使用示例
//
//	app := fx.New(
//	    storage.Module(),
//	    topology.Module(),
//	)
//
// 手动创建：
//
//	eng, err := storage.NewEngine(storage.MemoryConfig())
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	cache := storage.NewKVStore(eng, []byte("t/"))
package storage
