// Package engine 定义存储引擎的接口
//
// 上层组件（节点缓存）只依赖本包的接口，具体实现位于 engine/badger。
//
// # 线程安全
//
// 所有接口实现必须保证线程安全。批量操作在提交前是独立的，
// 不影响其他并发操作。
package engine

// Engine 存储引擎接口
type Engine interface {
	// Get 获取指定键的值，键不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 设置键值对
	Put(key, value []byte) error

	// Delete 删除指定键
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// NewBatch 创建新的批量写入对象
	NewBatch() Batch

	// NewPrefixIterator 创建前缀迭代器，调用者负责 Close()
	NewPrefixIterator(prefix []byte) Iterator

	// Start 启动后台任务（值日志 GC 等）
	Start() error

	// Close 关闭存储引擎
	Close() error
}

// Batch 批量写入接口
//
// Batch 不是线程安全的，不应在多个 goroutine 中并发使用。
type Batch interface {
	// Put 添加一个写入操作
	Put(key, value []byte)

	// Delete 添加一个删除操作
	Delete(key []byte)

	// Write 原子性地写入所有操作，写入后批量对象不可再用
	Write() error

	// Size 返回批量中的操作数量
	Size() int
}

// Iterator 迭代器接口
//
//	iter := eng.NewPrefixIterator(prefix)
//	defer iter.Close()
//
//	for iter.First(); iter.Valid(); iter.Next() {
//	    key, value := iter.Key(), iter.Value()
//	}
//
//	if err := iter.Error(); err != nil {
//	    return err
//	}
type Iterator interface {
	// First 移动到第一个键值对
	First() bool

	// Next 移动到下一个键值对
	Next() bool

	// Valid 当前位置是否有效
	Valid() bool

	// Key 返回当前键（副本）
	Key() []byte

	// Value 返回当前值（副本）
	Value() []byte

	// Close 关闭迭代器
	Close()

	// Error 返回迭代过程中的错误
	Error() error
}
