package badger

import (
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
)

// WriteBatch BadgerDB 批量写入实现
type WriteBatch struct {
	db     *Engine
	batch  *badger.WriteBatch
	count  int
	closed atomic.Bool
}

// Put 添加一个写入操作到批量中
func (b *WriteBatch) Put(key, value []byte) {
	if b.closed.Load() || len(key) == 0 {
		return
	}
	// WriteBatch.Set 的错误在 Flush 时返回
	_ = b.batch.Set(key, value)
	b.count++
}

// Delete 添加一个删除操作到批量中
func (b *WriteBatch) Delete(key []byte) {
	if b.closed.Load() || len(key) == 0 {
		return
	}
	_ = b.batch.Delete(key)
	b.count++
}

// Write 执行批量写入
func (b *WriteBatch) Write() error {
	if b.closed.Swap(true) {
		return engine.ErrBatchClosed
	}
	if b.db.closed.Load() {
		b.batch.Cancel()
		return engine.ErrClosed
	}
	return convertError(b.batch.Flush())
}

// Size 返回批量中的操作数量
func (b *WriteBatch) Size() int {
	return b.count
}
