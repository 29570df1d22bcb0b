// Package kv 提供带前缀隔离的 KV 存储抽象层
//
// KVStore 在底层存储引擎之上提供命名空间隔离，
// 每个组件可以使用不同的前缀来隔离数据。
//
// # 键空间设计
//
//   - t/p/ - 节点缓存记录（peercache）
//   - t/m/ - 节点缓存元数据
//
// # 使用示例
//
//	eng, _ := badger.New(engine.MemoryConfig())
//	cache := kv.New(eng, []byte("t/"))
//
//	// 写入数据（自动添加前缀）
//	cache.Put([]byte("p/peer1"), data) // 实际键: t/p/peer1
package kv

import (
	"encoding/binary"
	"encoding/json"

	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
)

// Store 带前缀隔离的 KV 存储
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建新的 KVStore
//
// 所有操作会自动为键添加 prefix。
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{
		engine: eng,
		prefix: prefix,
	}
}

// prefixKey 为键添加前缀
func (s *Store) prefixKey(key []byte) []byte {
	if len(s.prefix) == 0 {
		return key
	}
	prefixed := make([]byte, len(s.prefix)+len(key))
	copy(prefixed, s.prefix)
	copy(prefixed[len(s.prefix):], key)
	return prefixed
}

// stripPrefix 从键中移除前缀
func (s *Store) stripPrefix(key []byte) []byte {
	if len(s.prefix) == 0 || len(key) < len(s.prefix) {
		return key
	}
	return key[len(s.prefix):]
}

// ============= 基础操作 =============

// Get 获取指定键的值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 设置键值对
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// ============= 便捷方法 =============

// GetUint64 获取 uint64 值
func (s *Store) GetUint64(key []byte) (uint64, error) {
	data, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, engine.ErrCorrupted
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutUint64 存储 uint64 值
func (s *Store) PutUint64(key []byte, value uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, value)
	return s.Put(key, data)
}

// ============= 迭代与批量 =============

// ForEach 遍历 subPrefix 下的所有键值对
//
// 回调收到的键已去除 Store 前缀。回调返回错误时停止遍历。
func (s *Store) ForEach(subPrefix []byte, fn func(key, value []byte) error) error {
	iter := s.engine.NewPrefixIterator(s.prefixKey(subPrefix))
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(s.stripPrefix(iter.Key()), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Keys 返回 subPrefix 下的所有键（已去除 Store 前缀）
func (s *Store) Keys(subPrefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.ForEach(subPrefix, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// DeletePrefix 删除 subPrefix 下的所有键
func (s *Store) DeletePrefix(subPrefix []byte) error {
	keys, err := s.Keys(subPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	batch := s.NewBatch()
	for _, key := range keys {
		batch.Delete(key)
	}
	return batch.Write()
}

// NewBatch 创建带前缀的批量写入对象
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s, batch: s.engine.NewBatch()}
}

// Batch 带前缀的批量写入
type Batch struct {
	store *Store
	batch engine.Batch
}

// Put 添加写入操作
func (b *Batch) Put(key, value []byte) {
	b.batch.Put(b.store.prefixKey(key), value)
}

// PutJSON 添加 JSON 写入操作
func (b *Batch) PutJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Put(key, data)
	return nil
}

// Delete 添加删除操作
func (b *Batch) Delete(key []byte) {
	b.batch.Delete(b.store.prefixKey(key))
}

// Write 提交批量操作
func (b *Batch) Write() error {
	return b.batch.Write()
}

// Size 返回操作数量
func (b *Batch) Size() int {
	return b.batch.Size()
}
