// Package peercache 在重启之间保留已知节点
//
// 缓存保存在存储引擎的 t/ 前缀下：
//
//	t/p/<base58 id> - 节点条目（JSON）
//	t/m/count       - 最近一次保存的条目数
//
// 恢复时 Available 节点降为 Unreachable（需重新建立联系），
// Quarantined 节点保持隔离。
package peercache

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-p2ptopology/internal/core/storage/engine"
	"github.com/dep2p/go-p2ptopology/internal/core/storage/kv"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var logger = log.Logger("topology/peercache")

// 存储前缀
const (
	cachePrefix  = "t/"
	recordPrefix = "p/"
	countKey     = "m/count"
)

// Entry 保留的节点条目
type Entry struct {
	Profile         types.PeerProfile    `json:"profile"`
	Classification  types.Classification `json:"classification"`
	Strikes         []types.Strike       `json:"strikes,omitempty"`
	LastSeen        time.Time            `json:"last_seen"`
	QuarantinedAt   time.Time            `json:"quarantined_at,omitempty"`
	QuarantineCount int                  `json:"quarantine_count,omitempty"`
}

// Restored 返回重启后应使用的条目
func (e Entry) Restored() Entry {
	out := e
	out.Profile = e.Profile.Clone()
	out.Strikes = append([]types.Strike(nil), e.Strikes...)
	switch e.Classification {
	case types.ClassAvailable:
		out.Classification = types.ClassUnreachable
	case types.ClassQuarantined, types.ClassUnreachable:
	default:
		out.Classification = types.ClassUnknown
	}
	return out
}

// Cache 节点缓存
type Cache struct {
	store *kv.Store
}

// New 创建节点缓存
func New(eng engine.Engine) *Cache {
	return &Cache{store: kv.New(eng, []byte(cachePrefix))}
}

func recordKey(id types.NodeID) []byte {
	return []byte(recordPrefix + id.String())
}

// Save 用 entries 替换已保留的节点集合
func (c *Cache) Save(entries []Entry) error {
	if err := c.store.DeletePrefix([]byte(recordPrefix)); err != nil {
		return fmt.Errorf("peercache: clear: %w", err)
	}

	var (
		errs  error
		saved int
	)
	if len(entries) > 0 {
		batch := c.store.NewBatch()
		for _, e := range entries {
			if e.Profile.ID.IsEmpty() {
				continue
			}
			errs = multierr.Append(errs, batch.PutJSON(recordKey(e.Profile.ID), e))
		}
		saved = batch.Size()
		errs = multierr.Append(errs, batch.Write())
	}
	errs = multierr.Append(errs, c.store.PutUint64([]byte(countKey), uint64(saved)))

	if errs != nil {
		return fmt.Errorf("peercache: save: %w", errs)
	}
	logger.Debug("节点缓存已保存", "entries", saved)
	return nil
}

// Load 读取所有保留的节点条目
//
// 无法解码的条目被跳过，其错误合并后与已读取的条目一起返回。
func (c *Cache) Load() ([]Entry, error) {
	var (
		entries []Entry
		errs    error
	)
	err := c.store.ForEach([]byte(recordPrefix), func(key, value []byte) error {
		var e Entry
		if err := unmarshalEntry(value, &e); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return nil
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("peercache: load: %w", err)
	}
	if errs != nil {
		logger.Warn("部分节点缓存条目无法解码", "errors", len(multierr.Errors(errs)))
		return entries, fmt.Errorf("peercache: load: %w", errs)
	}
	return entries, nil
}

// Count 返回最近一次保存的条目数
func (c *Cache) Count() (uint64, error) {
	n, err := c.store.GetUint64([]byte(countKey))
	if engine.IsNotFound(err) {
		return 0, nil
	}
	return n, err
}

// Clear 删除所有缓存内容
func (c *Cache) Clear() error {
	return multierr.Combine(
		c.store.DeletePrefix([]byte(recordPrefix)),
		c.store.DeletePrefix([]byte("m/")),
	)
}
