// Package cache 提供基于键值存储的泛型缓存实现.
//
// 服务端用它缓存解析后的作品目录与缩略图，客户端用它在 KV 后端上保存目录快照.
// 底层使用 sonic 做 JSON 序列化/反序列化，支持 TTL（生存时间）设置.
//
// 基本用法:
//
//	kvStore := // 获取KV存储实例
//	c := cache.NewCache(kvStore, cache.WithPrefix("folio:"))
//
//	// 缓存目录
//	err := cache.Set(ctx, c, "catalog:abc", items, time.Hour)
//
//	// 获取缓存数据
//	items, err := cache.Get[[]types.PortfolioItem](ctx, c, "catalog:abc")
//	if cache.IsMiss(err) {
//		// 重新解析
//	}
//
//	// 使用GetOrSet模式
//	items, err := cache.GetOrSet(ctx, c, "catalog:abc", resolve, time.Hour)
//
// 线程安全:
//
//	该包不提供额外的线程安全保证，取决于底层的KV存储实现.
//
// 错误处理:
//   - 网络错误、连接错误等会通过error返回
//   - 序列化/反序列化错误会被包装并返回
//   - 缓存未命中返回包装了 kv.ErrKeyNotFound 的错误，用 IsMiss 判断
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/folio/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
}

// Option 缓存选项.
type Option func(*Cache)

// WithPrefix 为所有键加上命名空间前缀.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, opts ...Option) *Cache {
	c := &Cache{
		kvStore: kvStore,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// IsMiss 判断错误是否为缓存未命中.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrKeyNotFound)
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// GetBytes 读取原始字节，不做反序列化.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return c.kvStore.Get(ctx, c.key(key))
}

// SetBytes 写入原始字节.
func (c *Cache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.kvStore.Set(ctx, c.key(key), value, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，如果不存在则调用 getter 并写入.
// 第二个返回值表示是否命中缓存.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, bool, error) {
	var zero T

	// 尝试获取
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, true, nil
	}

	// 获取新值
	value, err := getter()
	if err != nil {
		return zero, false, err
	}

	// 缓存失败，但仍返回值
	_ = Set(ctx, c, key, value, ttl)

	return value, false, nil
}

// Clear 删除当前前缀下的所有键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, c.prefix) {
			continue
		}

		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
