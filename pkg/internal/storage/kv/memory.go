package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，单实例部署的默认后端.
type MemoryKV struct {
	data sync.Map // 并发安全的 map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(ctx context.Context, config any) (KVStore, error) {
	// 内存实现不需要特殊配置
	return &MemoryKV{now: time.Now}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, notFound(key)
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid value type for key: %s", key)
	}

	val, expired, _, err := decodeWithTTL(data, m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.data.CompareAndDelete(key, value)
		return nil, notFound(key)
	}

	// 返回副本
	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, wrapped, err := encodeWithTTLAt(value, ttl, m.now())
	if err != nil {
		return err
	}

	if !wrapped {
		// 复制值
		encoded = make([]byte, len(value))
		copy(encoded, value)
	}

	m.data.Store(key, encoded)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取所有未过期且匹配模式的键.
func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := m.now()

	m.data.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true // 继续遍历
		}

		if b, ok := value.([]byte); ok {
			if _, expired, _, err := decodeWithTTL(b, now); err == nil && expired {
				return true
			}
		}

		if matchPattern(pattern, k) {
			keys = append(keys, k)
		}

		return true
	})

	sort.Strings(keys)

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
