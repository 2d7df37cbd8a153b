// Package kv 提供用于键值存储的接口和实现，服务端目录缓存与缩略图缓存都建立在它之上.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/yeisme/folio/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("key not found")

type Client struct {
	KVStore

	Type KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，键不存在时返回包装了 ErrKeyNotFound 的错误.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，可选过期时间.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 获取匹配 glob 模式的键（可选，用于调试）.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

// kvFactories 存储 KV 类型到工厂的映射.
var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表，按名称排序.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient 按全局配置创建 KV 客户端.
func NewKVClient(ctx context.Context) (*Client, error) {
	return NewKVClientWithConfig(ctx, configs.GetConfig().KV)
}

// NewKVClientWithConfig 按给定配置创建 KV 客户端.
func NewKVClientWithConfig(ctx context.Context, cfg configs.KVConfig) (*Client, error) {
	kvType := KVType(cfg.GetKVType())
	if kvType == "" {
		kvType = KVTypeMemory
	}

	store, err := NewKVStore(ctx, kvType, cfg.Backend())
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: kvType}, nil
}

// notFound 返回带键名的 ErrKeyNotFound.
func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// matchPattern 按 glob 规则匹配键，空模式匹配全部.
func matchPattern(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}
