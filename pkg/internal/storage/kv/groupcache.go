package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/folio/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
// 本地 data 是权威数据，groupcache 负责在对等节点之间分发读取.
type GroupcacheKV struct {
	cache  *groupcache.Group    // Groupcache 缓存组
	peers  *groupcache.HTTPPool // 对等节点池
	getter groupcache.Getter    // 获取器
	data   map[string][]byte    // 本地存储数据
	mu     sync.RWMutex         // 保护 data 的读写锁
}

var (
	// groupcache 的组名进程内唯一，重复创建返回同一实例
	groupsMu sync.Mutex
	groups   = make(map[string]*GroupcacheKV)
	poolOnce sync.Once
)

// groupcacheGetter 实现 groupcache.Getter 接口.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(ctx context.Context, key string, dest groupcache.Sink) error {
	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !exists {
		return notFound(key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

// NewGroupcacheKV 创建 Groupcache KV 实例.
func NewGroupcacheKV(ctx context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if existing, ok := groups[gcConfig.Name]; ok {
		return existing, nil
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
	}

	// 创建 getter
	kv.getter = &groupcacheGetter{kv: kv}

	// 创建缓存组
	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, kv.getter)

	// 如果有对等节点，设置 HTTP 池（每个进程只能注册一次）
	if len(gcConfig.Peers) > 0 {
		poolOnce.Do(func() {
			kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
			kv.peers.Set(gcConfig.Peers...)
		})
	}

	groups[gcConfig.Name] = kv

	return kv, nil
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	_, local := g.data[key]
	g.mu.RUnlock()

	// 删除后 groupcache 的 LRU 里可能还有旧值
	if !local && g.peers == nil {
		return nil, notFound(key)
	}

	var data []byte

	err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data))
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, _, err := decodeWithTTL(data, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = g.Delete(ctx, key)
		return nil, notFound(key)
	}

	// 返回副本
	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值；groupcache 的值不可变，覆盖写入需要换键.
func (g *GroupcacheKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, wrapped, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !wrapped {
		// 复制值
		encoded = make([]byte, len(value))
		copy(encoded, value)
	}

	g.data[key] = encoded

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	b, exists := g.data[key]
	if !exists {
		return false, nil
	}

	_, expired, _, _ := decodeWithTTL(b, time.Now())

	return !expired, nil
}

// Keys 获取所有键.
func (g *GroupcacheKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))
	for key := range g.data {
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Close 关闭缓存.
func (g *GroupcacheKV) Close() error {
	// Groupcache 没有显式的关闭方法
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
