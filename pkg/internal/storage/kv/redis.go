//go:build !no_redis

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeisme/folio/pkg/configs"
)

// redisScanCount 每轮 SCAN 的提示批量.
const redisScanCount = 256

// RedisKV 以 Redis 作为多实例共享的目录与缩略图缓存，过期交给 Redis 原生 TTL.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV 连接 Redis 并确认可用.
func NewRedisKV(ctx context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.RedisKVConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("redis kv: unexpected config %T", config)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: configs.AppName,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis kv: ping %s: %w", cfg.Addr, err)
	}

	return &RedisKV{rdb: rdb}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, notFound(key)
	case err != nil:
		return nil, fmt.Errorf("redis kv: get %q: %w", key, err)
	}

	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis kv: set %q: %w", key, err)
	}

	return nil
}

// Delete 用 UNLINK 异步回收，缩略图值可能较大.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Unlink(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis kv: unlink %q: %w", key, err)
	}

	return nil
}

func (r *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis kv: exists %q: %w", key, err)
	}

	return n > 0, nil
}

// Keys 以 SCAN 遍历匹配 pattern 的键，不使用会阻塞实例的 KEYS.
func (r *RedisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	var keys []string

	it := r.rdb.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}

	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("redis kv: scan %q: %w", pattern, err)
	}

	return keys, nil
}

func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

func init() {
	RegisterKVFactory(KVTypeRedis, NewRedisKV)
}
