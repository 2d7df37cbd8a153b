package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/folio/pkg/configs"
)

// NATSKV 基于 JetStream KeyValue 的缓存后端.bucket 只保留每个键的最新值，
// 过期时间由值头部记录，读到过期值时顺手删除.
//
// NATS 的键只允许 [-/_=.a-zA-Z0-9]，缓存键里的 ':' 存储时换成 '.'，列出时再换回来.
type NATSKV struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKV 连接 NATS 并打开（必要时创建）bucket.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("nats kv: unexpected config %T", config)
	}

	opts := []nats.Option{nats.Name(configs.AppName + "-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats kv: connect %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats kv: jetstream: %w", err)
	}

	bucket, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "folio catalog and thumbnail cache",
			History:     1,
		})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats kv: bucket %q: %w", cfg.Bucket, err)
	}

	return &NATSKV{conn: nc, kv: bucket}, nil
}

func natsKey(key string) string { return strings.ReplaceAll(key, ":", ".") }

func cacheKey(key string) string { return strings.ReplaceAll(key, ".", ":") }

// load 读取并解开值头部，过期值视为不存在.
func (n *NATSKV) load(key string) ([]byte, bool, error) {
	entry, err := n.kv.Get(natsKey(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("nats kv: get %q: %w", key, err)
	}

	val, expired, _, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return nil, false, err
	}

	if expired {
		_ = n.kv.Delete(natsKey(key))
		return nil, false, nil
	}

	return val, true, nil
}

func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	val, ok, err := n.load(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	return val, nil
}

func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(natsKey(key), encoded); err != nil {
		return fmt.Errorf("nats kv: put %q: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Delete(_ context.Context, key string) error {
	if err := n.kv.Delete(natsKey(key)); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv: delete %q: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := n.load(key)
	return ok, err
}

// Keys 列出 bucket 中匹配 pattern 的未过期键.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	lister, err := n.kv.ListKeys()
	if err != nil {
		return nil, fmt.Errorf("nats kv: list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var out []string

	for raw := range lister.Keys() {
		key := cacheKey(raw)
		if !matchPattern(pattern, key) {
			continue
		}

		if _, ok, err := n.load(key); err == nil && ok {
			out = append(out, key)
		}
	}

	return out, nil
}

// Close 排空未发送的消息后断开.
func (n *NATSKV) Close() error {
	return n.conn.Drain()
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
