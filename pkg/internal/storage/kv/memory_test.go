package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
)

// TestMemoryKV_NotFound 测试缺失键返回 ErrKeyNotFound.
func TestMemoryKV_NotFound(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	_, err = store.Get(context.Background(), "missing")
	if !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

// TestMemoryKV_TTL 测试带 TTL 的值到期后不可见.
func TestMemoryKV_TTL(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	if err := store.Set(ctx, "short", []byte("v"), 30*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "forever", []byte("w"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "short")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v before expiry, got %q, %v", got, err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected expired key to be missing, got %v", err)
	}

	if ok, _ := store.Exists(ctx, "forever"); !ok {
		t.Error("key without ttl should still exist")
	}
}

// TestMemoryKV_Keys 测试 glob 模式匹配.
func TestMemoryKV_Keys(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	for _, k := range []string{"catalog:a", "catalog:b", "thumb:1"} {
		if err := store.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	keys, err := store.Keys(ctx, "catalog:*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	if len(keys) != 2 || keys[0] != "catalog:a" || keys[1] != "catalog:b" {
		t.Errorf("unexpected keys: %v", keys)
	}

	all, _ := store.Keys(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 keys, got %v", all)
	}
}

// TestGroupcacheKV_SetGetDelete 测试 groupcache 后端的基本读写.
func TestGroupcacheKV_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.GroupcacheKVConfig{Name: "test-groupcache-rw", CacheBytes: 1 << 20}

	store, err := kv.NewKVStore(ctx, kv.KVTypeGroupcache, cfg)
	if err != nil {
		t.Fatalf("create groupcache kv: %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v, got %q, %v", got, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}

	again, err := kv.NewKVStore(ctx, kv.KVTypeGroupcache, cfg)
	if err != nil {
		t.Fatalf("recreate groupcache kv: %v", err)
	}

	if again != store {
		t.Error("same group name should return the same instance")
	}
}

// TestNewKVClientWithConfig 测试按配置选择后端.
func TestNewKVClientWithConfig(t *testing.T) {
	client, err := kv.NewKVClientWithConfig(context.Background(), configs.KVConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	if client.Type != kv.KVTypeMemory {
		t.Errorf("expected memory type, got %s", client.Type)
	}

	if _, err := kv.NewKVClientWithConfig(context.Background(), configs.KVConfig{Type: "etcd"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
