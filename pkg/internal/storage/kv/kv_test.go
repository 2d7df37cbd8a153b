package kv_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
	"github.com/yeisme/folio/pkg/internal/types"
)

// catalogPayload 构造 n 个条目的目录 JSON，与服务端缓存的值形状一致.
func catalogPayload(tb testing.TB, n int) []byte {
	tb.Helper()

	items := make([]types.PortfolioItem, n)
	for i := range items {
		items[i] = types.PortfolioItem{
			ID:    i + 1,
			Title: fmt.Sprintf("Project %03d", i+1),
			Date:  "2024-01-01",
			Tags:  []string{"web", "design"},
			Src:   fmt.Sprintf("portfolio/project-%03d/main.jpg", i+1),
			Type:  types.MediaImage,
		}
	}

	b, err := sonic.Marshal(items)
	if err != nil {
		tb.Fatalf("marshal catalog: %v", err)
	}

	return b
}

// localStores 返回不依赖外部服务的后端.
func localStores(tb testing.TB) map[string]kv.KVStore {
	tb.Helper()

	mem, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		tb.Fatalf("memory kv: %v", err)
	}

	gc, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{
		Name:       fmt.Sprintf("folio-test-%d", time.Now().UnixNano()),
		CacheBytes: 8 << 20,
		Self:       "http://127.0.0.1:0",
	})
	if err != nil {
		tb.Fatalf("groupcache kv: %v", err)
	}

	tb.Cleanup(func() {
		_ = mem.Close()
		_ = gc.Close()
	})

	return map[string]kv.KVStore{"memory": mem, "groupcache": gc}
}

// TestCatalogKeysAcrossBackends 目录缓存键按指纹与代数区分，旧代数可按前缀列出并清理.
func TestCatalogKeysAcrossBackends(t *testing.T) {
	ctx := context.Background()
	payload := catalogPayload(t, 12)

	for name, store := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			for gen := range 3 {
				key := fmt.Sprintf("folio:catalog:%x:%d", 0xbeef, gen)
				if err := store.Set(ctx, key, payload, time.Hour); err != nil {
					t.Fatalf("set %s: %v", key, err)
				}
			}

			if err := store.Set(ctx, "folio:thumb:abc", []byte{0xff, 0xd8}, 0); err != nil {
				t.Fatalf("set thumb: %v", err)
			}

			got, err := store.Get(ctx, "folio:catalog:beef:2")
			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if string(got) != string(payload) {
				t.Fatalf("payload mismatch: %d bytes vs %d", len(got), len(payload))
			}

			keys, err := store.Keys(ctx, "folio:catalog:*")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}

			sort.Strings(keys)

			if len(keys) != 3 || keys[0] != "folio:catalog:beef:0" {
				t.Fatalf("unexpected catalog keys %v", keys)
			}

			for _, k := range keys[:2] {
				if err := store.Delete(ctx, k); err != nil {
					t.Fatalf("delete %s: %v", k, err)
				}
			}

			if _, err := store.Get(ctx, "folio:catalog:beef:0"); !errors.Is(err, kv.ErrKeyNotFound) {
				t.Fatalf("expected ErrKeyNotFound, got %v", err)
			}

			ok, err := store.Exists(ctx, "folio:thumb:abc")
			if err != nil || !ok {
				t.Fatalf("thumb should survive catalog cleanup: ok=%v err=%v", ok, err)
			}
		})
	}
}

func BenchmarkCatalogCache(b *testing.B) {
	stores := localStores(b)

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr})
		if err != nil {
			b.Fatalf("redis kv: %v", err)
		}

		b.Cleanup(func() { _ = store.Close() })
		stores["redis"] = store
	}

	if url := os.Getenv("NATS_URL"); url != "" {
		store, err := kv.NewKVStore(context.Background(), kv.KVTypeNATS, &configs.NATSKVConfig{URL: url, Bucket: "folio-bench"})
		if err != nil {
			b.Fatalf("nats kv: %v", err)
		}

		b.Cleanup(func() { _ = store.Close() })
		stores["nats"] = store
	}

	ctx := context.Background()

	for name, store := range stores {
		for _, n := range []int{10, 200, 2000} {
			payload := catalogPayload(b, n)

			b.Run(fmt.Sprintf("%s/items=%d", name, n), func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(payload)))

				for i := 0; b.Loop(); i++ {
					key := fmt.Sprintf("folio:catalog:bench:%d", i%8)
					if err := store.Set(ctx, key, payload, time.Minute); err != nil {
						b.Fatalf("set: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get: %v", err)
					}
				}
			})
		}
	}
}
