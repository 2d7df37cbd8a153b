package cache_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yeisme/folio/pkg/cache"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
)

// testItem 测试用的目录条目.
type testItem struct {
	ID    int      `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, key)
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl

	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (m *mockKVStore) Close() error {
	return nil
}

// TestCache_SetGet 测试写入后读取并保留 TTL.
func TestCache_SetGet(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store, cache.WithPrefix("folio:"))
	ctx := context.Background()

	items := []testItem{{ID: 1, Title: "Alpha", Tags: []string{"x"}}, {ID: 2, Title: "Beta", Tags: []string{}}}

	if err := cache.Set(ctx, c, "catalog:1", items, time.Hour); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	if store.ttls["folio:catalog:1"] != time.Hour {
		t.Errorf("expected prefixed key with 1h ttl, got %v", store.ttls)
	}

	got, err := cache.Get[[]testItem](ctx, c, "catalog:1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}

	if len(got) != 2 || got[1].Title != "Beta" {
		t.Errorf("unexpected value: %+v", got)
	}
}

// TestCache_Miss 测试未命中可用 IsMiss 识别.
func TestCache_Miss(t *testing.T) {
	c := cache.NewCache(newMockKVStore())

	_, err := cache.Get[testItem](context.Background(), c, "nope")
	if !cache.IsMiss(err) {
		t.Fatalf("expected miss, got %v", err)
	}

	if cache.IsMiss(errors.New("boom")) {
		t.Error("unrelated error should not be a miss")
	}
}

// TestCache_CorruptValue 测试无法解析的值返回错误.
func TestCache_CorruptValue(t *testing.T) {
	store := newMockKVStore()
	store.data["bad"] = []byte("{not json")

	c := cache.NewCache(store)

	_, err := cache.Get[testItem](context.Background(), c, "bad")
	if err == nil || cache.IsMiss(err) {
		t.Fatalf("expected unmarshal error, got %v", err)
	}
}

// TestCache_DeleteExists 测试 Delete 与 Exists.
func TestCache_DeleteExists(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	if err := c.SetBytes(ctx, "thumb", []byte{0xff, 0xd8}, 0); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}

	if ok, _ := c.Exists(ctx, "thumb"); !ok {
		t.Fatal("expected key to exist")
	}

	b, err := c.GetBytes(ctx, "thumb")
	if err != nil || len(b) != 2 {
		t.Fatalf("GetBytes: %v %v", b, err)
	}

	if err := c.Delete(ctx, "thumb"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "thumb"); ok {
		t.Error("expected key to be gone")
	}
}

// TestGetOrSet 测试命中与未命中两条路径.
func TestGetOrSet(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()
	calls := 0

	getter := func() (testItem, error) {
		calls++
		return testItem{ID: 7, Title: "Seven"}, nil
	}

	v, hit, err := cache.GetOrSet(ctx, c, "item:7", getter, time.Minute)
	if err != nil || hit || v.ID != 7 {
		t.Fatalf("first call: v=%+v hit=%v err=%v", v, hit, err)
	}

	v, hit, err = cache.GetOrSet(ctx, c, "item:7", getter, time.Minute)
	if err != nil || !hit || v.Title != "Seven" {
		t.Fatalf("second call: v=%+v hit=%v err=%v", v, hit, err)
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}
}

// TestGetOrSet_GetterError 测试 getter 失败时不写缓存.
func TestGetOrSet_GetterError(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)

	_, _, err := cache.GetOrSet(context.Background(), c, "k", func() (int, error) {
		return 0, errors.New("collection missing")
	}, time.Minute)
	if err == nil {
		t.Fatal("expected getter error")
	}

	if len(store.data) != 0 {
		t.Errorf("nothing should be cached, got %v", store.data)
	}
}

// TestCache_Clear 测试 Clear 只删除自身前缀的键.
func TestCache_Clear(t *testing.T) {
	store := newMockKVStore()
	store.data["other:1"] = []byte("1")

	c := cache.NewCache(store, cache.WithPrefix("folio:"))
	ctx := context.Background()

	for i := range 3 {
		if err := cache.Set(ctx, c, fmt.Sprintf("k%d", i), i, 0); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if len(store.data) != 1 {
		t.Errorf("expected only foreign key to remain, got %v", store.data)
	}
}
