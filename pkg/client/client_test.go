package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/client"
	"github.com/yeisme/folio/pkg/configs"
	kv "github.com/yeisme/folio/pkg/internal/storage/kv"
)

func memoryStorage(t *testing.T) *client.KVStorage {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return client.NewKVStorage(store, "test:")
}

func sampleItems() []api.PortfolioItem {
	return []api.PortfolioItem{
		{ID: 1, Title: "Beta", Type: api.MediaVideo, Src: "portfolio/beta/cover.mp4", Tags: []string{}, Date: "2024-06-01"},
		{ID: 2, Title: "Alpha", Type: api.MediaImage, Src: "portfolio/alpha/main.jpg", Tags: []string{"x"}, Date: "2024-01-01"},
		{ID: 3, Title: "Gamma", Type: api.MediaImage, Src: "portfolio/gamma/main.png", Tags: []string{}, Date: "N/A"},
	}
}

// TestCatalogCacheExpiry 写入后 59 分钟命中，61 分钟失效并被删除.
func TestCatalogCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store := memoryStorage(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := client.NewCatalogCache(store, client.WithClock(func() time.Time { return now }))

	require.NoError(t, cache.Save(ctx, sampleItems()))

	now = now.Add(59 * time.Minute)
	items, ok := cache.Load(ctx)
	require.True(t, ok)
	require.Len(t, items, 3)
	require.Equal(t, "Beta", items[0].Title)

	// 读取不续期
	now = now.Add(2 * time.Minute)
	_, ok = cache.Load(ctx)
	require.False(t, ok)

	_, err := store.Get(ctx, client.CacheKey)
	require.ErrorIs(t, err, client.ErrNoEntry)
}

// TestCatalogCacheCorrupt 损坏条目视为未命中并被清除.
func TestCatalogCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	store := memoryStorage(t)
	cache := client.NewCatalogCache(store)

	for _, raw := range []string{"not json", `{"timestamp":"x"}`, `{"data":[]}`, `[]`} {
		require.NoError(t, store.Set(ctx, client.CacheKey, []byte(raw)))

		_, ok := cache.Load(ctx)
		require.False(t, ok, raw)

		_, err := store.Get(ctx, client.CacheKey)
		require.ErrorIs(t, err, client.ErrNoEntry, raw)
	}
}

// TestFileStorage 文件存储的读写删.
func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	store, err := client.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, client.CacheKey)
	require.ErrorIs(t, err, client.ErrNoEntry)

	require.NoError(t, store.Set(ctx, client.CacheKey, []byte(`{"a":1}`)))
	require.NoError(t, store.Set(ctx, client.CacheKey, []byte(`{"a":2}`)))

	b, err := store.Get(ctx, client.CacheKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2}`, string(b))

	require.NoError(t, store.Remove(ctx, client.CacheKey))
	require.NoError(t, store.Remove(ctx, client.CacheKey))

	_, err = store.Get(ctx, client.CacheKey)
	require.ErrorIs(t, err, client.ErrNoEntry)

	require.Error(t, store.Set(ctx, "../escape", nil))
}

func newServer(t *testing.T, catalogBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogBody))
	}
	mux.HandleFunc(api.PortfolioPath, handler)
	mux.HandleFunc(api.LegacyCatalogPath, handler)
	mux.HandleFunc(api.DetailPath(2), func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2,"title":"Alpha","type":"image","src":"portfolio/alpha/main.jpg","tags":["x"],"date":"2024-01-01","link":null,"description":"d","gallery":["portfolio/alpha/main.jpg"]}`))
	})
	mux.HandleFunc(api.LegacyDetailPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(api.IDParam) != "2" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Portfolio item not found"}`))

			return
		}

		_, _ = w.Write([]byte(`{"id":2,"title":"Alpha","type":"image","src":"s","tags":[],"date":"2024-01-01","link":"https://example.com","description":"d","gallery":[]}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Portfolio item not found"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func clientConfig(base string) configs.ClientConfig {
	cfg := configs.Defaults().Client
	cfg.BaseURL = base

	return cfg
}

// TestAPICatalogAndDetail 正常目录、详情与 404.
func TestAPICatalogAndDetail(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t, `[{"id":1,"title":"Beta","type":"video","src":"portfolio/beta/cover.mp4","tags":[],"date":"2024-06-01","link":null}]`)

	a, err := client.NewAPI(clientConfig(srv.URL))
	require.NoError(t, err)

	items, err := a.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Link)

	d, err := a.Detail(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Alpha", d.Title)
	require.Equal(t, []string{"portfolio/alpha/main.jpg"}, d.Gallery)

	_, err = a.Detail(ctx, 9)
	require.ErrorIs(t, err, client.ErrNotFound)

	legacy, err := client.NewAPI(clientConfig(srv.URL), client.WithLegacyRoutes())
	require.NoError(t, err)

	d, err = legacy.Detail(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, d.Link)

	_, err = legacy.Detail(ctx, 3)
	require.ErrorIs(t, err, client.ErrNotFound)
}

// TestAPICollectionMissing 200 + {"error"} 的目录响应.
func TestAPICollectionMissing(t *testing.T) {
	srv := newServer(t, `{"error":"Portfolio directory not found"}`)

	a, err := client.NewAPI(clientConfig(srv.URL))
	require.NoError(t, err)

	_, err = a.Catalog(context.Background())
	require.ErrorIs(t, err, client.ErrCollectionMissing)

	other := newServer(t, `{"error":"boom"}`)

	a, err = client.NewAPI(clientConfig(other.URL))
	require.NoError(t, err)

	_, err = a.Catalog(context.Background())

	var se *client.ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "boom", se.Message)
}

// fakeFetcher 记录调用次数，详情可按 id 阻塞.
type fakeFetcher struct {
	mu       sync.Mutex
	items    []api.PortfolioItem
	err      error
	failing  map[int]error
	gates    map[int]chan struct{}
	catalogN int
	detailN  map[int]int
}

func newFakeFetcher(items []api.PortfolioItem) *fakeFetcher {
	return &fakeFetcher{
		items:   items,
		failing: map[int]error{},
		gates:   map[int]chan struct{}{},
		detailN: map[int]int{},
	}
}

func (f *fakeFetcher) Catalog(ctx context.Context) ([]api.PortfolioItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.catalogN++

	return f.items, f.err
}

func (f *fakeFetcher) Detail(ctx context.Context, id int) (*api.PortfolioDetail, error) {
	f.mu.Lock()
	f.detailN[id]++
	gate := f.gates[id]
	failure := f.failing[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failure != nil {
		return nil, failure
	}

	for _, it := range f.items {
		if it.ID == id {
			return &api.PortfolioDetail{PortfolioItem: it, Description: "desc", Gallery: []string{it.Src}}, nil
		}
	}

	return nil, client.ErrNotFound
}

func (f *fakeFetcher) calls(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.detailN[id]
}

func waitRendered(t *testing.T, r *client.Renderer, id int) {
	t.Helper()

	select {
	case <-r.Rendered(id):
	case <-time.After(2 * time.Second):
		t.Fatalf("item %d not rendered", id)
	}
}

// TestRendererDetailOnce 同一项多次进入可视区域只请求一次详情.
func TestRendererDetailOnce(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(sampleItems())
	r := client.NewRenderer(f, nil)
	t.Cleanup(r.Detach)

	require.Equal(t, client.SlideUnbuilt, r.State(1))
	require.NoError(t, r.Load(ctx))

	state, err := r.Grid()
	require.NoError(t, err)
	require.Equal(t, client.GridPopulated, state)

	require.NoError(t, r.OpenCarousel(ctx, 1))
	r.Reveal(1, 1)
	waitRendered(t, r, 1)
	r.Reveal(1)

	require.Equal(t, 1, f.calls(1))
	require.Equal(t, client.SlideShown, r.State(1))
	require.Equal(t, client.SlidePlaceholder, r.State(2))

	d, ok := r.Detail(1)
	require.True(t, ok)
	require.Equal(t, "desc", d.Description)

	// 关闭再打开不会重建，也不会重复请求
	r.CloseCarousel()
	require.NoError(t, r.OpenCarousel(ctx, 1))
	require.Equal(t, 1, f.calls(1))
	require.Equal(t, 1, r.Session().RequestCount())
}

// TestRendererOutOfOrder 详情乱序到达，只更新对应项.
func TestRendererOutOfOrder(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(sampleItems())
	f.gates[1] = make(chan struct{})
	f.gates[2] = make(chan struct{})

	r := client.NewRenderer(f, nil)
	t.Cleanup(r.Detach)

	require.NoError(t, r.Load(ctx))
	require.NoError(t, r.OpenCarousel(ctx, 1))
	r.Reveal(2)

	require.Equal(t, client.SlideLoading, r.State(1))
	require.Equal(t, client.SlideLoading, r.State(2))

	close(f.gates[2])
	waitRendered(t, r, 2)
	require.Equal(t, client.SlideLoading, r.State(1))

	close(f.gates[1])
	waitRendered(t, r, 1)
	require.Equal(t, client.SlideShown, r.State(1))
}

// TestRendererFailureKeepsPlaceholder 详情失败保持占位且不重试.
func TestRendererFailureKeepsPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(sampleItems())
	f.failing[2] = errors.New("network down")

	r := client.NewRenderer(f, nil)
	t.Cleanup(r.Detach)

	require.NoError(t, r.Load(ctx))
	require.NoError(t, r.OpenCarousel(ctx, 2))

	require.Eventually(t, func() bool {
		return r.State(2) == client.SlidePlaceholder
	}, 2*time.Second, 5*time.Millisecond)

	r.Reveal(2)
	require.Equal(t, 1, f.calls(2))
	require.True(t, r.Session().Requested(2))

	_, ok := r.Detail(2)
	require.False(t, ok)
}

// TestRendererDetach 分离后到达的结果被丢弃.
func TestRendererDetach(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(sampleItems())
	f.gates[3] = make(chan struct{})

	r := client.NewRenderer(f, nil)
	require.NoError(t, r.Load(ctx))
	require.NoError(t, r.OpenCarousel(ctx, 3))

	r.Detach()

	_, ok := r.Detail(3)
	require.False(t, ok)
	require.Equal(t, client.SlideLoading, r.State(3))
	require.ErrorIs(t, r.OpenCarousel(ctx, 1), client.ErrDetached)
}

// TestRendererGridError 目录错误或为空时网格进入 error 状态.
func TestRendererGridError(t *testing.T) {
	ctx := context.Background()

	f := newFakeFetcher(nil)
	f.err = client.ErrCollectionMissing

	r := client.NewRenderer(f, nil)
	t.Cleanup(r.Detach)

	require.ErrorIs(t, r.Load(ctx), client.ErrCollectionMissing)

	state, err := r.Grid()
	require.Equal(t, client.GridError, state)
	require.ErrorIs(t, err, client.ErrCollectionMissing)
	require.ErrorIs(t, r.OpenCarousel(ctx, 1), client.ErrNotReady)

	empty := client.NewRenderer(newFakeFetcher([]api.PortfolioItem{}), nil)
	t.Cleanup(empty.Detach)

	require.ErrorIs(t, empty.Load(ctx), client.ErrEmptyCatalog)
}

// TestRendererUsesCache 缓存命中时不访问网络，未命中时写入缓存.
func TestRendererUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := client.NewCatalogCache(memoryStorage(t))

	f := newFakeFetcher(sampleItems())

	first := client.NewRenderer(f, cache)
	t.Cleanup(first.Detach)
	require.NoError(t, first.Load(ctx))
	require.False(t, first.FromCache())

	second := client.NewRenderer(f, cache)
	t.Cleanup(second.Detach)
	require.NoError(t, second.Load(ctx))
	require.True(t, second.FromCache())
	require.Equal(t, first.Items(), second.Items())

	f.mu.Lock()
	require.Equal(t, 1, f.catalogN)
	f.mu.Unlock()
}

// TestNavigate 片段导航打开轮播与全屏层.
func TestNavigate(t *testing.T) {
	ctx := context.Background()
	r := client.NewRenderer(newFakeFetcher(sampleItems()), nil)
	t.Cleanup(r.Detach)

	require.NoError(t, r.Load(ctx))

	frag, ok := client.ParseFragment("#view=2&fullscreen=true")
	require.True(t, ok)
	require.NoError(t, r.Navigate(ctx, frag))
	waitRendered(t, r, 2)

	require.Equal(t, "#view=2&fullscreen=true", r.Fragment().String())

	r.SetFullscreen(false)
	require.Equal(t, "#view=2", r.Fragment().String())

	r.CloseCarousel()
	require.Equal(t, client.Fragment{}, r.Fragment())

	require.ErrorIs(t, r.Navigate(ctx, client.Fragment{ID: 42}), client.ErrNotFound)
}

// TestParseFragment 片段解析.
func TestParseFragment(t *testing.T) {
	cases := []struct {
		in   string
		want client.Fragment
		ok   bool
	}{
		{"#view=3", client.Fragment{ID: 3}, true},
		{"view=3&fullscreen=true", client.Fragment{ID: 3, Fullscreen: true}, true},
		{"#fullscreen=true&view=7", client.Fragment{ID: 7, Fullscreen: true}, true},
		{"#view=12abc", client.Fragment{ID: 12}, true},
		{"#view=3&fullscreen=false", client.Fragment{ID: 3}, true},
		{"#view=abc", client.Fragment{}, false},
		{"#fullscreen=true", client.Fragment{}, false},
		{"", client.Fragment{}, false},
	}

	for _, tc := range cases {
		got, ok := client.ParseFragment(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

// TestPreloadCeiling 预加载到达上限后返回.
func TestPreloadCeiling(t *testing.T) {
	slow := client.ProberFunc(func(ctx context.Context, src string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	res := client.Preload(context.Background(), slow, sampleItems(), 50*time.Millisecond)

	require.True(t, res.TimedOut)
	require.Less(t, time.Since(start), time.Second)

	fast := client.ProberFunc(func(ctx context.Context, src string) error {
		if src == "portfolio/gamma/main.png" {
			return errors.New("404")
		}

		return nil
	})

	res = client.Preload(context.Background(), fast, sampleItems(), time.Second)
	require.False(t, res.TimedOut)
	require.Equal(t, 2, res.Loaded)
	require.Equal(t, 1, res.Failed)
}

// TestHTTPProber 相对 src 按服务端地址解析.
func TestHTTPProber(t *testing.T) {
	srv := newServer(t, `[]`)

	cfg := clientConfig(srv.URL)

	a, err := client.NewAPI(cfg)
	require.NoError(t, err)

	p := client.NewHTTPProber(a.BaseURL(), a.HTTPClient())
	require.NoError(t, p.Probe(context.Background(), api.PortfolioPath[1:]))
	require.Error(t, p.Probe(context.Background(), "portfolio/missing.jpg"))
}
