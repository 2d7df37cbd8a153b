package router_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/handle"
	"github.com/yeisme/folio/pkg/internal/router"
	"github.com/yeisme/folio/pkg/internal/service"
	"github.com/yeisme/folio/pkg/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T, root string) *gin.Engine {
	t.Helper()

	return newPrefixedEngine(t, root, "portfolio")
}

func newPrefixedEngine(t *testing.T, root, prefix string) *gin.Engine {
	t.Helper()

	cfg := configs.PortfolioConfig{
		Root:       root,
		URLPrefix:  prefix,
		Descriptor: "metadata.json",
		Cache:      configs.PortfolioCacheConfig{TTL: time.Hour},
		Thumbnail:  configs.PortfolioThumbnailConfig{Width: 480, MaxWidth: 1920},
	}

	svc := service.NewPortfolioService(cfg, nil)
	h := handle.NewPortfolioHandlers(svc, service.NewThumbnailService(cfg.Thumbnail, nil))

	r := gin.New()
	router.Register(r, h, cfg, configs.ServerConfig{Debug: true, Host: "127.0.0.1", Port: 8080})

	return r
}

func fixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	write := func(folder, name, content string) {
		dir := filepath.Join(root, folder)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("alpha", "metadata.json", `{"title":"Alpha","date":"2024-01-01","tags":["web"]}`)
	write("alpha", "main.jpg", "jpg")
	write("alpha", "a.jpg", "jpg")
	write("beta", "metadata.json", `{"title":"Beta","date":"2024-06-01","link":"https://beta.example"}`)
	write("beta", "cover.mp4", "mp4")

	return root
}

func get(r *gin.Engine, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

// TestCatalogAndDetail 测试目录与详情（含兼容路径）的往返一致.
func TestCatalogAndDetail(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	w := get(r, "/get-portfolio.php")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var items []types.PortfolioItem
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	require.Equal(t, "Beta", items[0].Title)
	require.Equal(t, 1, items[0].ID)
	require.Equal(t, "Alpha", items[1].Title)

	w = get(r, "/get-item-details.php?id=2")
	require.Equal(t, http.StatusOK, w.Code)

	var detail types.PortfolioDetail
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, items[1].Title, detail.Title)
	require.Equal(t, items[1].Src, detail.Src)
	require.Equal(t, items[1].Tags, detail.Tags)
	require.Equal(t, "No description provided.", detail.Description)
	require.Equal(t, []string{"portfolio/alpha/main.jpg", "portfolio/alpha/a.jpg"}, detail.Gallery)

	w = get(r, "/api/v1/portfolio/1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, "Beta", detail.Title)
	require.Empty(t, detail.Gallery)
}

// TestDetailNotFound 测试未知与非数字 id 返回 404.
func TestDetailNotFound(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	for _, target := range []string{"/get-item-details.php?id=99", "/get-item-details.php?id=abc", "/get-item-details.php", "/api/v1/portfolio/0"} {
		w := get(r, target)
		require.Equal(t, http.StatusNotFound, w.Code, target)
		require.JSONEq(t, `{"error":"Portfolio item not found"}`, w.Body.String(), target)
	}
}

// TestMissingCollection 测试根目录缺失：目录返回 200 + error，详情返回 404.
func TestMissingCollection(t *testing.T) {
	r := newTestEngine(t, filepath.Join(t.TempDir(), "missing"))

	w := get(r, "/get-portfolio.php")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"error":"Portfolio directory not found"}`, w.Body.String())

	w = get(r, "/get-item-details.php?id=1")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/health/collection")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// TestEmptyCollection 测试空目录返回空数组.
func TestEmptyCollection(t *testing.T) {
	r := newTestEngine(t, t.TempDir())

	w := get(r, "/api/v1/portfolio")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

// TestCatalogETag 测试目录 ETag 与 304.
func TestCatalogETag(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	w := get(r, "/api/v1/portfolio")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = get(r, "/api/v1/portfolio", "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, w.Code)
}

// TestMediaAndThumbnail 测试静态媒体与视频缩略图重定向.
func TestMediaAndThumbnail(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	w := get(r, "/portfolio/alpha/a.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "jpg", w.Body.String())

	w = get(r, "/api/v1/portfolio/1/thumbnail")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/portfolio/beta/cover.mp4", w.Header().Get("Location"))

	w = get(r, "/api/v1/portfolio/7/thumbnail")
	require.Equal(t, http.StatusNotFound, w.Code)
}

// TestEmptyURLPrefix 前缀为空时 src 相对站点根目录，媒体路由不挂载，缩略图回退返回 404.
func TestEmptyURLPrefix(t *testing.T) {
	r := newPrefixedEngine(t, fixture(t), "")

	w := get(r, "/api/v1/portfolio")
	require.Equal(t, http.StatusOK, w.Code)

	var items []types.PortfolioItem
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	require.Equal(t, "beta/cover.mp4", items[0].Src)
	require.Equal(t, "alpha/main.jpg", items[1].Src)

	w = get(r, "/api/v1/portfolio/1/thumbnail")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, w.Header().Get("Location"))
	require.Contains(t, w.Body.String(), "not served")
}

// TestHealthAndScheduler 测试存活检查以及未启用调度器时的返回.
func TestHealthAndScheduler(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	require.Equal(t, http.StatusOK, get(r, "/health/live").Code)
	require.Equal(t, http.StatusOK, get(r, "/health/collection").Code)
	require.Equal(t, http.StatusServiceUnavailable, get(r, "/health/kv").Code)
	require.Equal(t, http.StatusServiceUnavailable, get(r, "/api/v1/scheduler/jobs").Code)
	require.Equal(t, http.StatusNotFound, get(r, "/nope").Code)
}

// TestSwaggerDebugOnly 调试模式下挂载接口文档.
func TestSwaggerDebugOnly(t *testing.T) {
	r := newTestEngine(t, fixture(t))

	w := get(r, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "/get-portfolio.php")
}
