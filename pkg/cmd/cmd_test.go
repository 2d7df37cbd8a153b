package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/folio/pkg/app"
	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/storage"
)

func fixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	write := func(folder, name, content string) {
		dir := filepath.Join(root, folder)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("alpha", "metadata.json", `{"title":"Alpha","date":"2024-01-01","tags":["web","print"]}`)
	write("alpha", "main.jpg", "jpg")
	write("alpha", "a.jpg", "jpg")
	write("beta", "metadata.json", `{"title":"Beta","date":"2024-06-01","description":"Line one\nLine two"}`)
	write("beta", "cover.mp4", "mp4")
	write("notes", "readme.txt", "no descriptor")

	return root
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", t.TempDir()))

	require.NoError(t, rootCmd.Execute(), out.String())

	return out.String()
}

// TestCatalogList 列表按日期倒序并统计被跳过的目录.
func TestCatalogList(t *testing.T) {
	root := fixture(t)

	out := run(t, "catalog", "list", "--root", root, "--json=false")

	require.Contains(t, out, "Alpha")
	require.Contains(t, out, "Beta")
	require.Contains(t, out, "2 items, skipped: no_descriptor=1")
	require.Less(t, bytes.Index([]byte(out), []byte("Beta")), bytes.Index([]byte(out), []byte("Alpha")))
}

// TestCatalogShow 输出完整记录.
func TestCatalogShow(t *testing.T) {
	root := fixture(t)

	out := run(t, "catalog", "show", "2", "--root", root, "--json")

	require.Contains(t, out, `"title": "Alpha"`)
	require.Contains(t, out, `"portfolio/alpha/main.jpg"`)
	require.Contains(t, out, `"portfolio/alpha/a.jpg"`)
}

// TestBrowse 客户端对真实服务端完成目录与详情加载.
func TestBrowse(t *testing.T) {
	root := fixture(t)

	cfg := configs.Defaults()
	cfg.Portfolio.Root = root
	cfg.Scheduler.Enabled = false

	mgr, err := storage.New(context.Background(), &cfg)
	require.NoError(t, err)

	a, err := app.New(&cfg, mgr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Engine)
	t.Cleanup(srv.Close)

	out := run(t, "browse", "--url", srv.URL, "--no-cache", "--view", "#view=2&fullscreen=true", "--wait", "10s")

	require.Contains(t, out, "2 items from network")
	require.Contains(t, out, "#1 Beta [video] 2024-06-01")
	require.Contains(t, out, "#2 Alpha [image] 2024-01-01")
	require.Contains(t, out, "Line one\n  Line two")
	require.Contains(t, out, "view: #view=2&fullscreen=true")
}

// TestConfigDebug 输出当前配置.
func TestConfigDebug(t *testing.T) {
	out := run(t, "config", "debug")

	require.Contains(t, out, "Portfolio")
}

// TestConfigCheck 默认配置可以通过校验.
func TestConfigCheck(t *testing.T) {
	out := run(t, "config", "check")

	require.Contains(t, out, "config ok")
}

// TestBackends 列出已注册的 kv 与 mq 后端并标记默认选中项.
func TestBackends(t *testing.T) {
	out := run(t, "backends")

	require.Contains(t, out, "memory")
	require.Contains(t, out, "gochannel")
	require.Contains(t, out, "*")
}
