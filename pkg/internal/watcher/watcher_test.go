package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/storage/mq"
	"github.com/yeisme/folio/pkg/internal/watcher"
	"github.com/yeisme/folio/pkg/queue"
)

type chanPublisher struct {
	ch chan queue.CatalogChangedPayload
}

func (p *chanPublisher) Publish(_ context.Context, _ string, msgs ...*message.Message) error {
	for _, m := range msgs {
		env, err := queue.ParseCatalogChanged(m)
		if err != nil {
			return err
		}

		p.ch <- env.Payload
	}

	return nil
}

type countingInvalidator struct {
	mu      sync.Mutex
	reasons []string
	hit     chan struct{}
}

func (c *countingInvalidator) Invalidate(reason string) {
	c.mu.Lock()
	c.reasons = append(c.reasons, reason)
	c.mu.Unlock()

	select {
	case c.hit <- struct{}{}:
	default:
	}
}

// TestWatcherPublishesChanges 测试新增目录与目录内文件变化都会发布事件.
func TestWatcherPublishesChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "alpha"), 0o755))

	pub := &chanPublisher{ch: make(chan queue.CatalogChangedPayload, 64)}

	w, err := watcher.New(root, pub, watcher.WithDebounce(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", "metadata.json"), []byte(`{"title":"A"}`), 0o644))
	waitFolder(t, pub.ch, "alpha")

	require.NoError(t, os.Mkdir(filepath.Join(root, "beta"), 0o755))
	waitFolder(t, pub.ch, "beta")

	// 新目录已加入监听，目录内的变化同样可见
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "beta", "main.png"), []byte("png"), 0o644))
	waitPath(t, pub.ch, filepath.Join(root, "beta", "main.png"))
}

// TestWatcherCoalescesFolderEvents 窗口内同一子目录的多次变化只发布一条事件.
func TestWatcherCoalescesFolderEvents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "alpha"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "beta"), 0o755))

	pub := &chanPublisher{ch: make(chan queue.CatalogChangedPayload, 64)}

	w, err := watcher.New(root, pub, watcher.WithDebounce(300*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"metadata.json", "main.jpg", "a.jpg", "b.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", name), []byte(name), 0o644))
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "beta", "main.png"), []byte("png"), 0o644))

	got := map[string]queue.CatalogChangedPayload{}
	timeout := time.After(3 * time.Second)

	for len(got) < 2 {
		select {
		case p := <-pub.ch:
			_, dup := got[p.Folder]
			require.False(t, dup, "folder %s published twice", p.Folder)
			got[p.Folder] = p
		case <-timeout:
			t.Fatalf("coalesced events missing, got %v", got)
		}
	}

	require.Contains(t, got["alpha"].Op, "CREATE")
	require.Equal(t, filepath.Join(root, "beta", "main.png"), got["beta"].Path)

	select {
	case p := <-pub.ch:
		t.Fatalf("unexpected extra event %+v", p)
	case <-time.After(500 * time.Millisecond):
	}
}

// TestWatcherMissingRoot 测试根目录缺失.
func TestWatcherMissingRoot(t *testing.T) {
	_, err := watcher.New(filepath.Join(t.TempDir(), "missing"), &chanPublisher{})
	require.ErrorIs(t, err, catalog.ErrCollectionMissing)
}

// TestSubscribeInvalidates 测试通过 gochannel 投递的事件触发缓存失效.
func TestSubscribeInvalidates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mq.New(ctx, &configs.MQConfig{Type: configs.MQTypeGoChannel}, nil)
	require.NoError(t, err)
	defer client.Close()

	inv := &countingInvalidator{hit: make(chan struct{}, 1)}
	watcher.Subscribe(client, inv)

	go func() { _ = client.Run(ctx) }()

	select {
	case <-client.Running():
	case <-ctx.Done():
		t.Fatal("router did not start")
	}

	err = queue.PublishCatalogChanged(ctx, client, queue.CatalogChangedPayload{Root: "portfolio", Path: "portfolio/alpha", Folder: "alpha", Op: "CREATE"})
	require.NoError(t, err)

	select {
	case <-inv.hit:
	case <-ctx.Done():
		t.Fatal("invalidate was not called")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	require.Equal(t, []string{"CREATE alpha"}, inv.reasons)
}

func waitFolder(t *testing.T, ch <-chan queue.CatalogChangedPayload, folder string) {
	t.Helper()

	timeout := time.After(3 * time.Second)

	for {
		select {
		case p := <-ch:
			if p.Folder == folder {
				return
			}
		case <-timeout:
			t.Fatalf("no event for folder %s", folder)
		}
	}
}

func waitPath(t *testing.T, ch <-chan queue.CatalogChangedPayload, path string) {
	t.Helper()

	timeout := time.After(3 * time.Second)

	for {
		select {
		case p := <-ch:
			if p.Path == path {
				return
			}
		case <-timeout:
			t.Fatalf("no event for path %s", path)
		}
	}
}
