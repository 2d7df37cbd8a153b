package jobs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/jobs"
	"github.com/yeisme/folio/pkg/internal/service"
	"github.com/yeisme/folio/pkg/queue"
	"github.com/yeisme/folio/pkg/scheduler"
)

type recordingPublisher struct {
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ ...*message.Message) error {
	r.topics = append(r.topics, topic)
	return nil
}

func newService(root string) *service.PortfolioService {
	return service.NewPortfolioService(configs.PortfolioConfig{
		Root:       root,
		URLPrefix:  "portfolio",
		Descriptor: "metadata.json",
		Cache:      configs.PortfolioCacheConfig{TTL: time.Hour},
	}, nil)
}

// TestWarmCatalog 测试预热任务统计作品数并广播结果.
func TestWarmCatalog(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "alpha")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(`{"title":"Alpha"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "main.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}

	res := jobs.WarmCatalog(context.Background(), newService(root), pub)
	if res.Items != 1 || res.Error != "" {
		t.Fatalf("unexpected result %+v", res)
	}

	if len(pub.topics) != 1 || pub.topics[0] != queue.TopicCatalogWarmed {
		t.Errorf("unexpected topics %v", pub.topics)
	}
}

// TestWarmCatalogMissingRoot 测试根目录缺失时记录错误而不是 panic.
func TestWarmCatalogMissingRoot(t *testing.T) {
	res := jobs.WarmCatalog(context.Background(), newService(filepath.Join(t.TempDir(), "missing")), nil)
	if res.Error == "" || !res.Missing {
		t.Fatalf("expected missing-root result, got %+v", res)
	}
}

// TestRegisterCronJobs 测试注册预热任务.
func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sched.Stop() }()

	if err := jobs.RegisterCronJobs(sched, newService(t.TempDir()), nil, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := sched.GetJobInfoByName(jobs.JobCatalogWarm); err != nil {
		t.Errorf("job not registered: %v", err)
	}

	if err := jobs.RegisterCronJobs(nil, nil, nil, ""); err == nil {
		t.Error("expected error for nil scheduler")
	}
}
