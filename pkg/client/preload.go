package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/folio/pkg/api"
)

const (
	// DefaultPreloadTimeout 预加载的固定上限，超时后不再等待.
	DefaultPreloadTimeout = 5 * time.Second
	// InitialPreload 首屏渲染前预加载的条目数.
	InitialPreload = 6
)

// Prober 探测一个媒体地址是否可加载.
type Prober interface {
	Probe(ctx context.Context, src string) error
}

// ProberFunc 函数适配器.
type ProberFunc func(ctx context.Context, src string) error

func (f ProberFunc) Probe(ctx context.Context, src string) error { return f(ctx, src) }

// HTTPProber 以 GET 读取媒体的方式预热连接与缓存，src 相对于 base 解析.
type HTTPProber struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPProber 创建 HTTP 探测器，client 为 nil 时使用 http.DefaultClient.
func NewHTTPProber(base *url.URL, client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPProber{base: base, client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, src string) error {
	ref, err := url.Parse(src)
	if err != nil {
		return err
	}

	u := ref
	if p.base != nil && !ref.IsAbs() {
		base := *p.base
		if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
			base.Path += "/"
		}

		u = base.ResolveReference(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe %s: status %d", src, resp.StatusCode)
	}

	return nil
}

// PreloadResult 预加载结果.加载失败同样算作完成.
type PreloadResult struct {
	Loaded   int
	Failed   int
	TimedOut bool
}

// Preload 并发探测条目的主媒体，全部完成或到达 ceiling 即返回；
// 超时后仍在进行的探测随 ctx 取消.
func Preload(ctx context.Context, prober Prober, items []api.PortfolioItem, ceiling time.Duration) PreloadResult {
	if len(items) == 0 || prober == nil {
		return PreloadResult{}
	}

	if ceiling <= 0 {
		ceiling = DefaultPreloadTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var loaded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	for _, item := range items {
		g.Go(func() error {
			if err := prober.Probe(gctx, item.Src); err != nil {
				failed.Add(1)
			} else {
				loaded.Add(1)
			}

			return nil
		})
	}

	done := make(chan struct{})

	go func() {
		_ = g.Wait()
		close(done)
	}()

	timer := time.NewTimer(ceiling)
	defer timer.Stop()

	res := PreloadResult{}

	select {
	case <-done:
	case <-timer.C:
		res.TimedOut = true
	case <-ctx.Done():
		res.TimedOut = true
	}

	res.Loaded = int(loaded.Load())
	res.Failed = int(failed.Load())

	return res
}
