package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/configs"
)

// maxBody 单个响应体上限.
const maxBody = 16 << 20

// Fetcher 渲染器依赖的两次网络请求.
type Fetcher interface {
	Catalog(ctx context.Context) ([]api.PortfolioItem, error)
	Detail(ctx context.Context, id int) (*api.PortfolioDetail, error)
}

// API 通过 HTTP 访问作品集服务端，每次请求有超时，并经过熔断器.
// 目录缺失与 id 不存在属于正常应答，不计入熔断失败.
type API struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	legacy  bool
}

// APIOption API 选项.
type APIOption func(*API)

// WithHTTPClient 替换底层 http.Client.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) { a.http = c }
}

// WithLegacyRoutes 使用 get-portfolio.php / get-item-details.php 路径.
func WithLegacyRoutes() APIOption {
	return func(a *API) { a.legacy = true }
}

// NewAPI 创建 API 客户端.
func NewAPI(cfg configs.ClientConfig, opts ...APIOption) (*API, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	a := &API{
		base:    base,
		http:    &http.Client{},
		timeout: cfg.RequestTimeout,
	}

	for _, opt := range opts {
		opt(a)
	}

	if cfg.Breaker.Enabled {
		a.breaker = newBreaker(cfg.Breaker)
	}

	return a, nil
}

func newBreaker(cfg configs.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "folio-client",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			// 失败比例
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrCollectionMissing)
		},
	})
}

// HTTPClient 返回底层 http.Client，供媒体预加载复用连接.
func (a *API) HTTPClient() *http.Client { return a.http }

// BaseURL 返回服务端地址.
func (a *API) BaseURL() *url.URL { return a.base }

// Catalog 拉取轻量目录.服务端返回 {"error"} 时：目录缺失映射为 ErrCollectionMissing，
// 其他文本包装为 *ServerError.
func (a *API) Catalog(ctx context.Context) ([]api.PortfolioItem, error) {
	p := api.PortfolioPath
	if a.legacy {
		p = api.LegacyCatalogPath
	}

	var items []api.PortfolioItem

	err := a.do(ctx, p, func(status int, body []byte) error {
		if status != http.StatusOK {
			return &ServerError{Status: status, Message: errorMessage(body)}
		}

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			msg := errorMessage(trimmed)
			if msg == api.MsgCollectionMissing {
				return ErrCollectionMissing
			}

			return &ServerError{Status: status, Message: msg}
		}

		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decode catalog: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []api.PortfolioItem{}
	}

	return items, nil
}

// Detail 拉取单个作品的完整记录，404 映射为 ErrNotFound.
func (a *API) Detail(ctx context.Context, id int) (*api.PortfolioDetail, error) {
	p := api.DetailPath(id)
	if a.legacy {
		p = api.LegacyDetailURL(id)
	}

	var detail api.PortfolioDetail

	err := a.do(ctx, p, func(status int, body []byte) error {
		switch status {
		case http.StatusOK:
		case http.StatusNotFound:
			return ErrNotFound
		default:
			return &ServerError{Status: status, Message: errorMessage(body)}
		}

		if err := sonic.Unmarshal(body, &detail); err != nil {
			return fmt.Errorf("decode detail %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

// do 发出 GET 请求并把状态码与响应体交给 decode，整个过程在熔断器内执行.
func (a *API) do(ctx context.Context, path string, decode func(status int, body []byte) error) error {
	call := func() (any, error) {
		if a.timeout > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.resolve(path), nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := a.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		return nil, decode(resp.StatusCode, body)
	}

	if a.breaker == nil {
		_, err := call()
		return err
	}

	_, err := a.breaker.Execute(call)

	return err
}

func (a *API) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return a.base.String() + path
	}

	u := *a.base
	u.Path = strings.TrimRight(a.base.Path, "/") + ref.Path
	u.RawQuery = ref.RawQuery

	return u.String()
}

func errorMessage(body []byte) string {
	var e api.ErrorResponse
	if err := sonic.Unmarshal(body, &e); err != nil {
		return ""
	}

	return e.Error
}
