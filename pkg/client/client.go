// Package client 实现作品集的渐进加载协议：
// 先取轻量目录（带单槽本地缓存）铺满网格，轮播打开后按需逐项拉取详情.
//
// Example:
//
//	r, err := client.New(configs.GetConfig().Client)
//	if err != nil {
//		return err
//	}
//	defer r.Detach()
//
//	if err := r.Load(ctx); err != nil {
//		return err
//	}
//
//	frag, _ := client.ParseFragment("#view=3&fullscreen=true")
//	_ = r.Navigate(ctx, frag)
//	<-r.Rendered(3)
package client

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/yeisme/folio/pkg/configs"
)

var (
	// ErrCollectionMissing 服务端作品集根目录不存在.
	ErrCollectionMissing = errors.New("portfolio directory not found")
	// ErrNotFound 请求的作品 id 不存在.
	ErrNotFound = errors.New("portfolio item not found")
	// ErrCorruptEntry 本地缓存条目无法解析.
	ErrCorruptEntry = errors.New("corrupt cache entry")
	// ErrNoEntry 本地存储中没有该键.
	ErrNoEntry = errors.New("no stored entry")
	// ErrEmptyCatalog 目录为空，网格停留在错误状态.
	ErrEmptyCatalog = errors.New("portfolio catalog is empty")
	// ErrNotReady 网格尚未填充，不能打开轮播.
	ErrNotReady = errors.New("portfolio grid not populated")
	// ErrDetached 渲染器已分离.
	ErrDetached = errors.New("renderer detached")
)

// ServerError 服务端返回的其他 {"error"} 响应.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portfolio server: status %d", e.Status)
	}

	return fmt.Sprintf("portfolio server: status %d: %s", e.Status, e.Message)
}

// New 按客户端配置装配完整的渲染器：文件缓存、HTTP API 与媒体预加载.
func New(cfg configs.ClientConfig) (*Renderer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	store, err := NewFileStorage(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	fetcher, err := NewAPI(cfg)
	if err != nil {
		return nil, err
	}

	cache := NewCatalogCache(store, WithTTL(cfg.CacheTTL))

	return NewRenderer(fetcher, cache,
		WithPreloader(NewHTTPProber(base, fetcher.HTTPClient())),
		WithPreloadTimeout(cfg.PreloadTimeout),
	), nil
}
