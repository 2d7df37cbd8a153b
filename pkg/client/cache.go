package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/log"
)

const (
	// CacheKey 目录缓存的固定键.
	CacheKey = "portfolio_data_cache"
	// DefaultCacheTTL 从写入时刻起算的有效期，读取不会续期.
	DefaultCacheTTL = time.Hour
)

// cacheEntry 持久化格式，timestamp 为写入时刻的 epoch 毫秒.
type cacheEntry struct {
	Timestamp int64               `json:"timestamp"`
	Data      []api.PortfolioItem `json:"data"`
}

// CatalogCache 单槽、定时过期的轻量目录缓存.
type CatalogCache struct {
	store  Storage
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// CacheOption 缓存选项.
type CacheOption func(*CatalogCache)

// WithTTL 设置有效期，<= 0 时保持默认值.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CatalogCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock 替换时钟，测试用.
func WithClock(now func() time.Time) CacheOption {
	return func(c *CatalogCache) { c.now = now }
}

// NewCatalogCache 创建目录缓存.
func NewCatalogCache(store Storage, opts ...CacheOption) *CatalogCache {
	c := &CatalogCache{
		store:  store,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: log.Component("client.cache"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load 返回未过期的缓存目录；缺失、过期或损坏都视为未命中，过期与损坏的条目会被删除.
func (c *CatalogCache) Load(ctx context.Context) ([]api.PortfolioItem, bool) {
	b, err := c.store.Get(ctx, CacheKey)
	if err != nil {
		if !errors.Is(err, ErrNoEntry) {
			c.logger.Warn().Err(err).Msg("failed to retrieve from cache")
		}

		return nil, false
	}

	entry, err := decodeEntry(b)
	if err != nil {
		c.logger.Warn().Err(err).Msg("discarding cache entry")
		c.remove(ctx)

		return nil, false
	}

	age := c.now().Sub(time.UnixMilli(entry.Timestamp))
	if age >= c.ttl {
		c.logger.Debug().Dur("age", age).Msg("cache expired")
		c.remove(ctx)

		return nil, false
	}

	return entry.Data, true
}

// Save 以当前时刻写入目录.
func (c *CatalogCache) Save(ctx context.Context, items []api.PortfolioItem) error {
	if items == nil {
		items = []api.PortfolioItem{}
	}

	b, err := sonic.Marshal(cacheEntry{Timestamp: c.now().UnixMilli(), Data: items})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.store.Set(ctx, CacheKey, b); err != nil {
		return fmt.Errorf("save to cache: %w", err)
	}

	return nil
}

// Clear 删除缓存条目.
func (c *CatalogCache) Clear(ctx context.Context) error {
	return c.store.Remove(ctx, CacheKey)
}

func (c *CatalogCache) remove(ctx context.Context) {
	if err := c.store.Remove(ctx, CacheKey); err != nil {
		c.logger.Warn().Err(err).Msg("failed to remove cache entry")
	}
}

func decodeEntry(b []byte) (cacheEntry, error) {
	var entry cacheEntry
	if err := sonic.Unmarshal(b, &entry); err != nil {
		return entry, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	if entry.Timestamp <= 0 || entry.Data == nil {
		return entry, fmt.Errorf("%w: missing timestamp or data", ErrCorruptEntry)
	}

	return entry, nil
}
