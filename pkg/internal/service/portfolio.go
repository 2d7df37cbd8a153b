// Package service 实现作品集相关的业务逻辑：目录解析缓存、详情、描述渲染与缩略图.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/folio/pkg/cache"
	"github.com/yeisme/folio/pkg/configs"
	fctx "github.com/yeisme/folio/pkg/context"
	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
	"github.com/yeisme/folio/pkg/internal/types"
	"github.com/yeisme/folio/pkg/log"
	"github.com/yeisme/folio/pkg/metrics"
	"github.com/yeisme/folio/pkg/tracing"
)

// 缓存键前缀.
const (
	catalogCachePrefix = "folio:catalog:"
)

// PortfolioService 负责目录与详情的解析.
// 开启缓存时以内容指纹 + 失效代数作为 key，文件系统的任何变化都会换 key，始终以文件系统为准.
type PortfolioService struct {
	resolver    *catalog.Resolver
	cache       *cache.Cache
	ttl         time.Duration
	description *DescriptionRenderer

	group      singleflight.Group
	generation atomic.Uint64
	logger     zerolog.Logger
}

// NewPortfolioService 创建服务，store 为 nil 或未开启缓存时每次请求都直接解析.
func NewPortfolioService(cfg configs.PortfolioConfig, store kv.KVStore) *PortfolioService {
	s := &PortfolioService{
		resolver: catalog.NewResolver(catalog.Options{
			Root:       cfg.Root,
			URLPrefix:  cfg.URLPrefix,
			Descriptor: cfg.Descriptor,
		}),
		ttl:         cfg.Cache.TTL,
		description: NewDescriptionRenderer(),
		logger:      log.Component("portfolio"),
	}

	if cfg.Cache.Enabled && store != nil {
		s.cache = cache.NewCache(store, cache.WithPrefix(catalogCachePrefix))
	}

	return s
}

// CacheEnabled 是否启用了目录缓存.
func (s *PortfolioService) CacheEnabled() bool { return s.cache != nil }

// Resolver 返回底层解析器.
func (s *PortfolioService) Resolver() *catalog.Resolver { return s.resolver }

// Catalog 返回当前目录.根目录缺失时返回 catalog.ErrCollectionMissing.
func (s *PortfolioService) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	ctx, span := tracing.StartSpan(ctx, "portfolio.catalog")
	defer span.End()

	cat, err := s.catalog(ctx)
	if err != nil {
		if !errors.Is(err, catalog.ErrCollectionMissing) {
			tracing.RecordError(span, err)
		}

		return nil, err
	}

	span.SetAttributes(attribute.Int("portfolio.items", len(cat.Entries)))
	metrics.CatalogItems.Set(float64(len(cat.Entries)))

	return cat, nil
}

// Items 返回轻量记录列表.
func (s *PortfolioService) Items(ctx context.Context) ([]types.PortfolioItem, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	return cat.Items(), nil
}

// Detail 返回单个作品的完整记录，每次都重新扫描该目录以生成图集.
func (s *PortfolioService) Detail(ctx context.Context, id int) (*types.PortfolioDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "portfolio.detail")
	defer span.End()

	span.SetAttributes(attribute.Int("portfolio.id", id))

	cat, err := s.catalog(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrCollectionMissing) {
			metrics.DetailRequests.WithLabelValues("not_found").Inc()
			return nil, catalog.ErrItemNotFound
		}

		metrics.DetailRequests.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)

		return nil, err
	}

	detail, err := s.resolver.Detail(ctx, cat, id)
	if err != nil {
		metrics.DetailRequests.WithLabelValues("not_found").Inc()
		return nil, err
	}

	detail.DescriptionHTML = s.description.Render(detail.Description)
	metrics.DetailRequests.WithLabelValues("found").Inc()

	return detail, nil
}

// Entry 按 id 查找目录条目（包含来源目录与主媒体文件名）.
func (s *PortfolioService) Entry(ctx context.Context, id int) (catalog.Entry, error) {
	cat, err := s.catalog(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrCollectionMissing) {
			return catalog.Entry{}, catalog.ErrItemNotFound
		}

		return catalog.Entry{}, err
	}

	e, ok := cat.Find(id)
	if !ok {
		return catalog.Entry{}, catalog.ErrItemNotFound
	}

	return e, nil
}

// Invalidate 使当前所有缓存的目录失效.
func (s *PortfolioService) Invalidate(reason string) {
	gen := s.generation.Add(1)
	s.logger.Debug().Str("reason", reason).Uint64("generation", gen).Msg("catalog cache invalidated")
}

// CheckCollection 检查根目录是否可读，用于健康检查.
func (s *PortfolioService) CheckCollection(ctx context.Context) error {
	_, err := s.resolver.Fingerprint(ctx)
	return err
}

func (s *PortfolioService) catalog(ctx context.Context) (*catalog.Catalog, error) {
	if s.cache == nil {
		return s.resolve(ctx)
	}

	fp, err := s.resolver.Fingerprint(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%d", fp, s.generation.Load())

	v, err, _ := s.group.Do(key, func() (any, error) {
		cat, hit, err := cache.GetOrSet(ctx, s.cache, key, func() (*catalog.Catalog, error) {
			return s.resolve(ctx)
		}, s.ttl)
		if err != nil {
			return nil, err
		}

		if hit {
			metrics.CatalogCache.WithLabelValues("hit").Inc()
		} else {
			metrics.CatalogCache.WithLabelValues("miss").Inc()
		}

		return cat, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*catalog.Catalog), nil
}

func (s *PortfolioService) resolve(ctx context.Context) (*catalog.Catalog, error) {
	start := time.Now()

	cat, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	metrics.CatalogResolveDuration.Observe(time.Since(start).Seconds())

	for reason, n := range cat.Skipped {
		metrics.FoldersSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}

	l := fctx.WithTraceContext(ctx, s.logger)
	l.Debug().
		Int("items", len(cat.Entries)).
		Interface("skipped", cat.Skipped).
		Dur("took", time.Since(start)).
		Msg("catalog resolved")

	return cat, nil
}
