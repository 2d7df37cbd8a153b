package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/folio/pkg/cache"
	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
	"github.com/yeisme/folio/pkg/metrics"
	"github.com/yeisme/folio/pkg/tracing"
)

const (
	thumbnailCachePrefix = "folio:thumb:"
	thumbnailCacheTTL    = 24 * time.Hour
	thumbnailQuality     = 82
)

// ErrNotThumbnailable 主媒体不是可解码的位图（视频、svg、webp）.
var ErrNotThumbnailable = errors.New("media cannot be thumbnailed")

var thumbnailExts = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}}

// Thumbnailable 判断文件能否生成缩略图.
func Thumbnailable(name string) bool {
	_, ok := thumbnailExts[catalog.Extension(name)]
	return ok
}

// ThumbnailService 生成并缓存网格缩略图.
type ThumbnailService struct {
	cfg   configs.PortfolioThumbnailConfig
	cache *cache.Cache
}

// NewThumbnailService 创建缩略图服务，store 为 nil 时不缓存.
func NewThumbnailService(cfg configs.PortfolioThumbnailConfig, store kv.KVStore) *ThumbnailService {
	s := &ThumbnailService{cfg: cfg}
	if store != nil {
		s.cache = cache.NewCache(store, cache.WithPrefix(thumbnailCachePrefix))
	}

	return s
}

// Width 把请求宽度收敛到配置范围内，0 表示默认宽度.
func (s *ThumbnailService) Width(requested int) int {
	switch {
	case requested <= 0:
		return s.cfg.Width
	case requested > s.cfg.MaxWidth:
		return s.cfg.MaxWidth
	default:
		return requested
	}
}

// Render 返回 path 对应图片按宽度等比缩放后的 JPEG，第二个返回值表示是否命中缓存.
// 原图比目标宽度更窄时不放大.
func (s *ThumbnailService) Render(ctx context.Context, path string, width int) ([]byte, bool, error) {
	if !Thumbnailable(path) {
		return nil, false, ErrNotThumbnailable
	}

	info, err := os.Stat(path)
	if err != nil {
		metrics.ThumbnailRenders.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("stat media: %w", err)
	}

	width = s.Width(width)
	key := thumbnailKey(path, info.Size(), info.ModTime(), width)

	ctx, span := tracing.StartSpan(ctx, "portfolio.thumbnail")
	defer span.End()

	span.SetAttributes(attribute.Int("thumbnail.width", width))

	if s.cache != nil {
		if data, err := s.cache.GetBytes(ctx, key); err == nil {
			metrics.ThumbnailRenders.WithLabelValues("cached").Inc()
			return data, true, nil
		}
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		metrics.ThumbnailRenders.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)

		return nil, false, fmt.Errorf("decode media: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		metrics.ThumbnailRenders.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("encode thumbnail: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.SetBytes(ctx, key, buf.Bytes(), thumbnailCacheTTL)
	}

	metrics.ThumbnailRenders.WithLabelValues("rendered").Inc()

	return buf.Bytes(), false, nil
}

func thumbnailKey(path string, size int64, mod time.Time, width int) string {
	d := xxhash.New()
	_, _ = d.WriteString(path)
	_, _ = d.WriteString(":" + strconv.FormatInt(size, 10))
	_, _ = d.WriteString(":" + strconv.FormatInt(mod.UnixNano(), 10))
	_, _ = d.WriteString(":" + strconv.Itoa(width))

	return strconv.FormatUint(d.Sum64(), 16)
}
