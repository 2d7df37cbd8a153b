package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPortfolioRoot      = "portfolio"
	DefaultPortfolioURLPrefix = "portfolio"
	DefaultDescriptorName     = "metadata.json"
	DefaultCatalogCacheTTL    = time.Hour
	DefaultThumbnailWidth     = 480
	DefaultThumbnailMaxWidth  = 1920
	DefaultWatchDebounce      = 250 * time.Millisecond
)

// PortfolioConfig 作品集目录约定.
type PortfolioConfig struct {
	// Root 作品集根目录，每个子目录对应一个作品
	Root string `mapstructure:"root"       rule:"required"`
	// URLPrefix 拼接在 src 与 gallery 路径前的前缀，不带开头的斜杠.
	// 为空时 src 相对站点根目录，媒体交由外部静态服务提供，本服务不挂载媒体路由
	URLPrefix  string `mapstructure:"url_prefix" rule:"omitempty,relpath"`
	Descriptor string `mapstructure:"descriptor" rule:"required"`
	Watch      bool   `mapstructure:"watch"`
	// WatchDebounce 同一子目录的文件事件在窗口内合并为一次失效
	WatchDebounce time.Duration            `mapstructure:"watch_debounce" rule:"min=0"`
	Cache         PortfolioCacheConfig     `mapstructure:"cache"`
	Thumbnail     PortfolioThumbnailConfig `mapstructure:"thumbnail"`
}

// PortfolioCacheConfig 服务端目录缓存.
type PortfolioCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"     rule:"min=0"`
}

// PortfolioThumbnailConfig 缩略图尺寸.
type PortfolioThumbnailConfig struct {
	Width    int `mapstructure:"width"     rule:"min=16"`
	MaxWidth int `mapstructure:"max_width" rule:"gtefield=Width"`
}

func (c *PortfolioConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("portfolio.root", DefaultPortfolioRoot)
	v.SetDefault("portfolio.url_prefix", DefaultPortfolioURLPrefix)
	v.SetDefault("portfolio.descriptor", DefaultDescriptorName)
	v.SetDefault("portfolio.watch", true)
	v.SetDefault("portfolio.watch_debounce", DefaultWatchDebounce)
	v.SetDefault("portfolio.cache.enabled", true)
	v.SetDefault("portfolio.cache.ttl", DefaultCatalogCacheTTL)
	v.SetDefault("portfolio.thumbnail.width", DefaultThumbnailWidth)
	v.SetDefault("portfolio.thumbnail.max_width", DefaultThumbnailMaxWidth)
}
