package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultClientBaseURL        = "http://localhost:8080"
	DefaultClientCacheDir       = ".folio-cache"
	DefaultClientCacheTTL       = time.Hour
	DefaultClientPreloadTimeout = 5 * time.Second
	DefaultClientRequestTimeout = 10 * time.Second
)

// ClientConfig 渐进加载客户端配置.
type ClientConfig struct {
	BaseURL        string               `mapstructure:"base_url"        rule:"required,url"`
	CacheDir       string               `mapstructure:"cache_dir"       rule:"required"`
	CacheTTL       time.Duration        `mapstructure:"cache_ttl"       rule:"gt=0"`
	PreloadTimeout time.Duration        `mapstructure:"preload_timeout" rule:"gt=0"`
	RequestTimeout time.Duration        `mapstructure:"request_timeout" rule:"gt=0"`
	Breaker        CircuitBreakerConfig `mapstructure:"breaker"`
}

func (c *ClientConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", DefaultClientBaseURL)
	v.SetDefault("client.cache_dir", DefaultClientCacheDir)
	v.SetDefault("client.cache_ttl", DefaultClientCacheTTL)
	v.SetDefault("client.preload_timeout", DefaultClientPreloadTimeout)
	v.SetDefault("client.request_timeout", DefaultClientRequestTimeout)
	c.Breaker.setDefaults(v, "client.breaker")
}
