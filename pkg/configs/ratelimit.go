package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultRateLimitKey     = "ip"
	DefaultRateLimitIdleTTL = 10 * time.Minute
)

// DefaultRateLimitExempt 不参与限流的路径前缀.
var DefaultRateLimitExempt = []string{"/health", "/metrics"}

// RateLimitConfig 按客户端限流.详情接口在轮播打开时会被并发请求，burst 需覆盖一屏的条目数.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gt=0"`
	Burst   int     `mapstructure:"burst" rule:"min=1"`
	// Key 限流维度：global、ip 或 header:<Header-Name>
	Key string `mapstructure:"key" rule:"required"`
	// IdleTTL 客户端闲置多久后回收其 limiter
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
	Exempt  []string      `mapstructure:"exempt"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.idle_ttl", DefaultRateLimitIdleTTL)
	v.SetDefault("rate_limit.exempt", DefaultRateLimitExempt)
}
