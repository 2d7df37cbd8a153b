package configs

import "github.com/spf13/viper"

const (
	// 默认熔断器配置，客户端访问目录接口时使用.
	DefaultCBEnabled           = true
	DefaultCBFailureRate       = 0.5
	DefaultCBMinRequests       = 5
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 1
)

// CircuitBreakerConfig 熔断器配置.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"min=0,max=1"` // 连续窗口失败比例阈值 [0,1]
	MinRequests       uint32  `mapstructure:"min_requests"`                            // 进入统计的最小请求数
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"min=0"`       // 滑动窗口统计周期
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"min=1"`       // 打开状态持续时间（自动半开）
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half"`                    // 半开状态允许的并发请求数
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", DefaultCBEnabled)
	v.SetDefault(prefix+".failure_rate", DefaultCBFailureRate)
	v.SetDefault(prefix+".min_requests", DefaultCBMinRequests)
	v.SetDefault(prefix+".interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault(prefix+".timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault(prefix+".max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
