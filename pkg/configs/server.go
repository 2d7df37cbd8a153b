package configs

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort            = 8080
	DefaultHost            = "0.0.0.0"
	DefaultReloadConfig    = true
	DefaultDebug           = false
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultGzip            = true
)

// ServerConfig HTTP 服务配置.
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	  request_timeout: 30s   # 读请求头与写响应的上限，视频等大文件经静态路由下发时需调大
//	  shutdown_timeout: 10s
//	  gzip: true             # 压缩目录与详情 JSON
type ServerConfig struct {
	Port            int           `mapstructure:"port"             rule:"min=1,max=65535"`
	Host            string        `mapstructure:"host"             rule:"omitempty,ip"`
	ReloadConfig    bool          `mapstructure:"reload_config"`
	Debug           bool          `mapstructure:"debug"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  rule:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" rule:"min=0"`
	Gzip            bool          `mapstructure:"gzip"`
}

// Addr 返回监听地址.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ShutdownWait 返回优雅退出的等待上限，未配置时取默认值.
func (s ServerConfig) ShutdownWait() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}

	return s.ShutdownTimeout
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.request_timeout", DefaultRequestTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.gzip", DefaultGzip)
}
