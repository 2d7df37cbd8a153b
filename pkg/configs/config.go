// Package configs 管理应用程序配置，包括服务器、日志、缓存、消息队列以及作品集目录的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Portfolio config:
//
//	config := configs.GetConfig()
//	root := config.Portfolio.Root
//	fmt.Println("Collection root:", root)
//
// Example accessing KV config:
//
//	config := configs.GetConfig()
//	kvType := config.KV.GetKVType()
//	fmt.Println("KV Type:", kvType)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/folio/pkg/rule"
)

// AppName 服务名，用作追踪与指标的默认服务标识.
const AppName = "folio"

// AppVersion 应用版本号，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "FOLIO"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server    ServerConfig    `mapstructure:"server"`     // ServerConfig 服务器配置，端口、调试模式等
		Log       LogConfig       `mapstructure:"log"`        // LogConfig 日志相关配置
		KV        KVConfig        `mapstructure:"kv"`         // KVConfig 服务端缓存使用的键值存储
		MQ        MQConfig        `mapstructure:"mq"`         // MQConfig 目录变更事件的消息队列
		Metrics   MetricsConfig   `mapstructure:"metrics"`    // MetricsConfig 监控指标
		Tracing   TracingConfig   `mapstructure:"tracing"`    // TracingConfig 链路追踪
		RateLimit RateLimitConfig `mapstructure:"rate_limit"` // RateLimitConfig 限流
		Portfolio PortfolioConfig `mapstructure:"portfolio"`  // PortfolioConfig 作品集目录约定
		Client    ClientConfig    `mapstructure:"client"`     // ClientConfig 渐进加载客户端
		Scheduler SchedulerConfig `mapstructure:"scheduler"`  // SchedulerConfig 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.AutomaticEnv()

	// 读取配置
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&globalConfig); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var logConfig LogConfig

	var kvConfig KVConfig

	var mqConfig MQConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var rateLimitConfig RateLimitConfig

	var portfolioConfig PortfolioConfig

	var clientConfig ClientConfig

	var schedulerConfig SchedulerConfig

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	portfolioConfig.setDefaults(v)
	clientConfig.setDefaults(v)
	schedulerConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
			return
		}

		if err := rule.ValidateStruct(&next); err != nil {
			fmt.Printf("Ignoring invalid config: %v\n", err)
			return
		}

		globalConfig = next
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}

// Defaults 返回只包含默认值的配置，主要用于测试和无配置文件的命令.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var cfg AppConfig
	_ = v.Unmarshal(&cfg)

	return cfg
}
