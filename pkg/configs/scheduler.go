package configs

import "github.com/spf13/viper"

// DefaultWarmCron 目录预热任务的默认 cron 表达式.
const DefaultWarmCron = "*/10 * * * *"

// SchedulerConfig 定时任务配置.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	WarmCron string `mapstructure:"warm_cron" rule:"required"`
}

func (c *SchedulerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.warm_cron", DefaultWarmCron)
}
