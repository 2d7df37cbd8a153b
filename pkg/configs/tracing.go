package configs

import (
	"time"

	"github.com/spf13/viper"
)

// 支持的 span 导出器.
const (
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterZipkin   = "zipkin"
)

const (
	DefaultTracingEndpoint = "http://localhost:4318"
	DefaultMaxBatchSize    = 512
	DefaultMaxQueueSize    = 2048
)

// TracingConfig OpenTelemetry 追踪.开启后每个目录与详情请求各成一条 span，
// 目录扫描与缩略图生成作为子 span 挂在下面.
type TracingConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"    rule:"required_if=Enabled true"`
	ServiceVersion string            `mapstructure:"service_version"`
	ExporterType   string            `mapstructure:"exporter_type"   rule:"oneof=otlp-http otlp-grpc zipkin"`
	Endpoint       string            `mapstructure:"endpoint"`
	SampleRate     float64           `mapstructure:"sample_rate"     rule:"min=0,max=1"`
	BatchTimeout   time.Duration     `mapstructure:"batch_timeout"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"`
	MaxQueueSize   int               `mapstructure:"max_queue_size"`
	ResourceLabels map[string]string `mapstructure:"resource_labels"`
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", AppName)
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", ExporterOTLPHTTP)
	v.SetDefault("tracing.endpoint", DefaultTracingEndpoint)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.batch_timeout", 5*time.Second)
	v.SetDefault("tracing.max_batch_size", DefaultMaxBatchSize)
	v.SetDefault("tracing.max_queue_size", DefaultMaxQueueSize)
	v.SetDefault("tracing.resource_labels", map[string]string{
		"service.name":    AppName,
		"service.version": AppVersion,
	})
}
