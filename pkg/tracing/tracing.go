// Package tracing 提供分布式追踪功能.
// 支持OpenTelemetry标准，可导出到 OTLP（HTTP/gRPC）或 Zipkin 后端.
//
// Example:
//
//	import "github.com/yeisme/folio/pkg/tracing"
//
//	err := tracing.InitTracer(config.Tracing)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tracing.ShutdownTracer(ctx)
//
//	// 在代码中使用
//	ctx, span := tracing.StartSpan(ctx, "portfolio.catalog")
//	defer span.End()
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/folio/pkg/configs"
)

// TracerName 应用内 span 使用的 tracer 名称.
const TracerName = "github.com/yeisme/folio"

// tracerProvider 全局TracerProvider.
var tracerProvider *sdktrace.TracerProvider

// InitTracer 初始化Tracer.
func InitTracer(config configs.TracingConfig) error {
	if !config.Enabled {
		return nil
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(config.ServiceName),
		semconv.ServiceVersionKey.String(config.ServiceVersion),
	}

	for k, v := range config.ResourceLabels {
		if k == string(semconv.ServiceNameKey) || k == string(semconv.ServiceVersionKey) {
			continue
		}

		attrs = append(attrs, attribute.String(k, v))
	}

	// 创建资源
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(config)
	if err != nil {
		return err
	}

	batcherOpts := []sdktrace.BatchSpanProcessorOption{}
	if config.BatchTimeout > 0 {
		batcherOpts = append(batcherOpts, sdktrace.WithBatchTimeout(config.BatchTimeout))
	}

	if config.MaxBatchSize > 0 {
		batcherOpts = append(batcherOpts, sdktrace.WithMaxExportBatchSize(config.MaxBatchSize))
	}

	if config.MaxQueueSize > 0 {
		batcherOpts = append(batcherOpts, sdktrace.WithMaxQueueSize(config.MaxQueueSize))
	}

	// 创建TracerProvider
	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batcherOpts...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRate))),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return nil
}

// newExporter 根据导出器类型创建导出器.
func newExporter(config configs.TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.ExporterType {
	case configs.ExporterOTLPHTTP:
		exporter, err := otlptracehttp.New(context.Background(), otlptracehttp.WithEndpointURL(config.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}

		return exporter, nil
	case configs.ExporterOTLPGRPC:
		exporter, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithEndpoint(config.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}

		return exporter, nil
	case configs.ExporterZipkin:
		exporter, err := zipkin.New(config.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create zipkin exporter: %w", err)
		}

		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.ExporterType)
	}
}

// ShutdownTracer 关闭Tracer.
func ShutdownTracer(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}

	return nil
}

// StartSpan 开始一个新的Span
// 关闭时调用 span.End().
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, spanName, opts...)
}

// RecordError 在 span 上记录错误并标记状态.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTracer 获取Tracer.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
