// Package context 拓展上下文功能，将日志、存储等集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/folio/pkg/internal/storage"
	kvc "github.com/yeisme/folio/pkg/internal/storage/kv"
	mqc "github.com/yeisme/folio/pkg/internal/storage/mq"
	"github.com/yeisme/folio/pkg/scheduler"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	RequestIDKey      ContextKey = "requestID"
	SchedulerKey      ContextKey = "scheduler"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithScheduler 将调度器写入 context.
func WithScheduler(ctx context.Context, s *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, SchedulerKey, s)
}

// GetScheduler 读取调度器，未启用时为 nil.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	s, _ := ctx.Value(SchedulerKey).(*scheduler.Scheduler)
	return s
}

// WithRequestID 将请求 ID 写入 context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID 读取请求 ID，不存在时返回空串.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	l := logger
	if id := GetRequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		return l.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return l
}
