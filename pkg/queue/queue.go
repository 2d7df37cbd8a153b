// Package queue 定义目录事件的主题与消息信封.
//
// 事件只有两类：
//
//	folio.catalog.changed  根目录或某个作品目录发生变化（监听器发布，缓存失效订阅）
//	folio.catalog.warmed   定时预热完成一次目录扫描（调度任务发布）
//
// 信封为 sonic 编码的 JSON：
//
//	{
//	  "header": {"topic": "folio.catalog.changed", "producer": "folio-watcher",
//	             "trace_id": "4bf9...", "occurred_at": "2025-01-02T03:04:05.123Z", "version": "v1"},
//	  "payload": {"root": "portfolio", "path": "portfolio/alpha/metadata.json", "folder": "alpha", "op": "WRITE"}
//	}
//
// 发布时若 ctx 中有正在记录的 span，trace_id 自动取自该 span.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

// Version 当前信封版本.
const Version = "v1"

// 元数据键，watermill 中间件与日志直接读取这些键而不必解码负载.
const (
	MetaTopic      = "topic"
	MetaProducer   = "producer"
	MetaTraceID    = "trace_id"
	MetaOccurredAt = "occurred_at"
	MetaVersion    = "version"
)

// ErrTopicMismatch 信封中的主题与解析时期望的主题不一致.
var ErrTopicMismatch = errors.New("queue: topic mismatch")

// Publisher 由 mq.Client 实现.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Topic 把主题名与负载类型绑定在一起.
type Topic[T any] string

const (
	TopicCatalogChanged = "folio.catalog.changed"
	TopicCatalogWarmed  = "folio.catalog.warmed"
)

var (
	CatalogChanged = Topic[CatalogChangedPayload](TopicCatalogChanged)
	CatalogWarmed  = Topic[CatalogWarmedPayload](TopicCatalogWarmed)
)

// Header 信封头.
type Header struct {
	Topic      string    `json:"topic"`
	Producer   string    `json:"producer,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version"`
}

// Message 信封.
type Message[T any] struct {
	Header  Header `json:"header"`
	Payload T      `json:"payload"`
}

// HeaderOption 调整信封头.
type HeaderOption func(*Header)

// WithProducer 标记发布方，如 folio-watcher、folio-scheduler.
func WithProducer(p string) HeaderOption { return func(h *Header) { h.Producer = p } }

// WithTraceID 显式指定 trace_id，优先于 ctx 中的 span.
func WithTraceID(id string) HeaderOption { return func(h *Header) { h.TraceID = id } }

// Message 构造 watermill 消息.
func (t Topic[T]) Message(ctx context.Context, payload T, opts ...HeaderOption) (*message.Message, error) {
	h := Header{Topic: string(t), OccurredAt: time.Now().UTC(), Version: Version}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		h.TraceID = sc.TraceID().String()
	}

	for _, opt := range opts {
		opt(&h)
	}

	data, err := sonic.Marshal(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s: %w", t, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetaTopic, h.Topic)
	msg.Metadata.Set(MetaOccurredAt, h.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set(MetaVersion, h.Version)

	if h.Producer != "" {
		msg.Metadata.Set(MetaProducer, h.Producer)
	}

	if h.TraceID != "" {
		msg.Metadata.Set(MetaTraceID, h.TraceID)
	}

	return msg, nil
}

// Publish 编码并发布到该主题.
func (t Topic[T]) Publish(ctx context.Context, pub Publisher, payload T, opts ...HeaderOption) error {
	msg, err := t.Message(ctx, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, string(t), msg)
}

// Parse 解码信封并确认它属于该主题.
func (t Topic[T]) Parse(msg *message.Message) (Message[T], error) {
	var m Message[T]
	if err := sonic.Unmarshal(msg.Payload, &m); err != nil {
		return m, fmt.Errorf("queue: decode %s: %w", t, err)
	}

	if m.Header.Topic != string(t) {
		return m, fmt.Errorf("%w: got %q, want %q", ErrTopicMismatch, m.Header.Topic, t)
	}

	return m, nil
}

// PublishCatalogChanged 发布目录变更事件.
func PublishCatalogChanged(ctx context.Context, pub Publisher, payload CatalogChangedPayload, opts ...HeaderOption) error {
	return CatalogChanged.Publish(ctx, pub, payload, opts...)
}

// ParseCatalogChanged 解析目录变更事件.
func ParseCatalogChanged(msg *message.Message) (Message[CatalogChangedPayload], error) {
	return CatalogChanged.Parse(msg)
}

// PublishCatalogWarmed 发布预热结果.
func PublishCatalogWarmed(ctx context.Context, pub Publisher, payload CatalogWarmedPayload, opts ...HeaderOption) error {
	return CatalogWarmed.Publish(ctx, pub, payload, opts...)
}
