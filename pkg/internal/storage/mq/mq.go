// Package mq 提供基于 Watermill 库的统一消息队列操作接口.
// 支持发布/订阅模式，并通过工厂模式抽象不同的 MQ 实现.
//
// 支持的 MQ 类型：
//   - gochannel（进程内，默认）
//   - NATS（可选 JetStream，多实例部署时广播目录变更）
//
// 该包提供封装了 Publisher、Subscriber 与 Router 的 Client.
//
// 使用示例：
//
//	client, err := mq.New(ctx, &cfg.MQ, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 发布消息
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, queue.TopicCatalogChanged, msg)
//
//	// 注册处理函数并运行 router
//	client.AddHandler("invalidate", queue.TopicCatalogChanged, func(msg *message.Message) error {
//		return nil
//	})
//	go client.Run(ctx)
package mq

import (
	"context"
	"fmt"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// RegisteredTypes 返回已注册的 MQ 类型.
func RegisteredTypes() []configs.MQType {
	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	return out
}

// Client 封装 watermill Publisher、Subscriber 与 Router.
type Client struct {
	Type configs.MQType

	prefix string // NATS 主题前缀

	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	runOnce sync.Once
}

// New 按配置创建 MQ 客户端.
func New(ctx context.Context, cfg *configs.MQConfig, l *zerolog.Logger) (*Client, error) {
	mqType := cfg.Type
	if mqType == "" {
		mqType = configs.MQTypeGoChannel
	}

	factory, ok := factories[mqType]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", mqType)
	}

	logger := NewZerologAdapter(l)

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", mqType, err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		_ = pub.Close()
		_ = sub.Close()

		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	if configs.GetConfig().Metrics.Enabled {
		// 指标注册到应用自身的注册表，由 /metrics 统一导出
		builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), "folio", "mq")
		builder.AddPrometheusRouterMetrics(router)

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	c := &Client{Type: mqType, publisher: pub, subscriber: sub, router: router}
	if mqType == configs.MQTypeNATS {
		c.prefix = cfg.NATS.SubjectPrefix
	}

	return c, nil
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)

		if err := c.publisher.Publish(c.prefix+topic, m); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, c.prefix+topic)
}

// AddHandler 在 router 上注册只消费不发布的处理函数，需在 Run 之前调用.
func (c *Client) AddHandler(name, topic string, fn message.NoPublishHandlerFunc) {
	c.router.AddConsumerHandler(name, c.prefix+topic, c.subscriber, fn)
}

// Run 运行 router，阻塞直到 ctx 结束或 router 关闭；重复调用无效.
func (c *Client) Run(ctx context.Context) error {
	var err error

	c.runOnce.Do(func() {
		err = c.router.Run(ctx)
	})

	return err
}

// Running 返回 router 启动完成的信号.
func (c *Client) Running() chan struct{} {
	return c.router.Running()
}

// Close 关闭资源.
func (c *Client) Close() error {
	var err error

	if c.router != nil {
		// 停止 router，确保所有 handler 停止运行
		if e := c.router.Close(); e != nil {
			err = e
		}
	}

	if c.publisher != nil {
		if e := c.publisher.Close(); e != nil {
			err = e
		}
	}

	if c.subscriber != nil {
		if e := c.subscriber.Close(); e != nil {
			err = e
		}
	}

	return err
}
