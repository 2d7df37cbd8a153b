// NATS 工厂：创建配置了可选 JetStream 支持的 Publisher 和 Subscriber 实例.
// 多个 folio 实例共享同一个根目录时，用它广播目录变更事件.
package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/folio/pkg/configs"
)

const (
	DefaultDrainTimeout   = 30 * time.Second
	DefaultFlusherTimeout = 10 * time.Second
)

// init 注册 NATS 工厂.
func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.Common.ClientID),
		nc.MaxReconnects(cfg.Common.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.Common.ReconnectWait) * time.Second),
		nc.DrainTimeout(DefaultDrainTimeout),
		nc.FlusherTimeout(DefaultFlusherTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.Common.User != "" {
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置.
func buildJetStreamConfig(cfg *configs.MQConfig) nats.JetStreamConfig {
	js := cfg.NATS

	jsCfg := nats.JetStreamConfig{
		Disabled: !js.JetStreamEnabled,
	}

	if js.JetStreamEnabled {
		jsCfg.AutoProvision = js.JetStreamAutoProvision
		jsCfg.TrackMsgId = js.JetStreamTrackMsgID
		jsCfg.AckAsync = js.JetStreamAckAsync
		jsCfg.DurablePrefix = js.JetStreamDurablePrefix
	}

	return jsCfg
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg)
	jsCfg := buildJetStreamConfig(cfg)
	marshaler := &nats.JSONMarshaler{}
	url := "nats://" + cfg.Common.URL

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              url,
		NatsOptions:      opts,
		JetStream:        jsCfg,
		Unmarshaler:      marshaler,
		QueueGroupPrefix: cfg.NATS.QueueGroupPrefix,
		AckWaitTimeout:   time.Duration(cfg.NATS.ConsumerAckWait) * time.Second,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
