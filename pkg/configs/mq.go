package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeGoChannel MQType = "gochannel"
	MQTypeNATS      MQType = "nats"

	DefaultMQURL         = "localhost:4222"
	DefaultMaxReconnects = 5              // 默认最大重连次数.
	DefaultReconnectWait = 5              // 默认重连等待时间（秒）.
	DefaultMQClientID    = "folio-server" // 默认客户端ID

	// gochannel 配置常量.

	DefaultOutputChannelBuffer = 64 // 默认订阅输出缓冲

	// JetStream 配置常量.

	DefaultConsumerAckWait = 30 // 默认消费者确认等待时间 (秒)
)

// MQConfig 消息队列配置，目录变更事件通过它广播.
type MQConfig struct {
	Type      MQType            `mapstructure:"type"      rule:"oneof=gochannel nats"`
	Common    MQCommonConfig    `mapstructure:"common"`
	GoChannel MQGoChannelConfig `mapstructure:"gochannel"`
	NATS      MQNATSConfig      `mapstructure:"nats"`
}

// MQCommonConfig 通用MQ配置.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"            rule:"hostname_port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
}

// MQGoChannelConfig 进程内 gochannel 配置.
type MQGoChannelConfig struct {
	OutputChannelBuffer int64 `mapstructure:"output_channel_buffer" rule:"min=0"`
	Persistent          bool  `mapstructure:"persistent"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	QueueGroupPrefix       string `mapstructure:"queue_group_prefix"`
	ConsumerAckWait        int    `mapstructure:"consumer_ack_wait"        rule:"min=1"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)

	// Common 默认值
	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.user", "")
	v.SetDefault("mq.common.password", "")
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)

	// gochannel 默认值
	v.SetDefault("mq.gochannel.output_channel_buffer", DefaultOutputChannelBuffer)
	v.SetDefault("mq.gochannel.persistent", false)

	// NATS 默认值
	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.subject_prefix", "folio.")
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "folio-durable")
	v.SetDefault("mq.nats.queue_group_prefix", "")
	v.SetDefault("mq.nats.consumer_ack_wait", DefaultConsumerAckWait)
}
