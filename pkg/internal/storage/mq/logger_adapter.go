package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// watermillLogger 把 watermill 的日志接到 zerolog.
// watermill 在每条消息上都打 Info，这里降为 Debug，只有 Error 保持原级别.
type watermillLogger struct {
	l zerolog.Logger
}

// NewZerologAdapter l 为 nil 时丢弃日志.
func NewZerologAdapter(l *zerolog.Logger) watermill.LoggerAdapter {
	base := zerolog.Nop()
	if l != nil {
		base = l.With().Str("component", "mq").Logger()
	}

	return watermillLogger{l: base}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.l.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.l.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.l.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.l.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{l: w.l.With().Fields(map[string]any(fields)).Logger()}
}
