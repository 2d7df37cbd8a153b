// Package log 基于 zerolog 的全局日志.stderr 输出面向人或面向采集，
// 可选再写一份 lumberjack 轮转文件（始终为 JSON）.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yeisme/folio/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按全局配置初始化一次.
func Init() {
	initOnce.Do(func() {
		cfg := configs.GetConfig()

		logger = New(cfg.Log, cfg.Server.Debug, os.Stderr)
		zlog.Logger = logger
	})
}

// New 按配置构造 logger，stderr 为控制台输出目标.
// debug 为 true 时附带调用位置.
func New(cfg configs.LogConfig, debug bool, stderr io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	writers := []io.Writer{consoleOrJSON(stderr, cfg.Format)}

	if cfg.EnableFile && cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	zctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if debug {
		zctx = zctx.Caller()
	}

	return zctx.Logger()
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q, using info\n", s)
		return zerolog.InfoLevel
	}

	return lvl
}

// consoleOrJSON format 为 auto 时仅在 w 是终端的情况下用 console 格式.
func consoleOrJSON(w io.Writer, format string) io.Writer {
	f, isFile := w.(*os.File)
	tty := isFile && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))

	switch format {
	case "json":
		return w
	case "console":
	default:
		if !tty {
			return w
		}
	}

	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !tty}
}

// Logger 返回全局 logger，首次调用时初始化.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// Component 返回带 component 字段的子 logger.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// GinWriter 把 gin 的调试与错误输出按行转成指定级别的日志事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.WithLevel(w.level).Msg(msg)
	}

	return len(p), nil
}
