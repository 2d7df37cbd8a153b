package log_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/log"
)

// TestGinWriter 测试 gin 文本行按级别写入 zerolog.
func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := log.NewGinWriter(&l, zerolog.ErrorLevel)

	n, err := w.Write([]byte("[GIN-debug] boom\n"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if n != len("[GIN-debug] boom\n") {
		t.Errorf("Write returned %d", n)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"message":"[GIN-debug] boom"`) {
		t.Errorf("unexpected log line: %s", out)
	}
}

// TestGinWriterSkipsBlank 测试空行不产生日志.
func TestGinWriterSkipsBlank(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := log.NewGinWriter(&l, zerolog.InfoLevel)

	if _, err := w.Write([]byte("   \n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// TestNewJSONWithFile 非终端输出为 JSON，并额外写入轮转文件.
func TestNewJSONWithFile(t *testing.T) {
	var buf bytes.Buffer

	path := filepath.Join(t.TempDir(), "folio.log")

	l := log.New(configs.LogConfig{Level: "debug", Format: "auto", EnableFile: true, FilePath: path, MaxSize: 1}, false, &buf)
	l.Debug().Str("root", "portfolio").Msg("catalog scanned")

	if !strings.Contains(buf.String(), `"root":"portfolio"`) {
		t.Fatalf("expected json on stderr writer, got %q", buf.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	if !strings.Contains(string(data), "catalog scanned") {
		t.Errorf("log file missing entry: %q", data)
	}
}

// TestNewConsoleFormat 强制 console 格式.
func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer

	l := log.New(configs.LogConfig{Level: "info", Format: "console"}, false, &buf)
	l.Info().Msg("listening")

	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "listening") {
		t.Errorf("expected console output, got %q", buf.String())
	}
}
