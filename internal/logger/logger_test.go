package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"none", LevelNone},
		{"NONE", LevelNone},
		{"invalid", LevelInfo}, // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "NONE", LevelNone.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestNewLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, err := New(LevelInfo, logPath, "calc")
	require.NoError(t, err)

	logger.Info("evaluated %q", "2 + 3")
	logger.Debug("should not appear")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, `evaluated "2 + 3"`)
	assert.Contains(t, text, "[INFO]")
	assert.Contains(t, text, "[calc]")
	assert.NotContains(t, text, "should not appear")
}

func TestWithPrefixSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(LevelInfo, &buf, "calculate42")
	child := root.WithPrefix("web")

	child.Debug("hidden")
	root.SetLevel(LevelDebug)
	child.Debug("visible")

	text := buf.String()
	assert.NotContains(t, text, "hidden")
	assert.Contains(t, text, "[calculate42:web] visible")
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestLoggerDisabled(t *testing.T) {
	logger, err := New(LevelNone, "", "test")
	require.NoError(t, err)
	defer logger.Close()

	assert.False(t, logger.Enabled(LevelError))
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(LevelInfo, &buf, "")

	logger.Info("info1")
	logger.Debug("debug1")
	logger.SetLevel(LevelDebug)
	logger.Info("info2")
	logger.Debug("debug2")

	text := buf.String()
	assert.NotContains(t, text, "debug1")
	assert.Contains(t, text, "debug2")
	assert.Contains(t, text, "info1")
	assert.Contains(t, text, "info2")
}

func TestGlobalLogger(t *testing.T) {
	require.NotNil(t, Global())

	// Should not panic
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}

func TestInitReplacesGlobal(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Init(LevelWarn, logPath))
	t.Cleanup(func() {
		_ = Global().Close()
		_ = Init(LevelNone, "")
	})

	Info("dropped")
	Warn("kept")
	require.NoError(t, Global().Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "dropped")
	assert.Contains(t, string(content), "kept")
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(LevelInfo, &buf, "web")

	slogger := slog.New(NewSlogHandler(l)).With("component", "server")
	slogger.WithGroup("req").Info("served", "path", "/api/calculate", "status", 200)
	slogger.Debug("not written")

	text := buf.String()
	assert.Contains(t, text, "[web] served component=server req.path=/api/calculate req.status=200")
	assert.NotContains(t, text, "not written")
	assert.Nil(t, NewSlogHandler(nil))
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	std := StdLogger(NewWriter(LevelDebug, &buf, "http"), slog.LevelError)
	std.Print("http: TLS handshake error")

	assert.True(t, strings.Contains(buf.String(), "[ERROR] [http] http: TLS handshake error"))
}
