package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.NotNil(t, logger)
	logger.Error("discarded", "error", "boom")
}

func TestNewPlain_DropsTime(t *testing.T) {
	var buf bytes.Buffer
	logger := NewPlain(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("shown", "error", "boom")

	assert.Equal(t, "level=INFO msg=shown err=boom\n", buf.String())
}
