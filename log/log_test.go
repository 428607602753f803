package log

import (
	"testing"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewBuildsUsableLogger(t *testing.T) {
	clk := clock.NewFake()
	logger := New(Config{Level: zapcore.InfoLevel}, clk)
	require.NotNil(t, logger)
	logger.Info("test message")
	require.NoError(t, logger.Sync())
}

func TestWriterDefaultsToStderrWhenFilenameEmpty(t *testing.T) {
	ws := writer(Config{})
	require.NotNil(t, ws)
}

func TestWriterUsesRotatingFileWhenFilenameSet(t *testing.T) {
	ws := writer(Config{Filename: "/tmp/lcore-core-test.log"})
	require.NotNil(t, ws)
}

func TestMaxOrAppliesFallback(t *testing.T) {
	require.Equal(t, 100, maxOr(0, 100))
	require.Equal(t, 5, maxOr(-1, 5))
	require.Equal(t, 42, maxOr(42, 5))
}
