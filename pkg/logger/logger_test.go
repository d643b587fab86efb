package logger

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.IsType(t, &noOpLogger{}, FromContext(context.Background()))

	l, err := NewZapLogger(config.Logger{Level: "debug", Format: config.LoggerFormatConsole})
	require.NoError(t, err)
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger(config.Logger{Level: "warn", Format: config.LoggerFormatJSON})
	require.NoError(t, err)
	assert.False(t, l.logger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.logger.Desugar().Core().Enabled(zapcore.WarnLevel))

	_, err = NewZapLogger(config.Logger{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewZapConfigFormat(t *testing.T) {
	assert.Equal(t, "json", newZapConfig(config.LoggerFormatJSON).Encoding)
	assert.Nil(t, newZapConfig(config.LoggerFormatJSON).Sampling)
	assert.Equal(t, "console", newZapConfig(config.LoggerFormatConsole).Encoding)
	assert.Equal(t, "console", newZapConfig("").Encoding)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	level, err = parseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, level)

	_, err = parseLevel("verbose")
	assert.Error(t, err)
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &ZapLogger{logger: zap.New(core).Sugar()}

	child := l.With("source", "ortho.tif", "tile", "3/1/2")
	child.Info("rendered", "bytes", 42)
	l.Info("plain")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{
		"source": "ortho.tif",
		"tile":   "3/1/2",
		"bytes":  int64(42),
	}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())

	assert.IsType(t, &noOpLogger{}, NewNoOpLogger().With("k", "v"))
}
