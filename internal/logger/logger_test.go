package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/procurement/internal/config"
)

func TestBuild_Levels(t *testing.T) {
	logger, err := Build(config.Observability{LogLevel: "warn", LogEncoding: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = Build(config.Observability{LogLevel: "chatty", LogEncoding: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestBuild_RejectsUnknownEncoding(t *testing.T) {
	_, err := Build(config.Observability{LogLevel: "info", LogEncoding: "xml"})
	assert.Error(t, err)
}

func TestNew_ReplacesGlobalsUntilStop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger, err := New(lc, config.Config{Observability: config.Observability{LogLevel: "info", LogEncoding: "json"}})
	require.NoError(t, err)

	lc.RequireStart()
	assert.Same(t, logger, zap.L())

	lc.RequireStop()
	assert.NotSame(t, logger, zap.L())
}
