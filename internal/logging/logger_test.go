package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"poetica/internal/config"
)

func TestInitLogger_Level(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	require.NoError(t, InitLogger(&config.LoggingConfig{Level: "WARN", Format: "json"}))

	assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInitLogger_BadLevelFallsBackToInfo(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	require.NoError(t, InitLogger(&config.LoggingConfig{Level: "loud", Format: "text"}))

	assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
}

func TestWithComponent(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	core, logs := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core)

	WithComponent("notifier").Info("queued")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "queued", entry.Message)
	assert.Equal(t, "notifier", entry.ContextMap()["component"])
}
