package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name       string
		json       bool
		debug      bool
		encoding   string
		level      zapcore.Level
		stacktrace bool
	}{
		{name: "defaults", encoding: "console", level: zapcore.InfoLevel},
		{name: "json", json: true, encoding: "json", level: zapcore.InfoLevel},
		{name: "debug", json: true, debug: true, encoding: "json", level: zapcore.DebugLevel, stacktrace: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config(tt.json, tt.debug)
			assert.Equal(t, tt.encoding, cfg.Encoding)
			assert.Equal(t, tt.level, cfg.Level.Level())
			assert.Equal(t, !tt.stacktrace, cfg.DisableStacktrace)
			assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
			assert.Equal(t, "msg", cfg.EncoderConfig.MessageKey)
			assert.Equal(t, "component", cfg.EncoderConfig.NameKey)
		})
	}
}

func TestConfigLevelsAreIndependent(t *testing.T) {
	debug := config(false, true)
	info := config(false, false)
	assert.Equal(t, zapcore.InfoLevel, info.Level.Level())
	assert.Equal(t, zapcore.DebugLevel, debug.Level.Level())
}

func TestNew(t *testing.T) {
	logger, err := New(true, false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
