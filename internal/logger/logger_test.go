package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"panic":   zapcore.PanicLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextLogger verifies that names and fields travel with the context.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "dispatcher")
	ctx = WithKV(ctx, "queue", "main")

	InfoKV(ctx, "Event executed", "seq", 1)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "dispatcher", entries[0].LoggerName)
	require.Equal(t, "main", entries[0].ContextMap()["queue"])
	require.EqualValues(t, 1, entries[0].ContextMap()["seq"])
}

// TestFromContext_FallsBackToGlobal ensures a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithLevel_OverridesCoreLevel checks that WithLevel lets entries below the global level through.
func TestWithLevel_OverridesCoreLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	l := zap.New(core, WithLevel(zapcore.InfoLevel))

	l.Info("frame")
	l.Debug("ignored")

	require.Equal(t, 1, logs.Len())
}

// TestSetLevelName applies a named level to the global logger.
// Not parallel: it mutates the shared level.
func TestSetLevelName(t *testing.T) {
	require.Error(t, SetLevelName("loud"))

	require.NoError(t, SetLevelName("debug"))
	require.True(t, Logger().Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, SetLevelName("info"))
	require.False(t, Logger().Desugar().Core().Enabled(zapcore.DebugLevel))
}
