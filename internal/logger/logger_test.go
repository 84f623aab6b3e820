package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestObjFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.WarnObj("could not fetch free game", "fetch_error", map[string]any{"provider_id": "epic"})
	log.DebugObj("no fields", "", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "fetch_error", ctx["event"])
	assert.Equal(t, map[string]any{"provider_id": "epic"}, ctx["data"])
	assert.Empty(t, entries[1].Context)
}

func TestNewLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		l, err := New(Options{Level: lvl})
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)

	l, err := New(Options{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestEnsure(t *testing.T) {
	assert.Equal(t, NopLogger{}, Ensure(nil))
	assert.Nil(t, FromZap(nil).Sync())
}
