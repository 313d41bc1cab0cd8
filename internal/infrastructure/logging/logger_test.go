package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestSetLevelAffectsComponents(t *testing.T) {
	log, err := New(Config{Level: "info", OutputPaths: []string{filepath.Join(t.TempDir(), "shell.log")}})
	require.NoError(t, err)

	child := log.Component("organizer")
	assert.False(t, child.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, log.SetLevel("debug"))
	assert.True(t, child.Core().Enabled(zapcore.DebugLevel))
	assert.Equal(t, "debug", log.Level())

	assert.Error(t, log.SetLevel("chatty"))
	assert.Equal(t, "debug", log.Level())
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Component("x").Info("discarded")
	require.NoError(t, log.SetLevel("warn"))
	assert.Equal(t, "warn", log.Level())
}
