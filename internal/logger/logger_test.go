package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		l, err := New(Config{Level: "warn"})
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		l, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "webagents.log")

		l, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		l.Info().Str("tool", "search").Msg("test message")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"tool":"search"`)
		assert.Contains(t, string(data), "test message")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Pretty)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info().Msg("dropped")
	assert.NoError(t, l.Close())
}
