package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("invalid").GetLevel(), "unknown level falls back to info")
	assert.Equal(t, zerolog.InfoLevel, NewLogger("").GetLevel())
}

func TestNewFileLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "revertbot.log")
	logger, closer, err := NewFileLogger("warn", path, FileOptions{})
	require.NoError(t, err)
	logger.Info().Msg("dropped by level")
	logger.Warn().Str("pair", "BTC-USD").Msg("kept")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "dropped by level")
}
