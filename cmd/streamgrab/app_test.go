package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
}

func TestNewLogger_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "error", true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	newLogger(&buf, "error", false).Warn("hidden")
	assert.Empty(t, buf.String())
}

func TestLoadConfig_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamgrab.toml")
	require.NoError(t, os.WriteFile(path, []byte("[download]\nbackend = \"yt-dlp\"\n"), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", cfg.Download.Backend)
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Setenv("STREAMGRAB_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	if _, err := os.Stat("/etc/streamgrab/config.toml"); err == nil {
		t.Skip("system config present")
	}

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", cfg.Download.Backend)
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "streamgrab.db")

	db, err := openDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&n))
	assert.Zero(t, n)
	assert.FileExists(t, path)
}
