package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamgrab.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
[download]
backend = "yt-dlp"
fragments = 8
closed_captions = true

[session]
login_command = ["login-helper", "--headless"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", cfg.Download.Backend)
	assert.Equal(t, 8, cfg.Download.Fragments)
	assert.True(t, cfg.Download.ClosedCaptions)
	assert.Equal(t, []string{"login-helper", "--headless"}, cfg.Session.LoginCommand)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "videos", cfg.Download.OutputDir)
	assert.Equal(t, "ffmpeg", cfg.Download.Backend)
	assert.Equal(t, 5, cfg.Download.Fragments)
	assert.Equal(t, "mp4", cfg.Download.Format)
	assert.Equal(t, "copy", cfg.Download.VideoCodec)
	assert.Equal(t, "copy", cfg.Download.AudioCodec)
	assert.Equal(t, "{title} - {publishDate} {uniqueId}", cfg.Download.FilenameTemplate)
	assert.Equal(t, "/data/streamgrab/streamgrab.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Session.UseTokenCache())
}

func TestLoad_TokenCacheDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[session]\ntoken_cache = false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Session.UseTokenCache())
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
[session]
access_token = "${STREAMGRAB_TEST_MISSING_TOKEN}"
`)

	_, err := Load(path)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"STREAMGRAB_TEST_MISSING_TOKEN"}, cfgErr.Missing)
	assert.Equal(t, path, cfgErr.Path)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	path := writeConfig(t, `
[download]
output_dir = "${STREAMGRAB_TEST_UNSET_DIR:-/srv/videos}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/videos", cfg.Download.OutputDir)
}

func TestLoad_ValidationError(t *testing.T) {
	_, err := Load(writeConfig(t, "[download]\nfragments = -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download.fragments")
}

func TestLoad_UnknownKeySuggestsFix(t *testing.T) {
	_, err := Load(writeConfig(t, "[download]\nbackned = \"ffmpeg\"\n"))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{`download.backned (did you mean "download.backend"?)`}, cfgErr.Unknown)
	assert.Empty(t, cfgErr.Errors)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[download\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadWithoutValidation(t *testing.T) {
	cfg, err := LoadWithoutValidation(writeConfig(t, "[download]\nbackend = \"curl\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "curl", cfg.Download.Backend)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
}
