package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidate_DefaultsValid(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestValidate_UnknownBackendSuggests(t *testing.T) {
	cfg := Default()
	cfg.Download.Backend = "ytdlp"

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "download.backend")
	assert.Contains(t, errs[0], `did you mean "yt-dlp"`)
}

func TestValidate_UnknownBackendNoSuggestion(t *testing.T) {
	cfg := Default()
	cfg.Download.Backend = "wget"

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.NotContains(t, errs[0], "did you mean")
}

func TestValidate_Format(t *testing.T) {
	cfg := Default()
	cfg.Download.Format = ".mkv"
	assert.True(t, containsError(cfg.Validate(), "download.format"))
}

func TestValidate_DroppingBothTracks(t *testing.T) {
	cfg := Default()
	cfg.Download.VideoCodec = "none"
	cfg.Download.AudioCodec = "none"
	assert.True(t, containsError(cfg.Validate(), "cannot drop both tracks"))
}

func TestValidate_TemplateNeedsPlaceholder(t *testing.T) {
	cfg := Default()
	cfg.Download.FilenameTemplate = "video"
	assert.True(t, containsError(cfg.Validate(), "download.filename_template"))
}

func TestValidate_OutputDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg := Default()
	cfg.Download.OutputDir = file
	assert.True(t, containsError(cfg.Validate(), "download.output_dir"))
}

func TestValidate_AccessTokenNeedsGateway(t *testing.T) {
	cfg := Default()
	cfg.Session.AccessToken = "tok"

	errs := cfg.Validate()
	assert.True(t, containsError(errs, "session.api_gateway_uri"))
	assert.True(t, containsError(errs, "session.api_gateway_version"))
}

func TestValidate_GatewayMustBeURL(t *testing.T) {
	cfg := Default()
	cfg.Session.APIGatewayURI = "not a url"
	assert.True(t, containsError(cfg.Validate(), "session.api_gateway_uri"))
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	assert.True(t, containsError(cfg.Validate(), "log.level"))
}

func TestSuggest(t *testing.T) {
	candidates := []string{"ffmpeg", "yt-dlp"}
	assert.Equal(t, "ffmpeg", suggest("FFMPEG", candidates))
	assert.Equal(t, "ffmpeg", suggest("fmpeg", candidates))
	assert.Equal(t, "", suggest("", candidates))
	assert.Equal(t, "", suggest("aria2c", candidates))
}
