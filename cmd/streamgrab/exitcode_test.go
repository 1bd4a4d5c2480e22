package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmunix/streamgrab/internal/backend"
	"github.com/vmunix/streamgrab/internal/download"
	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/stream"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"unhandled", errors.New("boom"), 1},
		{"missing ffmpeg", fmt.Errorf("probe: %w", backend.ErrMissingEncoder), 2},
		{"missing yt-dlp", backend.ErrMissingSegmenter, 2},
		{"outdated ffmpeg", backend.ErrOutdatedEncoder, 3},
		{"backend failure", fmt.Errorf("%w: abc: %w", download.ErrBackendFailed, backend.ErrProcessFailed), 4},
		{"unknown video", fmt.Errorf("fetch video info: %w", stream.ErrNotFound), 5},
		{"incomplete video", &stream.MissingFieldError{Resource: "videos/abc", Field: "playbackUrls"}, 5},
		{"no session", session.ErrNoSessionInfo, 6},
		{"no authenticator", session.ErrNoAuthenticator, 6},
		{"refresh failed", fmt.Errorf("%w: %w", download.ErrSessionRefresh, errors.New("helper crashed")), 6},
		{"rejected token", stream.ErrUnauthorized, 6},
		{"interrupted", download.ErrInterrupted, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExitHint(t *testing.T) {
	assert.Contains(t, exitHint(backend.ErrMissingEncoder), "ffmpeg")
	assert.Contains(t, exitHint(session.ErrNoSessionInfo), "login_command")
	assert.Empty(t, exitHint(errors.New("boom")))
}
