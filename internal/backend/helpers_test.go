package backend

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/video"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTool writes an executable shell script standing in for ffmpeg or yt-dlp.
func fakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools need a unix shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func testJob(outputPath string) Job {
	return Job{
		Video: &video.Record{
			Identifier:    "a1b2c3d4-0000-1111-2222-333344445555",
			Title:         "Town Hall",
			DurationUnits: 1,
			PlaybackURL:   "https://cdn.example.com/master.m3u8",
			OutputPath:    outputPath,
		},
		Session: session.Session{AccessToken: "tok", APIGatewayURI: "https://gw/", APIGatewayVersion: "1.4"},
	}
}

// drain collects progress until the handle closes the channel.
func drain(h Handle) []Progress {
	var out []Progress
	for p := range h.Progress() {
		out = append(out, p)
	}
	return out
}
