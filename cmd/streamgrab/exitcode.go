package main

import (
	"errors"

	"github.com/vmunix/streamgrab/internal/backend"
	"github.com/vmunix/streamgrab/internal/download"
	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/stream"
)

// Process exit codes. Scripts depend on these values.
const (
	exitOK               = 0
	exitUnhandled        = 1
	exitMissingEncoder   = 2
	exitOutdatedEncoder  = 3
	exitBackendError     = 4
	exitInvalidVideoGUID = 5
	exitNoSessionInfo    = 6
	exitCancelledByUser  = 7
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, download.ErrInterrupted):
		return exitCancelledByUser
	case errors.Is(err, backend.ErrMissingEncoder), errors.Is(err, backend.ErrMissingSegmenter):
		return exitMissingEncoder
	case errors.Is(err, backend.ErrOutdatedEncoder):
		return exitOutdatedEncoder
	case errors.Is(err, download.ErrSessionRefresh),
		errors.Is(err, session.ErrNoSessionInfo),
		errors.Is(err, session.ErrNoAuthenticator),
		errors.Is(err, stream.ErrUnauthorized):
		return exitNoSessionInfo
	case errors.Is(err, stream.ErrNotFound), errors.Is(err, stream.ErrMissingField):
		return exitInvalidVideoGUID
	case errors.Is(err, download.ErrBackendFailed):
		return exitBackendError
	default:
		return exitUnhandled
	}
}

// exitHint adds a second line for errors the user can act on.
func exitHint(err error) string {
	switch exitCode(err) {
	case exitMissingEncoder:
		return "streamgrab needs a recent ffmpeg (and yt-dlp for the yt-dlp backend) on PATH or configured in [download]"
	case exitOutdatedEncoder:
		return "the installed ffmpeg is too old, please upgrade it"
	case exitNoSessionInfo:
		return "could not get a session; configure [session] login_command or access_token"
	case exitInvalidVideoGUID:
		return "a video in the manifest could not be found; check its URL"
	default:
		return ""
	}
}
