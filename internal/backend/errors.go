// internal/backend/errors.go
package backend

import "errors"

var (
	// ErrMissingEncoder indicates ffmpeg could not be run.
	ErrMissingEncoder = errors.New("ffmpeg is missing")

	// ErrOutdatedEncoder indicates the installed ffmpeg is too old.
	ErrOutdatedEncoder = errors.New("ffmpeg is too old")

	// ErrMissingSegmenter indicates yt-dlp could not be run.
	ErrMissingSegmenter = errors.New("yt-dlp is missing")

	// ErrProcessFailed indicates the external tool exited with an error.
	ErrProcessFailed = errors.New("download process failed")

	// ErrNoStagedFile indicates the segmented download left no matching file.
	ErrNoStagedFile = errors.New("no downloaded file found in staging directory")

	// ErrCancelled indicates the download was cancelled through its handle.
	ErrCancelled = errors.New("download cancelled")

	// ErrTerminated indicates the tool was killed by an interrupt or
	// termination signal that did not come through its handle.
	ErrTerminated = errors.New("process terminated by signal")

	// ErrUnknownBackend indicates an unsupported backend kind.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrDestinationExists indicates the final path is already taken.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrCopyFailed indicates promoting the staged file failed.
	ErrCopyFailed = errors.New("failed to copy file")
)
