package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrNotFound is returned when a job record is not found in the database.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when a job cannot move to the requested status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSessionRefresh is returned when the session could not be refreshed
	// between two downloads. The run stops.
	ErrSessionRefresh = errors.New("session refresh failed")

	// ErrBackendFailed is returned when a backend reported failure and the run
	// was not configured to continue past it.
	ErrBackendFailed = errors.New("download failed")

	// ErrNoOutputPath is returned when a video reaches the orchestrator
	// without a resolved output path.
	ErrNoOutputPath = errors.New("no output path assigned")

	// ErrInterrupted is returned when the user interrupted a running download.
	ErrInterrupted = errors.New("download interrupted")
)
