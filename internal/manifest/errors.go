// internal/manifest/errors.go
package manifest

import "errors"

var (
	// ErrUnrecognizedSource indicates a line is neither a video nor a group reference.
	ErrUnrecognizedSource = errors.New("not a video or group url")

	// ErrMalformedDirective indicates a -dir line without a quoted path.
	ErrMalformedDirective = errors.New("malformed directive")
)
