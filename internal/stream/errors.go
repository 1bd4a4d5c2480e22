package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for metadata API responses.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized: invalid or expired access token")
	ErrRateLimited  = errors.New("rate limited: too many requests")

	// ErrMissingField is wrapped by MissingFieldError.
	ErrMissingField = errors.New("missing field in response")

	// ErrPageTooLarge is returned for page sizes the service rejects.
	ErrPageTooLarge = errors.New("page size above service limit")
)

// MissingFieldError reports a required field absent from a response.
type MissingFieldError struct {
	Resource string // e.g. "videos/<id>"
	Field    string // JSON path, e.g. "media.duration"
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Resource, ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
