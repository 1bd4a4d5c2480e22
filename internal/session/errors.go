// internal/session/errors.go
package session

import "errors"

var (
	// ErrNoSessionInfo is returned when no session could be extracted after all attempts.
	ErrNoSessionInfo = errors.New("could not evaluate session info")

	// ErrIncomplete is returned when a session is missing its token or gateway.
	ErrIncomplete = errors.New("session is incomplete")

	// ErrNoAuthenticator is returned when a login is needed but none is configured.
	ErrNoAuthenticator = errors.New("no authenticator configured")
)
