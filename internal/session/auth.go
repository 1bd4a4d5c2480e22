package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	// DefaultAttempts is how many times session extraction is tried before giving up.
	DefaultAttempts = 5

	// DefaultRetryDelay is the fixed pause between extraction attempts.
	DefaultRetryDelay = 3 * time.Second
)

// StaticAuthenticator hands out a session supplied up front (config or environment).
type StaticAuthenticator struct {
	Session Session
}

// Login returns the configured session.
func (a StaticAuthenticator) Login(_ context.Context, _ string) (Session, error) {
	if err := a.Session.Validate(); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSessionInfo, err)
	}
	return a.Session, nil
}

// CommandAuthenticator runs an external login helper and reads the session JSON it
// prints on stdout. The helper receives the target URL as its last argument.
type CommandAuthenticator struct {
	Command   []string
	Username  string
	CookieDir string // empty disables the login-cookie cache

	Attempts   int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Login runs the helper until it yields a complete session or attempts run out.
func (a *CommandAuthenticator) Login(ctx context.Context, url string) (Session, error) {
	if len(a.Command) == 0 {
		return Session{}, ErrNoAuthenticator
	}
	attempts := a.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := a.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	for try := 1; try <= attempts; try++ {
		s, err := a.extract(ctx, url)
		if err == nil {
			log.Info("logged in", "gateway", s.APIGatewayURI)
			return s, nil
		}
		lastErr = err
		log.Debug("session extraction failed", "attempt", try, "error", err)

		if try == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return Session{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return Session{}, fmt.Errorf("%w after %d attempts: %v", ErrNoSessionInfo, attempts, lastErr)
}

func (a *CommandAuthenticator) extract(ctx context.Context, url string) (Session, error) {
	args := append(append([]string{}, a.Command[1:]...), url)
	cmd := exec.CommandContext(ctx, a.Command[0], args...)
	cmd.Env = os.Environ()
	if a.Username != "" {
		cmd.Env = append(cmd.Env, "STREAMGRAB_USERNAME="+a.Username)
	}
	if a.CookieDir != "" {
		cmd.Env = append(cmd.Env, "STREAMGRAB_COOKIE_DIR="+a.CookieDir)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Session{}, fmt.Errorf("run login helper: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	var s Session
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}
