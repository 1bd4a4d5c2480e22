package session

import (
	"context"
	"fmt"
	"log/slog"
)

// Refresher re-authenticates before each video after the first.
type Refresher struct {
	Auth  Authenticator
	Cache *Cache // optional

	// VideoURL builds the canonical page URL for an identifier.
	VideoURL func(id string) string
	Logger   *slog.Logger
}

// Refresh logs in against the video's canonical URL and returns the new session.
// The returned value replaces the old one; nothing is merged.
func (r *Refresher) Refresh(ctx context.Context, id string) (Session, error) {
	if r.Auth == nil {
		return Session{}, ErrNoAuthenticator
	}
	url := id
	if r.VideoURL != nil {
		url = r.VideoURL(id)
	}

	s, err := r.Auth.Login(ctx, url)
	if err != nil {
		return Session{}, fmt.Errorf("refresh session: %w", err)
	}
	if r.Cache != nil {
		if err := r.Cache.Write(ctx, s); err != nil && r.Logger != nil {
			r.Logger.Warn("could not update token cache", "error", err)
		}
	}
	return s, nil
}

// Acquire returns the cached session when there is one, otherwise logs in and
// stores the result.
func Acquire(ctx context.Context, cache *Cache, auth Authenticator, loginURL string, log *slog.Logger) (Session, error) {
	if log == nil {
		log = slog.Default()
	}
	if cache != nil {
		if s, ok := cache.Read(ctx); ok {
			log.Info("using cached access token")
			return s, nil
		}
	}
	if auth == nil {
		return Session{}, ErrNoAuthenticator
	}

	s, err := auth.Login(ctx, loginURL)
	if err != nil {
		return Session{}, err
	}
	if cache != nil {
		if err := cache.Write(ctx, s); err != nil {
			log.Warn("could not write token cache", "error", err)
		} else {
			log.Info("wrote access token to token cache")
		}
	}
	return s, nil
}
