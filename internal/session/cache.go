package session

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	cacheKey = "session"

	// expiryMargin keeps a token from being handed out just before it dies.
	expiryMargin = 5 * time.Minute

	// opaqueTTL is used when the token carries no readable exp claim.
	opaqueTTL = time.Hour
)

// Cache provides SQLite-backed persistence for the session between runs.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// NewCache creates a new session cache.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// Read returns the cached session.
// Returns false if nothing is cached, the entry expired or it cannot be decoded.
func (c *Cache) Read(ctx context.Context) (Session, bool) {
	var value string
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM session_cache WHERE key = ?", cacheKey,
	).Scan(&value, &expiresAt)
	if err != nil || c.now().After(expiresAt) {
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return Session{}, false
	}
	if s.Validate() != nil {
		return Session{}, false
	}
	return s, true
}

// Write replaces the cached session.
func (c *Cache) Write(ctx context.Context, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	expiresAt := c.now().Add(opaqueTTL)
	if exp, ok := tokenExpiry(s.AccessToken); ok {
		expiresAt = exp.Add(-expiryMargin)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO session_cache (key, value, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		cacheKey, string(value), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Clear removes the cached session.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM session_cache WHERE key = ?", cacheKey)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
func tokenExpiry(token string) (time.Time, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, false
	}
	var claims struct {
		Exp *float64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == nil {
		return time.Time{}, false
	}
	return time.Unix(int64(*claims.Exp), 0), true
}
