// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/streamgrab/internal/backend"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var formatPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// suggestionThreshold is the minimum Jaro-Winkler similarity for a "did you mean".
const suggestionThreshold = 0.8

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string
	d := c.Download

	if !isBackend(d.Backend) {
		msg := fmt.Sprintf("download.backend: must be one of %s; got %q", backendNames(), d.Backend)
		if s := suggest(d.Backend, backendList()); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		errs = append(errs, msg)
	}
	if d.Fragments < 1 {
		errs = append(errs, fmt.Sprintf("download.fragments: must be at least 1, got %d", d.Fragments))
	}
	if !formatPattern.MatchString(d.Format) {
		errs = append(errs, fmt.Sprintf("download.format: must be a bare extension like mp4, got %q", d.Format))
	}
	if d.VideoCodec == backend.CodecNone && d.AudioCodec == backend.CodecNone {
		errs = append(errs, "download.vcodec, download.acodec: cannot drop both tracks")
	}
	if !strings.Contains(d.FilenameTemplate, "{") {
		errs = append(errs, fmt.Sprintf("download.filename_template: needs at least one placeholder, got %q", d.FilenameTemplate))
	}
	if info, err := os.Stat(d.OutputDir); err == nil && !info.IsDir() {
		errs = append(errs, fmt.Sprintf("download.output_dir: %q is not a directory", d.OutputDir))
	}

	s := c.Session
	if s.AccessToken != "" {
		if s.APIGatewayURI == "" {
			errs = append(errs, "session.api_gateway_uri: required when access_token is set")
		}
		if s.APIGatewayVersion == "" {
			errs = append(errs, "session.api_gateway_version: required when access_token is set")
		}
	}
	if s.APIGatewayURI != "" && !isHTTPURL(s.APIGatewayURI) {
		errs = append(errs, fmt.Sprintf("session.api_gateway_uri: must be an http(s) URL, got %q", s.APIGatewayURI))
	}
	if !isHTTPURL(s.LoginURL) {
		errs = append(errs, fmt.Sprintf("session.login_url: must be an http(s) URL, got %q", s.LoginURL))
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	return errs
}

func isBackend(name string) bool {
	for _, k := range backend.Kinds {
		if string(k) == name {
			return true
		}
	}
	return false
}

func backendList() []string {
	out := make([]string, len(backend.Kinds))
	for i, k := range backend.Kinds {
		out[i] = string(k)
	}
	return out
}

func backendNames() string {
	return strings.Join(backendList(), ", ")
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// suggest returns the candidate closest to input, or "" when nothing is close.
func suggest(input string, candidates []string) string {
	if input == "" {
		return ""
	}
	best, bestScore := "", float32(0)
	lower := strings.ToLower(input)
	for _, c := range candidates {
		score := edlib.JaroWinklerSimilarity(lower, strings.ToLower(c))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
