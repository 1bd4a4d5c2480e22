// internal/config/error.go
package config

import (
	"strings"
)

// ConfigError aggregates everything wrong with one config file.
type ConfigError struct {
	Path    string   // Config file path
	Missing []string // Unresolved environment variables
	Unknown []string // Keys that map to no setting, with suggestions
	Errors  []string // Invalid values
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path + ":\n")
	}
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for _, it := range items {
			b.WriteString("  - " + it + "\n")
		}
	}
	section("missing environment variables", e.Missing)
	section("unknown keys", e.Unknown)
	section("invalid values", e.Errors)
	return strings.TrimSuffix(b.String(), "\n")
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing)+len(e.Unknown)+len(e.Errors) > 0
}
