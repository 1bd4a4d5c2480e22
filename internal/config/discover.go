// internal/config/discover.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "streamgrab"

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./" + appName + ".toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.toml")
}

// DefaultDatabasePath returns where job history and the token cache live.
func DefaultDatabasePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "data", appName+".db")
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName, appName+".db")
}

// ErrNotFound is returned by Discover when no config file exists.
var ErrNotFound = errors.New("config not found")

// Discover finds the config file using the standard search order.
// Search order:
//  1. STREAMGRAB_CONFIG environment variable
//  2. ./streamgrab.toml (current directory)
//  3. $XDG_CONFIG_HOME/streamgrab/config.toml
//  4. /etc/streamgrab/config.toml
func Discover() (string, error) {
	if envPath := os.Getenv("STREAMGRAB_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("STREAMGRAB_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./" + appName + ".toml",
		DefaultPath(),
		"/etc/" + appName + "/config.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w, checked: %s", ErrNotFound, strings.Join(paths, ", "))
}
