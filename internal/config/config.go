// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/streamgrab/internal/backend"
	"github.com/vmunix/streamgrab/internal/video"
)

// Config is the root configuration structure.
type Config struct {
	Download DownloadConfig `toml:"download"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

type DownloadConfig struct {
	OutputDir        string `toml:"output_dir"`
	Backend          string `toml:"backend"`
	Fragments        int    `toml:"fragments"`
	Format           string `toml:"format"`
	VideoCodec       string `toml:"vcodec"`
	AudioCodec       string `toml:"acodec"`
	ClosedCaptions   bool   `toml:"closed_captions"`
	NoCleanup        bool   `toml:"no_cleanup"`
	ContinueOnError  bool   `toml:"continue_on_error"`
	FilenameTemplate string `toml:"filename_template"`
	FFmpegPath       string `toml:"ffmpeg_path"`
	YtDlpPath        string `toml:"ytdlp_path"`
	StagingDir       string `toml:"staging_dir"`
}

type SessionConfig struct {
	LoginURL          string   `toml:"login_url"`
	LoginCommand      []string `toml:"login_command"`
	Username          string   `toml:"username"`
	AccessToken       string   `toml:"access_token"`
	APIGatewayURI     string   `toml:"api_gateway_uri"`
	APIGatewayVersion string   `toml:"api_gateway_version"`
	KeepLoginCookies  bool     `toml:"keep_login_cookies"`
	CookieDir         string   `toml:"cookie_dir"`

	// TokenCache keeps the session between runs. Defaults to true.
	TokenCache *bool `toml:"token_cache"`
}

// UseTokenCache returns whether the session should be cached between runs.
func (s SessionConfig) UseTokenCache() bool {
	if s.TokenCache == nil {
		return true
	}
	return *s.TokenCache
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file and applies
// defaults. Unresolved environment variables and unknown keys are still errors.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &ConfigError{Path: path, Unknown: unknownKeys(undecoded)}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := &c.Download
	if d.OutputDir == "" {
		d.OutputDir = "videos"
	}
	if d.Backend == "" {
		d.Backend = string(backend.KindReencode)
	}
	if d.Fragments == 0 {
		d.Fragments = backend.DefaultFragments
	}
	if d.Format == "" {
		d.Format = "mp4"
	}
	if d.VideoCodec == "" {
		d.VideoCodec = backend.CodecCopy
	}
	if d.AudioCodec == "" {
		d.AudioCodec = backend.CodecCopy
	}
	if d.FilenameTemplate == "" {
		d.FilenameTemplate = video.DefaultTemplate
	}
	if d.FFmpegPath == "" {
		d.FFmpegPath = "ffmpeg"
	}
	if d.YtDlpPath == "" {
		d.YtDlpPath = "yt-dlp"
	}
	if c.Session.LoginURL == "" {
		c.Session.LoginURL = "https://web.microsoftstream.com/"
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// unknownKeys describes undecoded keys, suggesting the closest real one.
func unknownKeys(keys []toml.Key) []string {
	known := knownKeys(reflect.TypeOf(Config{}), "")
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k.String()
		if s := suggest(name, known); s != "" {
			name += fmt.Sprintf(" (did you mean %q?)", s)
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// knownKeys lists the dotted TOML keys of a struct type.
func knownKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("toml"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		name := prefix + tag
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, knownKeys(f.Type, name+".")...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
