package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/streamgrab/internal/backend"
	"github.com/vmunix/streamgrab/internal/config"
	"github.com/vmunix/streamgrab/internal/download"
	"github.com/vmunix/streamgrab/internal/manifest"
	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/stream"
	"github.com/vmunix/streamgrab/internal/video"
)

var (
	errMissingInput  = errors.New("you must specify a manifest with -f")
	errInputFileType = errors.New("the manifest must be a .txt file")
	errEmptyManifest = errors.New("no valid video urls in manifest")
	errOutputDir     = errors.New("cannot create output directory")
)

type downloadFlags struct {
	inputFile       string
	outputDir       string
	backend         string
	fragments       int
	username        string
	keepCookies     bool
	noCleanup       bool
	captions        bool
	continueOnError bool
	vcodec          string
	acodec          string
	format          string
}

var dlFlags downloadFlags

func registerDownloadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&dlFlags.inputFile, "input-file", "f", "", "Manifest with video/group URLs and optional -dir directives")
	f.StringVarP(&dlFlags.outputDir, "output-directory", "o", "", "Directory for downloads without a -dir directive")
	f.StringVarP(&dlFlags.backend, "downloader", "d", "", "Backend: ffmpeg or yt-dlp")
	f.IntVarP(&dlFlags.fragments, "parallel", "p", 0, "Parallel fragment downloads (yt-dlp only)")
	f.StringVarP(&dlFlags.username, "username", "u", "", "Username passed to the login helper")
	f.BoolVarP(&dlFlags.keepCookies, "keep-login-cookies", "k", false, "Let the login helper keep identity provider cookies")
	f.BoolVar(&dlFlags.noCleanup, "no-cleanup", false, "Keep partial files when a download fails or is interrupted")
	f.BoolVar(&dlFlags.noCleanup, "nc", false, "Alias for --no-cleanup")
	f.BoolVar(&dlFlags.captions, "closed-captions", false, "Add closed captions when available")
	f.BoolVar(&dlFlags.captions, "cc", false, "Alias for --closed-captions")
	f.BoolVar(&dlFlags.continueOnError, "continue-on-error", false, "Keep going after a failed download")
	f.StringVar(&dlFlags.vcodec, "vcodec", "", `Video codec for ffmpeg, "copy" or "none" to drop video`)
	f.StringVar(&dlFlags.acodec, "acodec", "", `Audio codec for ffmpeg, "copy" or "none" to drop audio`)
	f.StringVar(&dlFlags.format, "format", "", "Output container extension, e.g. mp4 or mkv")
	_ = f.MarkHidden("nc")
	_ = f.MarkHidden("cc")
}

// apply overrides config values with the flags the user actually set.
func (d *downloadFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := func(names ...string) bool {
		for _, n := range names {
			if cmd.Flags().Changed(n) {
				return true
			}
		}
		return false
	}

	dc := &cfg.Download
	if changed("output-directory") {
		dc.OutputDir = d.outputDir
	}
	if changed("downloader") {
		dc.Backend = d.backend
	}
	if changed("parallel") {
		dc.Fragments = d.fragments
	}
	if changed("no-cleanup", "nc") {
		dc.NoCleanup = d.noCleanup
	}
	if changed("closed-captions", "cc") {
		dc.ClosedCaptions = d.captions
	}
	if changed("continue-on-error") {
		dc.ContinueOnError = d.continueOnError
	}
	if changed("vcodec") {
		dc.VideoCodec = d.vcodec
	}
	if changed("acodec") {
		dc.AudioCodec = d.acodec
	}
	if changed("format") {
		dc.Format = strings.TrimPrefix(d.format, ".")
	}
	if changed("username") {
		cfg.Session.Username = d.username
	}
	if changed("keep-login-cookies") {
		cfg.Session.KeepLoginCookies = d.keepCookies
	}
}

func validateInputFile(path string) error {
	if path == "" {
		return errMissingInput
	}
	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return fmt.Errorf("%w: %s", errInputFileType, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("manifest: %s is a directory", path)
	}
	return nil
}

// setup loads and validates the config with flag overrides applied.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	dlFlags.apply(cmd, cfg)
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, nil, &config.ConfigError{Path: configPath, Errors: errs}
	}
	return cfg, newLogger(cmd.ErrOrStderr(), cfg.Log.Level, verbose), nil
}

func runDownload(cmd *cobra.Command, _ []string) error {
	if err := validateInputFile(dlFlags.inputFile); err != nil {
		return err
	}
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	dc := cfg.Download
	kind := backend.Kind(dc.Backend)

	if err := checkTools(ctx, kind, dc, log); err != nil {
		return err
	}

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sessions := newSessionSource(cfg, db, log)
	sess, err := sessions.acquire(ctx)
	if err != nil {
		return err
	}

	client := stream.New(stream.WithLogger(log))
	res, err := parseManifest(ctx, dlFlags.inputFile, dc.OutputDir, client, sess, log)
	if err != nil {
		return err
	}
	if len(res.Identifiers) == 0 {
		return errEmptyManifest
	}
	if verbose {
		printEntries(cmd.OutOrStdout(), res.Entries())
	}

	log.Info("fetching video info", "count", len(res.Identifiers))
	videos, err := client.FetchVideos(ctx, sess, res.Identifiers, dc.ClosedCaptions)
	if err != nil {
		if errors.Is(err, stream.ErrUnauthorized) {
			sessions.forget(ctx)
		}
		return fmt.Errorf("fetch video info: %w", err)
	}

	videos, err = video.NewResolver(dc.FilenameTemplate, dc.Format, log.With("component", "paths")).
		Resolve(videos, res.Directories)
	if err != nil {
		return err
	}

	b, err := backend.New(kind, backend.Options{
		FFmpegPath: dc.FFmpegPath,
		YtDlpPath:  dc.YtDlpPath,
		VideoCodec: dc.VideoCodec,
		AudioCodec: dc.AudioCodec,
		Fragments:  dc.Fragments,
		StagingDir: dc.StagingDir,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	opts := []download.Option{
		download.WithStore(download.NewStore(db)),
		download.WithObserver(download.ConsoleObserver(cmd.OutOrStdout())),
		download.WithLogger(log.With("component", "download")),
	}
	if r := sessions.refresher(); r != nil {
		opts = append(opts, download.WithRefresher(r))
	}
	orch := download.New(b, download.Config{
		NoCleanup:       dc.NoCleanup,
		ContinueOnError: dc.ContinueOnError,
		Captions:        dc.ClosedCaptions,
	}, opts...)

	sum, err := orch.Run(ctx, videos, sess)
	printSummary(cmd.OutOrStdout(), sum)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%w: %d of %d videos", download.ErrBackendFailed, sum.Failed, sum.Total)
	}
	return nil
}

// checkTools verifies the external programs before anything is fetched.
// ffmpeg is required by both backends: yt-dlp uses it to merge streams.
func checkTools(ctx context.Context, kind backend.Kind, dc config.DownloadConfig, log *slog.Logger) error {
	line, err := backend.CheckFFmpeg(ctx, dc.FFmpegPath)
	if err != nil {
		return err
	}
	log.Debug("found ffmpeg", "version", line)

	if kind == backend.KindSegmented {
		line, err := backend.CheckYtDlp(ctx, dc.YtDlpPath)
		if err != nil {
			return err
		}
		log.Debug("found yt-dlp", "version", line)
	}
	return nil
}

func parseManifest(ctx context.Context, path, defaultDir string, groups manifest.GroupLister, sess session.Session, log *slog.Logger) (*manifest.Result, error) {
	if err := ensureOutputDir(defaultDir, log); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	return manifest.Parse(ctx, f, defaultDir, manifest.NewURLResolver(groups, sess),
		manifest.WithLogger(log.With("component", "manifest")))
}

// ensureOutputDir creates the default output directory. Every fallback in the
// manifest lands there, so it must exist before any path is resolved.
func ensureOutputDir(dir string, log *slog.Logger) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", errOutputDir, dir)
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", errOutputDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", errOutputDir, err)
	}
	log.Info("created output directory", "dir", dir)
	return nil
}

func printEntries(w io.Writer, entries []manifest.Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s -> %s\n", e.Identifier, e.OutputDirectory)
	}
}

func printSummary(w io.Writer, sum *download.Summary) {
	if sum == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%d downloaded, %d failed, %d cancelled, %d skipped (run %s)\n",
		sum.Succeeded, sum.Failed, sum.Cancelled, sum.Skipped, sum.RunID)
}

// sessionSource builds the session pieces from config.
type sessionSource struct {
	cfg   *config.Config
	cache *session.Cache
	auth  session.Authenticator
	log   *slog.Logger
}

func newSessionSource(cfg *config.Config, db *sql.DB, log *slog.Logger) *sessionSource {
	s := &sessionSource{cfg: cfg, log: log.With("component", "session")}
	sc := cfg.Session

	switch {
	case sc.AccessToken != "":
		// An explicit token wins over anything cached.
		s.auth = session.StaticAuthenticator{Session: session.Session{
			AccessToken:       sc.AccessToken,
			APIGatewayURI:     sc.APIGatewayURI,
			APIGatewayVersion: sc.APIGatewayVersion,
		}}
		return s
	case len(sc.LoginCommand) > 0:
		a := &session.CommandAuthenticator{
			Command:  sc.LoginCommand,
			Username: sc.Username,
			Logger:   s.log,
		}
		if sc.KeepLoginCookies {
			a.CookieDir = cookieDir(sc.CookieDir)
		}
		s.auth = a
	}
	if sc.UseTokenCache() {
		s.cache = session.NewCache(db)
	}
	return s
}

func (s *sessionSource) acquire(ctx context.Context) (session.Session, error) {
	return session.Acquire(ctx, s.cache, s.auth, s.cfg.Session.LoginURL, s.log)
}

// refresher is nil when there is nothing to refresh against.
func (s *sessionSource) refresher() download.Refresher {
	if _, ok := s.auth.(*session.CommandAuthenticator); !ok {
		return nil
	}
	base := strings.TrimRight(s.cfg.Session.LoginURL, "/")
	return &session.Refresher{
		Auth:     s.auth,
		Cache:    s.cache,
		VideoURL: func(id string) string { return base + "/video/" + id },
		Logger:   s.log,
	}
}

// forget drops a cached session the service rejected.
func (s *sessionSource) forget(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.log.Warn("could not clear token cache", "error", err)
		return
	}
	s.log.Info("cleared rejected token from cache")
}

func cookieDir(configured string) string {
	if configured != "" {
		return configured
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "streamgrab", "cookies")
	}
	return filepath.Join(os.TempDir(), "streamgrab-cookies")
}
