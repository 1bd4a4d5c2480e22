package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultFragments is the default number of fragments fetched in parallel.
const DefaultFragments = 5

// Segmented downloads HLS fragments in parallel through yt-dlp. Each job gets
// a fresh staging directory; the result is copied to the output path only after
// a clean exit, so nothing partial ever lands next to the user's files.
type Segmented struct {
	Path       string
	Fragments  int
	StagingDir string
	Logger     *slog.Logger
}

func (s *Segmented) Kind() Kind { return KindSegmented }

// StagingPath is the private directory used for job.
func (s *Segmented) StagingPath(job Job) string {
	return filepath.Join(s.StagingDir, job.Video.Identifier)
}

// Start spawns yt-dlp for job.
func (s *Segmented) Start(ctx context.Context, job Job) (Handle, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("video", job.Video.Identifier)

	staging := s.StagingPath(job)
	if err := purgeDir(staging); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	parser := &ytdlpProgress{total: job.Video.DurationUnits}
	proc, err := startProcess(ctx, "yt-dlp", s.Path, s.Args(job), parser, log)
	if err != nil {
		if perr := purgeDir(staging); perr != nil {
			log.Warn("could not remove staging directory", "error", perr)
		}
		return nil, err
	}
	return &segmentedHandle{process: proc, job: job, staging: staging, log: log}, nil
}

// Args builds the yt-dlp command line for job.
func (s *Segmented) Args(job Job) []string {
	fragments := s.Fragments
	if fragments <= 0 {
		fragments = DefaultFragments
	}
	header := "Authorization:Bearer " + job.Session.AccessToken
	template := filepath.Join(s.StagingPath(job), expectedBase(job)+".%(ext)s")

	return []string{
		"--newline", "--no-colors", "--no-playlist",
		"-N", strconv.Itoa(fragments),
		"--add-header", header,
		"-o", template,
		job.Video.PlaybackURL,
	}
}

// expectedBase is the output file name without its extension.
func expectedBase(job Job) string {
	name := filepath.Base(job.Video.OutputPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type segmentedHandle struct {
	*process
	job     Job
	staging string
	log     *slog.Logger
}

// Wait waits for yt-dlp, promotes the staged file and always purges staging.
func (h *segmentedHandle) Wait() error {
	defer func() {
		if err := purgeDir(h.staging); err != nil {
			h.log.Warn("could not remove staging directory", "error", err)
		}
	}()

	if err := h.process.Wait(); err != nil {
		return err
	}

	src, err := findStaged(h.staging, expectedBase(h.job))
	if err != nil {
		return fmt.Errorf("%s: %w", h.job.Video.Identifier, err)
	}
	size, err := copyFile(src, h.job.Video.OutputPath)
	if err != nil {
		return err
	}
	h.log.Info("promoted staged file", "path", h.job.Video.OutputPath, "size", humanize.Bytes(uint64(size)))
	return nil
}

// downloadLine matches yt-dlp progress lines such as
// "[download]  45.3% of ~ 100.00MiB at  2.00MiB/s ETA 00:30 (frag 10/100)".
var downloadLine = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%(?:.*?\bat\s+(\S+))?`)

type ytdlpProgress struct {
	total float64
}

func (p *ytdlpProgress) parse(line string) (Progress, bool) {
	m := downloadLine.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}
	f := fraction(pct, 100)
	return Progress{
		Fraction: f,
		Units:    f * p.total,
		Speed:    m[2],
	}, true
}
