// Package backend runs the external tools that turn a playback URL into a file.
//
// Two interchangeable backends exist: Reencode drives ffmpeg and writes the
// output path directly, Segmented drives yt-dlp into a private staging directory
// and promotes the result once the tool exits cleanly.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/video"
)

// Kind names a backend.
type Kind string

const (
	KindReencode  Kind = "ffmpeg"
	KindSegmented Kind = "yt-dlp"
)

// Kinds lists the supported backends.
var Kinds = []Kind{KindReencode, KindSegmented}

// Codec sentinels.
const (
	CodecCopy = "copy"
	CodecNone = "none" // drop the track
)

// Job is one video handed to a backend.
type Job struct {
	Video    *video.Record
	Session  session.Session
	Captions bool // add the caption track when the video has one
}

// Progress is a point-in-time view of a running download.
type Progress struct {
	Fraction float64 // 0..1 of the video's duration
	Units    float64 // elapsed output, in fractional minutes
	Cursor   string  // tool-reported output timestamp, if any
	Speed    string  // tool-reported rate, if any
}

// Backend starts downloads.
type Backend interface {
	Kind() Kind
	Start(ctx context.Context, job Job) (Handle, error)
}

// Handle controls one running download.
type Handle interface {
	// Progress delivers updates until the process exits. Updates are dropped
	// rather than blocking the download when nobody is reading.
	Progress() <-chan Progress
	// Cancel asks the process to terminate. Safe to call more than once.
	Cancel()
	// Wait blocks until the download finished and its output is in place.
	Wait() error
}

// Options configures New.
type Options struct {
	FFmpegPath string
	YtDlpPath  string
	VideoCodec string
	AudioCodec string
	Fragments  int    // segmented only
	StagingDir string // segmented only; defaults to <tmp>/streamgrab
	Logger     *slog.Logger
}

// New returns the backend of the given kind.
func New(kind Kind, opts Options) (Backend, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	switch kind {
	case KindReencode:
		return &Reencode{
			Path:       firstNonEmpty(opts.FFmpegPath, "ffmpeg"),
			VideoCodec: firstNonEmpty(opts.VideoCodec, CodecCopy),
			AudioCodec: firstNonEmpty(opts.AudioCodec, CodecCopy),
			Logger:     log.With("component", "ffmpeg"),
		}, nil
	case KindSegmented:
		fragments := opts.Fragments
		if fragments <= 0 {
			fragments = DefaultFragments
		}
		return &Segmented{
			Path:       firstNonEmpty(opts.YtDlpPath, "yt-dlp"),
			Fragments:  fragments,
			StagingDir: firstNonEmpty(opts.StagingDir, filepath.Join(os.TempDir(), "streamgrab")),
			Logger:     log.With("component", "yt-dlp"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
