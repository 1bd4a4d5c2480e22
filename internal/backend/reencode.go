package backend

import (
	"context"
	"log/slog"
	"strings"
)

// Reencode downloads through ffmpeg, copying or re-encoding each track.
type Reencode struct {
	Path       string
	VideoCodec string // CodecCopy, CodecNone or an ffmpeg encoder name
	AudioCodec string
	Logger     *slog.Logger
}

func (r *Reencode) Kind() Kind { return KindReencode }

// Start spawns ffmpeg for job. The output file is written at job.Video.OutputPath.
func (r *Reencode) Start(ctx context.Context, job Job) (Handle, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	parser := &ffmpegProgress{total: job.Video.DurationUnits}
	return startProcess(ctx, "ffmpeg", r.Path, r.Args(job), parser, log.With("video", job.Video.Identifier))
}

// Args builds the ffmpeg command line for job.
func (r *Reencode) Args(job Job) []string {
	headers := job.Session.AuthorizationHeader() + "\r\n"

	args := []string{
		"-hide_banner", "-nostats", "-loglevel", "error",
		"-progress", "pipe:1",
		"-headers", headers,
		"-i", job.Video.PlaybackURL,
	}
	if job.Captions && job.Video.CaptionsURL != "" {
		args = append(args, "-headers", headers, "-i", job.Video.CaptionsURL)
	}

	args = append(args, codecArgs("a", r.AudioCodec)...)
	args = append(args, codecArgs("v", r.VideoCodec)...)

	// Never overwrite, even though the path was free when it was assigned.
	args = append(args, "-n", job.Video.OutputPath)
	return args
}

func codecArgs(track, codec string) []string {
	switch codec {
	case CodecNone:
		return []string{"-" + track + "n"}
	case "":
		return []string{"-c:" + track, CodecCopy}
	default:
		return []string{"-c:" + track, codec}
	}
}

// ffmpegProgress reads the key=value blocks ffmpeg writes with -progress.
// A block ends with a progress= line.
type ffmpegProgress struct {
	total   float64
	current Progress
}

func (p *ffmpegProgress) parse(line string) (Progress, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return Progress{}, false
	}
	switch key {
	case "out_time":
		if units, err := TimemarkToUnits(value); err == nil {
			p.current.Cursor = value
			p.current.Units = units
			p.current.Fraction = fraction(units, p.total)
		}
	case "bitrate":
		p.current.Speed = strings.TrimSpace(value)
	case "progress":
		return p.current, true
	}
	return Progress{}, false
}
