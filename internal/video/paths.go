package video

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Resolver assigns each video a unique, filesystem-safe output path.
//
// Uniqueness is checked against the filesystem at resolution time only; a file
// created between Resolve and the actual download is not detected here.
type Resolver struct {
	Template string // defaults to DefaultTemplate
	Format   string // container extension without the dot, e.g. "mp4"
	Logger   *slog.Logger
}

// NewResolver creates a Resolver for the given template and container format.
func NewResolver(template, format string, log *slog.Logger) *Resolver {
	if template == "" {
		template = DefaultTemplate
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		Template: template,
		Format:   strings.TrimPrefix(format, "."),
		Logger:   log,
	}
}

// Resolve sets OutputPath on every video. dirs[i] is the directory of videos[i].
// Paths are absolute. Two videos in the same call never receive the same path.
func (r *Resolver) Resolve(videos []*Record, dirs []string) ([]*Record, error) {
	if len(videos) != len(dirs) {
		return nil, fmt.Errorf("%w: %d videos, %d directories", ErrLengthMismatch, len(videos), len(dirs))
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	claimed := make(map[string]bool, len(videos))
	for i, v := range videos {
		if v.OutputPath != "" {
			return nil, fmt.Errorf("%w: %s", ErrPathAssigned, v.Identifier)
		}
		dir, err := filepath.Abs(dirs[i])
		if err != nil {
			return nil, fmt.Errorf("resolve directory %q: %w", dirs[i], err)
		}

		// Leave room for the " (n)" suffix and the extension.
		base := truncateBytes(applyTemplate(r.Template, v.Fields()), maxNameBytes-len(r.Format)-16)
		raw := base + "." + r.Format
		name := SanitizeFilename(raw)
		for n := 1; pathExists(filepath.Join(dir, name)) || claimed[filepath.Join(dir, name)]; n++ {
			raw = fmt.Sprintf("%s (%d).%s", base, n, r.Format)
			name = SanitizeFilename(raw)
		}

		if raw != name {
			log.Warn("not a valid file name on every platform, replacing invalid characters",
				"name", raw, "replacement", Replacement, "final", name)
		}

		v.OutputPath = filepath.Join(dir, name)
		claimed[v.OutputPath] = true
	}
	return videos, nil
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
