// Package manifest parses the input file into an ordered list of video
// identifiers, each paired with the directory its file is written to.
//
// A manifest is line based. Blank lines are ignored, a line of the form
//
//	-dir = "path"
//
// sets the output directory of every source read since the previous directive,
// and any other line is a source reference handed to a SourceResolver.
package manifest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var (
	// directiveLine detects a directive before it is fully parsed.
	directiveLine = regexp.MustCompile(`^\s*-dir\b`)

	// dirDirective extracts the single- or double-quoted path.
	dirDirective = regexp.MustCompile(`^\s*-dir\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Entry is one video and its output directory.
type Entry struct {
	Identifier      string
	OutputDirectory string
}

// Result holds the parsed manifest. Identifiers and Directories are index-aligned
// and always the same length.
type Result struct {
	Identifiers []string
	Directories []string
}

// Entries returns the result as pairs.
func (r *Result) Entries() []Entry {
	entries := make([]Entry, len(r.Identifiers))
	for i := range r.Identifiers {
		entries[i] = Entry{Identifier: r.Identifiers[i], OutputDirectory: r.Directories[i]}
	}
	return entries
}

// assign gives dir to every identifier that does not have a directory yet.
func (r *Result) assign(dir string) {
	for len(r.Directories) < len(r.Identifiers) {
		r.Directories = append(r.Directories, dir)
	}
}

// DirMaker makes sure a directory exists.
type DirMaker func(dir string) error

type options struct {
	log     *slog.Logger
	makeDir DirMaker
}

// Option configures Parse.
type Option func(*options)

// WithLogger sets the logger warnings are written to.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithDirMaker replaces the function used to create directive directories.
func WithDirMaker(fn DirMaker) Option {
	return func(o *options) {
		o.makeDir = fn
	}
}

// Parse reads a manifest from r.
//
// Malformed directives, directories that cannot be created and unrecognized
// source lines are logged and skipped; they never fail the parse. Errors from
// the resolver other than ErrUnrecognizedSource are returned.
func Parse(ctx context.Context, r io.Reader, defaultDir string, resolver SourceResolver, opts ...Option) (*Result, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.makeDir == nil {
		o.makeDir = createDir(o.log)
	}

	res := &Result{}
	pending := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if directiveLine.MatchString(line) {
			if !pending {
				o.log.Warn("found options without preceding url, skipping", "line", lineNo)
				continue
			}
			res.assign(directoryFor(line, lineNo, defaultDir, o))
			pending = false
			continue
		}

		ids, err := resolver.Resolve(ctx, strings.TrimSpace(line))
		if errors.Is(err, ErrUnrecognizedSource) {
			o.log.Warn("invalid url, skipping", "line", lineNo)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		res.Identifiers = append(res.Identifiers, ids...)
		pending = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if pending {
		res.assign(defaultDir)
	}
	return res, nil
}

// directoryFor returns the directive's directory, or defaultDir when the
// directive is malformed or its directory cannot be created.
func directoryFor(line string, lineNo int, defaultDir string, o options) string {
	dir, err := parseDirective(line)
	if err != nil {
		o.log.Warn("malformed directive, using default directory", "line", lineNo, "default", defaultDir)
		return defaultDir
	}
	if err := o.makeDir(dir); err != nil {
		o.log.Warn("cannot create directory, falling back to default directory",
			"line", lineNo, "dir", dir, "default", defaultDir, "error", err)
		return defaultDir
	}
	return dir
}

// parseDirective extracts the path from a -dir directive.
func parseDirective(line string) (string, error) {
	m := dirDirective.FindStringSubmatch(line)
	if m == nil {
		return "", ErrMalformedDirective
	}
	dir := m[1] + m[2]
	if strings.TrimSpace(dir) == "" {
		return "", ErrMalformedDirective
	}
	return dir, nil
}

// createDir is the default DirMaker.
func createDir(log *slog.Logger) DirMaker {
	return func(dir string) error {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		log.Info("created directory", "dir", dir)
		return nil
	}
}
