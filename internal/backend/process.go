package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	progressBuffer = 16
	stderrTailSize = 20
)

// waitDelay is how long a cancelled tool gets to exit before its process
// group is killed and its pipes are closed.
var waitDelay = 10 * time.Second

// lineParser turns one line of tool output into a progress update.
type lineParser interface {
	parse(line string) (Progress, bool)
}

// process supervises one external tool run.
type process struct {
	name   string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	delay  time.Duration
	parser lineParser
	log    *slog.Logger

	progress  chan Progress
	cancelled atomic.Bool
	done      chan struct{}
	err       error

	mu   sync.Mutex
	tail []string // last stderr lines, for error messages
}

// startProcess launches bin and starts reading its output.
func startProcess(ctx context.Context, name, bin string, args []string, parser lineParser, log *slog.Logger) (*process, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, bin, args...)
	isolate(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s stdout: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s stderr: %w", name, err)
	}

	log.Debug("spawning process", "bin", bin, "args", redact(args))
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start %s: %v", ErrProcessFailed, name, err)
	}

	p := &process{
		name:     name,
		cmd:      cmd,
		cancel:   cancel,
		delay:    cmd.WaitDelay,
		parser:   parser,
		log:      log,
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
	}
	go p.run(ctx, stdout, stderr)
	return p, nil
}

func (p *process) run(ctx context.Context, stdout, stderr io.ReadCloser) {
	var g errgroup.Group
	g.Go(func() error { return p.scan(stdout, false) })
	g.Go(func() error { return p.scan(stderr, true) })

	scanned := make(chan struct{})
	go p.watchdog(ctx, scanned, stdout, stderr)
	scanErr := g.Wait()
	close(scanned)

	waitErr := p.cmd.Wait()
	p.cancel()

	switch {
	case p.cancelled.Load():
		p.err = ErrCancelled
	case waitErr != nil && killedBySignal(waitErr):
		p.err = fmt.Errorf("%w: %w: %s: %v", ErrProcessFailed, ErrTerminated, p.name, waitErr)
	case waitErr != nil:
		p.err = fmt.Errorf("%w: %s: %v: %s", ErrProcessFailed, p.name, waitErr, p.stderrTail())
	case scanErr != nil && !errors.Is(scanErr, io.ErrClosedPipe):
		p.log.Debug("output read error", "error", scanErr)
	}

	close(p.progress)
	close(p.done)
}

// watchdog unblocks the scanners when a cancelled tool leaves children behind
// that still hold its output pipes.
func (p *process) watchdog(ctx context.Context, scanned <-chan struct{}, pipes ...io.Closer) {
	select {
	case <-scanned:
		return
	case <-ctx.Done():
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-scanned:
	case <-timer.C:
		p.log.Warn("process did not exit after cancel, killing it", "process", p.name)
		_ = kill(p.cmd)
		for _, c := range pipes {
			_ = c.Close()
		}
	}
}

// scan feeds stdout lines to the parser and keeps the tail of stderr.
func (p *process) scan(r io.Reader, isStderr bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isStderr {
			p.remember(line)
			continue
		}
		if pr, ok := p.parser.parse(line); ok {
			p.emit(pr)
		}
	}
	return scanner.Err()
}

// emit delivers an update without ever blocking the reader.
func (p *process) emit(pr Progress) {
	if p.cancelled.Load() {
		return
	}
	select {
	case p.progress <- pr:
	default:
	}
}

func (p *process) remember(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tail = append(p.tail, line)
	if len(p.tail) > stderrTailSize {
		p.tail = p.tail[len(p.tail)-stderrTailSize:]
	}
}

func (p *process) stderrTail() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.tail, "\n")
}

func (p *process) Progress() <-chan Progress { return p.progress }

// Cancel stops progress delivery and terminates the process.
func (p *process) Cancel() {
	if p.cancelled.Swap(true) {
		return
	}
	p.cancel()
}

func (p *process) Wait() error {
	<-p.done
	return p.err
}

// scanLines splits on \n or \r so in-place progress updates come through one by one.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// redact hides bearer tokens from logged command lines.
func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if idx := strings.Index(a, "Bearer "); idx >= 0 {
			a = a[:idx] + "Bearer <redacted>"
		}
		out[i] = a
	}
	return out
}
