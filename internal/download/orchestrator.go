package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/streamgrab/internal/backend"
	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/video"
)

// Refresher produces a fresh session before the next video.
type Refresher interface {
	Refresh(ctx context.Context, id string) (session.Session, error)
}

// Observer receives progress for the running job. It is called from a
// dedicated goroutine; a slow observer loses updates, never the download.
type Observer func(j *Job, p backend.Progress)

// InterruptFunc derives a context that is cancelled when the user interrupts.
// The returned stop function releases whatever was acquired.
type InterruptFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// SignalInterrupts cancels on SIGINT or SIGTERM. Default signal handling is
// restored once stop is called.
func SignalInterrupts(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// DefaultSignalGrace is how long a job whose tool died from a signal waits for
// the matching interrupt to arrive.
const DefaultSignalGrace = 2 * time.Second

// Config holds the run switches.
type Config struct {
	NoCleanup       bool // keep partial files after failure or interrupt
	ContinueOnError bool // a failed video does not stop the batch
	Captions        bool
}

// Summary reports how a run ended.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
	Skipped   int // never started
	Jobs      []*Job
}

// Orchestrator downloads videos strictly one after another.
type Orchestrator struct {
	backend    backend.Backend
	cfg        Config
	refresher  Refresher
	store      *Store
	observer   Observer
	interrupts InterruptFunc
	grace      time.Duration
	log        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRefresher refreshes the session before every video after the first.
func WithRefresher(r Refresher) Option {
	return func(o *Orchestrator) { o.refresher = r }
}

// WithStore records jobs in the history database.
func WithStore(s *Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithObserver sets the progress observer.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithInterrupts replaces SignalInterrupts.
func WithInterrupts(fn InterruptFunc) Option {
	return func(o *Orchestrator) { o.interrupts = fn }
}

// WithSignalGrace replaces DefaultSignalGrace.
func WithSignalGrace(d time.Duration) Option {
	return func(o *Orchestrator) { o.grace = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an orchestrator around one backend.
func New(b backend.Backend, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    b,
		cfg:        cfg,
		interrupts: SignalInterrupts,
		grace:      DefaultSignalGrace,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run downloads every video in order. Each video must already carry its
// output path. The first video uses sess; later ones use a refreshed session
// when a Refresher is configured.
//
// An interrupt cancels the running job and stops the run with ErrInterrupted.
// A backend failure stops the run with ErrBackendFailed unless ContinueOnError
// is set. The summary is valid in every case.
func (o *Orchestrator) Run(ctx context.Context, videos []*video.Record, sess session.Session) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), Total: len(videos)}
	log := o.log.With("run_id", sum.RunID, "backend", o.backend.Kind())

	for _, v := range videos {
		if v.OutputPath == "" {
			return sum, fmt.Errorf("%s: %w", v.Identifier, ErrNoOutputPath)
		}
	}

	for i, v := range videos {
		if err := ctx.Err(); err != nil {
			sum.Skipped = len(videos) - i
			return sum, err
		}

		if i > 0 && o.refresher != nil {
			log.Info("refreshing session", "id", v.Identifier)
			next, err := o.refresher.Refresh(ctx, v.Identifier)
			if err != nil {
				sum.Skipped = len(videos) - i
				return sum, fmt.Errorf("%w: %w", ErrSessionRefresh, err)
			}
			sess = next
		}

		job := o.newJob(ctx, sum.RunID, v)
		sum.Jobs = append(sum.Jobs, job)

		log.Info("downloading", "n", i+1, "of", len(videos), "id", v.Identifier, "title", v.Title)
		err := o.runJob(ctx, job, v, sess)

		switch job.Status {
		case StatusSucceeded:
			sum.Succeeded++
			log.Info("download finished", "id", v.Identifier, "output", v.OutputPath)
		case StatusCancelled:
			sum.Cancelled++
			sum.Skipped = len(videos) - i - 1
			return sum, err
		default:
			sum.Failed++
			log.Error("download failed", "id", v.Identifier, "error", err)
			if !o.cfg.ContinueOnError {
				sum.Skipped = len(videos) - i - 1
				return sum, fmt.Errorf("%w: %s: %w", ErrBackendFailed, v.Identifier, err)
			}
		}
	}
	return sum, nil
}

// runJob drives one backend run. The interrupt subscription lives exactly as
// long as this call.
func (o *Orchestrator) runJob(ctx context.Context, job *Job, v *video.Record, sess session.Session) error {
	jobCtx, release := o.interrupts(ctx)
	defer release()

	log := o.log.With("id", v.Identifier, "output", v.OutputPath)
	preexisting := pathExists(v.OutputPath)

	o.transition(ctx, job, StatusRunning, nil)

	h, err := o.backend.Start(jobCtx, backend.Job{Video: v, Session: sess, Captions: o.cfg.Captions})
	if err != nil {
		return o.settle(ctx, jobCtx, job, v, preexisting, err, log)
	}

	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		for p := range h.Progress() {
			job.Progress = p.Fraction
			if o.observer != nil {
				o.observer(job, p)
			}
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-jobCtx.Done():
			log.Warn("interrupt received, stopping download")
			h.Cancel()
		case <-done:
		}
		return nil
	})

	waitErr := h.Wait()
	close(done)
	_ = g.Wait()

	return o.settle(ctx, jobCtx, job, v, preexisting, waitErr, log)
}

// settle moves the job to its terminal status and removes leftovers.
func (o *Orchestrator) settle(ctx, jobCtx context.Context, job *Job, v *video.Record, preexisting bool, err error, log *slog.Logger) error {
	switch {
	case err == nil:
		o.transition(ctx, job, StatusSucceeded, nil)
		return nil
	case o.interrupted(jobCtx, err):
		o.transition(ctx, job, StatusCancelled, ErrInterrupted)
		o.cleanup(v.OutputPath, preexisting, log)
		return ErrInterrupted
	default:
		o.transition(ctx, job, StatusFailed, err)
		o.cleanup(v.OutputPath, preexisting, log)
		return err
	}
}

// interrupted reports whether a failed run was really the user's interrupt.
// A tool killed by the same signal can exit before the interrupt cancels
// jobCtx, so a signal death waits briefly for it.
func (o *Orchestrator) interrupted(jobCtx context.Context, err error) bool {
	if jobCtx.Err() != nil || errors.Is(err, backend.ErrCancelled) {
		return true
	}
	if !errors.Is(err, backend.ErrTerminated) {
		return false
	}
	timer := time.NewTimer(o.grace)
	defer timer.Stop()
	select {
	case <-jobCtx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// cleanup removes a partial output file. A file that existed before the job
// started belongs to someone else and is left alone.
func (o *Orchestrator) cleanup(path string, preexisting bool, log *slog.Logger) {
	if o.cfg.NoCleanup {
		log.Info("cleanup disabled, keeping partial output")
		return
	}
	if preexisting {
		log.Warn("output existed before the download, not removing it")
		return
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove partial output", "error", err)
		}
		return
	}
	log.Info("removed partial output")
}

func (o *Orchestrator) newJob(ctx context.Context, runID string, v *video.Record) *Job {
	job := &Job{
		RunID:      runID,
		Identifier: v.Identifier,
		Title:      v.Title,
		OutputPath: v.OutputPath,
		Backend:    o.backend.Kind(),
		Status:     StatusPending,
	}
	if o.store != nil {
		if err := o.store.Add(context.WithoutCancel(ctx), job); err != nil {
			o.log.Warn("could not record job", "id", v.Identifier, "error", err)
		}
	}
	return job
}

// transition records the status change. History is best effort: a database
// error never fails the download.
func (o *Orchestrator) transition(ctx context.Context, job *Job, to Status, cause error) {
	if o.store != nil && job.ID != 0 {
		err := o.store.Transition(context.WithoutCancel(ctx), job, to, cause)
		if err == nil {
			return
		}
		o.log.Warn("could not record job status", "id", job.Identifier, "status", to, "error", err)
	}
	if !job.Status.CanTransitionTo(to) {
		return
	}
	errText := job.Error
	if cause != nil {
		errText = cause.Error()
	}
	job.Status = to
	job.Error = errText
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
