//go:build !windows

package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_CancelStopsChildrenHoldingOutput(t *testing.T) {
	// No exec: sleep is a child of the shell and shares its stdout.
	bin := fakeTool(t, "ffmpeg", "sleep 30\n")
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	h.Cancel()
	assert.ErrorIs(t, h.Wait(), ErrCancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcess_CancelKillsToolIgnoringTerm(t *testing.T) {
	saved := waitDelay
	waitDelay = 200 * time.Millisecond
	t.Cleanup(func() { waitDelay = saved })

	bin := fakeTool(t, "ffmpeg", "trap '' TERM\nsleep 30\n")
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	h.Cancel()
	assert.ErrorIs(t, h.Wait(), ErrCancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcess_KilledBySignal(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", "kill -TERM $$\nsleep 5\n")
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)

	drain(h)
	err = h.Wait()
	assert.ErrorIs(t, err, ErrProcessFailed)
	assert.ErrorIs(t, err, ErrTerminated)
}

func TestProcess_ExitCodeIsNotTermination(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", "exit 3\n")
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)

	drain(h)
	err = h.Wait()
	assert.ErrorIs(t, err, ErrProcessFailed)
	assert.NotErrorIs(t, err, ErrTerminated)
}
