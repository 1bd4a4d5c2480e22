package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ytdlpWriting mimics yt-dlp: writes the -o target with the given extension.
const ytdlpWriting = `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
echo "[download]  50.0% of ~ 10.00MiB at  1.00MiB/s ETA 00:05 (frag 1/2)"
file=$(echo "$out" | sed 's/%(ext)s/mp4/')
printf 'staged-bytes' > "$file"
printf 'junk' > "$(dirname "$out")/unrelated.txt"
echo "[download] 100% of 10.00MiB in 00:00:05"
`

func newSegmented(t *testing.T, bin string) *Segmented {
	return &Segmented{Path: bin, Fragments: 3, StagingDir: t.TempDir(), Logger: testLogger()}
}

func TestSegmented_Args(t *testing.T) {
	s := &Segmented{Path: "yt-dlp", Fragments: 8, StagingDir: "/stage"}
	job := testJob("/out/Town Hall - 2024-01-05 #a1b2c3d4.mp4")

	args := s.Args(job)

	assert.Subset(t, args, []string{"-N", "8"})
	assert.Subset(t, args, []string{"--add-header", "Authorization:Bearer tok"})
	assert.Contains(t, args, filepath.Join("/stage", job.Video.Identifier, "Town Hall - 2024-01-05 #a1b2c3d4.%(ext)s"))
	assert.Equal(t, job.Video.PlaybackURL, args[len(args)-1])
}

func TestYtdlpProgress(t *testing.T) {
	p := &ytdlpProgress{total: 10}

	got, ok := p.parse("[download]  45.5% of ~ 100.00MiB at  2.00MiB/s ETA 00:30 (frag 10/100)")
	require.True(t, ok)
	assert.InDelta(t, 0.455, got.Fraction, 1e-9)
	assert.InDelta(t, 4.55, got.Units, 1e-9)
	assert.Equal(t, "2.00MiB/s", got.Speed)

	got, ok = p.parse("[download] 100% of 10.00MiB in 00:00:05")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Fraction)

	_, ok = p.parse("[hlsnative] Downloading m3u8 manifest")
	assert.False(t, ok)
}

func TestSegmented_Start_PromotesStagedFile(t *testing.T) {
	s := newSegmented(t, fakeTool(t, "yt-dlp", ytdlpWriting))
	out := filepath.Join(t.TempDir(), "Town Hall - 2024-01-05 #a1b2c3d4.mp4")
	job := testJob(out)

	h, err := s.Start(context.Background(), job)
	require.NoError(t, err)

	updates := drain(h)
	require.NoError(t, h.Wait())

	assert.NotEmpty(t, updates)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "staged-bytes", string(data))
	assert.NoDirExists(t, s.StagingPath(job))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "unrelated.txt"))
}

func TestSegmented_Start_NoStagedFile(t *testing.T) {
	s := newSegmented(t, fakeTool(t, "yt-dlp", `echo "[download] 100% of 1.00MiB"
`))
	out := filepath.Join(t.TempDir(), "x.mp4")
	job := testJob(out)

	h, err := s.Start(context.Background(), job)
	require.NoError(t, err)
	drain(h)

	assert.ErrorIs(t, h.Wait(), ErrNoStagedFile)
	assert.NoFileExists(t, out)
	assert.NoDirExists(t, s.StagingPath(job))
}

func TestSegmented_Start_ProcessFailure(t *testing.T) {
	s := newSegmented(t, fakeTool(t, "yt-dlp", `echo "ERROR: HTTP Error 401" >&2
exit 1
`))
	job := testJob(filepath.Join(t.TempDir(), "x.mp4"))

	h, err := s.Start(context.Background(), job)
	require.NoError(t, err)
	drain(h)

	err = h.Wait()
	require.ErrorIs(t, err, ErrProcessFailed)
	assert.Contains(t, err.Error(), "HTTP Error 401")
	assert.NoDirExists(t, s.StagingPath(job))
}

func TestSegmented_Start_PurgesPreviousStaging(t *testing.T) {
	s := newSegmented(t, fakeTool(t, "yt-dlp", `exec sleep 30
`))
	job := testJob(filepath.Join(t.TempDir(), "x.mp4"))

	stale := filepath.Join(s.StagingPath(job), "x.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	h, err := s.Start(context.Background(), job)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)

	h.Cancel()
	assert.ErrorIs(t, h.Wait(), ErrCancelled)
	assert.NoDirExists(t, s.StagingPath(job))
}

func TestSegmented_Start_DoesNotClobber(t *testing.T) {
	s := newSegmented(t, fakeTool(t, "yt-dlp", ytdlpWriting))
	out := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(out, []byte("keep me"), 0o644))

	h, err := s.Start(context.Background(), testJob(out))
	require.NoError(t, err)
	drain(h)

	assert.ErrorIs(t, h.Wait(), ErrDestinationExists)
	data, _ := os.ReadFile(out)
	assert.Equal(t, "keep me", string(data))
}
