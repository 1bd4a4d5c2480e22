package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReencode_Args(t *testing.T) {
	r := &Reencode{Path: "ffmpeg", VideoCodec: CodecCopy, AudioCodec: CodecCopy}
	job := testJob("/out/Town Hall.mp4")

	args := r.Args(job)

	assert.Equal(t, []string{
		"-hide_banner", "-nostats", "-loglevel", "error",
		"-progress", "pipe:1",
		"-headers", "Authorization: Bearer tok\r\n",
		"-i", "https://cdn.example.com/master.m3u8",
		"-c:a", "copy",
		"-c:v", "copy",
		"-n", "/out/Town Hall.mp4",
	}, args)
}

func TestReencode_Args_Codecs(t *testing.T) {
	r := &Reencode{VideoCodec: "libx265", AudioCodec: CodecNone}

	args := r.Args(testJob("/out/x.mkv"))

	assert.Contains(t, args, "-an")
	assert.NotContains(t, args, "-c:a")
	assert.Subset(t, args, []string{"-c:v", "libx265"})
	assert.Equal(t, "-n", args[len(args)-2])
}

func TestReencode_Args_DropVideo(t *testing.T) {
	r := &Reencode{VideoCodec: CodecNone, AudioCodec: "libopus"}

	args := r.Args(testJob("/out/x.mkv"))

	assert.Contains(t, args, "-vn")
	assert.Subset(t, args, []string{"-c:a", "libopus"})
}

func TestReencode_Args_Captions(t *testing.T) {
	r := &Reencode{VideoCodec: CodecCopy, AudioCodec: CodecCopy}
	job := testJob("/out/x.mkv")
	job.Video.CaptionsURL = "https://cdn.example.com/captions.vtt"

	// Not requested: no second input.
	assert.NotContains(t, r.Args(job), job.Video.CaptionsURL)

	job.Captions = true
	args := r.Args(job)
	inputs := 0
	for i, a := range args {
		if a == "-i" {
			inputs++
			assert.Equal(t, "-headers", args[i-2])
		}
	}
	assert.Equal(t, 2, inputs)
	assert.Contains(t, args, job.Video.CaptionsURL)

	// Requested but absent: still one input.
	job.Video.CaptionsURL = ""
	inputs = 0
	for _, a := range r.Args(job) {
		if a == "-i" {
			inputs++
		}
	}
	assert.Equal(t, 1, inputs)
}

func TestFFmpegProgress(t *testing.T) {
	p := &ffmpegProgress{total: 2}

	for _, line := range []string{"frame=10", "bitrate=1024.0kbits/s", "out_time=00:01:00.000000"} {
		_, ok := p.parse(line)
		assert.False(t, ok)
	}
	got, ok := p.parse("progress=continue")
	require.True(t, ok)
	assert.Equal(t, "00:01:00.000000", got.Cursor)
	assert.Equal(t, "1024.0kbits/s", got.Speed)
	assert.InDelta(t, 1.0, got.Units, 1e-9)
	assert.InDelta(t, 0.5, got.Fraction, 1e-9)

	// Bogus timestamps keep the last good value.
	p.parse("out_time=N/A")
	got, _ = p.parse("progress=continue")
	assert.InDelta(t, 0.5, got.Fraction, 1e-9)
}

func TestReencode_Start(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `for last; do :; done
echo "bitrate=800.0kbits/s"
echo "out_time=00:00:30.000000"
echo "progress=continue"
printf 'media' > "$last"
echo "out_time=00:01:00.000000"
echo "progress=end"
`)
	out := filepath.Join(t.TempDir(), "Town Hall.mp4")
	r := &Reencode{Path: bin, VideoCodec: CodecCopy, AudioCodec: CodecCopy, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(out))
	require.NoError(t, err)

	updates := drain(h)
	require.NoError(t, h.Wait())

	require.NotEmpty(t, updates)
	assert.InDelta(t, 1.0, updates[len(updates)-1].Fraction, 1e-9)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "media", string(data))
}

func TestReencode_Start_Failure(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `echo "Server returned 403 Forbidden" >&2
exit 1
`)
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)

	drain(h)
	err = h.Wait()
	require.ErrorIs(t, err, ErrProcessFailed)
	assert.Contains(t, err.Error(), "403 Forbidden")
}

func TestReencode_Start_Cancel(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `exec sleep 30
`)
	r := &Reencode{Path: bin, Logger: testLogger()}

	h, err := r.Start(context.Background(), testJob(filepath.Join(t.TempDir(), "x.mp4")))
	require.NoError(t, err)

	h.Cancel()
	h.Cancel()
	assert.ErrorIs(t, h.Wait(), ErrCancelled)
}

func TestReencode_Start_MissingBinary(t *testing.T) {
	r := &Reencode{Path: filepath.Join(t.TempDir(), "nope"), Logger: testLogger()}

	_, err := r.Start(context.Background(), testJob("/out/x.mp4"))
	assert.ErrorIs(t, err, ErrProcessFailed)
}
