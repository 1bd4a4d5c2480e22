package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// minEncoderYear is the newest ffmpeg copyright year considered too old.
const minEncoderYear = 2019

var copyrightYear = regexp.MustCompile(`\d{4}-(\d{4})`)

// CheckFFmpeg verifies ffmpeg runs and is recent enough. It returns the first
// line of `ffmpeg -version`.
func CheckFFmpeg(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingEncoder, err)
	}
	line := firstLine(out)

	if m := copyrightYear.FindStringSubmatch(line); m != nil {
		if year, _ := strconv.Atoi(m[1]); year <= minEncoderYear {
			return line, fmt.Errorf("%w: %s", ErrOutdatedEncoder, line)
		}
	}
	return line, nil
}

// CheckYtDlp verifies yt-dlp runs and returns its version.
func CheckYtDlp(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingSegmenter, err)
	}
	return firstLine(out), nil
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}
