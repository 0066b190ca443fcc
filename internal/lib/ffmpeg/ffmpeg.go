package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var ErrNoDuration = errors.New("media has no duration")

// GetMeta extracts a format or stream entry of a media file,
// e.g. "format=duration" or "stream=codec_type".
func GetMeta(ctx context.Context, file string, entry string) (string, error) {
	cmd := exec.CommandContext(
		ctx,
		"ffprobe",            //						call ffprobe
		"-loglevel", "error", //						set loglevel
		"-show_entries", entry, // 						set entry to write
		"-of", "default=noprint_wrappers=1:nokey=1", //	write only the result (without key)
		file, //										target file
	)

	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(stdout)), nil
}

// Prober reads media durations with ffprobe.
type Prober struct{}

// Duration returns the container duration in seconds.
func (Prober) Duration(ctx context.Context, file string) (float64, error) {
	const op = "ffmpeg.Duration"

	out, err := GetMeta(ctx, file, "format=duration")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// Still images report N/A.
	line, _, _ := strings.Cut(out, "\n")
	d, err := strconv.ParseFloat(line, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoDuration)
	}

	return d, nil
}
