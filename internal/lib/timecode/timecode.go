package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidTimecode = errors.New("invalid timecode")

// Parse converts "HH:MM:SS", "MM:SS" or "SS" (seconds may carry
// a fractional part) into seconds.
func Parse(s string) (float64, error) {
	const op = "timecode.Parse"

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s: %w: empty", op, ErrInvalidTimecode)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidTimecode, s)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1

		var (
			v   float64
			err error
		)
		if last {
			v, err = strconv.ParseFloat(part, 64)
		} else {
			var n int
			n, err = strconv.Atoi(part)
			v = float64(n)
		}
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidTimecode, s)
		}
		// minutes and seconds of a compound timecode are below 60
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidTimecode, s)
		}

		total = total*60 + v
	}

	return total, nil
}

// Format renders seconds as "HH:MM:SS", rounding down
// to whole seconds.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}
