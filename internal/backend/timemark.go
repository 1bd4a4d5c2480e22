package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// TimemarkToUnits converts an "HH:MM:SS[.frac]" timestamp to fractional minutes.
func TimemarkToUnits(mark string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(mark), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timemark %q", mark)
	}
	hrs, err := strconv.Atoi(parts[0])
	if err != nil || hrs < 0 {
		return 0, fmt.Errorf("invalid timemark %q", mark)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 {
		return 0, fmt.Errorf("invalid timemark %q", mark)
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid timemark %q", mark)
	}
	return float64(hrs*60+mins) + secs/60, nil
}

// fraction returns done/total clamped to [0, 1].
func fraction(done, total float64) float64 {
	if total <= 0 {
		return 0
	}
	f := done / total
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
