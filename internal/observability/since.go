package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSince is the reporting window used when none is given.
const DefaultSince = "7d"

// ParseSince turns a window like "7d", "30d" or "24h" into the instant that
// far before now. An empty string means DefaultSince.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultSince
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q (use e.g. 7d, 30d, 24h)", s)
	}

	switch unit {
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(unit))
	}
}
