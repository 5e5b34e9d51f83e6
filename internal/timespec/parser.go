// Package timespec parses the time and duration specifications accepted in
// configuration files and on the command line.
package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration specification.
// Supports Go duration format ("90m", "168h") plus whole day and week
// suffixes ("7d", "1w") that time.ParseDuration lacks.
func ParseDuration(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty duration specification")
	}

	for suffix, unit := range map[string]time.Duration{
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	} {
		if !strings.HasSuffix(spec, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(spec, suffix))
		if err != nil {
			return 0, fmt.Errorf("invalid duration specification: %s", spec)
		}
		if n < 0 {
			return 0, fmt.Errorf("duration must not be negative: %s", spec)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid duration specification: %s (use a duration like '168h', '7d' or '1w')", spec)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", spec)
	}
	return d, nil
}

// Parse parses a point-in-time specification into a Unix timestamp (milliseconds).
// Supports two formats:
//   - durations accepted by ParseDuration, relative to now ("2h" means two hours ago)
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
func Parse(spec string) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := ParseDuration(spec); err == nil {
		return time.Now().Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// ParseRange parses both --since and --until flags into a time range.
// Zero values indicate "no bound" for that end of the range.
func ParseRange(since, until string) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		sinceMS, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
