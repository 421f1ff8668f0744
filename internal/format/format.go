package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimestamp indicates a timestamp string could not be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp formats whole seconds the way video descriptions display them:
// M:SS below one hour, H:MM:SS otherwise. The leading field is not padded.
// Examples: 0 -> "0:00", 65 -> "1:05", 3661 -> "1:01:01"
func Timestamp(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseTimestamp parses "SS", "M:SS", "MM:SS" or "H:MM:SS" into seconds.
// Minute and second fields after the first must be below 60.
func ParseTimestamp(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string: %w", ErrInvalidTimestamp)
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%q has too many fields: %w", s, ErrInvalidTimestamp)
	}

	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q: %w", s, ErrInvalidTimestamp)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("%q: field %d out of range: %w", s, i, ErrInvalidTimestamp)
		}
		if total > (math.MaxInt-n)/60 {
			return 0, fmt.Errorf("%q: overflows: %w", s, ErrInvalidTimestamp)
		}
		total = total*60 + n
	}
	return total, nil
}

// DurationHuman formats a duration for human display.
// Examples: "2h", "30m", "1h30m", "45s"
func DurationHuman(d time.Duration) string {
	if d >= time.Hour {
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return fmt.Sprintf("%ds", d/time.Second)
}
