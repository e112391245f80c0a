package model

import (
	"fmt"
	"time"
)

// DateLayout is the only timestamp format the server speaks.
const DateLayout = "2006-01-02T15:04:05.000-07:00"

// ParseDate parses s with DateLayout and normalizes it to UTC. Anything else,
// including a trailing Z or a missing millisecond part, is rejected.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("date %q: want layout %s", s, DateLayout)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate renders t in DateLayout at UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
