package cli

import (
	"fmt"
	"strings"
	"time"
)

// parseTime accepts RFC 3339, a bare date (UTC midnight), "now", or a duration relative to
// now such as "-24h" or "90m". An empty string yields the zero time.
func parseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return time.Time{}, nil
	case "now":
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339, YYYY-MM-DD, now or a duration like -24h", s)
}

// parseRange resolves -from/-to for the report commands. Missing bounds default to the last
// 24 hours.
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	f, err := parseTime(from, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("-from: %w", err)
	}
	t, err := parseTime(to, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("-to: %w", err)
	}
	if t.IsZero() {
		t = now
	}
	if f.IsZero() {
		f = t.Add(-24 * time.Hour)
	}
	if f.After(t) {
		return time.Time{}, time.Time{}, fmt.Errorf("-from %s is after -to %s", f.Format(time.RFC3339), t.Format(time.RFC3339))
	}
	return f, t, nil
}
