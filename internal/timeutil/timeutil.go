// Package timeutil parses and formats billing event timestamps for display.
//
// The billing engine emits ISO-8601 timestamps with microsecond precision and
// sometimes without a timezone designator. Parsing is tolerant: fractional
// seconds are truncated to milliseconds and a missing zone is taken as UTC, so
// clients ordering on the parsed value agree regardless of which variant they
// received. Formatting never fails; bad input degrades to a placeholder.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

// Layouts tried in order. RFC3339Nano covers zoned timestamps with any
// fractional precision; the bare layouts cover engine timestamps that omit the
// zone designator (interpreted as UTC).
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp string, truncated to millisecond
// precision. Returns false for empty or unparseable input.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}

// FormatRelative renders a timestamp as a short age string relative to now:
// "Just now" under a minute, then "{n}m ago", "{n}h ago", "{n}d ago" with n
// rounded to the nearest integer. Returns "Unknown" for absent or unparseable
// input.
func FormatRelative(s string, now time.Time) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return "Unknown"
	}

	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(math.Round(age.Minutes())))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(math.Round(age.Hours())))
	default:
		return fmt.Sprintf("%dd ago", int(math.Round(age.Hours()/24)))
	}
}

// FormatClock renders a timestamp as a local hour:minute string, or the empty
// string for absent or unparseable input.
func FormatClock(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return ""
	}
	return t.Local().Format("15:04")
}
