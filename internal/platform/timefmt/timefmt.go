// Package timefmt converts elapsed seconds and timestamps to and from the
// representations stored in the task table and shown to the user.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical wall clock layout persisted in the task table.
const Layout = "2006-01-02 15:04:05"

var parseLayouts = []string{
	Layout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// FormatDuration renders seconds as HH:MM:SS. Hours are not wrapped.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatCompact renders seconds as "1h 05m", "12m 03s" or "9s".
func FormatCompact(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func FormatTimestamp(t time.Time) string {
	return t.Format(Layout)
}

// ParseTimestamp accepts the canonical layout, RFC3339 and a few close
// variants. Zone-less values are read in the local zone.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// NormalizeTimestamp re-emits value in the canonical layout.
func NormalizeTimestamp(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t.In(time.Local)), nil
}
