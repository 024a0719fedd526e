// Package timeutil parses the date-time strings found in vehicle backend payloads.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// layouts are tried in order. Layouts without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTime converts a backend timestamp into a time.Time.
func ParseDateTime(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", text)
}

// SortKey renders t as fixed-width UTC text, so that lexical order of keys
// equals chronological order for years 0000-9999.
func SortKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
