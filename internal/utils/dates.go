package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format understood by SQLite's date().
const DateLayout = "2006-01-02"

// CutoffDate returns the UTC calendar date that lies days before now.
func CutoffDate(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format(DateLayout)
}

// ParseTimestamp parses an RFC3339 timestamp, with or without fractional seconds.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// FromUnixMillis converts a stored millisecond timestamp into UTC time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
