// Package fields encodes scalar values stored in Redis hash fields.
package fields

import (
	"strconv"
	"time"
)

// FormatTime encodes t, leaving zero times empty
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// ParseTime decodes a value written by FormatTime
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// FormatBool encodes b as "1" or "0"
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseBool treats "1" as true and anything else as false
func ParseBool(s string) bool {
	return s == "1"
}

// ParseInt decodes an integer field, returning 0 for empty values
func ParseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
