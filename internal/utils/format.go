package utils

import (
	"strconv"
	"time"
)

// Timestamp formats t as RFC 3339 in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// TimeOrEmpty formats t with Timestamp, or returns "" if zero.
func TimeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Timestamp(t)
}

// Number formats a float without exponent or trailing zeros, so 4 renders as "4".
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
