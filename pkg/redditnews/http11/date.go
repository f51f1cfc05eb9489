package http11

import "time"

// TimeFormat is the IMF-fixdate layout used in Date and Last-Modified.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatTime renders t as an HTTP date.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses an HTTP date.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}
