package normalize

import (
	"strings"
	"time"
)

// Day-first date formats found in hospital admission exports.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in multiple day-first formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			return &t
		}
	}
	return nil
}

// DaysBetween returns the whole days from start to end, truncating partial days.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
