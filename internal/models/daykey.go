// Package models provides data model definitions for the StudyPulse core.
package models

import (
	"regexp"
	"time"
)

// Day keys bucket study minutes by local calendar date.
const DayKeyLayout = "2006-01-02"

var dayKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DayKey formats a time as a day key in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// IsDayKey checks whether a string is a well-formed day key.
func IsDayKey(s string) bool {
	return dayKeyRegex.MatchString(s)
}

// ParseDayKey parses a day key into a midnight-local time.
// Returns the zero time and false for malformed keys.
func ParseDayKey(s string) (time.Time, bool) {
	if !IsDayKey(s) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DayKeyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
