package models

import "time"

// MaxSessionHistory caps the retained session history.
// Entries beyond the cap are silently dropped, oldest first.
const MaxSessionHistory = 1200

// Session review values. Anything else normalizes to ReviewNone.
const (
	ReviewNone       = ""
	ReviewFocused    = "focused"
	ReviewDistracted = "distracted"
)

// SessionEntry records one completed study block.
type SessionEntry struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Minutes   float64 `json:"minutes"`
	Tag       string  `json:"tag"`
	Review    string  `json:"review"`
}

// Time returns the parsed timestamp, or the zero time if unparseable.
func (e SessionEntry) Time() time.Time {
	t, _ := ParseTimestamp(e.Timestamp)
	return t
}

// timestampLayouts are the accepted session timestamp formats.
// RFC3339 is canonical; the rest tolerate older clients.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a session timestamp.
// Returns false when no accepted layout matches.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValidReview checks whether a review value is one of the
// recognized constants.
func IsValidReview(s string) bool {
	return s == ReviewNone || s == ReviewFocused || s == ReviewDistracted
}
