// Package sanitize normalizes untrusted persisted data into canonical,
// bounded entity values. Every function here is total: corrupt JSON,
// wrong shapes, and tampered storage all come out as valid (possibly
// empty) values, never as a panic or an error.
package sanitize

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/studypulse/backend/internal/models"
)

// Round2 rounds minutes to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// asNumber coerces a decoded JSON value to a finite float64.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asString coerces a decoded JSON value to a string.
func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// minutesValue validates and rounds a raw minutes value.
// Returns false for non-finite, non-positive, or rounds-to-zero input.
func minutesValue(v interface{}) (float64, bool) {
	n, ok := asNumber(v)
	if !ok {
		return 0, false
	}
	n = Round2(n)
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// StudyLog sanitizes a raw study log. Keys must be day keys, values
// positive finite minutes; everything else is dropped.
func StudyLog(input interface{}) models.StudyLog {
	out := models.StudyLog{}
	raw, ok := input.(map[string]interface{})
	if !ok {
		return out
	}
	for day, v := range raw {
		if !models.IsDayKey(day) {
			continue
		}
		if minutes, ok := minutesValue(v); ok {
			out[day] = minutes
		}
	}
	return out
}

// TagLog sanitizes a raw tag log. Days with no surviving tags are
// dropped entirely.
func TagLog(input interface{}) models.TagLog {
	out := models.TagLog{}
	raw, ok := input.(map[string]interface{})
	if !ok {
		return out
	}
	for day, rawTags := range raw {
		if !models.IsDayKey(day) {
			continue
		}
		tags, ok := rawTags.(map[string]interface{})
		if !ok {
			continue
		}
		clean := map[string]float64{}
		for tag, v := range tags {
			name := strings.TrimSpace(tag)
			if name == "" {
				continue
			}
			if minutes, ok := minutesValue(v); ok {
				clean[name] = minutes
			}
		}
		if len(clean) > 0 {
			out[day] = clean
		}
	}
	return out
}

// SessionHistory sanitizes a raw session history. Non-array input
// yields an empty history.
func SessionHistory(input interface{}) []models.SessionEntry {
	raw, ok := input.([]interface{})
	if !ok {
		return []models.SessionEntry{}
	}
	candidates := make([]models.SessionEntry, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry := models.SessionEntry{}
		entry.ID, _ = asString(obj["id"])
		entry.Timestamp, _ = asString(obj["timestamp"])
		entry.Tag, _ = asString(obj["tag"])
		entry.Review, _ = asString(obj["review"])
		if minutes, ok := minutesValue(obj["minutes"]); ok {
			entry.Minutes = minutes
		}
		candidates = append(candidates, entry)
	}
	return Sessions(candidates)
}

// Sessions enforces the session history invariants on typed entries:
// required fields present, review normalized, deduplicated by id with
// richer-wins, sorted newest first, capped at MaxSessionHistory.
//
// Dedup tie-break: when exactly one duplicate carries a review it
// wins; when both or neither do, the later-processed entry wins. The
// rule is order-dependent on purpose, so merge callers control the
// winner by processing order.
func Sessions(entries []models.SessionEntry) []models.SessionEntry {
	type slot struct {
		entry models.SessionEntry
		at    time.Time
	}
	index := map[string]int{}
	kept := make([]slot, 0, len(entries))

	for _, e := range entries {
		if e.ID == "" || strings.TrimSpace(e.Tag) == "" {
			continue
		}
		at, ok := models.ParseTimestamp(e.Timestamp)
		if !ok {
			continue
		}
		e.Minutes = Round2(e.Minutes)
		if e.Minutes <= 0 {
			continue
		}
		if !models.IsValidReview(e.Review) {
			e.Review = models.ReviewNone
		}
		if i, dup := index[e.ID]; dup {
			// Keep the existing entry only when it has a review
			// and the newcomer does not.
			if kept[i].entry.Review != models.ReviewNone && e.Review == models.ReviewNone {
				continue
			}
			kept[i] = slot{entry: e, at: at}
			continue
		}
		index[e.ID] = len(kept)
		kept = append(kept, slot{entry: e, at: at})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].at.After(kept[j].at)
	})
	if len(kept) > models.MaxSessionHistory {
		kept = kept[:models.MaxSessionHistory]
	}

	out := make([]models.SessionEntry, len(kept))
	for i, s := range kept {
		out[i] = s.entry
	}
	return out
}

// AchievementMap sanitizes a raw achievement map against the static
// catalog. Unknown ids are dropped; bad day counts fall back to the
// catalog value; an unparseable unlock time defaults to now.
func AchievementMap(input interface{}, now time.Time) models.AchievementMap {
	out := models.AchievementMap{}
	raw, ok := input.(map[string]interface{})
	if !ok {
		return out
	}
	for id, v := range raw {
		def, known := models.AchievementByID(id)
		if !known {
			continue
		}
		obj, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		rec := models.AchievementRecord{Days: def.Days}
		if days, ok := asNumber(obj["days"]); ok && days > 0 {
			rec.Days = int(days)
		}
		rec.UnlockedAt = now.UTC().Format(time.RFC3339)
		if at, ok := asString(obj["unlockedAt"]); ok {
			if _, parseable := models.ParseTimestamp(at); parseable {
				rec.UnlockedAt = at
			}
		}
		out[id] = rec
	}
	return out
}
