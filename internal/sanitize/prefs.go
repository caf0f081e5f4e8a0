package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/studypulse/backend/internal/models"
)

// clampInt coerces a raw value to an integer minute count within
// [min, max], falling back to def when the value is not numeric.
func clampInt(v interface{}, min, max, def int) int {
	n, ok := asNumber(v)
	if !ok {
		return def
	}
	i := int(math.Round(n))
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}

// timeOfDay validates an HH:MM string with in-range hour and minute,
// falling back to def otherwise.
func timeOfDay(v interface{}, def string) string {
	s, ok := asString(v)
	if !ok {
		return def
	}
	var hh, mm int
	if n, err := fmt.Sscanf(strings.TrimSpace(s), "%2d:%2d", &hh, &mm); err != nil || n != 2 {
		return def
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return def
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// enumString accepts only values in valid, falling back to def.
func enumString(v interface{}, valid []string, def string) string {
	s, ok := asString(v)
	if !ok {
		return def
	}
	for _, candidate := range valid {
		if s == candidate {
			return s
		}
	}
	return def
}

// asBool coerces a raw value to a bool, falling back to def.
func asBool(v interface{}, def bool) bool {
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// NormalizeHost reduces a blocked-site entry to a bare lowercase
// host: scheme, www. prefix, port, path, query, and fragment are all
// stripped. Returns "" for entries with no host left.
func NormalizeHost(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// blockedSites normalizes, dedupes, and caps the blocked-site list.
func blockedSites(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, item := range raw {
		s, ok := asString(item)
		if !ok {
			continue
		}
		host := NormalizeHost(s)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, host)
		if len(out) == models.MaxBlockedSites {
			break
		}
	}
	return out
}

// weeklyTargets clamps a seven-element minute array, falling back to
// def per slot (or entirely when the shape is wrong).
func weeklyTargets(v interface{}, def [7]int) [7]int {
	raw, ok := v.([]interface{})
	if !ok || len(raw) != 7 {
		return def
	}
	out := def
	for i, item := range raw {
		out[i] = clampInt(item, models.MinDailyGoalMinutes, models.MaxDailyGoalMinutes, def[i])
	}
	return out
}

// ClampPreferences re-applies every field domain to an already-typed
// record by round-tripping it through the raw sanitizer. Settings
// submissions pass through here so typed and untyped inputs obey the
// same rules.
func ClampPreferences(p models.Preferences) models.Preferences {
	data, err := json.Marshal(p)
	if err != nil {
		return models.DefaultPreferences()
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.DefaultPreferences()
	}
	return Preferences(raw)
}

// Preferences sanitizes a raw preferences record field by field.
// Unknown fields are ignored and missing fields take their defaults,
// so payloads from older and newer clients both load cleanly.
func Preferences(input interface{}) models.Preferences {
	def := models.DefaultPreferences()
	raw, ok := input.(map[string]interface{})
	if !ok {
		return def
	}
	return models.Preferences{
		StudyMinutes:       clampInt(raw["studyMinutes"], models.MinStudyMinutes, models.MaxStudyMinutes, def.StudyMinutes),
		BreakMinutes:       clampInt(raw["breakMinutes"], models.MinBreakMinutes, models.MaxBreakMinutes, def.BreakMinutes),
		DailyGoalMinutes:   clampInt(raw["dailyGoalMinutes"], models.MinDailyGoalMinutes, models.MaxDailyGoalMinutes, def.DailyGoalMinutes),
		WeeklyTargets:      weeklyTargets(raw["weeklyTargets"], def.WeeklyTargets),
		ReminderTime:       timeOfDay(raw["reminderTime"], def.ReminderTime),
		QuietHoursStart:    timeOfDay(raw["quietHoursStart"], def.QuietHoursStart),
		QuietHoursEnd:      timeOfDay(raw["quietHoursEnd"], def.QuietHoursEnd),
		Theme:              enumString(raw["theme"], models.ValidThemes, def.Theme),
		FocusMode:          asBool(raw["focusMode"], def.FocusMode),
		FocusCommitMinutes: clampInt(raw["focusCommitMinutes"], models.MinFocusCommitMinutes, models.MaxFocusCommitMinutes, def.FocusCommitMinutes),
		BlockedSites:       blockedSites(raw["blockedSites"]),
		AlarmMode:          enumString(raw["alarmMode"], models.ValidAlarmModes, def.AlarmMode),
		MusicSource:        enumString(raw["musicSource"], models.ValidMusicSources, def.MusicSource),
	}
}
