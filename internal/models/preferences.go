package models

// Preference field domains. Out-of-range input clamps to the
// nearest bound; unknown enum values fall back to the default.
const (
	MinStudyMinutes = 5
	MaxStudyMinutes = 240

	MinBreakMinutes = 1
	MaxBreakMinutes = 60

	MinDailyGoalMinutes = 0
	MaxDailyGoalMinutes = 1440

	MinFocusCommitMinutes = 5
	MaxFocusCommitMinutes = 180

	MaxBlockedSites = 40
)

// Theme ids recognized by the UI layer.
var ValidThemes = []string{"dawn", "dusk", "forest", "ocean", "mono"}

// Alarm modes.
var ValidAlarmModes = []string{"chime", "bell", "silent"}

// Music sources.
var ValidMusicSources = []string{"none", "lofi", "ambient", "custom"}

// Preferences is the flat user settings record. Every field has a
// valid domain and a default; sanitizeation coerces rather than
// rejects, so an old or tampered payload still loads.
type Preferences struct {
	StudyMinutes       int      `json:"studyMinutes"`
	BreakMinutes       int      `json:"breakMinutes"`
	DailyGoalMinutes   int      `json:"dailyGoalMinutes"`
	WeeklyTargets      [7]int   `json:"weeklyTargets"` // minutes per weekday, Sunday first
	ReminderTime       string   `json:"reminderTime"`  // HH:MM
	QuietHoursStart    string   `json:"quietHoursStart"`
	QuietHoursEnd      string   `json:"quietHoursEnd"`
	Theme              string   `json:"theme"`
	FocusMode          bool     `json:"focusMode"`
	FocusCommitMinutes int      `json:"focusCommitMinutes"`
	BlockedSites       []string `json:"blockedSites"`
	AlarmMode          string   `json:"alarmMode"`
	MusicSource        string   `json:"musicSource"`
}

// DefaultPreferences returns the first-load settings record.
func DefaultPreferences() Preferences {
	return Preferences{
		StudyMinutes:       25,
		BreakMinutes:       5,
		DailyGoalMinutes:   120,
		WeeklyTargets:      [7]int{60, 120, 120, 120, 120, 120, 60},
		ReminderTime:       "18:00",
		QuietHoursStart:    "22:00",
		QuietHoursEnd:      "07:00",
		Theme:              "dawn",
		FocusMode:          false,
		FocusCommitMinutes: 25,
		BlockedSites:       nil,
		AlarmMode:          "chime",
		MusicSource:        "none",
	}
}

// Clone returns a deep copy of the preferences.
func (p Preferences) Clone() Preferences {
	out := p
	if p.BlockedSites != nil {
		out.BlockedSites = append([]string(nil), p.BlockedSites...)
	}
	return out
}
