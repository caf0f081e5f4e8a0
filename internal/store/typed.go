package store

import (
	"encoding/json"
	"time"

	"github.com/studypulse/backend/internal/models"
	"github.com/studypulse/backend/internal/sanitize"
)

// Persisted key catalog.
const (
	KeyStudyLog           = "study-log"
	KeyTagLog             = "tag-log"
	KeySessionHistory     = "session-history"
	KeyAchievements       = "achievement-map"
	KeyPreferences        = "preferences"
	KeyLastSyncedUID      = "last-synced-uid"
	KeyLastSyncAt         = "last-successful-sync-at"
	KeySettingsMutationAt = "last-local-settings-mutation-at"
)

// loadRaw unmarshals a stored JSON value into an untyped tree.
// Corrupt JSON comes back as nil, which every sanitizer accepts.
func (s *Store) loadRaw(key string) interface{} {
	text, ok := s.Get(key)
	if !ok {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return raw
}

// saveJSON marshals and writes a value best-effort.
func (s *Store) saveJSON(key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return s.Set(key, string(data))
}

// LoadStudyLog reads the sanitized study log.
func (s *Store) LoadStudyLog() models.StudyLog {
	return sanitize.StudyLog(s.loadRaw(KeyStudyLog))
}

// SaveStudyLog writes the study log.
func (s *Store) SaveStudyLog(log models.StudyLog) bool {
	return s.saveJSON(KeyStudyLog, log)
}

// LoadTagLog reads the sanitized tag log.
func (s *Store) LoadTagLog() models.TagLog {
	return sanitize.TagLog(s.loadRaw(KeyTagLog))
}

// SaveTagLog writes the tag log.
func (s *Store) SaveTagLog(log models.TagLog) bool {
	return s.saveJSON(KeyTagLog, log)
}

// LoadSessionHistory reads the sanitized session history.
func (s *Store) LoadSessionHistory() []models.SessionEntry {
	return sanitize.SessionHistory(s.loadRaw(KeySessionHistory))
}

// SaveSessionHistory writes the session history.
func (s *Store) SaveSessionHistory(history []models.SessionEntry) bool {
	return s.saveJSON(KeySessionHistory, history)
}

// LoadAchievements reads the sanitized achievement map.
func (s *Store) LoadAchievements() models.AchievementMap {
	return sanitize.AchievementMap(s.loadRaw(KeyAchievements), time.Now())
}

// SaveAchievements writes the achievement map.
func (s *Store) SaveAchievements(m models.AchievementMap) bool {
	return s.saveJSON(KeyAchievements, m)
}

// LoadPreferences reads the sanitized preferences record.
func (s *Store) LoadPreferences() models.Preferences {
	return sanitize.Preferences(s.loadRaw(KeyPreferences))
}

// SavePreferences writes the preferences record.
func (s *Store) SavePreferences(p models.Preferences) bool {
	return s.saveJSON(KeyPreferences, p)
}

// LastSyncedUID returns the uid of the last account synced on this
// device, or "" if none.
func (s *Store) LastSyncedUID() string {
	uid, _ := s.Get(KeyLastSyncedUID)
	return uid
}

// SetLastSyncedUID records the synced account.
func (s *Store) SetLastSyncedUID(uid string) bool {
	return s.Set(KeyLastSyncedUID, uid)
}

// LastSyncAt returns the last successful sync time, or the zero time.
func (s *Store) LastSyncAt() time.Time {
	return s.loadTime(KeyLastSyncAt)
}

// SetLastSyncAt records a successful sync.
func (s *Store) SetLastSyncAt(t time.Time) bool {
	return s.Set(KeyLastSyncAt, t.UTC().Format(time.RFC3339))
}

// SettingsMutationAt returns the last local settings edit time, or
// the zero time. The sync engine arbitrates preference conflicts
// against this marker.
func (s *Store) SettingsMutationAt() time.Time {
	return s.loadTime(KeySettingsMutationAt)
}

// TouchSettingsMutation records a local settings edit.
func (s *Store) TouchSettingsMutation(t time.Time) bool {
	return s.Set(KeySettingsMutationAt, t.UTC().Format(time.RFC3339))
}

func (s *Store) loadTime(key string) time.Time {
	text, ok := s.Get(key)
	if !ok {
		return time.Time{}
	}
	t, ok := models.ParseTimestamp(text)
	if !ok {
		return time.Time{}
	}
	return t
}
