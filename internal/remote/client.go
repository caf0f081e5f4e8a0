// Package remote provides the cloud document store client consumed
// by the sync engine. The store is a mirror target only; it owns no
// data, and the sync engine is the sole writer.
package remote

import "context"

// SchemaVersion is stamped into every analytics document so older
// clients can ignore fields they do not understand.
const SchemaVersion = 2

// Document field names for the per-user analytics document.
const (
	FieldStudyLog       = "studyLog"
	FieldTagLog         = "tagLog"
	FieldSessionHistory = "sessionHistory"
	FieldAchievements   = "achievements"
	FieldUpdatedAt      = "updatedAt"
	FieldSchemaVersion  = "schemaVersion"
	FieldSource         = "source"
)

// Document field names for the per-user settings document.
const (
	FieldPreferences          = "preferences"
	FieldPreferencesUpdatedAt = "preferencesUpdatedAt"
	FieldStreak               = "streak"
	FieldTheme                = "theme"
)

// AnalyticsDocPath returns the analytics document path for a user.
func AnalyticsDocPath(uid string) string {
	return "users/" + uid + "/analytics"
}

// SettingsDocPath returns the settings document path for a user.
func SettingsDocPath(uid string) string {
	return "users/" + uid + "/settings"
}

// Snapshot is a point-in-time view of a remote document. A snapshot
// for a missing document reports Exists() == false.
type Snapshot struct {
	path   string
	exists bool
	data   map[string]interface{}
}

// NewSnapshot builds a snapshot. A nil fields map means the document
// does not exist.
func NewSnapshot(path string, fields map[string]interface{}) Snapshot {
	return Snapshot{path: path, exists: fields != nil, data: fields}
}

// Path returns the document path.
func (s Snapshot) Path() string { return s.path }

// Exists reports whether the document exists remotely.
func (s Snapshot) Exists() bool { return s.exists }

// Data returns the document fields, or nil for a missing document.
func (s Snapshot) Data() map[string]interface{} { return s.data }

// Field returns a single field value.
func (s Snapshot) Field(name string) interface{} {
	if s.data == nil {
		return nil
	}
	return s.data[name]
}

// DocumentClient is the capability surface onto the remote store.
//
// SetDocument with merge semantics overwrites the named fields and
// leaves sibling fields untouched; without merge it replaces the
// whole document.
type DocumentClient interface {
	GetDocument(ctx context.Context, path string) (Snapshot, error)
	SetDocument(ctx context.Context, path string, fields map[string]interface{}, merge bool) error
	Subscribe(path string, onChange func(Snapshot), onError func(error)) (func(), error)
}

// mergeFields applies merge-write semantics onto existing fields.
func mergeFields(existing, incoming map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}
