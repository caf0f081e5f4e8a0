package sync

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	apperrors "github.com/studypulse/backend/internal/errors"
	"github.com/studypulse/backend/internal/logging"
	"github.com/studypulse/backend/internal/merge"
	"github.com/studypulse/backend/internal/models"
	"github.com/studypulse/backend/internal/remote"
	"github.com/studypulse/backend/internal/sanitize"
	"github.com/studypulse/backend/internal/streak"
)

// analyticsState bundles the four analytics entities handled as one
// remote document.
type analyticsState struct {
	StudyLog     models.StudyLog
	TagLog       models.TagLog
	History      []models.SessionEntry
	Achievements models.AchievementMap
}

// loadAnalytics reads the sanitized local analytics snapshot.
func (e *Engine) loadAnalytics() analyticsState {
	return analyticsState{
		StudyLog:     e.store.LoadStudyLog(),
		TagLog:       e.store.LoadTagLog(),
		History:      e.store.LoadSessionHistory(),
		Achievements: e.store.LoadAchievements(),
	}
}

// toRaw reduces any JSON-marshalable value to the untyped tree the
// sanitizers accept. Remote fields arrive either decoded from the
// wire or as typed values from an in-process client; both normalize
// the same way.
func toRaw(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}

// decodeAnalytics sanitizes a remote analytics snapshot. Every field
// passes the same sanitizers local reads do; a tampered or drifted
// remote document degrades to empty entities, never to a panic.
func (e *Engine) decodeAnalytics(snap remote.Snapshot) analyticsState {
	return analyticsState{
		StudyLog:     sanitize.StudyLog(toRaw(snap.Field(remote.FieldStudyLog))),
		TagLog:       sanitize.TagLog(toRaw(snap.Field(remote.FieldTagLog))),
		History:      sanitize.SessionHistory(toRaw(snap.Field(remote.FieldSessionHistory))),
		Achievements: sanitize.AchievementMap(toRaw(snap.Field(remote.FieldAchievements)), e.now()),
	}
}

// mergeAnalytics reconciles local and remote analytics states.
func mergeAnalytics(local, rem analyticsState) analyticsState {
	return analyticsState{
		StudyLog:     merge.StudyLogs(local.StudyLog, rem.StudyLog),
		TagLog:       merge.TagLogs(local.TagLog, rem.TagLog),
		History:      merge.SessionHistories(local.History, rem.History),
		Achievements: merge.AchievementMaps(local.Achievements, rem.Achievements),
	}
}

// persistAnalytics writes back only the entities the merge changed,
// so an unchanged entity does not re-trigger anything downstream.
func (e *Engine) persistAnalytics(merged, local analyticsState) {
	if !reflect.DeepEqual(merged.StudyLog, local.StudyLog) {
		e.store.SaveStudyLog(merged.StudyLog)
	}
	if !reflect.DeepEqual(merged.TagLog, local.TagLog) {
		e.store.SaveTagLog(merged.TagLog)
	}
	if !reflect.DeepEqual(merged.History, local.History) {
		e.store.SaveSessionHistory(merged.History)
	}
	if !reflect.DeepEqual(merged.Achievements, local.Achievements) {
		e.store.SaveAchievements(merged.Achievements)
	}
}

// analyticsDiffer reports whether a holds anything b does not.
func analyticsDiffer(a, b analyticsState) bool {
	return !reflect.DeepEqual(a.StudyLog, b.StudyLog) ||
		!reflect.DeepEqual(a.TagLog, b.TagLog) ||
		!reflect.DeepEqual(a.History, b.History) ||
		!reflect.DeepEqual(a.Achievements, b.Achievements)
}

// analyticsFields builds the remote document payload.
func (e *Engine) analyticsFields(s analyticsState) map[string]interface{} {
	return map[string]interface{}{
		remote.FieldStudyLog:       s.StudyLog,
		remote.FieldTagLog:         s.TagLog,
		remote.FieldSessionHistory: s.History,
		remote.FieldAchievements:   s.Achievements,
		remote.FieldUpdatedAt:      e.now().UTC().Format(time.RFC3339),
		remote.FieldSchemaVersion:  remote.SchemaVersion,
		remote.FieldSource:         e.source,
	}
}

// syncFailed records a failed remote operation under its error code.
// Local state stays untouched; the next mutation or resume event is
// the retry.
func (e *Engine) syncFailed(message string, code apperrors.ErrorCode, err error, path string) {
	logging.Error(message, apperrors.Wrap(code, message, err), map[string]interface{}{"doc": path})
	e.setStatus(StatusError)
}

// pushAnalytics reconciles against the current remote snapshot and
// commits the merged state. Runs on the analytics document queue.
func (e *Engine) pushAnalytics() {
	path := e.analyticsPath()
	if path == "" {
		return
	}
	e.setStatus(StatusSyncing)
	ctx := context.Background()

	snap, err := e.client.GetDocument(ctx, path)
	if err != nil {
		e.syncFailed("Analytics push read failed", apperrors.ErrPushFailed, err, path)
		return
	}

	e.stateMu.Lock()
	local := e.loadAnalytics()
	merged := local
	if snap.Exists() {
		merged = mergeAnalytics(local, e.decodeAnalytics(snap))
		e.persistAnalytics(merged, local)
	}
	e.stateMu.Unlock()

	if err := e.client.SetDocument(ctx, path, e.analyticsFields(merged), true); err != nil {
		e.syncFailed("Analytics push write failed", apperrors.ErrPushFailed, err, path)
		return
	}

	e.store.SetLastSyncAt(e.now())
	e.setStatus(StatusIdle)
}

// pushSettings commits local preferences and the derived streak and
// theme fields. Preferences are last-write-wins; the conflict guard
// lives on the receive side.
func (e *Engine) pushSettings() {
	path := e.settingsPath()
	if path == "" {
		return
	}
	e.setStatus(StatusSyncing)
	ctx := context.Background()

	e.stateMu.Lock()
	prefs := e.store.LoadPreferences()
	editedAt := e.store.SettingsMutationAt()
	e.stateMu.Unlock()
	if editedAt.IsZero() {
		editedAt = e.now()
	}
	fields := map[string]interface{}{
		remote.FieldPreferences:          prefs,
		remote.FieldPreferencesUpdatedAt: editedAt.UTC().Format(time.RFC3339),
		remote.FieldStreak:               streak.Calculate(e.store.LoadStudyLog(), e.now()),
		remote.FieldTheme:                prefs.Theme,
		remote.FieldSource:               e.source,
	}

	if err := e.client.SetDocument(ctx, path, fields, true); err != nil {
		e.syncFailed("Settings push failed", apperrors.ErrPushFailed, err, path)
		return
	}

	e.store.SetLastSyncAt(e.now())
	e.setStatus(StatusIdle)
}

// hydrateAnalytics pulls the remote analytics document, merges it
// into local state, and pushes back only when the merge produced
// something the remote did not have. An absent remote document is
// seeded from local rather than treated as nothing-to-merge.
func (e *Engine) hydrateAnalytics() {
	path := e.analyticsPath()
	if path == "" {
		return
	}
	e.setStatus(StatusSyncing)
	ctx := context.Background()

	snap, err := e.client.GetDocument(ctx, path)
	if err != nil {
		e.syncFailed("Analytics hydrate read failed", apperrors.ErrHydrateFailed, err, path)
		return
	}

	e.stateMu.Lock()
	local := e.loadAnalytics()

	if !snap.Exists() {
		e.stateMu.Unlock()
		if err := e.client.SetDocument(ctx, path, e.analyticsFields(local), true); err != nil {
			e.syncFailed("Analytics bootstrap failed", apperrors.ErrHydrateFailed, err, path)
			return
		}
		e.store.SetLastSyncAt(e.now())
		e.setStatus(StatusIdle)
		return
	}

	rem := e.decodeAnalytics(snap)
	merged := mergeAnalytics(local, rem)
	e.persistAnalytics(merged, local)
	e.stateMu.Unlock()

	if analyticsDiffer(merged, rem) {
		if err := e.client.SetDocument(ctx, path, e.analyticsFields(merged), true); err != nil {
			e.syncFailed("Analytics hydrate write-back failed", apperrors.ErrPushFailed, err, path)
			return
		}
	}

	e.store.SetLastSyncAt(e.now())
	e.setStatus(StatusIdle)
}

// hydrateSettings pulls the remote settings document and applies it
// through the preference conflict guard.
func (e *Engine) hydrateSettings() {
	path := e.settingsPath()
	if path == "" {
		return
	}
	e.setStatus(StatusSyncing)
	ctx := context.Background()

	snap, err := e.client.GetDocument(ctx, path)
	if err != nil {
		e.syncFailed("Settings hydrate read failed", apperrors.ErrHydrateFailed, err, path)
		return
	}

	if !snap.Exists() {
		e.pushSettings()
		return
	}

	e.applySettingsFields(snap)
	e.store.SetLastSyncAt(e.now())
	e.setStatus(StatusIdle)
}

// applySettingsFields applies a remote settings snapshot locally
// unless a very recent local edit outranks it, in which case the
// local copy is re-pushed instead.
func (e *Engine) applySettingsFields(snap remote.Snapshot) {
	remotePrefs := sanitize.Preferences(toRaw(snap.Field(remote.FieldPreferences)))

	var remoteUpdatedAt time.Time
	if s, ok := snap.Field(remote.FieldPreferencesUpdatedAt).(string); ok {
		remoteUpdatedAt, _ = models.ParseTimestamp(s)
	}
	e.stateMu.Lock()
	editedAt := e.store.SettingsMutationAt()

	if merge.PreferenceArbiter(editedAt, remoteUpdatedAt, e.now(), e.config.SettingsGuard) {
		if !reflect.DeepEqual(remotePrefs, e.store.LoadPreferences()) {
			e.store.SavePreferences(remotePrefs)
			logging.Info("Remote preferences applied", map[string]interface{}{"doc": snap.Path()})
		}
		e.stateMu.Unlock()
		return
	}
	e.stateMu.Unlock()

	logging.Info("Remote preferences ignored; local edit is fresher", map[string]interface{}{
		"doc": snap.Path(),
	})
	e.NotifySettingsChanged()
}

// onAnalyticsSnapshot handles a push from another device. The merge
// runs on the document queue so it cannot interleave with an
// in-flight hydrate or push.
func (e *Engine) onAnalyticsSnapshot(snap remote.Snapshot) {
	if !snap.Exists() {
		return
	}
	if src, ok := snap.Field(remote.FieldSource).(string); ok && src == e.source {
		return // our own write echoed back
	}
	e.queueFor(snap.Path()).Enqueue(func() {
		e.stateMu.Lock()
		local := e.loadAnalytics()
		rem := e.decodeAnalytics(snap)
		merged := mergeAnalytics(local, rem)
		e.persistAnalytics(merged, local)
		e.stateMu.Unlock()
		// Local had entries the other device lacks; let the
		// debounced push propagate them.
		if analyticsDiffer(merged, rem) {
			e.NotifyAnalyticsChanged()
		}
	})
}

// onSettingsSnapshot handles a settings push from another device.
func (e *Engine) onSettingsSnapshot(snap remote.Snapshot) {
	if !snap.Exists() {
		return
	}
	if src, ok := snap.Field(remote.FieldSource).(string); ok && src == e.source {
		return
	}
	e.queueFor(snap.Path()).Enqueue(func() {
		e.applySettingsFields(snap)
	})
}
