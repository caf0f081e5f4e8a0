// Package merge combines local and remote snapshots of the same
// entity into one reconciled value. Every function is pure, leaves
// its inputs untouched, and converges under repeated application, so
// at-least-once delivery and re-merging never lose data.
package merge

import (
	"time"

	"github.com/studypulse/backend/internal/models"
	"github.com/studypulse/backend/internal/sanitize"
)

// StudyLogs takes the per-day maximum of both logs. Minutes only
// accumulate within a day, so the larger value is the more complete
// observation. Commutative and idempotent.
func StudyLogs(local, remote models.StudyLog) models.StudyLog {
	out := local.Clone()
	for day, minutes := range remote {
		if minutes > out[day] {
			out[day] = minutes
		}
	}
	return out
}

// TagLogs takes the per-day, per-tag maximum of both logs.
func TagLogs(local, remote models.TagLog) models.TagLog {
	out := local.Clone()
	for day, tags := range remote {
		existing, ok := out[day]
		if !ok {
			existing = map[string]float64{}
			out[day] = existing
		}
		for tag, minutes := range tags {
			if minutes > existing[tag] {
				existing[tag] = minutes
			}
		}
	}
	return out
}

// AchievementMaps unions both maps. Where both sides hold an id the
// earlier unlock time wins: an achievement's unlock moment never
// moves later than it happened.
func AchievementMaps(local, remote models.AchievementMap) models.AchievementMap {
	out := local.Clone()
	for id, rec := range remote {
		existing, ok := out[id]
		if !ok {
			out[id] = rec
			continue
		}
		if unlockedEarlier(rec.UnlockedAt, existing.UnlockedAt) {
			out[id] = rec
		}
	}
	return out
}

// unlockedEarlier reports whether a strictly predates b. Unparseable
// times sort last so a real timestamp always beats a corrupt one.
func unlockedEarlier(a, b string) bool {
	at, aok := models.ParseTimestamp(a)
	bt, bok := models.ParseTimestamp(b)
	if !aok {
		return false
	}
	if !bok {
		return true
	}
	return at.Before(bt)
}

// SessionHistories concatenates remote then local and re-runs the
// session sanitizer. Dedup, richer-wins, ordering, and the history
// cap all come from the same rule ingestion uses; local entries are
// processed after remote, so local wins dedup ties.
func SessionHistories(local, remote []models.SessionEntry) []models.SessionEntry {
	combined := make([]models.SessionEntry, 0, len(local)+len(remote))
	combined = append(combined, remote...)
	combined = append(combined, local...)
	return sanitize.Sessions(combined)
}

// PreferenceArbiter decides whether a remote preferences snapshot may
// replace local state. Within guardWindow of a local settings edit
// the remote copy is applied only when its recorded update time is
// clearly newer than the local edit; otherwise local recency wins.
func PreferenceArbiter(localEditedAt, remoteUpdatedAt, now time.Time, guardWindow time.Duration) bool {
	if localEditedAt.IsZero() {
		return true
	}
	if now.Sub(localEditedAt) > guardWindow {
		return true
	}
	return remoteUpdatedAt.After(localEditedAt)
}
