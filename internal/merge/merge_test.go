// Package merge tests for snapshot reconciliation.
package merge

import (
	"reflect"
	"testing"
	"time"

	"github.com/studypulse/backend/internal/models"
)

// =====================================================
// StudyLog Merge Tests
// =====================================================

// TestStudyLogs_maxPerDay verifies per-day max with union of days.
func TestStudyLogs_maxPerDay(t *testing.T) {
	local := models.StudyLog{"2026-01-15": 30, "2026-01-16": 60}
	remote := models.StudyLog{"2026-01-15": 45, "2026-01-17": 20}

	got := StudyLogs(local, remote)

	want := models.StudyLog{"2026-01-15": 45, "2026-01-16": 60, "2026-01-17": 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StudyLogs() = %v, want %v", got, want)
	}
}

// TestStudyLogs_commutative verifies merge(a,b) == merge(b,a).
func TestStudyLogs_commutative(t *testing.T) {
	a := models.StudyLog{"2026-01-15": 30, "2026-01-16": 60}
	b := models.StudyLog{"2026-01-15": 45, "2026-01-17": 20}

	if !reflect.DeepEqual(StudyLogs(a, b), StudyLogs(b, a)) {
		t.Error("merge is not commutative")
	}
}

// TestStudyLogs_idempotent verifies re-merging cannot shrink any day.
func TestStudyLogs_idempotent(t *testing.T) {
	x := models.StudyLog{"2026-01-15": 30}
	y := models.StudyLog{"2026-01-15": 45, "2026-01-16": 10}

	merged := StudyLogs(x, y)
	again := StudyLogs(x, merged)

	for day, minutes := range merged {
		if again[day] < minutes {
			t.Errorf("day %s shrank from %v to %v", day, minutes, again[day])
		}
	}
	if !reflect.DeepEqual(merged, again) {
		t.Errorf("re-merge changed the log: %v vs %v", merged, again)
	}
}

// TestStudyLogs_maxProperty verifies merged[day] >= both inputs.
func TestStudyLogs_maxProperty(t *testing.T) {
	local := models.StudyLog{"2026-01-15": 30, "2026-01-16": 5}
	remote := models.StudyLog{"2026-01-15": 12, "2026-01-17": 90}

	merged := StudyLogs(local, remote)

	for day := range merged {
		if merged[day] < local[day] || merged[day] < remote[day] {
			t.Errorf("day %s: merged %v below an input (%v, %v)",
				day, merged[day], local[day], remote[day])
		}
	}
}

// TestStudyLogs_inputsUntouched verifies merge never mutates inputs.
func TestStudyLogs_inputsUntouched(t *testing.T) {
	local := models.StudyLog{"2026-01-15": 30}
	remote := models.StudyLog{"2026-01-15": 45}

	StudyLogs(local, remote)

	if local["2026-01-15"] != 30 || remote["2026-01-15"] != 45 {
		t.Error("merge mutated an input")
	}
}

// =====================================================
// TagLog Merge Tests
// =====================================================

// TestTagLogs_maxPerTag verifies per-day per-tag max.
func TestTagLogs_maxPerTag(t *testing.T) {
	local := models.TagLog{
		"2026-01-15": {"Math": 30, "History": 15},
	}
	remote := models.TagLog{
		"2026-01-15": {"Math": 45},
		"2026-01-16": {"Physics": 20},
	}

	got := TagLogs(local, remote)

	want := models.TagLog{
		"2026-01-15": {"Math": 45, "History": 15},
		"2026-01-16": {"Physics": 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagLogs() = %v, want %v", got, want)
	}
}

// TestTagLogs_commutative verifies merge(a,b) == merge(b,a).
func TestTagLogs_commutative(t *testing.T) {
	a := models.TagLog{"2026-01-15": {"Math": 30}}
	b := models.TagLog{"2026-01-15": {"Math": 45, "History": 5}}

	if !reflect.DeepEqual(TagLogs(a, b), TagLogs(b, a)) {
		t.Error("merge is not commutative")
	}
}

// =====================================================
// AchievementMap Merge Tests
// =====================================================

// TestAchievementMaps_union verifies ids from both sides survive.
func TestAchievementMaps_union(t *testing.T) {
	local := models.AchievementMap{
		"streak-3": {UnlockedAt: "2026-01-10T08:00:00Z", Days: 3},
	}
	remote := models.AchievementMap{
		"streak-7": {UnlockedAt: "2026-01-14T08:00:00Z", Days: 7},
	}

	got := AchievementMaps(local, remote)

	if len(got) != 2 {
		t.Fatalf("merged %d ids, want 2", len(got))
	}
}

// TestAchievementMaps_earlierUnlockWins verifies the first unlock
// moment is kept when both sides hold an id.
func TestAchievementMaps_earlierUnlockWins(t *testing.T) {
	local := models.AchievementMap{
		"streak-3": {UnlockedAt: "2026-01-12T08:00:00Z", Days: 3},
	}
	remote := models.AchievementMap{
		"streak-3": {UnlockedAt: "2026-01-10T08:00:00Z", Days: 3},
	}

	got := AchievementMaps(local, remote)

	if got["streak-3"].UnlockedAt != "2026-01-10T08:00:00Z" {
		t.Errorf("unlockedAt = %q, want the earlier one", got["streak-3"].UnlockedAt)
	}

	// Either argument order keeps the earlier moment.
	got = AchievementMaps(remote, local)
	if got["streak-3"].UnlockedAt != "2026-01-10T08:00:00Z" {
		t.Errorf("reversed: unlockedAt = %q, want the earlier one", got["streak-3"].UnlockedAt)
	}
}

// TestAchievementMaps_corruptTimestampLoses verifies a parseable
// unlock time beats a corrupt one.
func TestAchievementMaps_corruptTimestampLoses(t *testing.T) {
	local := models.AchievementMap{
		"streak-3": {UnlockedAt: "garbage", Days: 3},
	}
	remote := models.AchievementMap{
		"streak-3": {UnlockedAt: "2026-01-10T08:00:00Z", Days: 3},
	}

	got := AchievementMaps(local, remote)

	if got["streak-3"].UnlockedAt != "2026-01-10T08:00:00Z" {
		t.Errorf("unlockedAt = %q, want the parseable one", got["streak-3"].UnlockedAt)
	}
}

// =====================================================
// SessionHistory Merge Tests
// =====================================================

// TestSessionHistories_localWinsTie verifies the local entry wins a
// dedup tie because it is processed after remote.
func TestSessionHistories_localWinsTie(t *testing.T) {
	local := []models.SessionEntry{
		{ID: "s1", Timestamp: "2026-01-15T10:00:00Z", Minutes: 25, Tag: "Math", Review: "focused"},
	}
	remote := []models.SessionEntry{
		{ID: "s1", Timestamp: "2026-01-15T10:00:00Z", Minutes: 25, Tag: "Math", Review: ""},
	}

	got := SessionHistories(local, remote)

	if len(got) != 1 {
		t.Fatalf("merged %d entries, want 1", len(got))
	}
	if got[0].Review != models.ReviewFocused {
		t.Errorf("review = %q, want %q", got[0].Review, models.ReviewFocused)
	}
}

// TestSessionHistories_unionSorted verifies distinct ids union and
// sort newest first.
func TestSessionHistories_unionSorted(t *testing.T) {
	local := []models.SessionEntry{
		{ID: "old", Timestamp: "2026-01-10T10:00:00Z", Minutes: 20, Tag: "Math"},
	}
	remote := []models.SessionEntry{
		{ID: "new", Timestamp: "2026-01-16T10:00:00Z", Minutes: 40, Tag: "History"},
	}

	got := SessionHistories(local, remote)

	if len(got) != 2 {
		t.Fatalf("merged %d entries, want 2", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("order = [%s, %s], want newest first", got[0].ID, got[1].ID)
	}
}

// =====================================================
// Preference Arbiter Tests
// =====================================================

// TestPreferenceArbiter verifies the local-recency guard window.
func TestPreferenceArbiter(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	guard := 90 * time.Second

	cases := []struct {
		name     string
		editedAt time.Time
		remoteAt time.Time
		want     bool
	}{
		{"no local edit ever", time.Time{}, now, true},
		{"old local edit", now.Add(-10 * time.Minute), now.Add(-5 * time.Minute), true},
		{"recent local edit, stale remote", now.Add(-30 * time.Second), now.Add(-2 * time.Minute), false},
		{"recent local edit, unknown remote time", now.Add(-30 * time.Second), time.Time{}, false},
		{"recent local edit, clearly newer remote", now.Add(-30 * time.Second), now.Add(-10 * time.Second), true},
	}

	for _, tc := range cases {
		got := PreferenceArbiter(tc.editedAt, tc.remoteAt, now, guard)
		if got != tc.want {
			t.Errorf("%s: PreferenceArbiter() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
