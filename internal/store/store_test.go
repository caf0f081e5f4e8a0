// Package store tests against a real SQLite file in a temp dir.
package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/studypulse/backend/internal/errors"
	"github.com/studypulse/backend/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// =====================================================
// Raw Key-Value Tests
// =====================================================

// TestGetSet verifies basic round-trip and overwrite.
func TestGetSet(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Get("missing"); ok {
		t.Error("Get() on a fresh store reported a value")
	}

	if !s.Set("k", "v1") {
		t.Fatal("Set() reported failure")
	}
	if v, ok := s.Get("k"); !ok || v != "v1" {
		t.Errorf("Get() = (%q, %v), want (v1, true)", v, ok)
	}

	s.Set("k", "v2")
	if v, _ := s.Get("k"); v != "v2" {
		t.Errorf("overwrite: Get() = %q, want v2", v)
	}
}

// TestDelete verifies a deleted key reads as missing.
func TestDelete(t *testing.T) {
	s := openTestStore(t)

	s.Set("k", "v")
	if !s.Delete("k") {
		t.Fatal("Delete() reported failure")
	}
	if _, ok := s.Get("k"); ok {
		t.Error("deleted key still present")
	}
}

// TestOpen_badDataDir verifies an unusable data directory surfaces
// the storage-open error code.
func TestOpen_badDataDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := Open(filepath.Join(blocker, "nested"))
	if err == nil {
		t.Fatal("Open() succeeded under a file path")
	}
	if !apperrors.Is(err, apperrors.ErrStorageOpen) {
		t.Errorf("error code = %v, want %s", err, apperrors.ErrStorageOpen)
	}
}

// TestReopen verifies values survive a close and reopen.
func TestReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.Set("k", "persisted")
	s.Close()

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if v, ok := s.Get("k"); !ok || v != "persisted" {
		t.Errorf("after reopen: Get() = (%q, %v), want (persisted, true)", v, ok)
	}
}

// =====================================================
// Typed Entity Tests
// =====================================================

// TestStudyLogRoundTrip verifies the typed load/save pair.
func TestStudyLogRoundTrip(t *testing.T) {
	s := openTestStore(t)

	log := models.StudyLog{"2026-01-15": 25.5, "2026-01-16": 60}
	s.SaveStudyLog(log)

	got := s.LoadStudyLog()
	if !reflect.DeepEqual(got, log) {
		t.Errorf("LoadStudyLog() = %v, want %v", got, log)
	}
}

// TestLoadSanitizesCorruptJSON verifies corrupt stored text comes
// back as empty entities instead of an error.
func TestLoadSanitizesCorruptJSON(t *testing.T) {
	s := openTestStore(t)

	s.Set(KeyStudyLog, "{not json")
	s.Set(KeySessionHistory, `"a string"`)
	s.Set(KeyAchievements, "[1,2,3]")

	if got := s.LoadStudyLog(); len(got) != 0 {
		t.Errorf("corrupt study log loaded as %v", got)
	}
	if got := s.LoadSessionHistory(); len(got) != 0 {
		t.Errorf("corrupt history loaded as %v", got)
	}
	if got := s.LoadAchievements(); len(got) != 0 {
		t.Errorf("corrupt achievements loaded as %v", got)
	}
}

// TestLoadDropsInvalidEntries verifies stored garbage inside valid
// JSON is filtered on the way out.
func TestLoadDropsInvalidEntries(t *testing.T) {
	s := openTestStore(t)

	s.Set(KeyStudyLog, `{"2026-01-15":30,"bad-key":10,"2026-01-16":-5}`)

	got := s.LoadStudyLog()
	want := models.StudyLog{"2026-01-15": 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadStudyLog() = %v, want %v", got, want)
	}
}

// TestPreferencesRoundTrip verifies the preferences load/save pair.
func TestPreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	prefs := models.DefaultPreferences()
	prefs.StudyMinutes = 50
	prefs.Theme = "ocean"
	prefs.BlockedSites = []string{"youtube.com"}
	s.SavePreferences(prefs)

	got := s.LoadPreferences()
	if got.StudyMinutes != 50 || got.Theme != "ocean" {
		t.Errorf("LoadPreferences() = %+v", got)
	}
	if len(got.BlockedSites) != 1 || got.BlockedSites[0] != "youtube.com" {
		t.Errorf("blocked sites = %v", got.BlockedSites)
	}
}

// =====================================================
// Marker Tests
// =====================================================

// TestSyncMarkers verifies uid and timestamp markers.
func TestSyncMarkers(t *testing.T) {
	s := openTestStore(t)

	if s.LastSyncedUID() != "" {
		t.Error("fresh store has a synced uid")
	}
	if !s.LastSyncAt().IsZero() {
		t.Error("fresh store has a sync time")
	}

	s.SetLastSyncedUID("user-1")
	if s.LastSyncedUID() != "user-1" {
		t.Errorf("LastSyncedUID() = %q", s.LastSyncedUID())
	}

	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s.SetLastSyncAt(at)
	if !s.LastSyncAt().Equal(at) {
		t.Errorf("LastSyncAt() = %v, want %v", s.LastSyncAt(), at)
	}

	s.TouchSettingsMutation(at)
	if !s.SettingsMutationAt().Equal(at) {
		t.Errorf("SettingsMutationAt() = %v, want %v", s.SettingsMutationAt(), at)
	}
}

// TestBadMarkerReadsAsZero verifies an unparseable stored timestamp
// behaves like no marker at all.
func TestBadMarkerReadsAsZero(t *testing.T) {
	s := openTestStore(t)

	s.Set(KeyLastSyncAt, "yesterday-ish")
	if !s.LastSyncAt().IsZero() {
		t.Errorf("LastSyncAt() = %v, want zero", s.LastSyncAt())
	}
}
