package models

import (
	"testing"
	"time"
)

// =====================================================
// Day Key Tests
// =====================================================

// TestDayKeyRoundTrip verifies formatting and parsing agree.
func TestDayKeyRoundTrip(t *testing.T) {
	day := time.Date(2026, 1, 15, 23, 45, 0, 0, time.Local)

	key := DayKey(day)
	if key != "2026-01-15" {
		t.Errorf("DayKey() = %q, want 2026-01-15", key)
	}

	parsed, ok := ParseDayKey(key)
	if !ok {
		t.Fatal("ParseDayKey() rejected its own output")
	}
	if DayKey(parsed) != key {
		t.Errorf("round trip = %q, want %q", DayKey(parsed), key)
	}
}

// TestIsDayKey verifies the shape check.
func TestIsDayKey(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2026-01-15", true},
		{"2026-1-15", false},
		{"2026-01-15T00:00:00Z", false},
		{"yesterday", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsDayKey(tc.in); got != tc.want {
			t.Errorf("IsDayKey(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestParseDayKey_rejectsImpossibleDates verifies well-shaped but
// invalid dates fail to parse.
func TestParseDayKey_rejectsImpossibleDates(t *testing.T) {
	if _, ok := ParseDayKey("2026-13-45"); ok {
		t.Error("ParseDayKey accepted month 13")
	}
}

// =====================================================
// Timestamp Tests
// =====================================================

// TestParseTimestamp verifies every accepted layout plus rejection.
func TestParseTimestamp(t *testing.T) {
	accepted := []string{
		"2026-01-15T10:30:00.123456789Z",
		"2026-01-15T10:30:00Z",
		"2026-01-15T10:30:00+01:00",
		"2026-01-15T10:30:00",
		"2026-01-15 10:30:00",
	}
	for _, in := range accepted {
		if _, ok := ParseTimestamp(in); !ok {
			t.Errorf("ParseTimestamp(%q) rejected", in)
		}
	}

	rejected := []string{"", "2026-01-15", "last tuesday", "1705312200"}
	for _, in := range rejected {
		if _, ok := ParseTimestamp(in); ok {
			t.Errorf("ParseTimestamp(%q) accepted", in)
		}
	}
}

// TestSessionEntryTime verifies Time falls back to zero on garbage.
func TestSessionEntryTime(t *testing.T) {
	good := SessionEntry{Timestamp: "2026-01-15T10:30:00Z"}
	if good.Time().IsZero() {
		t.Error("valid timestamp parsed as zero")
	}
	bad := SessionEntry{Timestamp: "???"}
	if !bad.Time().IsZero() {
		t.Error("garbage timestamp parsed as non-zero")
	}
}

// TestIsValidReview verifies the review vocabulary.
func TestIsValidReview(t *testing.T) {
	for _, in := range []string{ReviewNone, ReviewFocused, ReviewDistracted} {
		if !IsValidReview(in) {
			t.Errorf("IsValidReview(%q) = false", in)
		}
	}
	if IsValidReview("great") {
		t.Error(`IsValidReview("great") = true`)
	}
}

// =====================================================
// Catalog Tests
// =====================================================

// TestAchievementCatalog verifies ids are unique and lookups work.
func TestAchievementCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range AchievementCatalog {
		if def.ID == "" || def.Title == "" {
			t.Errorf("catalog entry incomplete: %+v", def)
		}
		if seen[def.ID] {
			t.Errorf("duplicate catalog id %q", def.ID)
		}
		seen[def.ID] = true
	}

	def, ok := AchievementByID("streak-7")
	if !ok || def.Days != 7 {
		t.Errorf("AchievementByID(streak-7) = (%+v, %v)", def, ok)
	}
	if _, ok := AchievementByID("nope"); ok {
		t.Error("AchievementByID accepted an unknown id")
	}
}

// =====================================================
// Clone Tests
// =====================================================

// TestClones verifies clones detach from their source.
func TestClones(t *testing.T) {
	log := StudyLog{"2026-01-15": 30}
	logCopy := log.Clone()
	logCopy["2026-01-15"] = 99
	if log["2026-01-15"] != 30 {
		t.Error("StudyLog.Clone() shares storage")
	}

	tags := TagLog{"2026-01-15": {"Math": 30}}
	tagsCopy := tags.Clone()
	tagsCopy["2026-01-15"]["Math"] = 99
	if tags["2026-01-15"]["Math"] != 30 {
		t.Error("TagLog.Clone() shares inner maps")
	}

	ach := AchievementMap{"streak-3": {UnlockedAt: "2026-01-10T08:00:00Z", Days: 3}}
	achCopy := ach.Clone()
	achCopy["streak-3"] = AchievementRecord{UnlockedAt: "later", Days: 3}
	if ach["streak-3"].UnlockedAt != "2026-01-10T08:00:00Z" {
		t.Error("AchievementMap.Clone() shares storage")
	}

	prefs := DefaultPreferences()
	prefs.BlockedSites = []string{"youtube.com"}
	prefsCopy := prefs.Clone()
	prefsCopy.BlockedSites[0] = "changed"
	if prefs.BlockedSites[0] != "youtube.com" {
		t.Error("Preferences.Clone() shares the blocked list")
	}
}

// TestTotalMinutes verifies summation.
func TestTotalMinutes(t *testing.T) {
	log := StudyLog{"2026-01-15": 30, "2026-01-16": 45.5}
	if got := log.TotalMinutes(); got != 75.5 {
		t.Errorf("TotalMinutes() = %v, want 75.5", got)
	}
	if got := (StudyLog{}).TotalMinutes(); got != 0 {
		t.Errorf("empty TotalMinutes() = %v, want 0", got)
	}
}
