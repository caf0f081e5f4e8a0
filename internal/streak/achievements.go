package streak

import (
	"time"

	"github.com/studypulse/backend/internal/models"
)

// predicates maps catalog ids to their unlock conditions. Every
// predicate is pure over Stats, so checking is idempotent: a second
// pass over the same stats unlocks nothing new.
var predicates = map[string]func(Stats) bool{
	"first-block": func(s Stats) bool { return s.HasActivity },
	"streak-3":    streakAtLeast(3),
	"streak-7":    streakAtLeast(7),
	"streak-14":   streakAtLeast(14),
	"streak-30":   streakAtLeast(30),
	"streak-100":  streakAtLeast(100),
	"deep-60":     func(s Stats) bool { return s.DeepestBlock >= 60 },
	"deep-120":    func(s Stats) bool { return s.DeepestBlock >= 120 },
	"month-15":    func(s Stats) bool { return s.DaysThisMonth >= 15 },
	"comeback":    func(s Stats) bool { return s.Comeback },
}

func streakAtLeast(days int) func(Stats) bool {
	// Best covers the current streak, so a badge earned once stays
	// earnable-checked even after the streak breaks.
	return func(s Stats) bool { return s.Best >= days }
}

// CheckUnlocks evaluates every catalog predicate and unlocks any
// newly earned achievements. Already-unlocked ids are never touched
// and never removed. Returns the updated map and the ids unlocked by
// this pass.
func CheckUnlocks(stats Stats, have models.AchievementMap, now time.Time) (models.AchievementMap, []string) {
	updated := have.Clone()
	var newly []string

	for _, def := range models.AchievementCatalog {
		if _, unlocked := updated[def.ID]; unlocked {
			continue
		}
		predicate, ok := predicates[def.ID]
		if !ok || !predicate(stats) {
			continue
		}
		updated[def.ID] = models.AchievementRecord{
			UnlockedAt: now.UTC().Format(time.RFC3339),
			Days:       def.Days,
		}
		newly = append(newly, def.ID)
	}

	return updated, newly
}
