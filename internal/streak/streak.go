// Package streak derives streaks and achievement unlocks from the
// sanitized study log and session history. Everything here is a pure
// computation; the UI layer consumes the results.
package streak

import (
	"sort"
	"time"

	"github.com/studypulse/backend/internal/models"
)

// maxLookbackDays bounds the consecutive-day scan so a pathological
// log still terminates.
const maxLookbackDays = 3650

// Calculate counts consecutive days with positive minutes ending
// today, walking backward until the first missing day.
func Calculate(log models.StudyLog, today time.Time) int {
	count := 0
	day := today
	for i := 0; i < maxLookbackDays; i++ {
		if log[models.DayKey(day)] <= 0 {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// Best finds the longest run of consecutive calendar dates over the
// whole log.
func Best(log models.StudyLog) int {
	days := activeDays(log)
	if len(days) == 0 {
		return 0
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		// Calendar comparison; midnight arithmetic drifts across DST.
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}

// DaysThisMonth counts active days in today's calendar month.
func DaysThisMonth(log models.StudyLog, today time.Time) int {
	count := 0
	for key, minutes := range log {
		if minutes <= 0 {
			continue
		}
		day, ok := models.ParseDayKey(key)
		if !ok {
			continue
		}
		if day.Year() == today.Year() && day.Month() == today.Month() {
			count++
		}
	}
	return count
}

// DeepestBlock returns the longest single study block on record.
func DeepestBlock(history []models.SessionEntry) float64 {
	deepest := 0.0
	for _, entry := range history {
		if entry.Minutes > deepest {
			deepest = entry.Minutes
		}
	}
	return deepest
}

// comebackGapDays is the minimum break length that turns a resumed
// streak into a comeback.
const comebackGapDays = 7

// Comeback reports whether the current streak resumed after a gap of
// at least comebackGapDays with earlier activity before the gap.
func Comeback(log models.StudyLog, today time.Time) bool {
	current := Calculate(log, today)
	if current < 1 {
		return false
	}

	// Day before the streak started.
	gapEnd := today.AddDate(0, 0, -current)
	days := activeDays(log)
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].After(gapEnd) {
			continue
		}
		// Missing days span days[i]+1 through gapEnd inclusive.
		return calendarDays(days[i], gapEnd) >= comebackGapDays
	}
	return false
}

// calendarDays counts whole calendar days from a to b, tolerating
// DST-skewed midnights.
func calendarDays(a, b time.Time) int {
	return int(b.Sub(a).Hours()/24 + 0.5)
}

// activeDays returns the parsed positive-minute days sorted ascending.
func activeDays(log models.StudyLog) []time.Time {
	days := make([]time.Time, 0, len(log))
	for key, minutes := range log {
		if minutes <= 0 {
			continue
		}
		if day, ok := models.ParseDayKey(key); ok {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Stats bundles every derived quantity the achievement predicates
// look at.
type Stats struct {
	Current       int
	Best          int
	DaysThisMonth int
	DeepestBlock  float64
	Comeback      bool
	HasActivity   bool
}

// Collect derives all stats in one pass over the sanitized inputs.
func Collect(log models.StudyLog, history []models.SessionEntry, today time.Time) Stats {
	return Stats{
		Current:       Calculate(log, today),
		Best:          Best(log),
		DaysThisMonth: DaysThisMonth(log, today),
		DeepestBlock:  DeepestBlock(history),
		Comeback:      Comeback(log, today),
		HasActivity:   len(log) > 0 || len(history) > 0,
	}
}
