package models

// StudyLog maps a day key to total study minutes for that day.
// Values are positive, rounded to two decimals. Minutes only
// accumulate within a day, so larger observed values are always
// the more complete ones.
type StudyLog map[string]float64

// Clone returns a deep copy of the log.
func (l StudyLog) Clone() StudyLog {
	out := make(StudyLog, len(l))
	for day, minutes := range l {
		out[day] = minutes
	}
	return out
}

// TotalMinutes sums all recorded minutes.
func (l StudyLog) TotalMinutes() float64 {
	total := 0.0
	for _, minutes := range l {
		total += minutes
	}
	return total
}

// TagLog maps a day key to per-tag study minutes.
// A present day always carries at least one positive-minute tag.
type TagLog map[string]map[string]float64

// Clone returns a deep copy of the log.
func (l TagLog) Clone() TagLog {
	out := make(TagLog, len(l))
	for day, tags := range l {
		dayCopy := make(map[string]float64, len(tags))
		for tag, minutes := range tags {
			dayCopy[tag] = minutes
		}
		out[day] = dayCopy
	}
	return out
}
