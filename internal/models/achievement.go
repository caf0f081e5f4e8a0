package models

// AchievementRecord stores when an achievement was unlocked.
// Once unlocked an id is never removed; re-unlocking is a no-op.
type AchievementRecord struct {
	UnlockedAt string `json:"unlockedAt"`
	Days       int    `json:"days"`
}

// AchievementMap maps catalog ids to unlock records.
type AchievementMap map[string]AchievementRecord

// Clone returns a deep copy of the map.
func (m AchievementMap) Clone() AchievementMap {
	out := make(AchievementMap, len(m))
	for id, rec := range m {
		out[id] = rec
	}
	return out
}

// AchievementDef is a static catalog entry. Days carries the
// day-count the badge represents (zero for non-streak badges) and
// doubles as the default when a stored record has a bad value.
type AchievementDef struct {
	ID    string
	Title string
	Days  int
}

// AchievementCatalog is the fixed set of known achievements.
// Stored records referencing ids outside the catalog are dropped.
var AchievementCatalog = []AchievementDef{
	{ID: "first-block", Title: "First Study Block", Days: 0},
	{ID: "streak-3", Title: "3-Day Streak", Days: 3},
	{ID: "streak-7", Title: "One Week Strong", Days: 7},
	{ID: "streak-14", Title: "Two Week Run", Days: 14},
	{ID: "streak-30", Title: "Monthly Momentum", Days: 30},
	{ID: "streak-100", Title: "Century Scholar", Days: 100},
	{ID: "deep-60", Title: "Deep Hour", Days: 0},
	{ID: "deep-120", Title: "Marathon Mind", Days: 0},
	{ID: "month-15", Title: "Fifteen This Month", Days: 0},
	{ID: "comeback", Title: "The Comeback", Days: 0},
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id string) (AchievementDef, bool) {
	for _, def := range AchievementCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDef{}, false
}
