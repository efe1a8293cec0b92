package insight

import (
	"time"

	"github.com/mresendiz/tempo/internal/store"
)

// maxStreakDays bounds the backward walk so a pathological database can
// never loop forever.
const maxStreakDays = 365

// StreakStatus reports the journaling streak and this week's progress
// against the designated Monday/Wednesday/Friday goal.
type StreakStatus struct {
	Streak    int  `json:"streak"`
	ThisWeek  int  `json:"this_week"`
	Monday    bool `json:"monday"`
	Wednesday bool `json:"wednesday"`
	Friday    bool `json:"friday"`
}

// JournalStreak computes the number of consecutive calendar days up to and
// including today with at least one journal entry, walking backward one
// day at a time and stopping at the first gap. It also reports which of
// this week's designated days have an entry, where "this week" starts at
// the most recent Monday.
func JournalStreak(st *store.Store, userID string, now time.Time) (*StreakStatus, error) {
	status := &StreakStatus{}

	day := now
	for i := 0; i < maxStreakDays; i++ {
		has, err := st.HasEntryOn(userID, store.DateOf(day))
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		status.Streak++
		day = day.AddDate(0, 0, -1)
	}

	weekStart := mostRecentMonday(now)
	dates, err := st.EntryDatesSince(userID, store.DateOf(weekStart))
	if err != nil {
		return nil, err
	}
	status.ThisWeek = len(dates)

	seen := map[string]bool{}
	for _, d := range dates {
		seen[d] = true
	}
	status.Monday = seen[store.DateOf(weekStart)]
	status.Wednesday = seen[store.DateOf(weekStart.AddDate(0, 0, 2))]
	status.Friday = seen[store.DateOf(weekStart.AddDate(0, 0, 4))]

	return status, nil
}

// mostRecentMonday returns the Monday at or before t, at local midnight.
func mostRecentMonday(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return midnight.AddDate(0, 0, -offset)
}
