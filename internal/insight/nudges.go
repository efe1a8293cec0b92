package insight

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mresendiz/tempo/internal/store"
)

// Nudge thresholds.
const (
	dueSoonWindowDays = 3
	staleAgeDays      = 7
	minStaleTasks     = 3
)

// journalingDays are the designated journaling days for the streak
// reminder and the weekly goal.
var journalingDays = map[string]bool{
	"monday": true, "wednesday": true, "friday": true,
}

// Nudges turns stored task-behavior patterns plus the live open-task
// snapshot into situational prompts. Pure function: no I/O, deterministic
// given its inputs; now supplies the current day and time bucket.
//
// Rules are evaluated independently and concatenated in fixed order:
// peak time, peak day, avoidance pile-up, low high-focus completion rate,
// due-soon tasks, stale tasks.
func Nudges(patterns []store.Pattern, openTasks []store.Task, now time.Time) []string {
	var nudges []string
	today := store.DayName(now)
	bucket := store.TimeBucket(now)

	for _, p := range patterns {
		key := ParseKey(p.PatternType)
		switch key.Kind {
		case KindPeakTime:
			if gjson.Get(p.PatternData, "time").String() == bucket {
				nudges = append(nudges,
					fmt.Sprintf("This is your peak time (%s) — a good moment for something meaningful.", bucket))
			}
		case KindPeakDay:
			if gjson.Get(p.PatternData, "day").String() == today {
				nudges = append(nudges,
					fmt.Sprintf("Today is your best day for getting things done (%s).", today))
			}
		case KindAvoidanceCategory:
			category := gjson.Get(p.PatternData, "category").String()
			if n := countInCategory(openTasks, category); n > 0 {
				nudges = append(nudges,
					fmt.Sprintf("%d %s task(s) piling up — picking one now beats avoiding them.", n, category))
			}
		case KindCompletionRate:
			// Only the high-focus rate drives this nudge; medium/low
			// rates are stored but never nudge.
			if key.Qualifier == "high" && gjson.Get(p.PatternData, "rate").Float() < 0.4 {
				nudges = append(nudges,
					"High-focus tasks rarely get finished — try breaking the next one into smaller pieces.")
			}
		}
	}

	if n := countDueSoon(openTasks, now); n > 0 {
		nudges = append(nudges, fmt.Sprintf("%d task(s) due within %d days.", n, dueSoonWindowDays))
	}

	if n := countStale(openTasks, now); n >= minStaleTasks {
		nudges = append(nudges, fmt.Sprintf("%d tasks have been open for over a week — close or drop some.", n))
	}

	return nudges
}

// EnhancedNudges appends journal-behavior nudges to the base set.
// journalPatterns come from the separate journal pattern table;
// journaledToday reports whether an entry already exists for today.
func EnhancedNudges(patterns, journalPatterns []store.Pattern, openTasks []store.Task, journaledToday bool, now time.Time) []string {
	nudges := Nudges(patterns, openTasks, now)
	today := store.DayName(now)

	for _, p := range journalPatterns {
		key := ParseKey(p.PatternType)
		switch key.Kind {
		case KindEnergyLowDay:
			if gjson.Get(p.PatternData, "day").String() == today {
				nudges = append(nudges,
					fmt.Sprintf("%ss are historically low-energy — schedule lighter tasks.", titleDay(today)))
			}
		case KindMoodDay:
			if key.Qualifier == today {
				mood := gjson.Get(p.PatternData, "mood").String()
				nudges = append(nudges,
					fmt.Sprintf("%ss tend to be %s days — be kind to yourself.", titleDay(today), mood))
			}
		case KindProductiveMood:
			mood := gjson.Get(p.PatternData, "mood").String()
			nudges = append(nudges,
				fmt.Sprintf("Reminder: you get the most done when you feel %s.", mood))
		}
	}

	if journalingDays[today] && !journaledToday {
		nudges = append(nudges, "It's a journaling day and there's no entry yet — keep the streak going.")
	}

	return nudges
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func countInCategory(tasks []store.Task, category string) int {
	n := 0
	for _, t := range tasks {
		c := "uncategorized"
		if t.Category != nil && *t.Category != "" {
			c = *t.Category
		}
		if c == category {
			n++
		}
	}
	return n
}

// countDueSoon counts open tasks due inside the inclusive [0, 3]-day
// forward window. Overdue tasks are excluded — they are a different
// problem than an upcoming deadline.
func countDueSoon(tasks []store.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due, err := time.Parse("2006-01-02", *t.DueDate)
		if err != nil {
			continue
		}
		days := calendarDaysBetween(now, due)
		if days >= 0 && days <= dueSoonWindowDays {
			n++
		}
	}
	return n
}

func countStale(tasks []store.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		created, err := time.Parse("2006-01-02 15:04:05", t.CreatedAt)
		if err != nil {
			continue
		}
		if calendarDaysBetween(created, now) >= staleAgeDays {
			n++
		}
	}
	return n
}

// calendarDaysBetween counts whole calendar days from a to b, negative
// when b is before a.
func calendarDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
