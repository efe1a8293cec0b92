package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/mresendiz/tempo/internal/store"
)

// ─── Fixture builders ────────────────────────────────────────────────────────

// monday9am is a Monday morning; most nudge tests anchor "now" here.
func monday9am(t *testing.T) time.Time {
	t.Helper()
	return mustTime(t, "2025-06-02 09:00:00")
}

func pattern(patternType, data string, confidence float64) store.Pattern {
	return store.Pattern{PatternType: patternType, PatternData: data, Confidence: confidence}
}

// openTask builds an open task created at the given timestamp. Category and
// due date are optional ("" means unset).
func openTask(createdAt, category, dueDate string) store.Task {
	t := store.Task{Status: "open", CreatedAt: createdAt}
	if category != "" {
		t.Category = &category
	}
	if dueDate != "" {
		t.DueDate = &dueDate
	}
	return t
}

func hasNudge(nudges []string, substr string) bool {
	for _, n := range nudges {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

// ─── Pattern-driven rules ────────────────────────────────────────────────────

func TestNudges_PeakTimeMatchesCurrentBucket(t *testing.T) {
	now := monday9am(t) // morning
	patterns := []store.Pattern{pattern("peak_time", `{"time":"morning","count":5}`, 0.5)}

	nudges := Nudges(patterns, nil, now)
	if !hasNudge(nudges, "peak time (morning)") {
		t.Errorf("nudges = %v, want peak-time nudge in the morning", nudges)
	}

	evening := mustTime(t, "2025-06-02 18:00:00")
	if nudges := Nudges(patterns, nil, evening); hasNudge(nudges, "peak time") {
		t.Errorf("nudges = %v, want no peak-time nudge outside the stored bucket", nudges)
	}
}

func TestNudges_PeakDayMatchesToday(t *testing.T) {
	now := monday9am(t)
	patterns := []store.Pattern{pattern("peak_day", `{"day":"monday","count":4}`, 0.4)}

	if nudges := Nudges(patterns, nil, now); !hasNudge(nudges, "best day") {
		t.Errorf("nudges = %v, want best-day nudge on monday", nudges)
	}

	tuesday := mustTime(t, "2025-06-03 09:00:00")
	if nudges := Nudges(patterns, nil, tuesday); hasNudge(nudges, "best day") {
		t.Errorf("nudges = %v, want no best-day nudge on tuesday", nudges)
	}
}

func TestNudges_AvoidanceCountsOpenTasksInCategory(t *testing.T) {
	now := monday9am(t)
	patterns := []store.Pattern{pattern("avoidance_category", `{"category":"admin","count":3}`, 0.7)}
	tasks := []store.Task{
		openTask("2025-06-01 09:00:00", "admin", ""),
		openTask("2025-06-01 10:00:00", "admin", ""),
		openTask("2025-06-01 11:00:00", "writing", ""),
	}

	nudges := Nudges(patterns, tasks, now)
	if !hasNudge(nudges, "2 admin task(s) piling up") {
		t.Errorf("nudges = %v, want admin pile-up with count 2", nudges)
	}

	// No open task left in the category: silence.
	if nudges := Nudges(patterns, tasks[2:], now); hasNudge(nudges, "piling up") {
		t.Errorf("nudges = %v, want no pile-up nudge with zero matching tasks", nudges)
	}
}

func TestNudges_AvoidanceUncategorizedFallback(t *testing.T) {
	now := monday9am(t)
	patterns := []store.Pattern{pattern("avoidance_category", `{"category":"uncategorized","count":2}`, 0.7)}
	tasks := []store.Task{openTask("2025-06-01 09:00:00", "", "")}

	if nudges := Nudges(patterns, tasks, now); !hasNudge(nudges, "1 uncategorized task(s)") {
		t.Errorf("nudges = %v, want uncategorized pile-up", nudges)
	}
}

func TestNudges_CompletionRateOnlyHighFocusTriggers(t *testing.T) {
	now := monday9am(t)

	high := []store.Pattern{pattern("completion_rate_high", `{"rate":0.2}`, 0.2)}
	if nudges := Nudges(high, nil, now); !hasNudge(nudges, "breaking") {
		t.Errorf("nudges = %v, want break-down nudge for high rate 0.2", nudges)
	}

	// The rule matches the high focus level only; an equally bad low-focus
	// rate stays silent.
	low := []store.Pattern{pattern("completion_rate_low", `{"rate":0.2}`, 0.2)}
	if nudges := Nudges(low, nil, now); hasNudge(nudges, "breaking") {
		t.Errorf("nudges = %v, want no break-down nudge for low-focus pattern", nudges)
	}

	okRate := []store.Pattern{pattern("completion_rate_high", `{"rate":0.5}`, 0.5)}
	if nudges := Nudges(okRate, nil, now); hasNudge(nudges, "breaking") {
		t.Errorf("nudges = %v, want no break-down nudge at rate 0.5", nudges)
	}
}

// ─── Live-task rules ─────────────────────────────────────────────────────────

func TestNudges_DueSoonBoundary(t *testing.T) {
	now := monday9am(t) // 2025-06-02

	cases := []struct {
		name    string
		dueDate string
		want    bool
	}{
		{"due today", "2025-06-02", true},
		{"due in three days", "2025-06-05", true},
		{"due in four days", "2025-06-06", false},
		{"due yesterday", "2025-06-01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks := []store.Task{openTask("2025-06-01 09:00:00", "", tc.dueDate)}
			got := hasNudge(Nudges(nil, tasks, now), "due within")
			if got != tc.want {
				t.Errorf("due %s: nudge fired = %v, want %v", tc.dueDate, got, tc.want)
			}
		})
	}
}

func TestNudges_DueSoonCountsOnce(t *testing.T) {
	now := monday9am(t)
	tasks := []store.Task{
		openTask("2025-06-01 09:00:00", "", "2025-06-02"),
		openTask("2025-06-01 09:00:00", "", "2025-06-04"),
	}

	nudges := Nudges(nil, tasks, now)
	if !hasNudge(nudges, "2 task(s) due within 3 days") {
		t.Errorf("nudges = %v, want one due-soon nudge with count 2", nudges)
	}
}

func TestNudges_StaleTaskThreshold(t *testing.T) {
	now := monday9am(t)
	old := "2025-05-20 09:00:00" // well past seven days

	two := []store.Task{openTask(old, "", ""), openTask(old, "", "")}
	if nudges := Nudges(nil, two, now); hasNudge(nudges, "open for over a week") {
		t.Errorf("nudges = %v, want no stale nudge with only 2 old tasks", nudges)
	}

	three := append(two, openTask(old, "", ""))
	nudges := Nudges(nil, three, now)
	if !hasNudge(nudges, "3 tasks have been open for over a week") {
		t.Errorf("nudges = %v, want stale nudge with count 3", nudges)
	}
}

func TestNudges_FixedRuleOrder(t *testing.T) {
	now := monday9am(t)
	patterns := []store.Pattern{
		pattern("peak_day", `{"day":"monday"}`, 0.4),
		pattern("peak_time", `{"time":"morning"}`, 0.5),
	}
	old := "2025-05-20 09:00:00"
	tasks := []store.Task{
		openTask(old, "", "2025-06-02"),
		openTask(old, "", ""),
		openTask(old, "", ""),
	}

	nudges := Nudges(patterns, tasks, now)
	if len(nudges) != 4 {
		t.Fatalf("got %d nudges, want 4: %v", len(nudges), nudges)
	}
	// Pattern rules come in input order, then due-soon, then stale.
	if !strings.Contains(nudges[2], "due within") || !strings.Contains(nudges[3], "over a week") {
		t.Errorf("nudges out of order: %v", nudges)
	}
}

// ─── Enhanced variant ────────────────────────────────────────────────────────

func TestEnhancedNudges_JournalPatterns(t *testing.T) {
	now := monday9am(t)
	journal := []store.Pattern{
		pattern("energy_low_day", `{"day":"monday","avg":3.5}`, 0.7),
		pattern("mood_day_monday", `{"day":"monday","mood":"anxious"}`, 0.4),
		pattern("productive_mood", `{"mood":"focused"}`, 0.8),
	}

	nudges := EnhancedNudges(nil, journal, nil, true, now)
	if !hasNudge(nudges, "low-energy") {
		t.Errorf("nudges = %v, want low-energy nudge", nudges)
	}
	if !hasNudge(nudges, "anxious days") {
		t.Errorf("nudges = %v, want mood-day nudge", nudges)
	}
	if !hasNudge(nudges, "feel focused") {
		t.Errorf("nudges = %v, want productive-mood reminder", nudges)
	}
}

func TestEnhancedNudges_MoodDayOnlyForToday(t *testing.T) {
	tuesday := mustTime(t, "2025-06-03 09:00:00")
	journal := []store.Pattern{pattern("mood_day_monday", `{"day":"monday","mood":"anxious"}`, 0.4)}

	if nudges := EnhancedNudges(nil, journal, nil, true, tuesday); hasNudge(nudges, "anxious") {
		t.Errorf("nudges = %v, want no mood-day nudge on a different day", nudges)
	}
}

func TestEnhancedNudges_JournalingReminder(t *testing.T) {
	monday := monday9am(t)
	tuesday := mustTime(t, "2025-06-03 09:00:00")

	if nudges := EnhancedNudges(nil, nil, nil, false, monday); !hasNudge(nudges, "journaling day") {
		t.Errorf("nudges = %v, want journaling reminder on Monday with no entry", nudges)
	}
	if nudges := EnhancedNudges(nil, nil, nil, true, monday); hasNudge(nudges, "journaling day") {
		t.Errorf("nudges = %v, want no reminder when today is already journaled", nudges)
	}
	if nudges := EnhancedNudges(nil, nil, nil, false, tuesday); hasNudge(nudges, "journaling day") {
		t.Errorf("nudges = %v, want no reminder on a non-journaling day", nudges)
	}
}

func TestNudges_EmptyInputsProduceNoNudges(t *testing.T) {
	if nudges := Nudges(nil, nil, monday9am(t)); len(nudges) != 0 {
		t.Errorf("nudges = %v, want none for empty inputs", nudges)
	}
}
