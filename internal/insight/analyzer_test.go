package insight

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"

	"github.com/mresendiz/tempo/internal/store"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

// newTestStore creates a store in a temp dir driven by a fake clock and
// returns the data dir for tests that reach into the database file.
func newTestStore(t *testing.T, clock *fakeClock) (*store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(store.Config{DataDir: dir, Clock: clock.now})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, dir
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("bad test time %q: %v", s, err)
	}
	return ts
}

// logCompletions logs n completion events at the given clock time.
func logCompletions(t *testing.T, st *store.Store, clock *fakeClock, at time.Time, n int) {
	t.Helper()
	clock.t = at
	for i := 0; i < n; i++ {
		if _, err := st.LogEvent("u1", "completed", "", ""); err != nil {
			t.Fatalf("LogEvent: %v", err)
		}
	}
}

func findPattern(patterns []store.Pattern, patternType string) *store.Pattern {
	for i := range patterns {
		if patterns[i].PatternType == patternType {
			return &patterns[i]
		}
	}
	return nil
}

func hasInsight(insights []string, substr string) bool {
	for _, ins := range insights {
		if strings.Contains(ins, substr) {
			return true
		}
	}
	return false
}

// ─── Peak time / day ─────────────────────────────────────────────────────────

func TestAnalyze_PeakTime_EndToEnd(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	// 5 completions in the morning, 2 in the evening, same trailing month.
	logCompletions(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), 5)
	logCompletions(t, st, clock, mustTime(t, "2025-06-03 18:00:00"), 2)

	now := mustTime(t, "2025-06-04 10:00:00")
	analysis, err := NewAnalyzer(st).Analyze("u1", now)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !hasInsight(analysis.Insights, "Most productive in the morning") {
		t.Errorf("insights = %v, want a 'Most productive in the morning' entry", analysis.Insights)
	}

	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "peak_time")
	if p == nil {
		t.Fatal("peak_time pattern not stored")
	}
	if p.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 (count/10)", p.Confidence)
	}
	if gjson.Get(p.PatternData, "time").String() != "morning" {
		t.Errorf("pattern data = %s, want time=morning", p.PatternData)
	}
	if gjson.Get(p.PatternData, "count").Int() != 5 {
		t.Errorf("pattern data = %s, want count=5", p.PatternData)
	}
}

func TestAnalyze_PeakTime_ConfidenceTracksTopCount(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	logCompletions(t, st, clock, mustTime(t, "2025-06-02 22:00:00"), 3) // night
	logCompletions(t, st, clock, mustTime(t, "2025-06-03 14:00:00"), 6) // afternoon
	logCompletions(t, st, clock, mustTime(t, "2025-06-04 09:00:00"), 9) // morning

	_, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-05 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "peak_time")
	if p == nil {
		t.Fatal("peak_time pattern not stored")
	}
	if gjson.Get(p.PatternData, "time").String() != "morning" {
		t.Errorf("top bucket = %s, want morning", p.PatternData)
	}
	if p.Confidence != 0.9 {
		t.Errorf("confidence = %v, want exactly 0.9 for count 9", p.Confidence)
	}
}

func TestAnalyze_PeakTime_BelowThresholdIsSilent(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	logCompletions(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), 2)

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-03 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if hasInsight(analysis.Insights, "Most productive") {
		t.Errorf("insights = %v, want no peak-time insight below count 3", analysis.Insights)
	}
	patterns, _ := st.Patterns("u1")
	if findPattern(patterns, "peak_time") != nil {
		t.Error("peak_time pattern stored below threshold")
	}
}

func TestAnalyze_PeakDay(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	// Completions on two consecutive Mondays plus one Tuesday.
	logCompletions(t, st, clock, mustTime(t, "2025-05-26 09:00:00"), 2)
	logCompletions(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), 2)
	logCompletions(t, st, clock, mustTime(t, "2025-06-03 09:00:00"), 1)

	_, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-04 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "peak_day")
	if p == nil {
		t.Fatal("peak_day pattern not stored")
	}
	if gjson.Get(p.PatternData, "day").String() != "monday" {
		t.Errorf("pattern data = %s, want day=monday", p.PatternData)
	}
	if p.Confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4", p.Confidence)
	}
}

// ─── Completion rate by focus level ──────────────────────────────────────────

// seedFocusTasks creates n tasks at the given focus level and completes
// the first done of them.
func seedFocusTasks(t *testing.T, st *store.Store, clock *fakeClock, at time.Time, focus string, n, done int) {
	t.Helper()
	clock.t = at
	for i := 0; i < n; i++ {
		task, err := st.CreateTask(store.CreateTaskParams{UserID: "u1", Title: "t", FocusLevel: focus})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if i < done {
			if _, err := st.CompleteTask("u1", task.ID); err != nil {
				t.Fatalf("CompleteTask: %v", err)
			}
		}
	}
}

func TestAnalyze_CompletionRate_GatedBySampleSize(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	// 4 qualifying tasks — one short of the floor — with an extreme rate.
	seedFocusTasks(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), "high", 4, 4)

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-03 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if hasInsight(analysis.Insights, "high-focus") {
		t.Errorf("insights = %v, want no focus-rate insight for sample of 4", analysis.Insights)
	}
	patterns, _ := st.Patterns("u1")
	if findPattern(patterns, "completion_rate_high") != nil {
		t.Error("completion_rate_high stored for sample of 4")
	}
}

func TestAnalyze_CompletionRate_GreatAndStruggling(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	seedFocusTasks(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), "high", 5, 4) // 0.8
	seedFocusTasks(t, st, clock, mustTime(t, "2025-06-02 11:00:00"), "low", 5, 1)  // 0.2

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-03 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !hasInsight(analysis.Insights, "Great at finishing high-focus tasks") {
		t.Errorf("insights = %v, want great-at insight", analysis.Insights)
	}
	if !hasInsight(analysis.Insights, "Struggling with low-focus tasks") {
		t.Errorf("insights = %v, want struggling insight", analysis.Insights)
	}

	patterns, _ := st.Patterns("u1")
	high := findPattern(patterns, "completion_rate_high")
	if high == nil || high.Confidence != 0.8 {
		t.Errorf("completion_rate_high = %+v, want confidence 0.8", high)
	}
	low := findPattern(patterns, "completion_rate_low")
	if low == nil || low.Confidence != 0.2 {
		t.Errorf("completion_rate_low = %+v, want confidence 0.2", low)
	}
}

func TestAnalyze_CompletionRate_MiddleBandStoresSilently(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	seedFocusTasks(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), "medium", 5, 3) // 0.6

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-03 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if hasInsight(analysis.Insights, "medium-focus") {
		t.Errorf("insights = %v, want silence for a 0.6 rate", analysis.Insights)
	}
	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "completion_rate_medium")
	if p == nil || p.Confidence != 0.6 {
		t.Errorf("completion_rate_medium = %+v, want stored confidence 0.6", p)
	}
}

// ─── Completion latency & avoidance ──────────────────────────────────────────

func TestAnalyze_CompletionLatency(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	clock.t = mustTime(t, "2025-06-01 09:00:00")
	task, _ := st.CreateTask(store.CreateTaskParams{UserID: "u1", Title: "slow"})
	clock.t = mustTime(t, "2025-06-03 09:00:00")
	if _, err := st.CompleteTask("u1", task.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-04 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, "Tasks take 2.0 days on average") {
		t.Errorf("insights = %v, want 2.0-day latency insight", analysis.Insights)
	}

	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "avg_completion_days")
	if p == nil || p.Confidence != 0.8 {
		t.Errorf("avg_completion_days = %+v, want confidence 0.8", p)
	}
}

func TestAnalyze_Avoidance(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	clock.t = mustTime(t, "2025-05-20 09:00:00")
	for i := 0; i < 2; i++ {
		if _, err := st.CreateTask(store.CreateTaskParams{UserID: "u1", Title: "dodge", Category: "admin"}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, "avoid admin tasks") {
		t.Errorf("insights = %v, want avoidance insight", analysis.Insights)
	}

	patterns, _ := st.Patterns("u1")
	p := findPattern(patterns, "avoidance_category")
	if p == nil || p.Confidence != 0.7 {
		t.Errorf("avoidance_category = %+v, want fixed confidence 0.7", p)
	}
	if gjson.Get(p.PatternData, "count").Int() != 2 {
		t.Errorf("pattern data = %s, want count=2", p.PatternData)
	}
}

func TestAnalyze_Avoidance_SingleTaskIsSilent(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	clock.t = mustTime(t, "2025-05-20 09:00:00")
	if _, err := st.CreateTask(store.CreateTaskParams{UserID: "u1", Title: "one", Category: "admin"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	_, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	patterns, _ := st.Patterns("u1")
	if findPattern(patterns, "avoidance_category") != nil {
		t.Error("avoidance pattern stored for a single aged task")
	}
}

// ─── Idempotency ─────────────────────────────────────────────────────────────

func TestAnalyze_RepeatedRunsDoNotDuplicate(t *testing.T) {
	clock := &fakeClock{}
	st, _ := newTestStore(t, clock)

	logCompletions(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), 5)
	now := mustTime(t, "2025-06-03 10:00:00")
	analyzer := NewAnalyzer(st)

	if _, err := analyzer.Analyze("u1", now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := st.Patterns("u1")

	if _, err := analyzer.Analyze("u1", now); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := st.Patterns("u1")

	if len(first) != len(second) {
		t.Errorf("pattern count changed across runs: %d → %d", len(first), len(second))
	}
	seen := map[string]bool{}
	for _, p := range second {
		if seen[p.PatternType] {
			t.Errorf("duplicate pattern row for type %s", p.PatternType)
		}
		seen[p.PatternType] = true
	}
}

// ─── Journal detections ──────────────────────────────────────────────────────

func TestAnalyze_MoodByDay_NegativeDominantMood(t *testing.T) {
	clock := &fakeClock{t: mustTime(t, "2025-06-02 09:00:00")}
	st, _ := newTestStore(t, clock)

	// Anxious on two consecutive Mondays.
	for _, date := range []string{"2025-05-19", "2025-05-26"} {
		if _, err := st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "ugh", Mood: "anxious", EntryDate: date}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	// Grateful twice on Fridays — positive moods never produce a mood-day
	// pattern.
	for _, date := range []string{"2025-05-23", "2025-05-30"} {
		if _, err := st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "nice", Mood: "grateful", EntryDate: date}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, "Mondays tend to be anxious days") {
		t.Errorf("insights = %v, want Monday anxious insight", analysis.Insights)
	}

	journal, _ := st.JournalPatterns("u1")
	p := findPattern(journal, "mood_day_monday")
	if p == nil || p.Confidence != 0.4 {
		t.Errorf("mood_day_monday = %+v, want confidence 0.4 (count/5)", p)
	}
	if findPattern(journal, "mood_day_friday") != nil {
		t.Error("mood_day_friday stored for a positive dominant mood")
	}
}

func TestAnalyze_EnergyExtremes(t *testing.T) {
	clock := &fakeClock{t: mustTime(t, "2025-06-02 09:00:00")}
	st, _ := newTestStore(t, clock)

	seed := []struct {
		date   string
		energy int
	}{
		{"2025-05-26", 8}, // monday
		{"2025-05-28", 3}, // wednesday
		{"2025-05-30", 5}, // friday
	}
	for _, s := range seed {
		if _, err := st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "e", EnergyLevel: s.energy, EntryDate: s.date}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, "Energy peaks on Mondays") {
		t.Errorf("insights = %v, want high-energy insight", analysis.Insights)
	}
	if !hasInsight(analysis.Insights, "Energy dips on Wednesdays") {
		t.Errorf("insights = %v, want low-energy insight", analysis.Insights)
	}

	journal, _ := st.JournalPatterns("u1")
	if p := findPattern(journal, "energy_high_day"); p == nil || p.Confidence != 0.7 {
		t.Errorf("energy_high_day = %+v, want confidence 0.7", p)
	}
	if p := findPattern(journal, "energy_low_day"); p == nil || p.Confidence != 0.7 {
		t.Errorf("energy_low_day = %+v, want confidence 0.7", p)
	}
}

func TestAnalyze_EnergyExtremes_NeedsThreeDays(t *testing.T) {
	clock := &fakeClock{t: mustTime(t, "2025-06-02 09:00:00")}
	st, _ := newTestStore(t, clock)

	_, _ = st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "e", EnergyLevel: 9, EntryDate: "2025-05-26"})
	_, _ = st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "e", EnergyLevel: 2, EntryDate: "2025-05-28"})

	_, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	journal, _ := st.JournalPatterns("u1")
	if findPattern(journal, "energy_high_day") != nil || findPattern(journal, "energy_low_day") != nil {
		t.Error("energy patterns stored with only two distinct days")
	}
}

func TestAnalyze_MoodProductivityCorrelation(t *testing.T) {
	clock := &fakeClock{t: mustTime(t, "2025-06-02 09:00:00")}
	st, _ := newTestStore(t, clock)

	seed := []struct {
		date      string
		mood      string
		completed int
	}{
		{"2025-05-20", "focused", 4},
		{"2025-05-22", "focused", 6},
		{"2025-05-27", "sad", 0},
		{"2025-05-29", "sad", 1},
	}
	for _, s := range seed {
		if _, err := st.AddEntry(store.AddEntryParams{UserID: "u1", Content: "d", Mood: s.mood, EntryDate: s.date}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
		if err := st.BumpDailyLog("u1", s.date, "tasks_completed", s.completed); err != nil {
			t.Fatalf("BumpDailyLog: %v", err)
		}
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, "most tasks on days you feel focused") {
		t.Errorf("insights = %v, want productive-mood insight", analysis.Insights)
	}
	if !hasInsight(analysis.Insights, "rarely get done on days you feel sad") {
		t.Errorf("insights = %v, want unproductive-mood insight", analysis.Insights)
	}

	journal, _ := st.JournalPatterns("u1")
	if p := findPattern(journal, "productive_mood"); p == nil || p.Confidence != 0.8 {
		t.Errorf("productive_mood = %+v, want confidence 0.8", p)
	}
	if p := findPattern(journal, "unproductive_mood"); p == nil || p.Confidence != 0.6 {
		t.Errorf("unproductive_mood = %+v, want confidence 0.6", p)
	}
}

func TestAnalyze_EntitySentiment(t *testing.T) {
	clock := &fakeClock{t: mustTime(t, "2025-06-02 09:00:00")}
	st, _ := newTestStore(t, clock)

	for _, date := range []string{"2025-05-20", "2025-05-22", "2025-05-24"} {
		_, err := st.AddEntry(store.AddEntryParams{
			UserID: "u1", Content: "launch stress", Mood: "anxious", EntryDate: date,
			Entities: []store.Entity{{Type: "project", Value: "launch", Sentiment: "negative"}},
		})
		if err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-02 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasInsight(analysis.Insights, `"launch" keeps coming up when you feel anxious`) {
		t.Errorf("insights = %v, want negative entity insight", analysis.Insights)
	}

	journal, _ := st.JournalPatterns("u1")
	p := findPattern(journal, "entity_negative_launch")
	if p == nil {
		t.Fatal("entity_negative_launch not stored")
	}
	if p.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6 (mentions/5)", p.Confidence)
	}
}

// ─── Graceful degradation ────────────────────────────────────────────────────

func TestAnalyze_JournalFailureKeepsTaskInsights(t *testing.T) {
	clock := &fakeClock{}
	st, dir := newTestStore(t, clock)

	logCompletions(t, st, clock, mustTime(t, "2025-06-02 09:00:00"), 5)

	// Sabotage the journal side: drop the entities table out from under
	// the analyzer.
	db, err := sql.Open("sqlite", filepath.Join(dir, "tempo.db"))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`DROP TABLE journal_entities`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	analysis, err := NewAnalyzer(st).Analyze("u1", mustTime(t, "2025-06-03 10:00:00"))
	if err != nil {
		t.Fatalf("Analyze must not fail on journal errors: %v", err)
	}

	if !hasInsight(analysis.Insights, "Most productive in the morning") {
		t.Errorf("insights = %v, task-side insight lost to a journal failure", analysis.Insights)
	}

	var skipped bool
	for _, sk := range analysis.Skipped {
		if sk.Detection == "entity_sentiment" {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("skipped = %+v, want entity_sentiment recorded", analysis.Skipped)
	}
}
