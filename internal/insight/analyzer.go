package insight

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mresendiz/tempo/internal/store"
)

// Detection thresholds. Each detection is independently gated so sparse
// data never produces noisy patterns.
const (
	analysisWindowDays = 30

	minPeakBucketCount = 3
	minFocusSample     = 5
	strugglingRate     = 0.30
	greatRate          = 0.70
	avoidanceAgeDays   = 7
	minAvoidanceCount  = 2
	minMoodDayCount    = 2
	minEnergyDays      = 3
	highEnergyAvg      = 7
	lowEnergyAvg       = 4
	minProductiveAvg   = 3
	maxUnproductiveAvg = 1
	minEntityMentions  = 3
)

// negativeMoods and positiveMoods are the fixed sentiment sets used by the
// mood-by-day and entity detections.
var negativeMoods = map[string]bool{
	"anxious": true, "frustrated": true, "sad": true,
	"angry": true, "overwhelmed": true, "scattered": true,
}

var positiveMoods = map[string]bool{
	"calm": true, "excited": true, "grateful": true,
	"hopeful": true, "content": true, "focused": true,
}

// Analysis is the result of one analyzer run. Skipped records which
// journal-side detections degraded instead of failing the run, so callers
// and tests can assert on partial results rather than only the happy path.
type Analysis struct {
	Insights []string
	Skipped  []SkippedDetection
}

// SkippedDetection names a detection that could not run and why.
type SkippedDetection struct {
	Detection string
	Reason    string
}

// Analyzer computes patterns over a trailing window and upserts them into
// the pattern store.
type Analyzer struct {
	store *store.Store
}

// NewAnalyzer creates an Analyzer over the given store.
func NewAnalyzer(st *store.Store) *Analyzer {
	return &Analyzer{store: st}
}

// Analyze scans the trailing 30-day window ending at now and returns the
// detected insights, upserting one pattern row per detected signal.
//
// Task-side detections propagate store errors. Journal-side detections run
// behind a fault boundary: a missing or erroring journal schema degrades to
// a Skipped record and never suppresses the task-side insights.
func (a *Analyzer) Analyze(userID string, now time.Time) (*Analysis, error) {
	since := now.AddDate(0, 0, -analysisWindowDays)
	sinceStamp := since.Format("2006-01-02 15:04:05")
	sinceDate := store.DateOf(since)

	result := &Analysis{}

	// ── Task-behavior detections ────────────────────────────────────────

	if err := a.peakTime(userID, sinceStamp, result); err != nil {
		return nil, err
	}
	if err := a.peakDay(userID, sinceStamp, result); err != nil {
		return nil, err
	}
	if err := a.completionRates(userID, sinceStamp, result); err != nil {
		return nil, err
	}
	if err := a.completionLatency(userID, sinceStamp, result); err != nil {
		return nil, err
	}
	if err := a.avoidance(userID, now, result); err != nil {
		return nil, err
	}

	// ── Journal-behavior detections (degrade, never fail) ───────────────

	journal := []struct {
		name string
		run  func() error
	}{
		{"mood_by_day", func() error { return a.moodByDay(userID, sinceDate, result) }},
		{"energy_by_day", func() error { return a.energyByDay(userID, sinceDate, result) }},
		{"mood_productivity", func() error { return a.moodProductivity(userID, sinceDate, result) }},
		{"entity_sentiment", func() error { return a.entitySentiment(userID, sinceDate, result) }},
	}
	for _, d := range journal {
		if err := d.run(); err != nil {
			result.Skipped = append(result.Skipped, SkippedDetection{
				Detection: d.name,
				Reason:    err.Error(),
			})
		}
	}

	return result, nil
}

// ─── Detection 1 & 2: peak time-of-day / day-of-week ─────────────────────────

// peakBucket tallies completion events by one frozen payload bucket and
// returns the top bucket with its count.
func (a *Analyzer) peakBucket(userID, since, field string) (string, int, error) {
	payloads, err := a.store.CompletedEventPayloads(userID, since)
	if err != nil {
		return "", 0, err
	}

	counts := map[string]int{}
	for _, p := range payloads {
		if v := gjson.Get(p, field).String(); v != "" {
			counts[v]++
		}
	}

	top, topCount := "", 0
	for bucket, n := range counts {
		if n > topCount || (n == topCount && bucket < top) {
			top, topCount = bucket, n
		}
	}
	return top, topCount, nil
}

func (a *Analyzer) peakTime(userID, since string, result *Analysis) error {
	bucket, count, err := a.peakBucket(userID, since, "time_of_day")
	if err != nil {
		return err
	}
	if count < minPeakBucketCount {
		return nil
	}

	result.Insights = append(result.Insights,
		fmt.Sprintf("Most productive in the %s (%d tasks completed)", bucket, count))

	data, _ := sjson.Set("{}", "time", bucket)
	data, _ = sjson.Set(data, "count", count)
	// Confidence is count/10, deliberately uncapped: callers only compare
	// patterns by relative strength.
	return a.store.UpsertPattern(userID, Key{Kind: KindPeakTime}.String(), data, float64(count)/10)
}

func (a *Analyzer) peakDay(userID, since string, result *Analysis) error {
	day, count, err := a.peakBucket(userID, since, "day_of_week")
	if err != nil {
		return err
	}
	if count < minPeakBucketCount {
		return nil
	}

	result.Insights = append(result.Insights,
		fmt.Sprintf("Most tasks get done on %ss (%d completed)", day, count))

	data, _ := sjson.Set("{}", "day", day)
	data, _ = sjson.Set(data, "count", count)
	return a.store.UpsertPattern(userID, Key{Kind: KindPeakDay}.String(), data, float64(count)/10)
}

// ─── Detection 3: completion rate by focus level ─────────────────────────────

func (a *Analyzer) completionRates(userID, since string, result *Analysis) error {
	stats, err := a.store.FocusCompletionStats(userID, since)
	if err != nil {
		return err
	}

	for _, fs := range stats {
		if fs.Total < minFocusSample {
			continue
		}
		rate := float64(fs.Completed) / float64(fs.Total)

		switch {
		case rate < strugglingRate:
			result.Insights = append(result.Insights,
				fmt.Sprintf("Struggling with %s-focus tasks — only %d%% get done", fs.FocusLevel, int(rate*100)))
		case rate > greatRate:
			result.Insights = append(result.Insights,
				fmt.Sprintf("Great at finishing %s-focus tasks (%d%%)", fs.FocusLevel, int(rate*100)))
		}

		// The pattern is stored whenever the sample is big enough, even
		// when the rate sits in the silent middle band.
		data, _ := sjson.Set("{}", "rate", rate)
		data, _ = sjson.Set(data, "total", fs.Total)
		data, _ = sjson.Set(data, "completed", fs.Completed)
		key := Key{Kind: KindCompletionRate, Qualifier: fs.FocusLevel}
		if err := a.store.UpsertPattern(userID, key.String(), data, rate); err != nil {
			return err
		}
	}
	return nil
}

// ─── Detection 4: average completion latency ─────────────────────────────────

func (a *Analyzer) completionLatency(userID, since string, result *Analysis) error {
	avg, err := a.store.AvgCompletionDays(userID, since)
	if err != nil {
		return err
	}
	if avg == nil {
		return nil
	}

	days := math.Round(*avg*10) / 10
	result.Insights = append(result.Insights,
		fmt.Sprintf("Tasks take %.1f days on average to complete", days))

	data, _ := sjson.Set("{}", "days", days)
	return a.store.UpsertPattern(userID, Key{Kind: KindAvgCompletionDays}.String(), data, 0.8)
}

// ─── Detection 5: avoidance by category ──────────────────────────────────────

func (a *Analyzer) avoidance(userID string, now time.Time, result *Analysis) error {
	counts, err := a.store.AgedOpenTasksByCategory(userID, now.Format("2006-01-02 15:04:05"), avoidanceAgeDays)
	if err != nil {
		return err
	}
	if len(counts) == 0 || counts[0].Count < minAvoidanceCount {
		return nil
	}

	top := counts[0]
	result.Insights = append(result.Insights,
		fmt.Sprintf("You tend to avoid %s tasks — %d have been sitting for over a week", top.Category, top.Count))

	data, _ := sjson.Set("{}", "category", top.Category)
	data, _ = sjson.Set(data, "count", top.Count)
	return a.store.UpsertPattern(userID, Key{Kind: KindAvoidanceCategory}.String(), data, 0.7)
}

// ─── Detection 6: mood by day-of-week ────────────────────────────────────────

func (a *Analyzer) moodByDay(userID, sinceDate string, result *Analysis) error {
	entries, err := a.store.EntriesSince(userID, sinceDate)
	if err != nil {
		return err
	}

	// day → mood → count
	byDay := map[string]map[string]int{}
	for _, e := range entries {
		if e.Mood == nil {
			continue
		}
		day, err := entryDay(e.EntryDate)
		if err != nil {
			continue
		}
		if byDay[day] == nil {
			byDay[day] = map[string]int{}
		}
		byDay[day][*e.Mood]++
	}

	for _, day := range sortedKeys(byDay) {
		mood, count := dominant(byDay[day])
		if count < minMoodDayCount || !negativeMoods[mood] {
			continue
		}

		result.Insights = append(result.Insights,
			fmt.Sprintf("%ss tend to be %s days", titleDay(day), mood))

		data, _ := sjson.Set("{}", "day", day)
		data, _ = sjson.Set(data, "mood", mood)
		data, _ = sjson.Set(data, "count", count)
		key := Key{Kind: KindMoodDay, Qualifier: day}
		if err := a.store.UpsertJournalPattern(userID, key.String(), data, float64(count)/5); err != nil {
			return err
		}
	}
	return nil
}

// ─── Detection 7: energy extremes by day ─────────────────────────────────────

func (a *Analyzer) energyByDay(userID, sinceDate string, result *Analysis) error {
	entries, err := a.store.EntriesSince(userID, sinceDate)
	if err != nil {
		return err
	}

	sums := map[string]int{}
	counts := map[string]int{}
	for _, e := range entries {
		if e.EnergyLevel == nil {
			continue
		}
		day, err := entryDay(e.EntryDate)
		if err != nil {
			continue
		}
		sums[day] += *e.EnergyLevel
		counts[day]++
	}
	if len(counts) < minEnergyDays {
		return nil
	}

	bestDay, worstDay := "", ""
	bestAvg, worstAvg := -1.0, 11.0
	for _, day := range sortedKeys(counts) {
		avg := float64(sums[day]) / float64(counts[day])
		if avg > bestAvg {
			bestDay, bestAvg = day, avg
		}
		if avg < worstAvg {
			worstDay, worstAvg = day, avg
		}
	}

	// High and low can both fire in one run.
	if bestAvg >= highEnergyAvg {
		result.Insights = append(result.Insights,
			fmt.Sprintf("Energy peaks on %ss (avg %.1f/10)", titleDay(bestDay), bestAvg))
		data, _ := sjson.Set("{}", "day", bestDay)
		data, _ = sjson.Set(data, "avg", bestAvg)
		if err := a.store.UpsertJournalPattern(userID, Key{Kind: KindEnergyHighDay}.String(), data, 0.7); err != nil {
			return err
		}
	}
	if worstAvg <= lowEnergyAvg {
		result.Insights = append(result.Insights,
			fmt.Sprintf("Energy dips on %ss (avg %.1f/10)", titleDay(worstDay), worstAvg))
		data, _ := sjson.Set("{}", "day", worstDay)
		data, _ = sjson.Set(data, "avg", worstAvg)
		if err := a.store.UpsertJournalPattern(userID, Key{Kind: KindEnergyLowDay}.String(), data, 0.7); err != nil {
			return err
		}
	}
	return nil
}

// ─── Detection 8: mood–productivity correlation ──────────────────────────────

func (a *Analyzer) moodProductivity(userID, sinceDate string, result *Analysis) error {
	stats, err := a.store.MoodProductivity(userID, sinceDate)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	best := stats[0]
	if best.AvgCompleted >= minProductiveAvg {
		result.Insights = append(result.Insights,
			fmt.Sprintf("You complete the most tasks on days you feel %s (avg %.1f)", best.Mood, best.AvgCompleted))
		data, _ := sjson.Set("{}", "mood", best.Mood)
		data, _ = sjson.Set(data, "avg_completed", best.AvgCompleted)
		if err := a.store.UpsertJournalPattern(userID, Key{Kind: KindProductiveMood}.String(), data, 0.8); err != nil {
			return err
		}
	}

	worst := stats[len(stats)-1]
	if worst.Mood != best.Mood && worst.AvgCompleted <= maxUnproductiveAvg {
		result.Insights = append(result.Insights,
			fmt.Sprintf("Tasks rarely get done on days you feel %s (avg %.1f)", worst.Mood, worst.AvgCompleted))
		data, _ := sjson.Set("{}", "mood", worst.Mood)
		data, _ = sjson.Set(data, "avg_completed", worst.AvgCompleted)
		if err := a.store.UpsertJournalPattern(userID, Key{Kind: KindUnproductiveMood}.String(), data, 0.6); err != nil {
			return err
		}
	}
	return nil
}

// ─── Detection 9: entity sentiment correlation ───────────────────────────────

func (a *Analyzer) entitySentiment(userID, sinceDate string, result *Analysis) error {
	stats, err := a.store.EntityMoodCounts(userID, sinceDate)
	if err != nil {
		return err
	}

	for _, es := range stats {
		if es.Mentions < minEntityMentions {
			continue
		}

		var kind Kind
		var insight string
		switch {
		case negativeMoods[es.Mood]:
			kind = KindEntityNegative
			insight = fmt.Sprintf("%q keeps coming up when you feel %s (%d mentions)", es.Value, es.Mood, es.Mentions)
		case positiveMoods[es.Mood]:
			kind = KindEntityPositive
			insight = fmt.Sprintf("%q shows up on days you feel %s (%d mentions)", es.Value, es.Mood, es.Mentions)
		default:
			continue
		}

		result.Insights = append(result.Insights, insight)

		data, _ := sjson.Set("{}", "value", es.Value)
		data, _ = sjson.Set(data, "type", es.Type)
		data, _ = sjson.Set(data, "mood", es.Mood)
		data, _ = sjson.Set(data, "mentions", es.Mentions)
		key := Key{Kind: kind, Qualifier: normalizeQualifier(es.Value)}
		if err := a.store.UpsertJournalPattern(userID, key.String(), data, float64(es.Mentions)/5); err != nil {
			return err
		}
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// entryDay resolves a calendar date to its lowercase day-of-week name.
func entryDay(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return store.DayName(t), nil
}

// dominant returns the highest-count key, ties broken alphabetically so
// repeated runs are deterministic.
func dominant(counts map[string]int) (string, int) {
	top, topCount := "", 0
	for _, k := range sortedKeys(counts) {
		if counts[k] > topCount {
			top, topCount = k, counts[k]
		}
	}
	return top, topCount
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleDay uppercases the first letter of a day name for insight text.
func titleDay(day string) string {
	if day == "" {
		return day
	}
	return string(day[0]-'a'+'A') + day[1:]
}
