package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// JournalEntry is one journaling action. EntryDate is the calendar day the
// entry is about, which may differ from the creation timestamp.
type JournalEntry struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	EntryDate   string   `json:"entry_date"`
	EntryType   string   `json:"entry_type"`
	Content     string   `json:"content"`
	Mood        *string  `json:"mood,omitempty"`
	EnergyLevel *int     `json:"energy_level,omitempty"`
	Entities    []Entity `json:"entities,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// Entity is a person/project/thing mentioned in a journal entry, tagged
// with a sentiment.
type Entity struct {
	ID        string `json:"id"`
	EntryID   string `json:"entry_id"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Sentiment string `json:"sentiment"`
}

// AddEntryParams holds the input for creating a journal entry.
type AddEntryParams struct {
	UserID      string   `json:"user_id"`
	EntryDate   string   `json:"entry_date,omitempty"` // defaults to today
	EntryType   string   `json:"entry_type,omitempty"`
	Content     string   `json:"content"`
	Mood        string   `json:"mood,omitempty"`
	EnergyLevel int      `json:"energy_level,omitempty"` // 1–10, 0 means unset
	Entities    []Entity `json:"entities,omitempty"`
}

// MoodStat is the joined (mood, avg same-day completions) aggregate.
type MoodStat struct {
	Mood         string
	AvgCompleted float64
	Days         int
}

// EntityMoodStat counts joint (entity, mood) occurrences across entries.
type EntityMoodStat struct {
	Value    string
	Type     string
	Mood     string
	Mentions int
}

// moods is the fixed 12-value mood enum accepted on journal entries.
var moods = map[string]bool{
	"calm": true, "excited": true, "grateful": true, "hopeful": true,
	"content": true, "focused": true, "anxious": true, "frustrated": true,
	"sad": true, "angry": true, "overwhelmed": true, "scattered": true,
}

// ValidMood reports whether m is one of the accepted mood values.
func ValidMood(m string) bool {
	return moods[strings.ToLower(m)]
}

// ─── Entries ─────────────────────────────────────────────────────────────────

// AddEntry creates a journal entry and its extracted entities in one
// transaction.
func (s *Store) AddEntry(p AddEntryParams) (*JournalEntry, error) {
	if p.Content == "" {
		return nil, fmt.Errorf("store: journal entry needs content")
	}
	if p.Mood != "" && !ValidMood(p.Mood) {
		return nil, fmt.Errorf("store: unknown mood %q", p.Mood)
	}
	if p.EnergyLevel < 0 || p.EnergyLevel > 10 {
		return nil, fmt.Errorf("store: energy level %d out of range 1-10", p.EnergyLevel)
	}

	entryDate := p.EntryDate
	if entryDate == "" {
		entryDate = s.today()
	}
	entryType := p.EntryType
	if entryType == "" {
		entryType = "freeform"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: add entry: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	now := s.nowString()

	var energy *int
	if p.EnergyLevel > 0 {
		energy = &p.EnergyLevel
	}

	if _, err := tx.Exec(
		`INSERT INTO journal_entries (id, user_id, entry_date, entry_type, content, mood, energy_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.UserID, entryDate, entryType, p.Content,
		nullableString(strings.ToLower(p.Mood)), energy, now, now,
	); err != nil {
		return nil, fmt.Errorf("store: add entry: %w", err)
	}

	entities := make([]Entity, 0, len(p.Entities))
	for _, e := range p.Entities {
		e.ID = uuid.NewString()
		e.EntryID = id
		if e.Sentiment == "" {
			e.Sentiment = "neutral"
		}
		if _, err := tx.Exec(
			`INSERT INTO journal_entities (id, entry_id, entity_type, entity_value, sentiment)
			 VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.EntryID, e.Type, e.Value, e.Sentiment,
		); err != nil {
			return nil, fmt.Errorf("store: add entity: %w", err)
		}
		entities = append(entities, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: add entry: commit: %w", err)
	}

	entry := &JournalEntry{
		ID: id, UserID: p.UserID, EntryDate: entryDate, EntryType: entryType,
		Content: p.Content, Mood: nullableString(strings.ToLower(p.Mood)),
		EnergyLevel: energy, Entities: entities, CreatedAt: now, UpdatedAt: now,
	}
	return entry, nil
}

// EntriesSince returns entries on or after the cutoff date, oldest first.
func (s *Store) EntriesSince(userID, sinceDate string) ([]JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, entry_date, entry_type, content, mood, energy_level, created_at, updated_at
		 FROM journal_entries
		 WHERE user_id = ? AND entry_date >= ?
		 ORDER BY entry_date ASC`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entries since: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.EntryDate, &e.EntryType, &e.Content,
			&e.Mood, &e.EnergyLevel, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// HasEntryOn reports whether the user journaled on the given calendar day.
func (s *Store) HasEntryOn(userID, date string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM journal_entries WHERE user_id = ? AND entry_date = ?`,
		userID, date,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: has entry: %w", err)
	}
	return n > 0, nil
}

// EntryDatesSince returns the distinct entry dates on or after the cutoff.
func (s *Store) EntryDatesSince(userID, sinceDate string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT entry_date FROM journal_entries
		 WHERE user_id = ? AND entry_date >= ? ORDER BY entry_date ASC`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entry dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ─── Analyzer read surfaces ──────────────────────────────────────────────────

// MoodProductivity joins journal entries to the same-day completion counter
// and averages completions per mood, keeping moods seen on at least two
// days. Highest average first.
func (s *Store) MoodProductivity(userID, sinceDate string) ([]MoodStat, error) {
	rows, err := s.db.Query(
		`SELECT j.mood, AVG(d.tasks_completed), COUNT(DISTINCT j.entry_date)
		 FROM journal_entries j
		 JOIN daily_logs d ON d.user_id = j.user_id AND d.log_date = j.entry_date
		 WHERE j.user_id = ? AND j.entry_date >= ? AND j.mood IS NOT NULL
		 GROUP BY j.mood
		 HAVING COUNT(DISTINCT j.entry_date) >= 2
		 ORDER BY AVG(d.tasks_completed) DESC`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("store: mood productivity: %w", err)
	}
	defer rows.Close()

	var stats []MoodStat
	for rows.Next() {
		var ms MoodStat
		if err := rows.Scan(&ms.Mood, &ms.AvgCompleted, &ms.Days); err != nil {
			return nil, err
		}
		stats = append(stats, ms)
	}
	return stats, rows.Err()
}

// EntityMoodCounts joins entities to their parent entry's mood and counts
// joint occurrences, keeping pairs seen at least twice. Top ten by mention
// count.
func (s *Store) EntityMoodCounts(userID, sinceDate string) ([]EntityMoodStat, error) {
	rows, err := s.db.Query(
		`SELECT e.entity_value, e.entity_type, j.mood, COUNT(*)
		 FROM journal_entities e
		 JOIN journal_entries j ON j.id = e.entry_id
		 WHERE j.user_id = ? AND j.entry_date >= ? AND j.mood IS NOT NULL
		 GROUP BY e.entity_value, e.entity_type, j.mood
		 HAVING COUNT(*) >= 2
		 ORDER BY COUNT(*) DESC
		 LIMIT 10`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entity moods: %w", err)
	}
	defer rows.Close()

	var stats []EntityMoodStat
	for rows.Next() {
		var es EntityMoodStat
		if err := rows.Scan(&es.Value, &es.Type, &es.Mood, &es.Mentions); err != nil {
			return nil, err
		}
		stats = append(stats, es)
	}
	return stats, rows.Err()
}
