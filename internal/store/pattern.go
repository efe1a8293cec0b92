package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Pattern is one per-user derived statistic with a confidence score.
// Confidence is a ranking strength, not a probability — some analyzer
// formulas exceed 1.0 with enough volume, and that is kept as-is.
type Pattern struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	PatternType string  `json:"pattern_type"`
	PatternData string  `json:"pattern_data"`
	Confidence  float64 `json:"confidence"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// patternTables names the two parallel pattern families. Task-behavior and
// journal-behavior patterns live in separate tables with the same upsert
// contract.
var patternTables = map[string]bool{
	"patterns":         true,
	"journal_patterns": true,
}

func (s *Store) upsertPattern(table, userID, patternType, data string, confidence float64) error {
	if !patternTables[table] {
		return fmt.Errorf("store: unknown pattern table %q", table)
	}
	if data == "" {
		data = "{}"
	}

	now := s.nowString()
	// Single atomic upsert keyed on (user_id, pattern_type): repeated
	// analysis runs overwrite in place and concurrent runs are last-writer-
	// wins per type, never duplicated.
	query := fmt.Sprintf(
		`INSERT INTO %s (id, user_id, pattern_type, pattern_data, confidence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, pattern_type) DO UPDATE SET
		   pattern_data = excluded.pattern_data,
		   confidence   = excluded.confidence,
		   updated_at   = excluded.updated_at`,
		table,
	)
	if _, err := s.db.Exec(query, uuid.NewString(), userID, patternType, data, confidence, now, now); err != nil {
		return fmt.Errorf("store: upsert pattern %s: %w", patternType, err)
	}
	return nil
}

// UpsertPattern writes or overwrites a task-behavior pattern.
func (s *Store) UpsertPattern(userID, patternType, data string, confidence float64) error {
	return s.upsertPattern("patterns", userID, patternType, data, confidence)
}

// UpsertJournalPattern writes or overwrites a journal-behavior pattern.
func (s *Store) UpsertJournalPattern(userID, patternType, data string, confidence float64) error {
	return s.upsertPattern("journal_patterns", userID, patternType, data, confidence)
}

func (s *Store) queryPatterns(table, userID string) ([]Pattern, error) {
	if !patternTables[table] {
		return nil, fmt.Errorf("store: unknown pattern table %q", table)
	}
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT id, user_id, pattern_type, pattern_data, confidence, created_at, updated_at
		 FROM %s WHERE user_id = ? ORDER BY confidence DESC, pattern_type ASC`, table),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", table, err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.PatternType, &p.PatternData, &p.Confidence, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// Patterns returns all task-behavior patterns for a user, strongest first.
func (s *Store) Patterns(userID string) ([]Pattern, error) {
	return s.queryPatterns("patterns", userID)
}

// JournalPatterns returns all journal-behavior patterns for a user,
// strongest first.
func (s *Store) JournalPatterns(userID string) ([]Pattern, error) {
	return s.queryPatterns("journal_patterns", userID)
}
