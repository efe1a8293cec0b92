package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Event is one immutable task lifecycle record. The day-of-week and
// time-of-day buckets active at write time are frozen into the payload;
// nothing ever updates or deletes an event.
type Event struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	TaskID    *string `json:"task_id,omitempty"`
	EventType string  `json:"event_type"`
	Payload   string  `json:"payload"`
	CreatedAt string  `json:"created_at"`
}

// DailyLog holds the running per-day counters for one user.
type DailyLog struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	LogDate        string `json:"log_date"`
	TasksCompleted int    `json:"tasks_completed"`
	TasksCreated   int    `json:"tasks_created"`
}

// ─── Events ──────────────────────────────────────────────────────────────────

// LogEvent appends a task lifecycle event. The payload (a JSON object, ""
// meaning empty) is augmented with the current day_of_week and time_of_day
// before it is written. Returns the new event ID.
func (s *Store) LogEvent(userID, eventType, taskID, payload string) (string, error) {
	if payload == "" {
		payload = "{}"
	}

	now := s.now()
	payload, err := sjson.Set(payload, "day_of_week", DayName(now))
	if err != nil {
		return "", fmt.Errorf("store: log event: payload: %w", err)
	}
	payload, err = sjson.Set(payload, "time_of_day", TimeBucket(now))
	if err != nil {
		return "", fmt.Errorf("store: log event: payload: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO events (id, user_id, task_id, event_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, nullableString(taskID), eventType, payload, s.nowString(),
	)
	if err != nil {
		return "", fmt.Errorf("store: log event: %w", err)
	}
	return id, nil
}

// CompletedEventPayloads returns the payloads of completion events since
// the cutoff, newest first.
func (s *Store) CompletedEventPayloads(userID, since string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM events
		 WHERE user_id = ? AND event_type = 'completed' AND created_at >= ?
		 ORDER BY created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("store: completed events: %w", err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}
	return payloads, rows.Err()
}

// ─── Daily logs ──────────────────────────────────────────────────────────────

// dailyLogFields is the allowlist of counter columns BumpDailyLog accepts.
var dailyLogFields = map[string]bool{
	"tasks_completed": true,
	"tasks_created":   true,
}

// BumpDailyLog atomically increments one counter on the (user, date) row,
// inserting the row if it does not exist yet. A single upsert statement —
// no read-then-write race.
func (s *Store) BumpDailyLog(userID, date, field string, n int) error {
	if !dailyLogFields[field] {
		return fmt.Errorf("store: daily log: unknown field %q", field)
	}

	query := fmt.Sprintf(
		`INSERT INTO daily_logs (id, user_id, log_date, %[1]s)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, log_date) DO UPDATE SET %[1]s = %[1]s + excluded.%[1]s`,
		field,
	)
	if _, err := s.db.Exec(query, uuid.NewString(), userID, date, n); err != nil {
		return fmt.Errorf("store: daily log: %w", err)
	}
	return nil
}

// GetDailyLog returns the counters for one (user, date), or zeros when no
// row exists.
func (s *Store) GetDailyLog(userID, date string) (*DailyLog, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, log_date, tasks_completed, tasks_created
		 FROM daily_logs WHERE user_id = ? AND log_date = ?`,
		userID, date,
	)
	var d DailyLog
	if err := row.Scan(&d.ID, &d.UserID, &d.LogDate, &d.TasksCompleted, &d.TasksCreated); err != nil {
		if err == sql.ErrNoRows {
			return &DailyLog{UserID: userID, LogDate: date}, nil
		}
		return nil, fmt.Errorf("store: daily log: %w", err)
	}
	return &d, nil
}
