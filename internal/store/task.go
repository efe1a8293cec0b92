package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Task is a single tracked task. The insight core only ever aggregates over
// these fields; it never mutates them.
type Task struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status"`
	Category    *string `json:"category,omitempty"`
	FocusLevel  *string `json:"focus_level,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
}

// CreateTaskParams holds the input for creating a new task.
type CreateTaskParams struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	FocusLevel  string `json:"focus_level,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// UpdateTaskParams holds partial update fields for a task.
type UpdateTaskParams struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	FocusLevel  *string `json:"focus_level,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// FocusStat is the per-focus-level completion aggregate for one user.
type FocusStat struct {
	FocusLevel string
	Total      int
	Completed  int
}

// CategoryCount is an open-task count for one category.
type CategoryCount struct {
	Category string
	Count    int
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

// CreateTask inserts a new task, logs the lifecycle event, and bumps the
// daily created counter.
func (s *Store) CreateTask(p CreateTaskParams) (*Task, error) {
	id := uuid.NewString()
	now := s.nowString()

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, user_id, title, description, status, category, focus_level, priority, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'open', ?, ?, ?, ?, ?, ?)`,
		id, p.UserID, p.Title,
		nullableString(p.Description), nullableString(p.Category),
		nullableString(p.FocusLevel), nullableString(p.Priority),
		nullableString(p.DueDate), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}

	if _, err := s.LogEvent(p.UserID, "created", id, ""); err != nil {
		return nil, err
	}
	if err := s.BumpDailyLog(p.UserID, s.today(), "tasks_created", 1); err != nil {
		return nil, err
	}

	return s.GetTask(id)
}

// CompleteTask marks a task done, logs the completion event with the task's
// category and focus level in the payload, and bumps the daily counter.
func (s *Store) CompleteTask(userID, taskID string) (*Task, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == "done" {
		return task, nil
	}

	now := s.nowString()
	if _, err := s.db.Exec(
		`UPDATE tasks SET status = 'done', completed_at = ?, updated_at = ? WHERE id = ?`,
		now, now, taskID,
	); err != nil {
		return nil, fmt.Errorf("store: complete task: %w", err)
	}

	payload := "{}"
	payload, _ = sjson.Set(payload, "category", derefString(task.Category))
	payload, _ = sjson.Set(payload, "focus_level", derefString(task.FocusLevel))

	if _, err := s.LogEvent(userID, "completed", taskID, payload); err != nil {
		return nil, err
	}
	if err := s.BumpDailyLog(userID, s.today(), "tasks_completed", 1); err != nil {
		return nil, err
	}

	return s.GetTask(taskID)
}

// SnoozeTask pushes a task's due date forward by the given number of days
// (from today when the task has no due date) and logs a snooze event.
func (s *Store) SnoozeTask(userID, taskID string, days int) (*Task, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 1
	}

	base := s.now()
	if task.DueDate != nil {
		if parsed, err := parseDate(*task.DueDate); err == nil {
			base = parsed
		}
	}
	due := DateOf(base.AddDate(0, 0, days))

	if _, err := s.db.Exec(
		`UPDATE tasks SET due_date = ?, updated_at = ? WHERE id = ?`,
		due, s.nowString(), taskID,
	); err != nil {
		return nil, fmt.Errorf("store: snooze task: %w", err)
	}

	payload, _ := sjson.Set("{}", "snoozed_days", days)
	if _, err := s.LogEvent(userID, "snoozed", taskID, payload); err != nil {
		return nil, err
	}

	return s.GetTask(taskID)
}

// UpdateTask partially updates a task by ID and logs an update event.
func (s *Store) UpdateTask(userID, taskID string, p UpdateTaskParams) (*Task, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	apply := func(dst **string, src *string) {
		if src != nil {
			*dst = nullableString(*src)
		}
	}
	title := task.Title
	if p.Title != nil {
		title = *p.Title
	}
	apply(&task.Description, p.Description)
	apply(&task.Category, p.Category)
	apply(&task.FocusLevel, p.FocusLevel)
	apply(&task.Priority, p.Priority)
	apply(&task.DueDate, p.DueDate)

	if _, err := s.db.Exec(
		`UPDATE tasks
		 SET title = ?, description = ?, category = ?, focus_level = ?, priority = ?, due_date = ?, updated_at = ?
		 WHERE id = ?`,
		title, task.Description, task.Category, task.FocusLevel,
		task.Priority, task.DueDate, s.nowString(), taskID,
	); err != nil {
		return nil, fmt.Errorf("store: update task: %w", err)
	}

	if _, err := s.LogEvent(userID, "updated", taskID, ""); err != nil {
		return nil, err
	}

	return s.GetTask(taskID)
}

// DeleteTask removes a task and logs a delete event. The event log itself
// is never pruned, so the task's history survives the row.
func (s *Store) DeleteTask(userID, taskID string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("store: delete task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: task %s not found", taskID)
	}
	_, err = s.LogEvent(userID, "deleted", taskID, "")
	return err
}

// GetTask retrieves a single task by ID.
func (s *Store) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, status, category, focus_level, priority, due_date, created_at, completed_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	)
	var t Task
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
		&t.Category, &t.FocusLevel, &t.Priority, &t.DueDate,
		&t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: task %s not found", id)
		}
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return &t, nil
}

// OpenTasks returns all open tasks for a user, oldest first.
func (s *Store) OpenTasks(userID string) ([]Task, error) {
	return s.queryTasks(
		`SELECT id, user_id, title, description, status, category, focus_level, priority, due_date, created_at, completed_at, updated_at
		 FROM tasks WHERE user_id = ? AND status = 'open' ORDER BY created_at ASC`,
		userID,
	)
}

// ─── Analyzer read surfaces ──────────────────────────────────────────────────

// FocusCompletionStats aggregates completed/total per focus level over tasks
// created since the cutoff. Tasks without a focus level are skipped.
func (s *Store) FocusCompletionStats(userID, since string) ([]FocusStat, error) {
	rows, err := s.db.Query(
		`SELECT focus_level,
		        COUNT(*),
		        SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END)
		 FROM tasks
		 WHERE user_id = ? AND created_at >= ? AND focus_level IS NOT NULL
		 GROUP BY focus_level`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("store: focus stats: %w", err)
	}
	defer rows.Close()

	var stats []FocusStat
	for rows.Next() {
		var fs FocusStat
		if err := rows.Scan(&fs.FocusLevel, &fs.Total, &fs.Completed); err != nil {
			return nil, err
		}
		stats = append(stats, fs)
	}
	return stats, rows.Err()
}

// AvgCompletionDays returns the mean completion latency in days over tasks
// completed since the cutoff, or nil when no task qualifies.
func (s *Store) AvgCompletionDays(userID, since string) (*float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT AVG(julianday(completed_at) - julianday(created_at))
		 FROM tasks
		 WHERE user_id = ? AND status = 'done' AND completed_at >= ?`,
		userID, since,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("store: avg completion days: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// AgedOpenTasksByCategory counts open tasks at least minAgeDays old as of
// the given instant, grouped by category, most numerous first. Tasks with
// no category fall into "uncategorized".
func (s *Store) AgedOpenTasksByCategory(userID, asOf string, minAgeDays int) ([]CategoryCount, error) {
	rows, err := s.db.Query(
		`SELECT COALESCE(NULLIF(category, ''), 'uncategorized'), COUNT(*)
		 FROM tasks
		 WHERE user_id = ? AND status = 'open'
		   AND julianday(?) - julianday(created_at) >= ?
		 GROUP BY 1
		 ORDER BY 2 DESC, 1 ASC`,
		userID, asOf, minAgeDays,
	)
	if err != nil {
		return nil, fmt.Errorf("store: aged open tasks: %w", err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status,
			&t.Category, &t.FocusLevel, &t.Priority, &t.DueDate,
			&t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
