package store

// Totals holds aggregate row counts for one user.
type Totals struct {
	OpenTasks       int `json:"open_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	Events          int `json:"events"`
	JournalEntries  int `json:"journal_entries"`
	Patterns        int `json:"patterns"`
	JournalPatterns int `json:"journal_patterns"`
}

// Stats returns aggregate row counts for a user. Individual count failures
// leave that counter at zero rather than failing the whole call.
func (s *Store) Stats(userID string) *Totals {
	t := &Totals{}
	count := func(dst *int, query string) {
		_ = s.db.QueryRow(query, userID).Scan(dst)
	}
	count(&t.OpenTasks, `SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = 'open'`)
	count(&t.CompletedTasks, `SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = 'done'`)
	count(&t.Events, `SELECT COUNT(*) FROM events WHERE user_id = ?`)
	count(&t.JournalEntries, `SELECT COUNT(*) FROM journal_entries WHERE user_id = ?`)
	count(&t.Patterns, `SELECT COUNT(*) FROM patterns WHERE user_id = ?`)
	count(&t.JournalPatterns, `SELECT COUNT(*) FROM journal_patterns WHERE user_id = ?`)
	return t
}
