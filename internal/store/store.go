// Package store implements the persistence layer for Tempo.
//
// A single SQLite database holds tasks, their lifecycle event log, daily
// aggregate counters, journal entries with extracted entities, and the
// derived pattern tables written by the insight analyzer. Every operation
// is a parameterized statement; there is no ORM.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
	// Clock supplies the current time for every write (timestamps and the
	// frozen day/time buckets on events). Nil means time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".tempo"),
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the productivity database backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "tempo.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	s := &Store{db: db, cfg: cfg, now: now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT,
			status       TEXT NOT NULL DEFAULT 'open',
			category     TEXT,
			focus_level  TEXT,
			priority     TEXT,
			due_date     TEXT,
			created_at   TEXT NOT NULL,
			completed_at TEXT,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_user    ON tasks(user_id, status);
		CREATE INDEX IF NOT EXISTS idx_tasks_due     ON tasks(user_id, due_date);
		CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at DESC);

		CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			task_id    TEXT,
			event_type TEXT NOT NULL,
			payload    TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, event_type, created_at DESC);

		CREATE TABLE IF NOT EXISTS daily_logs (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			log_date        TEXT NOT NULL,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			tasks_created   INTEGER NOT NULL DEFAULT 0,
			UNIQUE(user_id, log_date)
		);

		CREATE TABLE IF NOT EXISTS journal_entries (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			entry_date   TEXT NOT NULL,
			entry_type   TEXT NOT NULL DEFAULT 'freeform',
			content      TEXT NOT NULL,
			mood         TEXT,
			energy_level INTEGER,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_journal_user ON journal_entries(user_id, entry_date DESC);

		CREATE TABLE IF NOT EXISTS journal_entities (
			id           TEXT PRIMARY KEY,
			entry_id     TEXT NOT NULL,
			entity_type  TEXT NOT NULL,
			entity_value TEXT NOT NULL,
			sentiment    TEXT NOT NULL DEFAULT 'neutral',
			FOREIGN KEY (entry_id) REFERENCES journal_entries(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_entities_entry ON journal_entities(entry_id);

		CREATE TABLE IF NOT EXISTS patterns (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			pattern_type TEXT NOT NULL,
			pattern_data TEXT NOT NULL DEFAULT '{}',
			confidence   REAL NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			UNIQUE(user_id, pattern_type)
		);

		CREATE TABLE IF NOT EXISTS journal_patterns (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			pattern_type TEXT NOT NULL,
			pattern_data TEXT NOT NULL DEFAULT '{}',
			confidence   REAL NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			UNIQUE(user_id, pattern_type)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// nowString returns the store clock formatted for SQLite. The clock's own
// location is kept so that timestamps, calendar dates, and the frozen
// day/time buckets on events all agree with each other.
func (s *Store) nowString() string {
	return s.now().Format(timeLayout)
}

// today returns the store clock's calendar date.
func (s *Store) today() string {
	return s.now().Format(dateLayout)
}
