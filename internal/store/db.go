// Package store provides SQLite-based persistence for batches, tasks, the
// audit log, and the learned-pattern library.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection with taskwright-specific operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the path to the default taskwright database.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskwright", "taskwright.db")
}

// Open opens an SQLite database at the given path, creating parent
// directories if needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Batches},
		{2, migrationV2Tasks},
		{3, migrationV3Audit},
		{4, migrationV4Patterns},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Batches = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	instruction TEXT NOT NULL,
	safe INTEGER NOT NULL DEFAULT 1,
	safety_flags TEXT,
	safety_score REAL NOT NULL DEFAULT 1.0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at);
`

const migrationV2Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL,
	risk_level TEXT NOT NULL DEFAULT 'low',
	requires_approval INTEGER NOT NULL DEFAULT 0,
	depends_on TEXT,
	required_info TEXT,
	missing_info TEXT,
	safe INTEGER NOT NULL DEFAULT 1,
	safety_flags TEXT,
	safety_score REAL NOT NULL DEFAULT 1.0,
	status TEXT NOT NULL DEFAULT 'pending',
	result TEXT,
	error_message TEXT,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_tasks_batch_id ON tasks(batch_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

const migrationV3Audit = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	payload TEXT,
	safety_score REAL NOT NULL DEFAULT 1.0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_session ON audit_log(session_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
`

const migrationV4Patterns = `
CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	trigger TEXT NOT NULL,
	response TEXT NOT NULL,
	use_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patterns_use_count ON patterns(use_count DESC);

-- Full-text search on name, trigger, response
CREATE VIRTUAL TABLE IF NOT EXISTS patterns_fts USING fts5(
	name,
	trigger,
	response,
	content='patterns',
	content_rowid='rowid'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS patterns_ai AFTER INSERT ON patterns BEGIN
	INSERT INTO patterns_fts(rowid, name, trigger, response)
	VALUES (NEW.rowid, NEW.name, NEW.trigger, NEW.response);
END;

CREATE TRIGGER IF NOT EXISTS patterns_ad AFTER DELETE ON patterns BEGIN
	INSERT INTO patterns_fts(patterns_fts, rowid, name, trigger, response)
	VALUES ('delete', OLD.rowid, OLD.name, OLD.trigger, OLD.response);
END;

CREATE TRIGGER IF NOT EXISTS patterns_au AFTER UPDATE ON patterns BEGIN
	INSERT INTO patterns_fts(patterns_fts, rowid, name, trigger, response)
	VALUES ('delete', OLD.rowid, OLD.name, OLD.trigger, OLD.response);
	INSERT INTO patterns_fts(rowid, name, trigger, response)
	VALUES (NEW.rowid, NEW.name, NEW.trigger, NEW.response);
END;
`

// Exec executes a query that doesn't return rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseNullableTime parses a nullable time string from SQLite.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}
