// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Owns schema creation and shared scan/constraint helpers

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Pragmas go in the DSN so every connection in the database/sql pool
	// gets them. An Exec'd PRAGMA only configures whichever single
	// connection happened to run it: foreign_keys would silently be off on
	// the rest of the pool, and without busy_timeout a second writer fails
	// immediately with SQLITE_BUSY instead of waiting for the lock.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS api_keys (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			name         TEXT NOT NULL,
			hashed_key   TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			last_used_at TEXT,
			revoked_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);
		CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(revoked_at);

		CREATE TABLE IF NOT EXISTS profiles (
			user_id            TEXT PRIMARY KEY,
			target_calories    REAL,
			suggested_calories REAL
		);

		CREATE TABLE IF NOT EXISTS day_logs (
			id                       TEXT PRIMARY KEY,
			user_id                  TEXT NOT NULL,
			log_date                 TEXT NOT NULL,
			target_calories_override REAL,
			notes                    TEXT,
			created_at               TEXT NOT NULL,

			UNIQUE (user_id, log_date)
		);

		CREATE INDEX IF NOT EXISTS idx_day_logs_user_date ON day_logs(user_id, log_date);

		CREATE TABLE IF NOT EXISTS meals (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			name             TEXT NOT NULL,
			order_index      INTEGER NOT NULL DEFAULT 0,
			archived         INTEGER NOT NULL DEFAULT 0,
			target_protein_g REAL,
			target_carbs_g   REAL,
			target_fat_g     REAL,
			target_calories  REAL,
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_meals_user_order ON meals(user_id, order_index);

		CREATE TABLE IF NOT EXISTS meal_entries (
			id                TEXT PRIMARY KEY,
			day_log_id        TEXT NOT NULL,
			meal_id           TEXT,
			name              TEXT NOT NULL,
			protein_g         REAL NOT NULL DEFAULT 0,
			carbs_g           REAL NOT NULL DEFAULT 0,
			fat_g             REAL NOT NULL DEFAULT 0,
			calories_override REAL,
			order_index       INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,

			FOREIGN KEY (day_log_id) REFERENCES day_logs(id)
		);

		CREATE INDEX IF NOT EXISTS idx_meal_entries_day_log ON meal_entries(day_log_id);
		CREATE INDEX IF NOT EXISTS idx_meal_entries_group ON meal_entries(day_log_id, meal_id, order_index);

		CREATE TABLE IF NOT EXISTS weight_entries (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			entry_date TEXT NOT NULL,
			weight_kg  REAL NOT NULL,
			source     TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_weight_entries_user_date ON weight_entries(user_id, entry_date DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringPtr converts a *string to a SQL NULL when nil.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullFloatPtr converts a *float64 to a SQL NULL when nil.
func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// stringPtr returns a pointer to the string if valid, nil otherwise.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// floatPtr returns a pointer to the float if valid, nil otherwise.
func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// parseTime parses an RFC3339 column, logging rather than failing on corruption.
func (s *SQLiteStore) parseTime(value, column, id string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		s.logger.Warn("failed to parse stored timestamp", "column", column, "id", id, "error", err)
		return time.Time{}
	}
	return parsed
}

// parseTimePtr parses a nullable RFC3339 column.
func (s *SQLiteStore) parseTimePtr(value sql.NullString, column, id string) *time.Time {
	if !value.Valid {
		return nil
	}
	parsed := s.parseTime(value.String, column, id)
	if parsed.IsZero() {
		return nil
	}
	return &parsed
}

// Ensure SQLiteStore implements the full Store interface.
var _ Store = (*SQLiteStore)(nil)
