package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Supported DB_TYPE values
const (
	TypeSQLite     = "sqlite"      // mattn/go-sqlite3, needs cgo
	TypeSQLitePure = "sqlite_pure" // modernc.org/sqlite
	TypePostgres   = "postgres"
)

// Store is the sqlx backed storage collaborator
type Store struct {
	db *sqlx.DB
}

func driverName(dbType string) (string, error) {
	switch dbType {
	case TypeSQLite, "":
		return "sqlite3", nil
	case TypeSQLitePure:
		return "sqlite", nil
	case TypePostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
}

// Open connects to the database and creates the schema if needed
func Open(dbType, dsn string) (*Store, error) {
	driver, err := driverName(dbType)
	if err != nil {
		return nil, err
	}

	isSQLite := driver != "postgres"
	if isSQLite && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	if isSQLite {
		// SQLite doesn't support multiple writers; one connection also keeps
		// an in-memory database alive between calls
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &Store{db: db}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind converts ? placeholders to the driver's style
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// initializeSchema creates necessary tables if they don't exist
func (s *Store) initializeSchema() error {
	statements := []struct {
		name  string
		query string
	}{
		{"study_records", `
			CREATE TABLE IF NOT EXISTS study_records (
				id TEXT PRIMARY KEY,
				learner_id TEXT NOT NULL,
				word_id TEXT NOT NULL,
				mastery_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				review_count INTEGER NOT NULL DEFAULT 0,
				correct_count INTEGER NOT NULL DEFAULT 0,
				last_review_at BIGINT NOT NULL DEFAULT 0,
				next_review_at BIGINT NOT NULL DEFAULT 0,
				study_time_ms BIGINT NOT NULL DEFAULT 0,
				created_at BIGINT NOT NULL DEFAULT 0,
				UNIQUE(learner_id, word_id)
			)`},
		{"study_records index", `
			CREATE INDEX IF NOT EXISTS idx_study_records_next_review
			ON study_records (learner_id, next_review_at)`},
		{"test_results", `
			CREATE TABLE IF NOT EXISTS test_results (
				id TEXT PRIMARY KEY,
				learner_id TEXT NOT NULL,
				test_id TEXT NOT NULL,
				level TEXT NOT NULL,
				score INTEGER NOT NULL DEFAULT 0,
				max_score INTEGER NOT NULL DEFAULT 0,
				accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
				time_spent_ms BIGINT NOT NULL DEFAULT 0,
				passed BOOLEAN NOT NULL DEFAULT FALSE,
				completed_at BIGINT NOT NULL DEFAULT 0,
				weak_areas TEXT NOT NULL DEFAULT '[]'
			)`},
		{"test_results index", `
			CREATE INDEX IF NOT EXISTS idx_test_results_learner
			ON test_results (learner_id, completed_at)`},
		{"learner_profiles", `
			CREATE TABLE IF NOT EXISTS learner_profiles (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				level INTEGER NOT NULL DEFAULT 1,
				experience INTEGER NOT NULL DEFAULT 0,
				streak INTEGER NOT NULL DEFAULT 0,
				achievements TEXT NOT NULL DEFAULT '[]',
				statistics TEXT NOT NULL DEFAULT '{}',
				daily_goal INTEGER NOT NULL DEFAULT 20,
				created_at BIGINT NOT NULL DEFAULT 0,
				last_active_at BIGINT NOT NULL DEFAULT 0
			)`},
	}

	for _, st := range statements {
		if _, err := s.db.Exec(st.query); err != nil {
			return fmt.Errorf("failed to create %s: %v", st.name, err)
		}
	}
	return nil
}
