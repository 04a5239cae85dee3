// Package store persists company analyses, page analyses and logged AI
// interactions in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

const schema = `
CREATE TABLE IF NOT EXISTS company_analyses (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	analyzed_at INTEGER NOT NULL,
	platform_scores TEXT NOT NULL,
	insights TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_company_analyses_name ON company_analyses(company_name, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_company_analyses_date ON company_analyses(analyzed_at);

CREATE TABLE IF NOT EXISTS page_analyses (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	analyzed_at INTEGER NOT NULL,
	overall_score INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_page_analyses_url ON page_analyses(url);

CREATE TABLE IF NOT EXISTS ai_interactions (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	user_input TEXT NOT NULL,
	ai_response TEXT NOT NULL,
	ai_model TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT '',
	rating INTEGER
);
CREATE INDEX IF NOT EXISTS idx_ai_interactions_timestamp ON ai_interactions(timestamp);
`

// Store is a SQLite-backed repository.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("SQLite store initialized", zap.String("path", path))
	return &Store{db: db, logger: logger.Named("store"), now: time.Now}, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
