// Package store provides relational persistence on SQLite: persistent
// contexts, usage tracking with daily rollups, and research-session
// bookkeeping.
//
// Unlike the silently-degrading personalization layer, persistence
// failures here are surfaced as real errors — they indicate
// infrastructure problems, not transient API hiccups.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeNow is a variable so tests can control timestamps.
var timeNow = time.Now

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer; modernc/sqlite serializes writes per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persistent_contexts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		context_text TEXT NOT NULL,
		context_type TEXT DEFAULT 'general',
		created_at DATETIME NOT NULL,
		active BOOLEAN DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_contexts_user ON persistent_contexts(user_id);

	CREATE TABLE IF NOT EXISTS usage_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		operation_type TEXT NOT NULL,
		user_id TEXT,
		memory_id TEXT,
		tokens_used INTEGER DEFAULT 0,
		embedding_tokens INTEGER DEFAULT 0,
		llm_tokens INTEGER DEFAULT 0,
		estimated_cost REAL DEFAULT 0,
		latency_ms INTEGER DEFAULT 0,
		success BOOLEAN DEFAULT 1,
		error_message TEXT,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON usage_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_user ON usage_events(user_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON usage_events(operation_type);

	CREATE TABLE IF NOT EXISTS usage_daily (
		date TEXT PRIMARY KEY,
		total_operations INTEGER DEFAULT 0,
		total_adds INTEGER DEFAULT 0,
		total_searches INTEGER DEFAULT 0,
		total_tokens INTEGER DEFAULT 0,
		total_cost REAL DEFAULT 0,
		total_latency_ms INTEGER DEFAULT 0,
		successes INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS research_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		date DATETIME NOT NULL,
		num_queries INTEGER,
		ai_mode TEXT,
		query_focus TEXT,
		min_quality_score INTEGER,
		max_sources INTEGER,
		completed BOOLEAN DEFAULT 0,
		cancelled BOOLEAN DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_topic ON research_sessions(topic);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON research_sessions(date);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON research_sessions(user_id);

	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		query_text TEXT NOT NULL,
		selected BOOLEAN DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES research_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		query_source TEXT,
		ai_score INTEGER,
		score_reasoning TEXT,
		selected BOOLEAN DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES research_sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_sources_url ON sources(url);
	CREATE INDEX IF NOT EXISTS idx_sources_selected ON sources(selected);
	`

	_, err := s.db.Exec(schema)
	return err
}
