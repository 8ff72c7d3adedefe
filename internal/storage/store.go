package storage

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database shared by the bot, the evaluators and the
// dashboard API. All row access goes through it; callers never touch SQL.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open connects to the sqlite file at dbPath and creates the schema.
// Timestamps and schedule dates are interpreted in loc.
func Open(dbPath string, loc *time.Location) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The three jobs, the bot and the API share this handle. sqlite allows a
	// single writer, so serialize access instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if loc == nil {
		loc = time.UTC
	}

	s := &Store{db: db, loc: loc}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("Database initialized successfully.")
	return s, nil
}

func (s *Store) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS watched_stocks (
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			reference_price REAL NOT NULL,
			PRIMARY KEY (user_id, ticker)
		);`,
		`CREATE TABLE IF NOT EXISTS price_alerts (
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			target_price REAL NOT NULL,
			direction TEXT NOT NULL DEFAULT 'DOWN',
			notified INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, ticker)
		);`,
		`CREATE TABLE IF NOT EXISTS panic_alerts (
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			drop_threshold_pct REAL NOT NULL,
			PRIMARY KEY (user_id, ticker)
		);`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id INTEGER PRIMARY KEY,
			auto_digest INTEGER NOT NULL DEFAULT 1,
			digest_time TEXT NOT NULL DEFAULT '18:00',
			panic_check_time TEXT NOT NULL DEFAULT '18:00',
			digest_last_date TEXT NOT NULL DEFAULT '',
			panic_last_date TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS alert_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			kind TEXT NOT NULL,
			trigger_value REAL NOT NULL,
			triggered_at TIMESTAMP NOT NULL,
			message TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dashboard_users (
			user_id INTEGER PRIMARY KEY,
			key_hash TEXT NOT NULL,
			username TEXT,
			theme TEXT NOT NULL DEFAULT 'dark',
			last_login TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS portfolio_positions (
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			quantity REAL NOT NULL,
			avg_price REAL NOT NULL,
			PRIMARY KEY (user_id, ticker)
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name TEXT NOT NULL,
			label_key TEXT DEFAULT NULL,
			label_value TEXT DEFAULT NULL,
			metric_value REAL NOT NULL,
			PRIMARY KEY (metric_name, label_key, label_value)
		);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Location returns the reference timezone the store was opened with.
func (s *Store) Location() *time.Location {
	return s.loc
}
