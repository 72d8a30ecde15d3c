// Package store provides SQLite-backed history of luatgf scan runs.
// Each run records the scanned file, its line count, the labelled nodes
// and the sorted edges, so a past graph can be re-emitted without the
// source file.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store manages a run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at path, creating parent
// directories as needed. It initializes the schema if the database is new.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, dbPath: path}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Stats returns store statistics.
type Stats struct {
	RunCount  int64
	NodeCount int64
	EdgeCount int64
}

// GetStats returns row counts across all runs.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.RunCount); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&stats.NodeCount); err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&stats.EdgeCount); err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}

	return &stats, nil
}
