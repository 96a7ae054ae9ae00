// Package duckdb exports converted features and run metadata to DuckDB so
// that annotations can be queried with SQL after a conversion.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for feature export.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS features (
		run_id BIGINT,
		chrom VARCHAR,
		source VARCHAR,
		feature_type VARCHAR,
		"start" BIGINT,
		"end" BIGINT,
		strand VARCHAR,
		phase VARCHAR,
		transcript_id VARCHAR,
		gene_id VARCHAR,
		attributes VARCHAR
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id BIGINT PRIMARY KEY,
		input VARCHAR,
		input_size BIGINT,
		input_mtime TIMESTAMP,
		isoforms VARCHAR,
		output VARCHAR,
		records BIGINT,
		skipped BIGINT,
		features BIGINT,
		genes BIGINT,
		elapsed_ms BIGINT,
		peak_rss_kb BIGINT,
		created_at TIMESTAMP
	)`)
	return err
}
