package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run describes one conversion run.
type Run struct {
	ID        int64
	Input     FileFingerprint
	Isoforms  string
	Output    string
	Records   int
	Skipped   int
	Features  int
	Genes     int
	Elapsed   time.Duration
	PeakRSSKB int64
	CreatedAt time.Time
}

// NextRunID returns a run ID used by neither the runs nor the features table.
func (s *Store) NextRunID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT GREATEST(
		COALESCE((SELECT MAX(run_id) FROM runs), 0),
		COALESCE((SELECT MAX(run_id) FROM features), 0)
	) + 1`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next run id: %w", err)
	}
	return id, nil
}

// WriteRun stores the summary of a run.
func (s *Store) WriteRun(ctx context.Context, r *Run) error {
	var mtime any
	if !r.Input.ModTime.IsZero() {
		mtime = r.Input.ModTime.UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
		run_id, input, input_size, input_mtime, isoforms, output,
		records, skipped, features, genes, elapsed_ms, peak_rss_kb, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Input.Path, r.Input.Size, mtime, r.Isoforms, r.Output,
		int64(r.Records), int64(r.Skipped), int64(r.Features), int64(r.Genes),
		r.Elapsed.Milliseconds(), r.PeakRSSKB, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LookupRun returns the run with the given ID, or nil if there is none.
func (s *Store) LookupRun(ctx context.Context, id int64) (*Run, error) {
	var (
		r         Run
		mtime     sql.NullTime
		elapsedMS int64
		records   int64
		skipped   int64
		features  int64
		genes     int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT
		run_id, input, input_size, input_mtime, isoforms, output,
		records, skipped, features, genes, elapsed_ms, peak_rss_kb, created_at
		FROM runs WHERE run_id=?`, id).Scan(
		&r.ID, &r.Input.Path, &r.Input.Size, &mtime, &r.Isoforms, &r.Output,
		&records, &skipped, &features, &genes, &elapsedMS, &r.PeakRSSKB, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	if mtime.Valid {
		r.Input.ModTime = mtime.Time
	}
	r.Records = int(records)
	r.Skipped = int(skipped)
	r.Features = int(features)
	r.Genes = int(genes)
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &r, nil
}
