package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/bed2gff/internal/gff"
)

// FeatureSink appends features of one run to the features table using the
// Appender API. It implements gff.FeatureWriter; rows become visible on Flush.
type FeatureSink struct {
	conn     *sql.Conn
	appender *goduckdb.Appender
	runID    int64
	rows     int
}

// NewFeatureSink opens an appender on the features table for runID.
func (s *Store) NewFeatureSink(ctx context.Context, runID int64) (*FeatureSink, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "features")
		return err
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create appender: %w", err)
	}

	return &FeatureSink{conn: conn, appender: appender, runID: runID}, nil
}

// WriteHeader is a no-op; the preamble is not stored.
func (fs *FeatureSink) WriteHeader() error {
	return nil
}

// Write appends one feature row.
func (fs *FeatureSink) Write(f *gff.Feature) error {
	if err := fs.appender.AppendRow(
		fs.runID, f.Chrom, f.Source, string(f.Type),
		int64(f.Start+1), int64(f.End),
		f.Strand, f.Phase,
		f.Attr("transcript_id"), f.Attr("gene_id"),
		f.AttributeString(),
	); err != nil {
		return fmt.Errorf("append feature: %w", err)
	}
	fs.rows++
	return nil
}

// Rows returns the number of rows appended so far.
func (fs *FeatureSink) Rows() int {
	return fs.rows
}

// Flush writes buffered rows to the table.
func (fs *FeatureSink) Flush() error {
	if err := fs.appender.Flush(); err != nil {
		return fmt.Errorf("flush features: %w", err)
	}
	return nil
}

// Close flushes remaining rows and releases the connection. Closing twice
// is a no-op.
func (fs *FeatureSink) Close() error {
	if fs.appender == nil {
		return nil
	}
	err := fs.appender.Close()
	if cerr := fs.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	fs.appender, fs.conn = nil, nil
	if err != nil {
		return fmt.Errorf("close feature sink: %w", err)
	}
	return nil
}

// DeleteRunFeatures removes every feature row of a run.
func (s *Store) DeleteRunFeatures(ctx context.Context, runID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM features WHERE run_id=?`, runID); err != nil {
		return fmt.Errorf("delete run features: %w", err)
	}
	return nil
}

// FeatureRow is a stored feature.
type FeatureRow struct {
	RunID        int64
	Chrom        string
	Source       string
	Type         string
	Start        int64 // 1-based, inclusive
	End          int64
	Strand       string
	Phase        string
	TranscriptID string
	GeneID       string
	Attributes   string
}

// FeaturesByTranscript returns the stored features of a transcript in
// insertion order.
func (s *Store) FeaturesByTranscript(ctx context.Context, transcriptID string) ([]FeatureRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, chrom, source, feature_type, "start", "end",
		strand, phase, transcript_id, gene_id, attributes
		FROM features
		WHERE transcript_id=?
		ORDER BY rowid`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var out []FeatureRow
	for rows.Next() {
		var r FeatureRow
		if err := rows.Scan(
			&r.RunID, &r.Chrom, &r.Source, &r.Type, &r.Start, &r.End,
			&r.Strand, &r.Phase, &r.TranscriptID, &r.GeneID, &r.Attributes,
		); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return out, nil
}

// CountFeatures returns the number of feature rows per type for a run.
func (s *Store) CountFeatures(ctx context.Context, runID int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT feature_type, COUNT(*)
		FROM features
		WHERE run_id=?
		GROUP BY feature_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("count features: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ft string
		var n int64
		if err := rows.Scan(&ft, &n); err != nil {
			return nil, fmt.Errorf("scan feature count: %w", err)
		}
		counts[ft] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature counts: %w", err)
	}
	return counts, nil
}
