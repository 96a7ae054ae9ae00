// Package convert runs a complete BED12 to GFF3 conversion.
package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/bed2gff/internal/bed"
	"github.com/inodb/bed2gff/internal/duckdb"
	"github.com/inodb/bed2gff/internal/gff"
	"github.com/inodb/bed2gff/internal/isoform"
	"github.com/inodb/bed2gff/internal/output"
	"github.com/inodb/bed2gff/internal/runstats"
)

// Options configures a conversion run.
type Options struct {
	BED      string // BED12 input, "-" for stdin
	Isoforms string // gene<TAB>isoform table
	Output   string // GFF3 output, "-" for stdout, ".gz" to compress
	DB       string // optional DuckDB export path
	Source   string // GFF source column, gff.DefaultSource when empty
	Header   output.Header

	// Observer measures the run; a fresh runstats.Recorder when nil.
	Observer runstats.Observer
}

// Summary describes a finished run.
type Summary struct {
	gff.Stats
	Skipped int
	RunID   int64 // 0 without DuckDB export
	Usage   runstats.Stats
}

// Run loads the inputs concurrently, then converts every record and writes
// the result. Lines written before a fatal error are kept.
func Run(ctx context.Context, opts Options, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = runstats.Start()
	}

	var (
		loaded  *bed.LoadResult
		mapping isoform.Mapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loaded, err = bed.Load(gctx, opts.BED, logger)
		return err
	})
	g.Go(func() error {
		var err error
		mapping, err = isoform.Load(gctx, opts.Isoforms)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	logger.Debug("inputs loaded",
		zap.Int("records", len(loaded.Records)),
		zap.Int("skipped", loaded.Skipped),
		zap.Int("isoforms", len(mapping)))

	out, err := output.Create(opts.Output)
	if err != nil {
		return nil, err
	}

	var store *duckdb.Store
	if opts.DB != "" {
		if store, err = duckdb.Open(opts.DB); err != nil {
			out.Close()
			return nil, err
		}
		defer store.Close()
	}

	summary := &Summary{Skipped: loaded.Skipped}
	runErr := convert(ctx, opts, logger, loaded.Records, mapping, out, store, summary)
	if cerr := out.Close(); cerr != nil && runErr == nil {
		runErr = cerr
	}
	summary.Usage = observer.Stats()
	if runErr != nil {
		return summary, runErr
	}

	if store != nil {
		if err := recordRun(ctx, store, opts, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func convert(ctx context.Context, opts Options, logger *zap.Logger, records []*bed.Record, mapping isoform.Mapping, out *output.File, store *duckdb.Store, summary *Summary) (err error) {
	gw := output.NewGFFWriter(out, opts.Header)
	var w gff.FeatureWriter = gw

	var sink *duckdb.FeatureSink
	if store != nil {
		if summary.RunID, err = store.NextRunID(ctx); err != nil {
			return err
		}
		if sink, err = store.NewFeatureSink(ctx, summary.RunID); err != nil {
			return err
		}
		defer func() {
			if cerr := sink.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = output.NewMultiWriter(gw, sink)
	}

	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	conv := gff.NewConverter(mapping)
	if opts.Source != "" {
		conv.SetSource(opts.Source)
	}
	conv.SetLogger(logger)

	stats, convErr := conv.ConvertAll(records, w)
	summary.Stats = stats
	if convErr != nil {
		// The GFF file keeps what was written before the failing record; the
		// database only holds complete runs.
		if err := gw.Flush(); err != nil {
			logger.Warn("flush after failed conversion", zap.Error(err))
		}
		if sink != nil {
			err := errors.Join(sink.Close(), store.DeleteRunFeatures(ctx, summary.RunID))
			if err != nil {
				logger.Warn("discard features of failed run", zap.Int64("run_id", summary.RunID), zap.Error(err))
			}
		}
		return convErr
	}
	return nil
}

func recordRun(ctx context.Context, store *duckdb.Store, opts Options, summary *Summary) error {
	fp, err := duckdb.StatFile(opts.BED)
	if err != nil {
		return fmt.Errorf("stat bed file: %w", err)
	}

	return store.WriteRun(ctx, &duckdb.Run{
		ID:        summary.RunID,
		Input:     fp,
		Isoforms:  opts.Isoforms,
		Output:    opts.Output,
		Records:   summary.Records,
		Skipped:   summary.Skipped,
		Features:  summary.Features,
		Genes:     summary.Genes,
		Elapsed:   summary.Usage.Elapsed,
		PeakRSSKB: summary.Usage.PeakRSSKB,
		CreatedAt: time.Now(),
	})
}
