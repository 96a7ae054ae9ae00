package bed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/facette/natsort"
	"go.uber.org/zap"
)

// LoadResult holds the records read from one BED source.
type LoadResult struct {
	Records []*Record
	Skipped int // malformed lines that were logged and skipped
}

// Load reads all records from path and sorts them for conversion.
func Load(ctx context.Context, path string, logger *zap.Logger) (*LoadResult, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	res, err := ReadAll(ctx, p, logger)
	if err != nil {
		return nil, err
	}
	Sort(res.Records)
	return res, nil
}

// ReadAll reads every record from the parser. Malformed lines are logged at
// warn level and skipped; any other error aborts the read.
func ReadAll(ctx context.Context, p *Parser, logger *zap.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &LoadResult{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := p.Next()
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				logger.Warn("skipping malformed BED line",
					zap.Int("line", pe.Line),
					zap.String("reason", pe.Message))
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("read bed: %w", err)
		}
		if r == nil {
			break
		}
		res.Records = append(res.Records, r)
	}
	return res, nil
}

// Sort orders records by chromosome in natural order ("chr2" before "chr10"),
// then by transcript start. The sort is stable.
func Sort(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Chrom == b.Chrom {
			return a.TxStart < b.TxStart
		}
		return natsort.Compare(a.Chrom, b.Chrom)
	})
}
