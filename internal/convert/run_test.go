package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/bed2gff/internal/duckdb"
	"github.com/inodb/bed2gff/internal/gff"
	"github.com/inodb/bed2gff/internal/output"
	"github.com/inodb/bed2gff/internal/runstats"
)

type fixedObserver runstats.Stats

func (o fixedObserver) Stats() runstats.Stats { return runstats.Stats(o) }

const bedInput = `track name=test
chr10	500	530	ISO3	0	-	500	530	0	1	30	0
chr2	100	130	ISO2	0	+	100	130	0	1	30	0
chr2	90	130	ISO1	0	+	100	130	0	2	5,30	0,10
chr2	oops
`

const isoformInput = `# gene	isoform
GENE_A	ISO1
GENE_A	ISO2
GENE_B	ISO3
`

var header = output.Header{
	Provider: "bed2gff",
	Version:  "0.1.0",
	Contact:  "github.com/alejandrogzi/bed2gff",
	Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
}

func writeInputs(t *testing.T, bedData, isoData string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	bedPath := filepath.Join(dir, "in.bed")
	isoPath := filepath.Join(dir, "iso.tsv")
	require.NoError(t, os.WriteFile(bedPath, []byte(bedData), 0o644))
	require.NoError(t, os.WriteFile(isoPath, []byte(isoData), 0o644))
	return bedPath, isoPath, filepath.Join(dir, "out.gff3")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func columns(line string) []string {
	return strings.Split(line, "\t")
}

func TestRun(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, isoformInput)

	core, logs := observer.New(zapcore.WarnLevel)
	summary, err := Run(context.Background(), Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Header: header,
	}, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.Genes)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, int64(0), summary.RunID)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed BED line").Len())

	lines := readLines(t, outPath)
	require.Greater(t, len(lines), 5)
	assert.Equal(t, header.Lines(), lines[:5])
	assert.Equal(t, summary.Features, len(lines)-5)

	var genes, transcripts []string
	for _, line := range lines[5:] {
		cols := columns(line)
		require.Len(t, cols, 9, line)
		assert.Equal(t, gff.DefaultSource, cols[1])
		switch cols[2] {
		case "gene":
			genes = append(genes, cols[8])
		case "transcript":
			transcripts = append(transcripts, cols[8])
		}
	}

	// chr2 sorts before chr10; ISO1 starts first on chr2.
	require.Len(t, transcripts, 3)
	assert.Contains(t, transcripts[0], "ID=ISO1;")
	assert.Contains(t, transcripts[1], "ID=ISO2;")
	assert.Contains(t, transcripts[2], "ID=ISO3;")

	require.Len(t, genes, 2)
	assert.Equal(t, "ID=GENE_A;gene_id=GENE_A", genes[0])
	assert.Equal(t, "ID=GENE_B;gene_id=GENE_B", genes[1])

	first := columns(lines[5])
	assert.Equal(t, "gene", first[2])
	assert.Equal(t, "91", first[3], "gene line comes from the first transcript in sorted order")
}

func TestRun_UnmappedIsoform(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, "GENE_A\tISO2\nGENE_B\tISO3\n")

	summary, err := Run(context.Background(), Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Header: header,
	}, nil)
	require.ErrorIs(t, err, gff.ErrUnmappedIsoform)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Records)

	assert.Equal(t, header.Lines(), readLines(t, outPath))
}

func TestRun_UnmappedIsoformKeepsEarlierRecords(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, "GENE_A\tISO1\nGENE_A\tISO2\n")

	summary, err := Run(context.Background(), Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Header: header,
	}, nil)
	require.ErrorIs(t, err, gff.ErrUnmappedIsoform)
	assert.Equal(t, 2, summary.Records)

	lines := readLines(t, outPath)
	assert.Len(t, lines, 5+summary.Features)
	for _, line := range lines[5:] {
		assert.NotContains(t, line, "ISO3")
	}
}

func TestRun_SourceAndGzip(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, isoformInput)
	outPath += ".gz"

	_, err := Run(context.Background(), Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Source: "ucsc", Header: header,
	}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2])
}

func TestRun_DuckDBExport(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, isoformInput)
	dbPath := filepath.Join(t.TempDir(), "db", "features.duckdb")
	ctx := context.Background()

	summary, err := Run(ctx, Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, DB: dbPath, Header: header,
		Observer: fixedObserver{Elapsed: 1500 * time.Millisecond, PeakRSSKB: 2048},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.RunID)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	run, err := store.LookupRun(ctx, summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 3, run.Records)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, summary.Features, run.Features)
	assert.Equal(t, bedPath, run.Input.Path)
	assert.Positive(t, run.Input.Size)
	assert.Equal(t, 1500*time.Millisecond, run.Elapsed)
	assert.Equal(t, int64(2048), run.PeakRSSKB)

	counts, err := store.CountFeatures(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["gene"])
	assert.Equal(t, 3, counts["transcript"])

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, summary.Features, total)

	rows, err := store.FeaturesByTranscript(ctx, "ISO3")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "transcript", rows[0].Type)
	assert.Equal(t, "-", rows[0].Strand)
}

func TestRun_DuckDBFailedRunLeavesNoRows(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, "GENE_A\tISO1\nGENE_A\tISO2\n")
	dbPath := filepath.Join(t.TempDir(), "features.duckdb")
	ctx := context.Background()

	failed, err := Run(ctx, Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, DB: dbPath, Header: header,
	}, nil)
	require.ErrorIs(t, err, gff.ErrUnmappedIsoform)
	require.Equal(t, int64(1), failed.RunID)
	require.Positive(t, failed.Features, "records before the failure were written")

	require.NoError(t, os.WriteFile(isoPath, []byte(isoformInput), 0o644))
	ok, err := Run(ctx, Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, DB: dbPath, Header: header,
	}, nil)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	stale, err := store.CountFeatures(ctx, failed.RunID)
	require.NoError(t, err)
	assert.Empty(t, stale)

	run, err := store.LookupRun(ctx, ok.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)

	counts, err := store.CountFeatures(ctx, ok.RunID)
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, run.Features, total)

	rows, err := store.FeaturesByTranscript(ctx, "ISO1")
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, ok.RunID, r.RunID)
	}
}

func TestRun_MissingIsoforms(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, isoformInput)
	require.NoError(t, os.Remove(isoPath))

	_, err := Run(context.Background(), Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Header: header,
	}, nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(outPath)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "no output is created when inputs fail to load")
}

func TestRun_Canceled(t *testing.T) {
	bedPath, isoPath, outPath := writeInputs(t, bedInput, isoformInput)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{
		BED: bedPath, Isoforms: isoPath, Output: outPath, Header: header,
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
