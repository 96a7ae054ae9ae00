package gff

import (
	"fmt"

	"github.com/biogo/biogo/seq"
	"go.uber.org/zap"

	"github.com/inodb/bed2gff/internal/bed"
)

// DefaultSource is the value of the GFF source column.
const DefaultSource = "bed2gff"

// GeneMapper resolves the gene a transcript belongs to.
type GeneMapper interface {
	GeneOf(isoform string) (string, bool)
}

// FeatureWriter defines the interface for writing GFF features.
type FeatureWriter interface {
	WriteHeader() error
	Write(f *Feature) error
	Flush() error
}

// Stats summarizes a conversion run.
type Stats struct {
	Records  int // transcripts converted
	Features int // lines written, preamble excluded
	Genes    int // gene lines written
}

// Converter turns BED12 records into GFF3 features.
type Converter struct {
	genes  GeneMapper
	seen   *GeneSet
	source string
	logger *zap.Logger
}

// NewConverter creates a converter resolving genes through m.
func NewConverter(m GeneMapper) *Converter {
	return &Converter{
		genes:  m,
		seen:   NewGeneSet(),
		source: DefaultSource,
		logger: zap.NewNop(),
	}
}

// SetSource sets the GFF source column.
func (c *Converter) SetSource(source string) {
	c.source = source
}

// SetLogger sets the logger for debug and error messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// ConvertAll converts records in order and writes their features. The first
// fatal error stops the run; lines of the failing record are never written.
func (c *Converter) ConvertAll(records []*bed.Record, w FeatureWriter) (Stats, error) {
	var stats Stats
	for _, rec := range records {
		gene, ok := c.genes.GeneOf(rec.Name)
		if !ok {
			c.logger.Error("isoform not found in isoforms file", zap.String("isoform", rec.Name))
			return stats, &UnmappedIsoformError{Name: rec.Name}
		}

		emitGene := c.seen.Claim(gene)
		lines, err := c.ToGFF(rec, emitGene)
		if err != nil {
			return stats, fmt.Errorf("convert %s: %w", rec.Name, err)
		}

		for i := range lines {
			if err := w.Write(&lines[i]); err != nil {
				return stats, fmt.Errorf("write feature: %w", err)
			}
		}
		stats.Records++
		stats.Features += len(lines)
		if emitGene {
			stats.Genes++
		}
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush features: %w", err)
	}
	return stats, nil
}

// ToGFF builds all features of one transcript, ordered transcript first and
// exons 5'->3'. emitGeneLine prepends the gene line.
func (c *Converter) ToGFF(rec *bed.Record, emitGeneLine bool) ([]Feature, error) {
	gene, ok := c.genes.GeneOf(rec.Name)
	if !ok {
		return nil, &UnmappedIsoformError{Name: rec.Name}
	}

	strand, err := strandSymbol(rec.Strand)
	if err != nil {
		return nil, err
	}

	first := FindFirstCodon(rec)
	last := FindLastCodon(rec)

	// The thick bounds delimit the UTRs; the CDS excludes the stop codon.
	firstUTREnd := rec.CDSStart
	lastUTRStart := rec.CDSEnd
	cdsStart, cdsEnd := rec.CDSStart, rec.CDSEnd

	if rec.Strand == seq.Plus && last.Complete() {
		if cdsEnd, err = MovePos(rec, last.End(), -codonLen); err != nil {
			return nil, err
		}
	}
	if rec.Strand == seq.Minus && first.Complete() {
		if cdsStart, err = MovePos(rec, first.Start(), codonLen); err != nil {
			return nil, err
		}
	}

	b := &lineBuilder{rec: rec, gene: gene, source: c.source, strand: strand}
	if emitGeneLine {
		b.geneLine()
	}
	b.transcriptLine()

	for _, i := range transcriptionOrder(rec) {
		if err := b.childLine(FeatureExon, rec.ExonStarts[i], rec.ExonEnds[i], Phase(-1), i); err != nil {
			return nil, err
		}
		if cdsStart < cdsEnd {
			if err := b.writeFeatures(i, firstUTREnd, cdsStart, cdsEnd, lastUTRStart, rec.ExonFrames[i]); err != nil {
				return nil, err
			}
		}
	}

	startCodon, stopCodon := first, last
	if rec.Strand == seq.Minus {
		startCodon, stopCodon = last, first
	}
	if startCodon.Complete() {
		if err := b.writeCodon(FeatureStartCodon, startCodon); err != nil {
			return nil, err
		}
	}
	if stopCodon.Complete() {
		if err := b.writeCodon(FeatureStopCodon, stopCodon); err != nil {
			return nil, err
		}
	}

	return b.lines, nil
}

// transcriptionOrder returns exon indices 5'->3' along the transcript.
func transcriptionOrder(rec *bed.Record) []int {
	n := rec.ExonCount()
	order := make([]int, n)
	for i := range order {
		if rec.Strand == seq.Minus {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

// writeFeatures splits exon i into its UTR and CDS pieces. Each piece is
// emitted independently, so an exon spanning the whole coding region yields
// UTR, CDS and UTR.
func (b *lineBuilder) writeFeatures(i, firstUTREnd, cdsStart, cdsEnd, lastUTRStart, frame int) error {
	exonStart, exonEnd := b.rec.ExonStarts[i], b.rec.ExonEnds[i]

	lowUTR, highUTR := FeatureFiveUTR, FeatureThreeUTR
	if b.rec.Strand == seq.Minus {
		lowUTR, highUTR = FeatureThreeUTR, FeatureFiveUTR
	}

	if exonStart < firstUTREnd {
		if err := b.childLine(lowUTR, exonStart, min(exonEnd, firstUTREnd), Phase(-1), noOrdinal); err != nil {
			return err
		}
	}

	if cdsStart < exonEnd && exonStart < cdsEnd {
		if err := b.childLine(FeatureCDS, max(exonStart, cdsStart), min(exonEnd, cdsEnd), Phase(frame), i); err != nil {
			return err
		}
	}

	if exonEnd > lastUTRStart {
		if err := b.childLine(highUTR, max(exonStart, lastUTRStart), exonEnd, Phase(-1), noOrdinal); err != nil {
			return err
		}
	}
	return nil
}

// writeCodon emits one line per genomic piece of the codon, all sharing the
// feature type and exon number of the hosting exon.
func (b *lineBuilder) writeCodon(t FeatureType, codon Codon) error {
	for _, r := range codon.Ranges() {
		if err := b.childLine(t, r.Start, r.End, Phase(0), codon.Index); err != nil {
			return err
		}
	}
	return nil
}
