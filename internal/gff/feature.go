package gff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"

	"github.com/inodb/bed2gff/internal/bed"
)

// FeatureType is the third column of a GFF line.
type FeatureType string

// Feature types emitted by the converter.
const (
	FeatureGene       FeatureType = "gene"
	FeatureTranscript FeatureType = "transcript"
	FeatureExon       FeatureType = "exon"
	FeatureCDS        FeatureType = "CDS"
	FeatureFiveUTR    FeatureType = "five_prime_utr"
	FeatureThreeUTR   FeatureType = "three_prime_utr"
	FeatureStartCodon FeatureType = "start_codon"
	FeatureStopCodon  FeatureType = "stop_codon"
)

// idPrefix returns the prefix used to build the ID attribute of a feature.
func (t FeatureType) idPrefix() (string, error) {
	switch t {
	case FeatureExon, FeatureCDS, FeatureStartCodon, FeatureStopCodon:
		return string(t), nil
	case FeatureFiveUTR:
		return "UTR5", nil
	case FeatureThreeUTR:
		return "UTR3", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeature, string(t))
}

// noOrdinal marks features that carry no exon number (UTRs).
const noOrdinal = -1

// Attribute is a single key=value pair of the ninth GFF column.
type Attribute struct {
	Key   string
	Value string
}

// Feature is one GFF line. Start and End are 0-based, half-open; Line
// converts them to the 1-based inclusive form used on disk.
type Feature struct {
	Chrom      string
	Source     string
	Type       FeatureType
	Start      int
	End        int
	Strand     string
	Phase      string
	Attributes []Attribute
}

// Attr returns the value of the named attribute, or "" if absent.
func (f *Feature) Attr(key string) string {
	for _, a := range f.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// AttributeString renders the attribute column.
func (f *Feature) AttributeString() string {
	parts := make([]string, len(f.Attributes))
	for i, a := range f.Attributes {
		parts[i] = a.Key + "=" + a.Value
	}
	return strings.Join(parts, ";")
}

// Line renders the feature as a tab-separated GFF line without newline.
func (f *Feature) Line() string {
	return strings.Join([]string{
		f.Chrom,
		f.Source,
		string(f.Type),
		strconv.Itoa(f.Start + 1),
		strconv.Itoa(f.End),
		".",
		f.Strand,
		f.Phase,
		f.AttributeString(),
	}, "\t")
}

// Phase converts a reading frame to the GFF phase column.
func Phase(frame int) string {
	switch {
	case frame < 0:
		return "."
	case frame == 0:
		return "0"
	case frame == 1:
		return "2"
	}
	return "1"
}

// strandSymbol returns the strand column, rejecting anything but + and -.
func strandSymbol(s seq.Strand) (string, error) {
	switch s {
	case seq.Plus:
		return "+", nil
	case seq.Minus:
		return "-", nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidStrand, int(s))
}

// exonOrdinal numbers exons 5'->3' along the transcript.
func exonOrdinal(rec *bed.Record, index int) int {
	if rec.Strand == seq.Minus {
		return rec.ExonCount() - index
	}
	return index + 1
}

// lineBuilder builds the lines of one transcript.
type lineBuilder struct {
	rec    *bed.Record
	gene   string
	source string
	strand string
	lines  []Feature
}

func (b *lineBuilder) add(t FeatureType, start, end int, phase string, attrs []Attribute) {
	b.lines = append(b.lines, Feature{
		Chrom:      b.rec.Chrom,
		Source:     b.source,
		Type:       t,
		Start:      start,
		End:        end,
		Strand:     b.strand,
		Phase:      phase,
		Attributes: attrs,
	})
}

func (b *lineBuilder) geneLine() {
	b.add(FeatureGene, b.rec.TxStart, b.rec.TxEnd, Phase(-1), []Attribute{
		{"ID", b.gene},
		{"gene_id", b.gene},
	})
}

func (b *lineBuilder) transcriptLine() {
	b.add(FeatureTranscript, b.rec.TxStart, b.rec.TxEnd, Phase(-1), []Attribute{
		{"ID", b.rec.Name},
		{"Parent", b.gene},
		{"gene_id", b.gene},
		{"transcript_id", b.rec.Name},
	})
}

// childLine adds an exon-level feature. exon is the record index of the
// hosting exon, or noOrdinal for features without an exon number.
func (b *lineBuilder) childLine(t FeatureType, start, end int, phase string, exon int) error {
	prefix, err := t.idPrefix()
	if err != nil {
		return err
	}

	name := b.rec.Name
	if exon == noOrdinal {
		b.add(t, start, end, phase, []Attribute{
			{"ID", prefix + ":" + name},
			{"Parent", name},
			{"gene_id", b.gene},
			{"transcript_id", name},
		})
		return nil
	}

	n := strconv.Itoa(exonOrdinal(b.rec, exon))
	b.add(t, start, end, phase, []Attribute{
		{"ID", prefix + ":" + name + "." + n},
		{"Parent", name},
		{"gene_id", b.gene},
		{"transcript_id", name},
		{"exon_number", n},
	})
	return nil
}
