// Package gff derives GFF3 features (genes, transcripts, exons, CDS, UTRs and
// start/stop codons) from BED12 transcript records.
package gff

import (
	"github.com/biogo/biogo/seq"

	"github.com/inodb/bed2gff/internal/bed"
)

// codonLen is the number of bases in a codon.
const codonLen = 3

// Range is a half-open genomic interval.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bases in the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// CodonKind tells how a codon is laid out on the genome.
type CodonKind int

const (
	CodonEmpty  CodonKind = iota // no codon could be located
	CodonSingle                  // bases in one exon
	CodonSplit                   // bases split across two exons by an intron
)

// Codon is an initiation or termination codon located on a transcript.
// First always lies in the exon at Index; Second is only set for CodonSplit.
type Codon struct {
	Kind   CodonKind
	First  Range
	Second Range
	Index  int // exon hosting First, -1 if empty
}

func emptyCodon() Codon {
	return Codon{Kind: CodonEmpty, Index: -1}
}

// Len returns the number of located bases.
func (c Codon) Len() int {
	switch c.Kind {
	case CodonSingle:
		return c.First.Len()
	case CodonSplit:
		return c.First.Len() + c.Second.Len()
	}
	return 0
}

// Complete reports whether all three bases of the codon were located.
func (c Codon) Complete() bool {
	return c.Len() == codonLen
}

// Ranges returns the genomic pieces of the codon in ascending order.
func (c Codon) Ranges() []Range {
	switch c.Kind {
	case CodonSingle:
		return []Range{c.First}
	case CodonSplit:
		if c.Second.Start < c.First.Start {
			return []Range{c.Second, c.First}
		}
		return []Range{c.First, c.Second}
	}
	return nil
}

// Start returns the lowest genomic coordinate of the codon.
func (c Codon) Start() int {
	if c.Kind == CodonSplit {
		return min(c.First.Start, c.Second.Start)
	}
	return c.First.Start
}

// End returns the highest genomic coordinate (exclusive) of the codon.
func (c Codon) End() int {
	if c.Kind == CodonSplit {
		return max(c.First.End, c.Second.End)
	}
	return c.First.End
}

// frameOrigin returns the exon at the origin of a scan (lowest or highest
// index) when it carries a reading frame. A non-coding exon met before any
// coding one means no frame is established, reported as ok == false.
func frameOrigin(rec *bed.Record, fromEnd bool) (exon int, ok bool) {
	n := rec.ExonCount()
	if n == 0 {
		return 0, false
	}
	exon = 0
	if fromEnd {
		exon = n - 1
	}
	if rec.ExonFrames[exon] < 0 {
		return 0, false
	}
	return exon, true
}

// inFrame applies the phase rule: the raw frame when rawFrame is set,
// otherwise the frame advanced over the exon's coding bases.
func inFrame(rec *bed.Record, exon int, rawFrame bool) bool {
	frame := rec.ExonFrames[exon]
	if !rawFrame {
		start, end := rec.CodingOverlap(exon)
		frame = (frame + max(end-start, 0)) % codonLen
	}
	return frame == 0
}

// FindFirstCodon locates the codon at the low-coordinate end of the coding
// span: the start codon on the forward strand, the stop codon on the reverse
// strand. It returns an empty codon if the span does not begin in frame.
func FindFirstCodon(rec *bed.Record) Codon {
	exon, ok := frameOrigin(rec, false)
	if !ok {
		return emptyCodon()
	}
	if !inFrame(rec, exon, rec.Strand != seq.Minus) {
		return emptyCodon()
	}

	overlapStart, overlapEnd := rec.CodingOverlap(exon)
	if overlapEnd <= overlapStart {
		return emptyCodon()
	}

	codon := Codon{
		Kind:  CodonSingle,
		First: Range{Start: overlapStart, End: min(overlapStart+codonLen, overlapEnd)},
		Index: exon,
	}
	if codon.First.Len() == codonLen {
		return codon
	}

	next := exon + 1
	if next >= rec.ExonCount() {
		return codon
	}
	need := codonLen - codon.First.Len()
	start, end := rec.CodingOverlap(next)
	if end-start < need {
		return codon
	}
	codon.Kind = CodonSplit
	codon.Second = Range{Start: start, End: start + need}
	return codon
}

// FindLastCodon locates the codon at the high-coordinate end of the coding
// span: the stop codon on the forward strand, the start codon on the reverse
// strand. It returns an empty codon if the span does not end in frame.
func FindLastCodon(rec *bed.Record) Codon {
	exon, ok := frameOrigin(rec, true)
	if !ok {
		return emptyCodon()
	}
	if !inFrame(rec, exon, rec.Strand == seq.Minus) {
		return emptyCodon()
	}

	overlapStart, overlapEnd := rec.CodingOverlap(exon)
	if overlapEnd <= overlapStart {
		return emptyCodon()
	}

	codon := Codon{
		Kind:  CodonSingle,
		First: Range{Start: max(overlapEnd-codonLen, overlapStart), End: overlapEnd},
		Index: exon,
	}
	if codon.First.Len() == codonLen {
		return codon
	}

	prev := exon - 1
	if prev < 0 {
		return codon
	}
	need := codonLen - codon.First.Len()
	start, end := rec.CodingOverlap(prev)
	if end-start < need {
		return codon
	}
	codon.Kind = CodonSplit
	codon.Second = Range{Start: end - need, End: end}
	return codon
}
