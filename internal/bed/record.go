// Package bed provides BED12 transcript parsing functionality.
package bed

import (
	"github.com/biogo/biogo/seq"
)

// Record represents one transcript parsed from a BED12 line.
// Coordinates are 0-based, half-open.
type Record struct {
	Chrom      string     // Chromosome
	Name       string     // Transcript ID
	Strand     seq.Strand // seq.Plus, seq.Minus or seq.None
	TxStart    int        // Transcript start
	TxEnd      int        // Transcript end (exclusive)
	CDSStart   int        // Thick start
	CDSEnd     int        // Thick end (exclusive), equals CDSStart if non-coding
	ExonStarts []int      // Absolute exon starts, ascending
	ExonEnds   []int      // Absolute exon ends (exclusive), ascending
	ExonFrames []int      // Reading frame per exon, -1 if non-coding
}

// ExonCount returns the number of exons.
func (r *Record) ExonCount() int {
	return len(r.ExonStarts)
}

// IsCoding returns true if the record has a non-empty coding span.
func (r *Record) IsCoding() bool {
	return r.CDSStart < r.CDSEnd
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (r *Record) IsForwardStrand() bool {
	return r.Strand == seq.Plus
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (r *Record) IsReverseStrand() bool {
	return r.Strand == seq.Minus
}

// CodingOverlap returns the part of exon i inside the thick interval.
// The result is empty (start >= end) when the exon is non-coding.
func (r *Record) CodingOverlap(i int) (start, end int) {
	return max(r.ExonStarts[i], r.CDSStart), min(r.ExonEnds[i], r.CDSEnd)
}

// InExon reports whether pos lies in the closed interval [start, end] of exon i.
func (r *Record) InExon(pos, i int) bool {
	return r.ExonStarts[i] <= pos && pos <= r.ExonEnds[i]
}

// FindExon returns the index of the first exon whose closed interval holds pos,
// or -1 if pos is intronic or outside the transcript.
func (r *Record) FindExon(pos int) int {
	for i := range r.ExonStarts {
		if r.InExon(pos, i) {
			return i
		}
	}
	return -1
}

// computeFrames sets ExonFrames following the genePred convention: the number
// of coding bases preceding the exon in transcription order, modulo 3.
func (r *Record) computeFrames() {
	n := r.ExonCount()
	r.ExonFrames = make([]int, n)
	for i := range r.ExonFrames {
		r.ExonFrames[i] = -1
	}
	if !r.IsCoding() {
		return
	}

	cdsBases := 0
	visit := func(i int) {
		start, end := r.CodingOverlap(i)
		if start >= end {
			return
		}
		r.ExonFrames[i] = cdsBases % 3
		cdsBases += end - start
	}

	if r.Strand == seq.Minus {
		for i := n - 1; i >= 0; i-- {
			visit(i)
		}
		return
	}
	for i := 0; i < n; i++ {
		visit(i)
	}
}
