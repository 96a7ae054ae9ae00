package gff

import (
	"github.com/inodb/bed2gff/internal/bed"
)

// MovePos moves pos by dist transcribed bases, forward for a positive dist
// and backward for a negative one. Introns are skipped: leaving an exon snaps
// to the start of the next exon (or the end of the previous one) without
// consuming a step. pos must lie within an exon, boundaries included.
//
// The end of an exon and the start of the next one denote the same
// transcript coordinate; a forward move ending there reports the exon start,
// so that moving back by the same distance returns the original position.
func MovePos(rec *bed.Record, pos, dist int) (int, error) {
	if pos < rec.TxStart || pos > rec.TxEnd {
		return 0, &PositionError{Name: rec.Name, Pos: pos, Dist: dist, Reason: "outside transcript"}
	}

	exon := rec.FindExon(pos)
	if exon < 0 {
		return 0, &PositionError{Name: rec.Name, Pos: pos, Dist: dist, Reason: "not in exons"}
	}

	steps := dist
	direction := 1
	if dist < 0 {
		steps = -dist
		direction = -1
	}

	cur := pos
	for steps > 0 {
		if rec.InExon(cur+direction, exon) {
			cur += direction
			steps--
			continue
		}

		exon += direction
		if exon < 0 || exon >= rec.ExonCount() {
			return 0, &PositionError{Name: rec.Name, Pos: pos, Dist: dist, Reason: "ran out of exons"}
		}
		if direction > 0 {
			cur = rec.ExonStarts[exon]
		} else {
			cur = rec.ExonEnds[exon]
		}
	}

	if direction > 0 && dist != 0 && exon+1 < rec.ExonCount() && cur == rec.ExonEnds[exon] {
		cur = rec.ExonStarts[exon+1]
	}
	return cur, nil
}
