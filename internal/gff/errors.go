package gff

import (
	"errors"
	"fmt"
)

// Fatal conditions. Any of these aborts the whole conversion.
var (
	ErrUnmappedIsoform = errors.New("isoform not found in isoforms file")
	ErrPosition        = errors.New("invalid position")
	ErrInvalidStrand   = errors.New("invalid strand")
	ErrUnknownFeature  = errors.New("unknown feature type")
)

// UnmappedIsoformError reports a transcript with no gene mapping.
type UnmappedIsoformError struct {
	Name string
}

func (e *UnmappedIsoformError) Error() string {
	return fmt.Sprintf("isoform %s not found in isoforms file", e.Name)
}

func (e *UnmappedIsoformError) Unwrap() error { return ErrUnmappedIsoform }

// PositionError reports a coordinate that cannot be moved along the exons.
type PositionError struct {
	Name   string // transcript
	Pos    int
	Dist   int
	Reason string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: can't move %d by %d: %s", e.Name, e.Pos, e.Dist, e.Reason)
}

func (e *PositionError) Unwrap() error { return ErrPosition }
