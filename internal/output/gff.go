// Package output provides GFF3 output writers.
package output

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/inodb/bed2gff/internal/gff"
)

// Header holds the values written to the preamble of a GFF3 file.
type Header struct {
	Provider string
	Version  string
	Contact  string
	Date     time.Time
}

// Lines returns the preamble lines, without newlines.
func (h Header) Lines() []string {
	y, m, d := h.Date.Date()
	return []string{
		"##gff-version 3",
		"#provider: " + h.Provider,
		"#version: " + h.Version,
		"#contact: " + h.Contact,
		fmt.Sprintf("#date: %d-%d-%d", y, int(m), d),
	}
}

// GFFWriter writes features as GFF3 lines.
type GFFWriter struct {
	w      *bufio.Writer
	header Header
	lines  int
}

// NewGFFWriter creates a new GFF3 writer.
func NewGFFWriter(w io.Writer, header Header) *GFFWriter {
	return &GFFWriter{
		w:      bufio.NewWriter(w),
		header: header,
	}
}

// WriteHeader writes the preamble.
func (gw *GFFWriter) WriteHeader() error {
	for _, line := range gw.header.Lines() {
		if _, err := gw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes a single feature line.
func (gw *GFFWriter) Write(f *gff.Feature) error {
	if _, err := gw.w.WriteString(f.Line() + "\n"); err != nil {
		return err
	}
	gw.lines++
	return nil
}

// Lines returns the number of feature lines written.
func (gw *GFFWriter) Lines() int {
	return gw.lines
}

// Flush flushes any buffered data to the underlying writer.
func (gw *GFFWriter) Flush() error {
	return gw.w.Flush()
}
