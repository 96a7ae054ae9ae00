package output

import (
	"github.com/inodb/bed2gff/internal/gff"
)

// MultiWriter duplicates features to several writers, like io.MultiWriter.
// The first error stops the fan-out.
type MultiWriter struct {
	writers []gff.FeatureWriter
}

// NewMultiWriter creates a writer that writes to all of ws in order.
func NewMultiWriter(ws ...gff.FeatureWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WriteHeader writes the preamble to every writer.
func (m *MultiWriter) WriteHeader() error {
	for _, w := range m.writers {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

// Write writes f to every writer.
func (m *MultiWriter) Write(f *gff.Feature) error {
	for _, w := range m.writers {
		if err := w.Write(f); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer.
func (m *MultiWriter) Flush() error {
	for _, w := range m.writers {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
