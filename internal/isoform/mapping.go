// Package isoform loads the isoform to gene table used to name the gene of
// each converted transcript.
package isoform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Mapping maps isoform (transcript) name -> gene name.
type Mapping map[string]string

// GeneOf returns the gene of the given isoform.
func (m Mapping) GeneOf(isoform string) (string, bool) {
	g, ok := m[isoform]
	return g, ok
}

// LineError reports a malformed line of the isoform table.
type LineError struct {
	Line    int
	Message string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("isoform table error at line %d: %s", e.Line, e.Message)
}

// Load reads a two-column TSV file (gene, isoform). Plain and gzipped files
// are accepted.
func Load(ctx context.Context, path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open isoforms file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Parse(ctx, r)
}

// Parse reads the mapping from r. Blank lines and lines starting with '#'
// are skipped. When an isoform is listed twice the later gene wins.
func Parse(ctx context.Context, r io.Reader) (Mapping, error) {
	m := make(Mapping)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if lineNumber%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, &LineError{Line: lineNumber, Message: fmt.Sprintf("expected 2 columns, got %d", len(fields))}
		}

		gene := strings.TrimSpace(fields[0])
		isoform := strings.TrimSpace(fields[1])
		if gene == "" || isoform == "" {
			return nil, &LineError{Line: lineNumber, Message: "empty gene or isoform"}
		}
		m[isoform] = gene
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan isoforms file: %w", err)
	}
	return m, ctx.Err()
}
