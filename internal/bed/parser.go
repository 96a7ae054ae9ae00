package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
	"github.com/klauspost/compress/gzip"
)

// bed12Columns is the minimum number of columns of a BED12 line.
const bed12Columns = 12

// Parser reads transcripts from a BED12 file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a new BED parser for the given file.
// Supports both plain and gzipped (.bed.gz) files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read bed file: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek bed file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return &Parser{reader: bufio.NewReader(r)}, nil
}

// Next reads the next record.
// Returns nil, nil when there are no more records. A malformed line yields a
// *ParseError; the parser stays usable and the next call continues after it.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read bed line: %w", err)
		}
		if err == io.EOF && line == "" {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if isSkippable(line) {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		return ParseLine(line, p.lineNumber)
	}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and releases resources.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// isSkippable reports blank, comment, track and browser lines.
func isSkippable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// ParseLine parses a single BED12 line into a Record.
// lineNumber is only used for error reporting.
func ParseLine(line string, lineNumber int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < bed12Columns {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", bed12Columns, len(fields)),
		}
	}

	ints := make(map[string]int, 5)
	for _, col := range []struct {
		name string
		idx  int
	}{
		{"chromStart", 1},
		{"chromEnd", 2},
		{"thickStart", 6},
		{"thickEnd", 7},
		{"blockCount", 9},
	} {
		v, err := strconv.Atoi(strings.TrimSpace(fields[col.idx]))
		if err != nil {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("invalid %s: %q", col.name, fields[col.idx]),
			}
		}
		ints[col.name] = v
	}

	strand, err := parseStrand(fields[5])
	if err != nil {
		return nil, &ParseError{Line: lineNumber, Message: err.Error()}
	}

	r := &Record{
		Chrom:    fields[0],
		Name:     fields[3],
		Strand:   strand,
		TxStart:  ints["chromStart"],
		TxEnd:    ints["chromEnd"],
		CDSStart: ints["thickStart"],
		CDSEnd:   ints["thickEnd"],
	}

	if r.Chrom == "" || r.Name == "" {
		return nil, &ParseError{Line: lineNumber, Message: "empty chrom or name"}
	}
	if r.TxStart < 0 || r.TxStart >= r.TxEnd {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid transcript span [%d, %d)", r.TxStart, r.TxEnd),
		}
	}
	if r.CDSStart > r.CDSEnd {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid thick span [%d, %d)", r.CDSStart, r.CDSEnd),
		}
	}
	// An empty thick span only marks the record as non-coding; its position
	// is irrelevant.
	if r.CDSStart < r.CDSEnd && (r.CDSStart < r.TxStart || r.CDSEnd > r.TxEnd) {
		return nil, &ParseError{
			Line: lineNumber,
			Message: fmt.Sprintf("thick span [%d, %d) outside transcript span [%d, %d)",
				r.CDSStart, r.CDSEnd, r.TxStart, r.TxEnd),
		}
	}

	sizes, err := parseIntList(fields[10])
	if err != nil {
		return nil, &ParseError{Line: lineNumber, Message: fmt.Sprintf("invalid blockSizes: %v", err)}
	}
	starts, err := parseIntList(fields[11])
	if err != nil {
		return nil, &ParseError{Line: lineNumber, Message: fmt.Sprintf("invalid blockStarts: %v", err)}
	}

	count := ints["blockCount"]
	if count < 1 || len(sizes) != count || len(starts) != count {
		return nil, &ParseError{
			Line: lineNumber,
			Message: fmt.Sprintf("blockCount %d does not match %d sizes and %d starts",
				count, len(sizes), len(starts)),
		}
	}

	r.ExonStarts = make([]int, count)
	r.ExonEnds = make([]int, count)
	for i := 0; i < count; i++ {
		start := r.TxStart + starts[i]
		end := start + sizes[i]
		if sizes[i] <= 0 || starts[i] < 0 || end > r.TxEnd {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("block %d [%d, %d) outside transcript span", i+1, start, end),
			}
		}
		if i > 0 && start < r.ExonEnds[i-1] {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("block %d overlaps or precedes block %d", i+1, i),
			}
		}
		r.ExonStarts[i] = start
		r.ExonEnds[i] = end
	}
	if starts[0] != 0 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("first block starts at offset %d, want 0", starts[0]),
		}
	}
	if r.ExonEnds[count-1] != r.TxEnd {
		return nil, &ParseError{
			Line: lineNumber,
			Message: fmt.Sprintf("last block ends at %d, want chromEnd %d",
				r.ExonEnds[count-1], r.TxEnd),
		}
	}

	r.computeFrames()

	// A thick span touching no block carries no coding information.
	coding := false
	for _, f := range r.ExonFrames {
		if f >= 0 {
			coding = true
			break
		}
	}
	if !coding {
		r.CDSEnd = r.CDSStart
	}

	return r, nil
}

// parseStrand converts a BED strand column to a seq.Strand.
func parseStrand(s string) (seq.Strand, error) {
	switch strings.TrimSpace(s) {
	case "+":
		return seq.Plus, nil
	case "-":
		return seq.Minus, nil
	case ".":
		return seq.None, nil
	}
	return seq.None, fmt.Errorf("invalid strand: %q", s)
}

// parseIntList parses a comma-separated list, tolerating a trailing comma.
func parseIntList(s string) ([]int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ",")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	result := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// ParseError represents a malformed BED line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bed parse error at line %d: %s", e.Line, e.Message)
}
