package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// File is an output destination opened by Create.
type File struct {
	io.Writer
	file *os.File
	gz   *gzip.Writer
}

// Create opens path for writing. "-" writes to stdout; a ".gz" suffix
// compresses the output.
func Create(path string) (*File, error) {
	if path == "-" {
		return &File{Writer: os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	out := &File{Writer: f, file: f}
	if strings.HasSuffix(path, ".gz") {
		out.gz = gzip.NewWriter(f)
		out.Writer = out.gz
	}
	return out, nil
}

// Close finishes the gzip stream, if any, and closes the file. Stdout is
// left open.
func (o *File) Close() error {
	var err error
	if o.gz != nil {
		if cerr := o.gz.Close(); cerr != nil {
			err = fmt.Errorf("close gzip stream: %w", cerr)
		}
	}
	if o.file != nil {
		if cerr := o.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}
	return err
}
