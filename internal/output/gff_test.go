package output

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/bed2gff/internal/gff"
)

var testHeader = Header{
	Provider: "bed2gff",
	Version:  "0.1.0",
	Contact:  "github.com/alejandrogzi/bed2gff",
	Date:     time.Date(2024, time.March, 5, 13, 0, 0, 0, time.UTC),
}

func exonFeature() *gff.Feature {
	return &gff.Feature{
		Chrom:  "chr1",
		Source: "bed2gff",
		Type:   gff.FeatureExon,
		Start:  99,
		End:    200,
		Strand: "-",
		Phase:  ".",
		Attributes: []gff.Attribute{
			{Key: "ID", Value: "exon:TX.1"},
			{Key: "Parent", Value: "TX"},
			{Key: "exon_number", Value: "1"},
		},
	}
}

func TestHeader_Lines(t *testing.T) {
	assert.Equal(t, []string{
		"##gff-version 3",
		"#provider: bed2gff",
		"#version: 0.1.0",
		"#contact: github.com/alejandrogzi/bed2gff",
		"#date: 2024-3-5",
	}, testHeader.Lines())
}

func TestGFFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewGFFWriter(&buf, testHeader)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(exonFeature()))
	assert.Empty(t, buf.String(), "output is buffered until Flush")
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "##gff-version 3", lines[0])
	assert.Equal(t, "chr1\tbed2gff\texon\t100\t200\t.\t-\t.\tID=exon:TX.1;Parent=TX;exon_number=1", lines[5])
	assert.Equal(t, 1, w.Lines())
}

func TestCreate_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gff3.gz")

	f, err := Create(path)
	require.NoError(t, err)
	w := NewGFFWriter(f, testHeader)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(exonFeature()))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	raw, err := os.Open(path)
	require.NoError(t, err)
	defer raw.Close()
	gz, err := gzip.NewReader(raw)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "##gff-version 3\n"))
	assert.Contains(t, string(data), "\texon\t100\t200\t")
}

func TestCreate_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gff3")

	f, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(f, "x\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestCreate_BadDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.gff3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type failWriter struct{ calls int }

func (f *failWriter) WriteHeader() error { f.calls++; return errors.New("header failed") }
func (f *failWriter) Write(*gff.Feature) error {
	f.calls++
	return errors.New("write failed")
}
func (f *failWriter) Flush() error { f.calls++; return nil }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiWriter(NewGFFWriter(&a, testHeader), NewGFFWriter(&b, testHeader))

	require.NoError(t, m.WriteHeader())
	require.NoError(t, m.Write(exonFeature()))
	require.NoError(t, m.Flush())
	assert.Equal(t, a.String(), b.String())
	assert.NotEmpty(t, a.String())
}

func TestMultiWriter_StopsOnError(t *testing.T) {
	fw := &failWriter{}
	after := &failWriter{}
	m := NewMultiWriter(fw, after)

	assert.EqualError(t, m.Write(exonFeature()), "write failed")
	assert.Equal(t, 1, fw.calls)
	assert.Equal(t, 0, after.calls)
}
