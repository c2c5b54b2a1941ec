package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Reader yields settings table records one at a time. It returns io.EOF once
// the source is exhausted. *csv.Reader satisfies it.
type Reader interface {
	Read() ([]string, error)
}

// Options controls how CSV sources are decoded.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// NewCSVReader wraps r in a CSV decoder that tolerates ragged rows.
func NewCSVReader(r io.Reader, opts Options) *csv.Reader {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	return cr
}

// File is a CSV settings table backed by an open file.
type File struct {
	*csv.Reader
	f *os.File
}

// Open opens the CSV file at path. The caller owns the returned File and must
// Close it.
func Open(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open settings table %q: %w", path, err)
	}
	return &File{Reader: NewCSVReader(f, opts), f: f}, nil
}

// Close releases the underlying file.
func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}
	return f.f.Close()
}

type memoryReader struct {
	rows [][]string
	pos  int
}

// FromRows returns a Reader over an in-memory table. Records are copied on
// read so callers may not mutate the source through them.
func FromRows(rows [][]string) Reader {
	return &memoryReader{rows: rows}
}

func (m *memoryReader) Read() ([]string, error) {
	if m.pos >= len(m.rows) {
		return nil, io.EOF
	}
	row := m.rows[m.pos]
	m.pos++
	out := make([]string, len(row))
	copy(out, row)
	return out, nil
}
