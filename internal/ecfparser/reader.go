// =============================================================================
// ECF Block Splitter - Record Reader
// =============================================================================
//
// This module turns the raw export into a stream of records:
//   - the byte stream is decoded from the configured encoding to UTF-8
//   - the stream is cut into lines ("\n" or "\r\n")
//   - every line is split on the delimiter, with no quoting rules
//
// The ECF layout never quotes fields, so encoding/csv is deliberately not
// used: a stray double quote inside a description must reach the output as-is.
//
// USAGE:
//   reader, err := Open(fs, path, settings)
//   if err != nil {
//       return err
//   }
//   defer reader.Close()
//
//   for reader.Next() {
//       record := reader.Record()
//       // Process the record...
//   }
//
//   if err := reader.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package ecfparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/ginjaninja78/ecf-block-splitter/internal/textenc"
	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// MaxLineSize is the longest line the reader accepts.
const MaxLineSize = 1024 * 1024

// Settings controls how the source is decoded and split.
type Settings struct {
	// Delimiter separates fields. Default: "|"
	Delimiter string

	// Encoding is the character encoding of the source. Default: UTF-8
	Encoding string
}

// DefaultSettings returns pipe-delimited UTF-8 settings.
func DefaultSettings() Settings {
	return Settings{Delimiter: "|", Encoding: "UTF-8"}
}

// =============================================================================
// RECORD READER
// =============================================================================

// RecordReader yields one Raw Record per input line.
type RecordReader struct {
	closer     io.Closer
	scanner    *bufio.Scanner
	delimiter  string
	current    types.Record
	lineNumber int
	err        error
}

// NewRecordReader creates a reader over r. The caller keeps ownership of r.
func NewRecordReader(r io.Reader, settings Settings) (*RecordReader, error) {
	if settings.Delimiter == "" {
		settings.Delimiter = "|"
	}

	decoded, err := textenc.NewReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	return &RecordReader{
		scanner:   scanner,
		delimiter: settings.Delimiter,
	}, nil
}

// Open opens a file on fs and returns a reader over it.
// Close releases the file.
func Open(fs afero.Fs, path string, settings Settings) (*RecordReader, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}

	reader, err := NewRecordReader(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file

	return reader, nil
}

// Next advances to the next line. Returns false at the end of the stream or
// on a read error.
func (r *RecordReader) Next() bool {
	if r.err != nil {
		return false
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("error reading line %d: %w", r.lineNumber+1, err)
		}
		return false
	}

	r.lineNumber++
	r.current = strings.Split(r.scanner.Text(), r.delimiter)
	return true
}

// Record returns the fields of the current line.
func (r *RecordReader) Record() types.Record {
	return r.current
}

// LineNumber returns the 1-based number of the current line.
func (r *RecordReader) LineNumber() int {
	return r.lineNumber
}

// Err returns the error that stopped the reader, if any.
func (r *RecordReader) Err() error {
	return r.err
}

// Close releases the underlying file when the reader was created by Open.
func (r *RecordReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
