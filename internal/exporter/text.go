package exporter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ecf-block-splitter/internal/textenc"
	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// TextSink writes a block table as delimited text, one row per line.
//
// With Legacy set, rows are written back-to-back with no terminator, which is
// what the older converter produced. The default terminates every row
// (including the last) with LineEnding.
type TextSink struct {
	// Delimiter joins the fields of a row. Default: "|"
	Delimiter string

	// LineEnding terminates each row. Default: "\n"
	LineEnding string

	// Legacy drops the row terminator entirely.
	Legacy bool

	// Encoding of the written bytes. Default: UTF-8
	Encoding string
}

func (s *TextSink) Name() string      { return "text" }
func (s *TextSink) Extension() string { return "txt" }

// Write serializes rows. Headers are not part of the text artifact.
func (s *TextSink) Write(w io.Writer, _ types.BlockCode, rows []types.Record, _ types.HeaderList) error {
	delimiter := s.Delimiter
	if delimiter == "" {
		delimiter = "|"
	}
	terminator := s.LineEnding
	if s.Legacy {
		terminator = ""
	} else if terminator == "" {
		terminator = "\n"
	}

	encoded, err := textenc.NewWriter(w, s.Encoding)
	if err != nil {
		return err
	}

	buffered := bufio.NewWriter(encoded)
	for i, row := range rows {
		if _, err := buffered.WriteString(strings.Join(row, delimiter) + terminator); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return encoded.Close()
}
