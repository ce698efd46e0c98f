// =============================================================================
// ECF Block Splitter - Line Classifier & Grouper
// =============================================================================
//
// Classify turns the flat record stream into one table per block code.
//
// ALGORITHM (single forward pass, no lookahead):
//   1. Read the block code from field 1.
//   2. Drop the record if the block code is empty or absent.
//   3. Parent codes (X300, X320): field 2 becomes the current parent index.
//   4. Child codes (X310, X330): the current parent index is inserted at
//      position 2, shifting later fields right.
//   5. Strip the two leading fields (marker, block code).
//   6. Append the record to the table of its block code.
//
// There is exactly one current parent index at any point in the scan; it is
// not a stack. A child seen before any parent is a StructuralError.
//
// =============================================================================

package ecfparser

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

const (
	blockCodeField   = 1
	parentIndexField = 2
	leadingFields    = 2
)

// RecordSource is a forward-only stream of records. RecordReader implements it.
type RecordSource interface {
	Next() bool
	Record() types.Record
	LineNumber() int
	Err() error
}

// StructuralError reports a detail record with no preceding parent record.
type StructuralError struct {
	// Line is the 1-based line number of the offending record.
	Line int

	// BlockCode is the code of the offending record.
	BlockCode types.BlockCode
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: %s record has no preceding parent record", e.Line, e.BlockCode)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyState is the accumulator threaded through the fold.
type classifyState struct {
	table         *types.BlockTable
	currentParent string
	parentSeen    bool
}

// Classify consumes the whole source and returns the grouped records.
// No partial table is returned on error.
func Classify(source RecordSource) (*types.BlockTable, error) {
	state := &classifyState{table: types.NewBlockTable()}

	for source.Next() {
		if err := state.step(source.Record(), source.LineNumber()); err != nil {
			return nil, err
		}
	}

	if err := source.Err(); err != nil {
		return nil, err
	}

	return state.table, nil
}

// ClassifyReader classifies a stream read from r.
func ClassifyReader(r io.Reader, settings Settings) (*types.BlockTable, error) {
	reader, err := NewRecordReader(r, settings)
	if err != nil {
		return nil, err
	}
	return Classify(reader)
}

// ClassifyFile classifies the file at path on fs.
func ClassifyFile(fs afero.Fs, path string, settings Settings) (*types.BlockTable, error) {
	reader, err := Open(fs, path, settings)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return Classify(reader)
}

// step applies one record to the state.
func (s *classifyState) step(record types.Record, line int) error {
	if !KeepRecord(record) {
		return nil
	}

	code := BlockCodeOf(record)

	switch {
	case code.IsParent():
		s.currentParent = field(record, parentIndexField)
		s.parentSeen = true
	case code.IsChild():
		if !s.parentSeen {
			return &StructuralError{Line: line, BlockCode: code}
		}
		record = insertAt(record, parentIndexField, s.currentParent)
	}

	s.table.Append(code, stripLeading(record))
	return nil
}

// KeepRecord is the filter applied before classification: records with an
// empty or absent block code are dropped without error and do not touch the
// current parent index.
func KeepRecord(record types.Record) bool {
	return BlockCodeOf(record) != ""
}

// BlockCodeOf returns field 1 of a raw record, or "" if it has none.
func BlockCodeOf(record types.Record) types.BlockCode {
	return types.BlockCode(field(record, blockCodeField))
}

func field(record types.Record, index int) string {
	if index < len(record) {
		return record[index]
	}
	return ""
}

// insertAt returns a new record with value inserted at index.
func insertAt(record types.Record, index int, value string) types.Record {
	if index > len(record) {
		index = len(record)
	}
	out := make(types.Record, 0, len(record)+1)
	out = append(out, record[:index]...)
	out = append(out, value)
	return append(out, record[index:]...)
}

func stripLeading(record types.Record) types.Record {
	if len(record) <= leadingFields {
		return types.Record{}
	}
	return record[leadingFields:]
}
