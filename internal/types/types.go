// =============================================================================
// ECF Block Splitter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - ecfparser  (builds the BlockTable)
//   - templates  (resolves a HeaderList per BlockCode)
//   - exporter   (writes one artifact per BlockCode)
//   - converter  (orchestrates the run)
//
// =============================================================================

package types

// =============================================================================
// RECORD TYPES
// =============================================================================

// BlockCode names the logical record type of a line (e.g. "X300").
// It is the grouping key for every downstream structure.
type BlockCode string

// Record is an ordered sequence of field values.
// Row width may vary from record to record; no fixed schema is enforced.
type Record []string

// HeaderList is an ordered sequence of column names for one BlockCode.
type HeaderList []string

// ParentChild links a header block type to the detail block type that
// inherits its parent index.
type ParentChild struct {
	Parent BlockCode
	Child  BlockCode
}

// ParentChildPairs are the only hierarchical relations of the ECF layout
// handled by the classifier.
var ParentChildPairs = []ParentChild{
	{Parent: "X300", Child: "X310"},
	{Parent: "X320", Child: "X330"},
}

// IsParent reports whether records of this code carry a parent index.
func (c BlockCode) IsParent() bool {
	for _, pair := range ParentChildPairs {
		if pair.Parent == c {
			return true
		}
	}
	return false
}

// IsChild reports whether records of this code receive the current parent index.
func (c BlockCode) IsChild() bool {
	for _, pair := range ParentChildPairs {
		if pair.Child == c {
			return true
		}
	}
	return false
}

// =============================================================================
// BLOCK TABLE
// =============================================================================

// BlockTable groups records by BlockCode.
//
// Keys are kept in first-seen order and rows in arrival order. The table is
// append-only: Append is the only way to add data, and it creates the row
// sequence for a code on first use.
type BlockTable struct {
	order []BlockCode
	rows  map[BlockCode][]Record
}

// NewBlockTable creates an empty BlockTable.
func NewBlockTable() *BlockTable {
	return &BlockTable{
		rows: make(map[BlockCode][]Record),
	}
}

// Append adds a record to the sequence of the given code, creating the
// sequence if this is the first record seen for that code.
func (t *BlockTable) Append(code BlockCode, record Record) {
	if _, exists := t.rows[code]; !exists {
		t.order = append(t.order, code)
	}
	t.rows[code] = append(t.rows[code], record)
}

// Codes returns the block codes in first-seen order.
func (t *BlockTable) Codes() []BlockCode {
	codes := make([]BlockCode, len(t.order))
	copy(codes, t.order)
	return codes
}

// Rows returns the records stored for a code, or nil if the code is absent.
func (t *BlockTable) Rows(code BlockCode) []Record {
	return t.rows[code]
}

// ColumnCount returns the width of the widest record stored for the code.
func (t *BlockTable) ColumnCount(code BlockCode) int {
	width := 0
	for _, record := range t.rows[code] {
		if len(record) > width {
			width = len(record)
		}
	}
	return width
}

// Len returns the number of distinct block codes.
func (t *BlockTable) Len() int {
	return len(t.order)
}

// RowCount returns the total number of records across all codes.
func (t *BlockTable) RowCount() int {
	total := 0
	for _, records := range t.rows {
		total += len(records)
	}
	return total
}
