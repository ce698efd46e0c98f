package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// DefaultDataSheet is the name of the only sheet of a spreadsheet artifact.
const DefaultDataSheet = "Data"

// SpreadsheetSink writes a block table as an XLSX workbook with a single
// named sheet: the column labels on row 1, the records below, no index column.
// Cell values are written as text, exactly as they appear in the source.
type SpreadsheetSink struct {
	// SheetName is the data sheet name. Default: "Data"
	SheetName string
}

func (s *SpreadsheetSink) Name() string      { return "spreadsheet" }
func (s *SpreadsheetSink) Extension() string { return "xlsx" }

// Write streams the workbook to w.
func (s *SpreadsheetSink) Write(w io.Writer, _ types.BlockCode, rows []types.Record, labels types.HeaderList) error {
	sheet := s.SheetName
	if sheet == "" {
		sheet = DefaultDataSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != f.GetSheetName(0) {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
		}
	}

	stream, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if err := setRow(stream, 1, labels); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, row := range rows {
		if err := setRow(stream, i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(stream *excelize.StreamWriter, rowNumber int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}
	return stream.SetRow(cell, cells)
}
