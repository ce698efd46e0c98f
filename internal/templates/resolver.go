// =============================================================================
// ECF Block Splitter - Header Template Resolver
// =============================================================================
//
// This module loads the human-readable column names of each block table from
// an XLSX template. There is one template per block code:
//
//   <templates dir>/<block code>.xlsx
//
// TEMPLATE STRUCTURE:
//   The header row (row 1 by default) of a well-known sheet ("Sheet1" by
//   default) holds the column names, left to right:
//
//   | Column A      | Column B   | Column C      | ...
//   |---------------|------------|---------------|
//   | COD_ENTIDADE  | DT_INI     | DESCRICAO     | ...
//
//   Any other rows or sheets are ignored.
//
// MISSING TEMPLATES:
//   A missing template is not an error. The code is reported in
//   Resolution.Missing, gets no entry in Resolution.Headers, and the exporter
//   falls back to positional column labels.
//
// =============================================================================

package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ecf-block-splitter/internal/logging"
	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver loads header lists from a template directory.
type Resolver struct {
	// Fs is the filesystem the templates are read from.
	Fs afero.Fs

	// Dir is the template directory. Empty disables resolution.
	Dir string

	// Extension of the template files, without the dot. Default: "xlsx"
	Extension string

	// SheetName is the sheet holding the header row. Empty means the first sheet.
	SheetName string

	// HeaderRow is the 1-based row holding the column names. Default: 1
	HeaderRow int

	// Log receives the diagnostics.
	Log logrus.FieldLogger
}

// Resolution is the outcome of resolving a set of block codes.
type Resolution struct {
	// Headers holds a header list for every code whose template loaded.
	// Codes without a template have no entry (not an empty list).
	Headers map[types.BlockCode]types.HeaderList

	// Missing lists the codes with no template file, in request order.
	Missing []types.BlockCode

	// Failed holds codes whose template exists but could not be read.
	Failed map[types.BlockCode]error
}

// Lookup returns the header list of a code and whether one was resolved.
func (r Resolution) Lookup(code types.BlockCode) (types.HeaderList, bool) {
	headers, ok := r.Headers[code]
	return headers, ok
}

// TemplatePath returns the template file expected for a code.
func (r *Resolver) TemplatePath(code types.BlockCode) string {
	ext := strings.TrimPrefix(r.Extension, ".")
	if ext == "" {
		ext = "xlsx"
	}
	return filepath.Join(r.Dir, string(code)+"."+ext)
}

// Resolve makes one load attempt per code. It never fails as a whole: every
// problem is reported per code and degrades that code to default labels.
func (r *Resolver) Resolve(codes []types.BlockCode) Resolution {
	resolution := Resolution{
		Headers: make(map[types.BlockCode]types.HeaderList),
		Failed:  make(map[types.BlockCode]error),
	}

	log := r.logger()

	if r.Dir == "" {
		log.Info("No template directory configured, using positional column labels")
		resolution.Missing = append(resolution.Missing, codes...)
		return resolution
	}

	for _, code := range codes {
		path := r.TemplatePath(code)

		headers, err := r.Load(path)
		switch {
		case err == nil:
			resolution.Headers[code] = headers
			log.WithFields(logrus.Fields{"block_code": code, "columns": len(headers)}).
				Debug("Loaded header template")
		case errors.Is(err, os.ErrNotExist):
			resolution.Missing = append(resolution.Missing, code)
			log.WithFields(logrus.Fields{"block_code": code, "template": path}).
				Warn("Header template not found, using positional column labels")
		default:
			resolution.Failed[code] = err
			log.WithFields(logrus.Fields{"block_code": code, "template": path}).
				WithError(err).Error("Header template could not be read, using positional column labels")
		}
	}

	return resolution
}

// Load reads the header row of a single template file.
func (r *Resolver) Load(path string) (types.HeaderList, error) {
	file, err := r.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer workbook.Close()

	sheetName := r.SheetName
	if sheetName == "" {
		sheetName = workbook.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	headerRow := r.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}
	if headerRow > len(rows) {
		return types.HeaderList{}, nil
	}

	return cleanHeaders(rows[headerRow-1]), nil
}

func (r *Resolver) logger() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	return logging.Discard()
}

// cleanHeaders trims the column names. Empty cells inside the row keep their
// position; the exporter names them like any other unnamed column.
func cleanHeaders(row []string) types.HeaderList {
	headers := make(types.HeaderList, len(row))
	for i, cell := range row {
		headers[i] = strings.TrimSpace(cell)
	}
	return headers
}
