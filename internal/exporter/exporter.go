// =============================================================================
// ECF Block Splitter - Table Exporter
// =============================================================================
//
// This module writes every block table through every configured sink:
//
//   <target dir>/<block code>.txt   (TextSink)
//   <target dir>/<block code>.xlsx  (SpreadsheetSink)
//
// INDEPENDENCE:
//   Each (sink, block code) pair is written on its own. A failure is recorded
//   in the Report and the remaining pairs are still written, so one bad block
//   never hides the output of the others.
//
// OVERWRITE:
//   Existing artifacts are truncated and replaced.
//
// =============================================================================

package exporter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ginjaninja78/ecf-block-splitter/internal/logging"
	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// Sink serializes one block table.
type Sink interface {
	// Name identifies the sink in logs and reports.
	Name() string

	// Extension is the artifact file extension, without the dot.
	Extension() string

	// Write serializes rows with the given column labels to w.
	Write(w io.Writer, code types.BlockCode, rows []types.Record, labels types.HeaderList) error
}

// HeaderSource provides the resolved header list of a block code.
// templates.Resolution implements it.
type HeaderSource interface {
	Lookup(code types.BlockCode) (types.HeaderList, bool)
}

// =============================================================================
// REPORT
// =============================================================================

// ErrUnsafeBlockCode is reported for a block code that cannot be used as an
// artifact file name inside the target directory.
var ErrUnsafeBlockCode = errors.New("block code is not a valid file name")

// ExportError is the failure of one sink for one block code.
type ExportError struct {
	Sink      string
	BlockCode types.BlockCode
	Path      string
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export of %s to %s: %v", e.Sink, e.BlockCode, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Artifact describes one written (or attempted) output file.
type Artifact struct {
	Sink      string
	BlockCode types.BlockCode
	Path      string
	Rows      int
	Columns   int
	Err       error
}

// Report lists every artifact of an export in write order.
type Report struct {
	Artifacts []Artifact
}

// Failed returns the artifacts that could not be written.
func (r *Report) Failed() []Artifact {
	var failed []Artifact
	for _, artifact := range r.Artifacts {
		if artifact.Err != nil {
			failed = append(failed, artifact)
		}
	}
	return failed
}

// Err aggregates every failure, or returns nil when all artifacts were written.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, artifact := range r.Failed() {
		result = multierror.Append(result, &ExportError{
			Sink:      artifact.Sink,
			BlockCode: artifact.BlockCode,
			Path:      artifact.Path,
			Err:       artifact.Err,
		})
	}
	return result.ErrorOrNil()
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter writes block tables to a target directory.
type Exporter struct {
	// Fs is the filesystem the artifacts are written to.
	Fs afero.Fs

	// TargetDir must exist; it is not created.
	TargetDir string

	// Sinks are applied in order to every block code.
	Sinks []Sink

	// Placeholder names columns missing from a header template.
	Placeholder string

	// Log receives per-artifact diagnostics.
	Log logrus.FieldLogger

	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// Export writes every block code through every sink. headers may be nil.
func (e *Exporter) Export(table *types.BlockTable, headers HeaderSource) *Report {
	log := e.Log
	if log == nil {
		log = logging.Discard()
	}

	codes := table.Codes()
	bar := e.newProgressBar(len(codes) * len(e.Sinks))
	report := &Report{}

	for _, sink := range e.Sinks {
		for _, code := range codes {
			artifact := e.exportOne(sink, code, table, headers)
			report.Artifacts = append(report.Artifacts, artifact)

			entry := log.WithFields(logrus.Fields{
				"sink":       artifact.Sink,
				"block_code": artifact.BlockCode,
				"path":       artifact.Path,
				"rows":       artifact.Rows,
			})
			if artifact.Err != nil {
				entry.WithError(artifact.Err).Error("Export failed")
			} else {
				entry.Debug("Exported block table")
			}

			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return report
}

// exportOne writes one artifact. The file is created (or truncated) right
// before writing and closed on every path.
func (e *Exporter) exportOne(sink Sink, code types.BlockCode, table *types.BlockTable, headers HeaderSource) (artifact Artifact) {
	rows := table.Rows(code)
	columns := table.ColumnCount(code)

	artifact = Artifact{
		Sink:      sink.Name(),
		BlockCode: code,
		Path:      ArtifactPath(e.TargetDir, code, sink.Extension()),
		Rows:      len(rows),
		Columns:   columns,
	}

	var resolved types.HeaderList
	var ok bool
	if headers != nil {
		resolved, ok = headers.Lookup(code)
	}
	labels := ColumnLabels(resolved, ok, columns, e.Placeholder)

	if err := checkArtifactPath(e.TargetDir, code, artifact.Path); err != nil {
		artifact.Err = err
		return artifact
	}

	file, err := e.Fs.Create(artifact.Path)
	if err != nil {
		artifact.Err = fmt.Errorf("failed to create file: %w", err)
		return artifact
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && artifact.Err == nil {
			artifact.Err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	if err := sink.Write(file, code, rows, labels); err != nil {
		artifact.Err = err
	}
	return artifact
}

// ArtifactPath returns <dir>/<code>.<ext>.
func ArtifactPath(dir string, code types.BlockCode, ext string) string {
	return filepath.Join(dir, string(code)+"."+ext)
}

// checkArtifactPath rejects block codes that would place the artifact
// anywhere but directly inside dir.
func checkArtifactPath(dir string, code types.BlockCode, path string) error {
	name := string(code)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeBlockCode, name)
	}
	if filepath.Dir(path) != filepath.Clean(dir) {
		return fmt.Errorf("%w: %q", ErrUnsafeBlockCode, name)
	}
	return nil
}

// ColumnLabels picks the labels of a table: the reconciled template headers
// when a template was resolved, positional labels otherwise. Blank template
// names take the placeholder.
func ColumnLabels(headers types.HeaderList, resolved bool, columnCount int, placeholder string) types.HeaderList {
	if !resolved {
		return DefaultLabels(columnCount)
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	labels := Reconcile(headers, columnCount, placeholder)
	for i, label := range labels {
		if label == "" {
			labels[i] = placeholder
		}
	}
	return labels
}

func (e *Exporter) newProgressBar(total int) *progressbar.ProgressBar {
	if e.Progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.Progress),
		progressbar.OptionSetDescription("exporting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
