// =============================================================================
// ECF Block Splitter - Converter Module
// =============================================================================
//
// This module orchestrates one conversion run, from the source export to the
// per-block artifacts.
//
// CONVERSION PIPELINE:
//   1. Check the preconditions (source file, media type, target directory)
//   2. Classify the source into one table per block code
//   3. Resolve the header template of every block code
//   4. Export every table as .txt and .xlsx
//   5. Optionally write the run summary
//
// Steps run strictly in order. The whole source is classified before any
// output is produced; a precondition or structural failure writes nothing.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ginjaninja78/ecf-block-splitter/internal/config"
	"github.com/ginjaninja78/ecf-block-splitter/internal/ecfparser"
	"github.com/ginjaninja78/ecf-block-splitter/internal/exporter"
	"github.com/ginjaninja78/ecf-block-splitter/internal/logging"
	"github.com/ginjaninja78/ecf-block-splitter/internal/templates"
	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
	"github.com/ginjaninja78/ecf-block-splitter/internal/validation"
	"github.com/ginjaninja78/ecf-block-splitter/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Stage names the pipeline step a run stopped at.
type Stage string

const (
	StagePreconditions Stage = "preconditions"
	StageClassify      Stage = "classify"
	StageExport        Stage = "export"
	StageSummary       Stage = "summary"
	StageDone          Stage = "done"
)

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and in the summary file name.
	RunID string

	// Stage is the last step reached.
	Stage Stage

	// Preconditions lists every failed precondition check.
	Preconditions []*validation.PreconditionError

	// Table holds the classified records. Nil if classification did not run
	// or failed.
	Table *types.BlockTable

	// Resolution holds the header templates found for the table.
	Resolution templates.Resolution

	// Report lists the written artifacts.
	Report *exporter.Report

	// SummaryPath is the run summary file, when one was written.
	SummaryPath string

	// Err is the error that stopped the run, or the aggregated export
	// failures. Nil on success.
	Err error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// Success reports whether every step completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	BlockCodes       int
	RowsClassified   int
	TemplatesFound   int
	TemplatesMissing int
	TemplatesFailed  int
	ArtifactsWritten int
	ArtifactsFailed  int
	ProcessingTime   time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the conversion pipeline for one configuration.
type Converter struct {
	cfg          *config.Config
	fs           afero.Fs
	logger       logrus.FieldLogger
	progress     io.Writer
	writeSummary bool
	runID        string
}

// Option customizes a Converter.
type Option func(*Converter)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(c *Converter) { c.fs = fs }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithProgress renders an export progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(c *Converter) { c.progress = w }
}

// WithSummary writes the run summary into the target directory.
func WithSummary(enabled bool) Option {
	return func(c *Converter) { c.writeSummary = enabled }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(c *Converter) { c.runID = id }
}

// New creates a new Converter.
func New(cfg *config.Config, opts ...Option) *Converter {
	c := &Converter{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = utils.NewRunID()
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline and returns its outcome.
func (c *Converter) Run() (result Result) {
	startTime := time.Now()
	result = Result{RunID: c.runID, Stage: StagePreconditions}
	log := c.logger.WithField("run_id", c.runID)

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: PRECONDITIONS
	// =========================================================================

	checker := validation.NewChecker(c.fs)
	result.Preconditions = checker.Check(c.cfg.Source, c.cfg.Target)
	if len(result.Preconditions) > 0 {
		for _, failure := range result.Preconditions {
			log.WithField("kind", failure.Kind.String()).Error(failure.Error())
		}
		result.Err = fmt.Errorf("preconditions failed: %w", validation.Combine(result.Preconditions))
		return result
	}

	// =========================================================================
	// STEP 2: CLASSIFY
	// =========================================================================

	result.Stage = StageClassify
	log.WithField("source", c.cfg.Source).Info("Classifying source records")

	table, err := ecfparser.ClassifyFile(c.fs, c.cfg.Source, ecfparser.Settings{
		Delimiter: c.cfg.Delimiter,
		Encoding:  c.cfg.Encoding,
	})
	if err != nil {
		result.Err = fmt.Errorf("failed to classify source: %w", err)
		return result
	}

	result.Table = table
	result.Stats.BlockCodes = table.Len()
	result.Stats.RowsClassified = table.RowCount()
	log.WithFields(logrus.Fields{
		"block_codes": table.Len(),
		"rows":        table.RowCount(),
	}).Info("Classified source records")

	// =========================================================================
	// STEP 3: RESOLVE HEADERS
	// =========================================================================

	resolver := &templates.Resolver{
		Fs:        c.fs,
		Dir:       c.cfg.TemplatesDir,
		Extension: c.cfg.TemplateExtension,
		SheetName: c.cfg.TemplateSheet,
		HeaderRow: c.cfg.TemplateHeaderRow,
		Log:       log,
	}
	result.Resolution = resolver.Resolve(table.Codes())
	result.Stats.TemplatesFound = len(result.Resolution.Headers)
	result.Stats.TemplatesMissing = len(result.Resolution.Missing)
	result.Stats.TemplatesFailed = len(result.Resolution.Failed)

	// =========================================================================
	// STEP 4: EXPORT
	// =========================================================================

	result.Stage = StageExport

	sinks, err := c.sinks()
	if err != nil {
		result.Err = err
		return result
	}

	exp := &exporter.Exporter{
		Fs:          c.fs,
		TargetDir:   c.cfg.Target,
		Sinks:       sinks,
		Placeholder: c.cfg.PlaceholderHeader,
		Log:         log,
		Progress:    c.progress,
	}
	result.Report = exp.Export(table, result.Resolution)
	result.Stats.ArtifactsFailed = len(result.Report.Failed())
	result.Stats.ArtifactsWritten = len(result.Report.Artifacts) - result.Stats.ArtifactsFailed
	result.Err = result.Report.Err()

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	if c.writeSummary {
		result.Stage = StageSummary
		fm := utils.NewFileManager(c.fs, c.cfg.Target)
		path, err := fm.WriteSummaryLog(c.summary(&result, startTime))
		if err != nil {
			log.WithError(err).Warn("Could not write run summary")
		} else {
			result.SummaryPath = path
		}
	}

	result.Stage = StageDone
	log.WithFields(logrus.Fields{
		"written": result.Stats.ArtifactsWritten,
		"failed":  result.Stats.ArtifactsFailed,
	}).Info("Conversion finished")

	return result
}

// sinks builds the output sinks from the configuration.
func (c *Converter) sinks() ([]exporter.Sink, error) {
	terminator, err := c.cfg.LineTerminator()
	if err != nil {
		return nil, err
	}

	return []exporter.Sink{
		&exporter.TextSink{
			Delimiter:  c.cfg.Delimiter,
			LineEnding: terminator,
			Legacy:     c.cfg.LegacyText,
			Encoding:   c.cfg.OutputEncoding,
		},
		&exporter.SpreadsheetSink{
			SheetName: c.cfg.DataSheet,
		},
	}, nil
}

// summary converts the result into the summary file model.
func (c *Converter) summary(result *Result, startTime time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:      result.RunID,
		SourceFile: c.cfg.Source,
		StartTime:  startTime,
		EndTime:    time.Now(),
		TotalRows:  result.Table.RowCount(),
	}

	for _, code := range result.Table.Codes() {
		headerSource := "positional"
		if _, ok := result.Resolution.Lookup(code); ok {
			headerSource = "template"
		}
		summary.Blocks = append(summary.Blocks, utils.BlockInfo{
			BlockCode:    string(code),
			Rows:         len(result.Table.Rows(code)),
			Columns:      result.Table.ColumnCount(code),
			HeaderSource: headerSource,
		})
	}

	for _, artifact := range result.Report.Failed() {
		summary.Failures = append(summary.Failures, utils.FailureInfo{
			BlockCode:    string(artifact.BlockCode),
			Sink:         artifact.Sink,
			ErrorMessage: artifact.Err.Error(),
		})
	}

	return summary
}
