// =============================================================================
// ECF Block Splitter - File Manager Utility
// =============================================================================
//
// This module provides file utilities for the converter:
//   - Run identifiers
//   - The optional run summary written next to the artifacts
//
// All file access goes through an afero.Fs so the utilities can be tested on
// an in-memory filesystem.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles auxiliary file operations in the target directory.
type FileManager struct {
	// Fs is the filesystem used for every operation.
	Fs afero.Fs

	// TargetDir is the directory where artifacts and the summary are placed.
	TargetDir string
}

// NewFileManager creates a new FileManager.
func NewFileManager(fs afero.Fs, targetDir string) *FileManager {
	return &FileManager{
		Fs:        fs,
		TargetDir: targetDir,
	}
}

// NewRunID returns a random identifier for one conversion run.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a conversion run.
type ProcessingSummary struct {
	RunID      string
	SourceFile string
	StartTime  time.Time
	EndTime    time.Time
	TotalRows  int
	Blocks     []BlockInfo
	Failures   []FailureInfo
}

// BlockInfo describes the output of one block code.
type BlockInfo struct {
	BlockCode    string
	Rows         int
	Columns      int
	HeaderSource string // "template" or "positional"
}

// FailureInfo describes an artifact that could not be written.
type FailureInfo struct {
	BlockCode    string
	Sink         string
	ErrorMessage string
}

// SummaryFileName returns the summary file name for a run.
func SummaryFileName(runID string) string {
	return fmt.Sprintf("conversion_summary_%s.txt", runID)
}

// WriteSummaryLog writes a processing summary to the target directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (path string, err error) {
	summaryPath := filepath.Join(fm.TargetDir, SummaryFileName(summary.RunID))

	file, err := fm.Fs.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			path, err = "", fmt.Errorf("failed to close summary file: %w", cerr)
		}
	}()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "ECF Block Splitter - Conversion Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Source:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Block Codes:    %d\n"+
		"  Total Rows:     %d\n"+
		"  Failed Exports: %d\n\n",
		summary.RunID,
		summary.SourceFile,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		len(summary.Blocks),
		summary.TotalRows,
		len(summary.Failures))

	if len(summary.Blocks) > 0 {
		writer.WriteString("Blocks:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, block := range summary.Blocks {
			fmt.Fprintf(writer, "  %-8s rows=%-8d columns=%-4d headers=%s\n",
				block.BlockCode, block.Rows, block.Columns, block.HeaderSource)
		}
		writer.WriteString("\n")
	}

	if len(summary.Failures) > 0 {
		writer.WriteString("Failed Exports:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, failure := range summary.Failures {
			fmt.Fprintf(writer, "  %s (%s): %s\n", failure.BlockCode, failure.Sink, failure.ErrorMessage)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	// The writer keeps the first write error and Flush returns it.
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
