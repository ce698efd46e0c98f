// =============================================================================
// ECF Block Splitter - Precondition Checks
// =============================================================================
//
// This module checks the paths of a run before any conversion starts:
//   - the source file exists and is a regular file
//   - the source file is textual (by extension, else by content)
//   - the target directory exists
//
// Every check runs, even after a failure, so the operator sees all problems
// at once. Any failure stops the run before a single artifact is written.
//
// =============================================================================

package validation

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Kind classifies a precondition failure.
type Kind int

const (
	// SourceMissing: the source does not exist or is not a regular file.
	SourceMissing Kind = iota + 1

	// SourceNotText: the source is not a textual file type.
	SourceNotText

	// TargetMissing: the target does not exist or is not a directory.
	TargetMissing
)

func (k Kind) String() string {
	switch k {
	case SourceMissing:
		return "source missing"
	case SourceNotText:
		return "source not text"
	case TargetMissing:
		return "target missing"
	default:
		return "unknown"
	}
}

// IsSource reports whether the failure concerns the source file.
func (k Kind) IsSource() bool {
	return k == SourceMissing || k == SourceNotText
}

// PreconditionError describes one failed check.
type PreconditionError struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Path)
}

// =============================================================================
// CHECKER
// =============================================================================

// Checker runs the precondition checks against a filesystem.
type Checker struct {
	Fs afero.Fs
}

// NewChecker creates a Checker for fs.
func NewChecker(fs afero.Fs) *Checker {
	return &Checker{Fs: fs}
}

// Check runs every check and returns all failures, in check order.
func (c *Checker) Check(source, target string) []*PreconditionError {
	var failures []*PreconditionError

	if failure := c.CheckSource(source); failure != nil {
		failures = append(failures, failure)
	}
	if failure := c.CheckTarget(target); failure != nil {
		failures = append(failures, failure)
	}

	return failures
}

// CheckSource verifies that the source exists and is textual.
func (c *Checker) CheckSource(source string) *PreconditionError {
	info, err := c.Fs.Stat(source)
	if err != nil {
		return &PreconditionError{Kind: SourceMissing, Path: source, Message: "source file does not exist"}
	}
	if !info.Mode().IsRegular() {
		return &PreconditionError{Kind: SourceMissing, Path: source, Message: "source is not a regular file"}
	}

	textual, err := c.IsTextual(source)
	if err != nil {
		return &PreconditionError{Kind: SourceMissing, Path: source, Message: fmt.Sprintf("source file cannot be read (%v)", err)}
	}
	if !textual {
		return &PreconditionError{Kind: SourceNotText, Path: source, Message: "source file is not a text file"}
	}

	return nil
}

// CheckTarget verifies that the target directory exists.
func (c *Checker) CheckTarget(target string) *PreconditionError {
	isDir, err := afero.IsDir(c.Fs, target)
	if err != nil {
		return &PreconditionError{Kind: TargetMissing, Path: target, Message: "target directory does not exist"}
	}
	if !isDir {
		return &PreconditionError{Kind: TargetMissing, Path: target, Message: "target is not a directory"}
	}
	return nil
}

// IsTextual classifies a file by its declared media type: the type registered
// for its extension when there is one, otherwise the type sniffed from its
// content. Any text/* type counts as textual.
func (c *Checker) IsTextual(path string) (bool, error) {
	if declared := mime.TypeByExtension(filepath.Ext(path)); declared != "" {
		return isTextMediaType(declared), nil
	}

	file, err := c.Fs.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return false, err
	}

	for m := detected; m != nil; m = m.Parent() {
		if isTextMediaType(m.String()) {
			return true, nil
		}
	}
	return false, nil
}

func isTextMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "text/")
}

// =============================================================================
// REPORTING
// =============================================================================

// Combine aggregates failures into one error, or nil when there are none.
func Combine(failures []*PreconditionError) error {
	var result *multierror.Error
	for _, failure := range failures {
		result = multierror.Append(result, failure)
	}
	return result.ErrorOrNil()
}

// FormatErrors renders failures one per line for display.
func FormatErrors(failures []*PreconditionError) string {
	var b strings.Builder
	for _, failure := range failures {
		fmt.Fprintf(&b, "  - %s\n", failure.Error())
	}
	return b.String()
}
