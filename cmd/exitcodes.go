package cmd

import (
	"errors"

	"github.com/ginjaninja78/ecf-block-splitter/internal/converter"
	"github.com/ginjaninja78/ecf-block-splitter/internal/ecfparser"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitBadSource  = 2
	ExitBadTarget  = 3
	ExitBadPaths   = 4
	ExitStructural = 5
	ExitExport     = 6
)

// exitError carries an exit code out of a command's RunE.
// A nil err means the diagnostics were already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps a run result to the process exit code.
func ExitCode(result *converter.Result) int {
	if result.Success() {
		return ExitOK
	}

	if len(result.Preconditions) > 0 {
		var source, target bool
		for _, failure := range result.Preconditions {
			if failure.Kind.IsSource() {
				source = true
			} else {
				target = true
			}
		}
		switch {
		case source && target:
			return ExitBadPaths
		case source:
			return ExitBadSource
		default:
			return ExitBadTarget
		}
	}

	var structural *ecfparser.StructuralError
	if errors.As(result.Err, &structural) {
		return ExitStructural
	}

	if result.Report != nil && len(result.Report.Failed()) > 0 {
		return ExitExport
	}

	return ExitFailure
}
