// =============================================================================
// ECF Block Splitter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, the main command of the tool. It
// splits one ECF export into per-block artifacts.
//
// COMMAND USAGE:
//   ecfsplit convert --source <file> --target <dir> [flags]
//
// FLAGS:
//   --source         : The pipe-delimited ECF export to split
//   --target         : Existing directory receiving the artifacts
//   --templates      : Directory of <BLOCK>.xlsx header templates
//   --encoding       : Character encoding of the source (default UTF-8)
//   --legacy-text    : Write .txt rows back to back, without terminators
//   --sheet          : Sheet name of the .xlsx artifacts
//   --template-sheet : Sheet holding the template header row
//   --progress       : Show a progress bar while exporting
//   --summary        : Write a run summary into the target directory
//
// EXIT CODES:
//   0 ok, 1 error, 2 bad source, 3 bad target, 4 bad source and target,
//   5 malformed source structure, 6 one or more artifacts failed
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/ecf-block-splitter/internal/converter"
	"github.com/ginjaninja78/ecf-block-splitter/internal/logging"
	"github.com/ginjaninja78/ecf-block-splitter/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// showProgress renders a progress bar on stderr during the export.
var showProgress bool

// writeSummary writes conversion_summary_<run id>.txt next to the artifacts.
var writeSummary bool

// convertFlagKeys maps flag names to configuration keys.
var convertFlagKeys = map[string]string{
	"source":         "source",
	"target":         "target",
	"templates":      "templates_dir",
	"encoding":       "encoding",
	"legacy-text":    "legacy_text",
	"sheet":          "data_sheet",
	"template-sheet": "template_sheet",
}

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Split an ECF export into one table per block code",
	Long: `The convert command reads the source export line by line, groups the
records by block code and writes two artifacts per block code into the target
directory:

  <BLOCK>.txt   pipe-delimited rows
  <BLOCK>.xlsx  one sheet, header row first, every cell as text

Records of detail blocks (X310, X330) are prefixed with the index of the most
recent header record (X300, X320). Column headers are read from
<templates>/<BLOCK>.xlsx when present; otherwise columns are numbered.

Nothing is written if the source or target is invalid, or if a detail record
appears before any header record.`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the convert command and its flags.
func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.String("source", "", "Path to the ECF export file")
	flags.String("target", "", "Existing directory for the output artifacts")
	flags.String("templates", "", "Directory containing <BLOCK>.xlsx header templates")
	flags.String("encoding", "", "Source character encoding, e.g. ISO-8859-1")
	flags.Bool("legacy-text", false, "Write .txt rows without line terminators")
	flags.String("sheet", "", "Sheet name of the .xlsx artifacts")
	flags.String("template-sheet", "", "Sheet holding the template header row")

	flags.BoolVar(&showProgress, "progress", false, "Show a progress bar while exporting")
	flags.BoolVar(&writeSummary, "summary", false, "Write a run summary into the target directory")
}

// bindConvertFlags binds the convert flags to their configuration keys.
func bindConvertFlags(v *viper.Viper) {
	convertCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if key, ok := convertFlagKeys[flag.Name]; ok {
			v.BindPFlag(key, flag)
		}
	})
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert runs one conversion and prints its outcome.
func runConvert(stdout, stderr io.Writer) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return &exitError{code: ExitFailure, err: fmt.Errorf("invalid configuration: %w", err)}
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, stderr)

	opts := []converter.Option{
		converter.WithFs(appFs),
		converter.WithLogger(logger),
		converter.WithSummary(writeSummary),
	}
	if showProgress {
		opts = append(opts, converter.WithProgress(stderr))
	}

	fmt.Fprintln(stdout, "=== ECF Block Splitter ===")
	fmt.Fprintf(stdout, "Source: %s\n", cfg.Source)
	fmt.Fprintf(stdout, "Target: %s\n", cfg.Target)
	fmt.Fprintln(stdout)

	result := converter.New(cfg, opts...).Run()
	printResult(stdout, &result)

	code := ExitCode(&result)
	if code == ExitOK {
		return nil
	}
	return &exitError{code: code}
}

// printResult prints the artifacts, the failures and the statistics of a run.
func printResult(w io.Writer, result *converter.Result) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if len(result.Preconditions) > 0 {
		red.Fprintln(w, "Cannot start the conversion:")
		fmt.Fprint(w, validation.FormatErrors(result.Preconditions))
		fmt.Fprintln(w)
		red.Fprintln(w, "There were errors during the execution. Please fix them and retry.")
		return
	}

	if result.Table == nil {
		red.Fprintf(w, "Conversion failed: %v\n", result.Err)
		return
	}

	for _, code := range result.Resolution.Missing {
		yellow.Fprintf(w, "  ! no template for %s, using numbered columns\n", code)
	}
	for _, code := range result.Table.Codes() {
		if err, ok := result.Resolution.Failed[code]; ok {
			yellow.Fprintf(w, "  ! template for %s unreadable: %v\n", code, err)
		}
	}

	if result.Report != nil {
		for _, artifact := range result.Report.Artifacts {
			if artifact.Err != nil {
				red.Fprintf(w, "  ✗ %s -> %s: %v\n", artifact.BlockCode, artifact.Path, artifact.Err)
				continue
			}
			green.Fprintf(w, "  ✓ %s -> %s (%d rows)\n", artifact.BlockCode, artifact.Path, artifact.Rows)
		}
	}

	stats := result.Stats
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Block codes:       %d\n", stats.BlockCodes)
	fmt.Fprintf(w, "Rows classified:   %d\n", stats.RowsClassified)
	fmt.Fprintf(w, "Templates found:   %d\n", stats.TemplatesFound)
	fmt.Fprintf(w, "Templates missing: %d\n", stats.TemplatesMissing)
	fmt.Fprintf(w, "Templates failed:  %d\n", stats.TemplatesFailed)
	fmt.Fprintf(w, "Artifacts written: %d\n", stats.ArtifactsWritten)
	fmt.Fprintf(w, "Artifacts failed:  %d\n", stats.ArtifactsFailed)
	fmt.Fprintf(w, "Processing time:   %s\n", stats.ProcessingTime)
	if result.SummaryPath != "" {
		fmt.Fprintf(w, "Summary written:   %s\n", result.SummaryPath)
	}

	if !result.Success() {
		fmt.Fprintln(w)
		red.Fprintln(w, "There were errors during the execution. Please fix them and retry.")
	}
}
