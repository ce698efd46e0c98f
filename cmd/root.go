// =============================================================================
// ECF Block Splitter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ecfsplit)
//   ├── convertCmd (ecfsplit convert)
//   ├── configCmd  (ecfsplit config init | show)
//   └── versionCmd (ecfsplit version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --log-format)
//   2. Initializing viper (config file, ECFSPLIT_* environment, flags)
//   3. Mapping failures to process exit codes
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/ecf-block-splitter/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// A missing file is fine unless --config was given explicitly.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// v merges defaults, the config file, the environment and the flags.
// It is rebuilt for every run.
var v *viper.Viper

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ecfsplit",
	Short: "ECF Block Splitter - Split a pipe-delimited ECF export into per-block tables",
	Long: `ECF Block Splitter reads a pipe-delimited tax-accounting export (ECF layout)
and writes one table per block code, both as delimited text and as an XLSX
spreadsheet whose column headers come from per-block templates.

Detail blocks inherit the index of their header block:
  X300 -> X310
  X320 -> X330

Example Usage:
  ecfsplit convert --source export.txt --target ./out
  ecfsplit convert --source export.txt --target ./out --templates ./templates
  ecfsplit config init                 # Write a default config.yaml`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with the code of the failure class.
// This is called by main.main().
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(args []string) int {
	v = newViper()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", exit.err)
			}
			return exit.code
		}
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String(
		"log-format",
		"text",
		"Log format: text or json",
	)
}

// newViper returns a viper instance with the defaults, the environment
// binding and the flag bindings of every command.
func newViper() *viper.Viper {
	nv := viper.New()
	config.SetDefaults(nv)
	nv.SetEnvPrefix(config.EnvPrefix)
	nv.AutomaticEnv()

	nv.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindConvertFlags(nv)
	return nv
}

// initConfig reads the configuration file into viper.
func initConfig(cmd *cobra.Command) error {
	v.SetFs(appFs)
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		explicit := cmd.Flags().Changed("config")
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}

	return nil
}

// loadConfig returns the effective configuration.
func loadConfig() *config.Config {
	cfg := config.FromViper(v)
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}
