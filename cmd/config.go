// =============================================================================
// ECF Block Splitter - Config Command
// =============================================================================
//
// COMMAND USAGE:
//   ecfsplit config init [--force]   Write the default configuration file
//   ecfsplit config show             Print the effective configuration
//
// The effective configuration merges, from lowest to highest priority:
// built-in defaults, the config file, ECFSPLIT_* environment variables and
// command-line flags.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ecf-block-splitter/internal/config"
)

// forceInit overwrites an existing config file.
var forceInit bool

// appFs backs the config file and every conversion.
var appFs = afero.NewOsFs()

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	// The file is being created; there is nothing to read yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if exists, _ := afero.Exists(appFs, cfgFile); exists && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		data, err := config.Marshal(config.Default())
		if err != nil {
			return err
		}
		if err := afero.WriteFile(appFs, cfgFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfgFile, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", cfgFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Marshal(loadConfig())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

