// =============================================================================
// ECF Block Splitter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the run configuration.
//
// CONFIGURATION SOURCES (highest precedence first):
//   1. Command line flags
//   2. Environment variables (ECFSPLIT_<KEY>, e.g. ECFSPLIT_TARGET)
//   3. The YAML configuration file (config.yaml by default, optional)
//   4. Built-in defaults (see Default)
//
// The layering is done by viper in the cmd package; this package owns the
// struct, its defaults and its validation.
//
// =============================================================================

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by viper.
const EnvPrefix = "ECFSPLIT"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the settings of a single conversion run.
type Config struct {
	// =========================================================================
	// PATHS
	// =========================================================================

	// Source is the pipe-delimited export to convert.
	Source string `yaml:"source"`

	// Target is the existing directory where the per-block artifacts are written.
	Target string `yaml:"target"`

	// TemplatesDir holds one header template per block code (<code>.<ext>).
	// Empty disables header resolution; every table gets positional labels.
	TemplatesDir string `yaml:"templates_dir"`

	// =========================================================================
	// TEMPLATE SETTINGS
	// =========================================================================

	// TemplateExtension is the file extension of the templates, without the dot.
	// Default: "xlsx"
	TemplateExtension string `yaml:"template_extension"`

	// TemplateSheet is the sheet holding the header row.
	// Empty means the first sheet of the workbook.
	// Default: "Sheet1"
	TemplateSheet string `yaml:"template_sheet"`

	// TemplateHeaderRow is the 1-based row holding the column names.
	// Default: 1
	TemplateHeaderRow int `yaml:"template_header_row"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// Delimiter separates fields in the source file.
	// Default: "|"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the source file.
	// Common values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputEncoding is the character encoding of the .txt artifacts.
	// Default: "UTF-8"
	OutputEncoding string `yaml:"output_encoding"`

	// LineEnding terminates every row of the .txt artifacts: "lf" or "crlf".
	// Default: "lf"
	LineEnding string `yaml:"line_ending"`

	// LegacyText writes the rows of the .txt artifacts back-to-back with no
	// line terminator, byte-compatible with the older converter.
	LegacyText bool `yaml:"legacy_text"`

	// DataSheet is the name of the single sheet of every .xlsx artifact.
	// Default: "Data"
	DataSheet string `yaml:"data_sheet"`

	// PlaceholderHeader names columns the template has no name for.
	// Default: "No_name"
	PlaceholderHeader string `yaml:"placeholder_header"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log output format: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// Default returns a Config with every default applied and no paths set.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for any unset option.
func (c *Config) ApplyDefaults() {
	if c.TemplateExtension == "" {
		c.TemplateExtension = "xlsx"
	}
	c.TemplateExtension = strings.TrimPrefix(c.TemplateExtension, ".")
	if c.TemplateSheet == "" {
		c.TemplateSheet = "Sheet1"
	}
	if c.TemplateHeaderRow == 0 {
		c.TemplateHeaderRow = 1
	}
	if c.Delimiter == "" {
		c.Delimiter = "|"
	}
	if c.Encoding == "" {
		c.Encoding = "UTF-8"
	}
	if c.OutputEncoding == "" {
		c.OutputEncoding = "UTF-8"
	}
	if c.LineEnding == "" {
		c.LineEnding = "lf"
	}
	if c.DataSheet == "" {
		c.DataSheet = "Data"
	}
	if c.PlaceholderHeader == "" {
		c.PlaceholderHeader = "No_name"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate checks option values. It does not touch the filesystem; path
// checks are preconditions of the run and live in the validation package.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source file is required")
	}
	if c.Target == "" {
		return fmt.Errorf("target directory is required")
	}
	if len(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.TemplateHeaderRow < 1 {
		return fmt.Errorf("template_header_row must be at least 1, got %d", c.TemplateHeaderRow)
	}
	if _, err := c.LineTerminator(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// LineTerminator returns the row terminator of the .txt artifacts.
// Legacy mode has none.
func (c *Config) LineTerminator() (string, error) {
	if c.LegacyText {
		return "", nil
	}
	switch strings.ToLower(c.LineEnding) {
	case "lf", "\n":
		return "\n", nil
	case "crlf", "\r\n":
		return "\r\n", nil
	default:
		return "", fmt.Errorf("line_ending must be lf or crlf, got %q", c.LineEnding)
	}
}

// =============================================================================
// VIPER / YAML GLUE
// =============================================================================

// SetDefaults registers the default values on a viper instance so that
// environment variables are honored for every key.
func SetDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("source", def.Source)
	v.SetDefault("target", def.Target)
	v.SetDefault("templates_dir", def.TemplatesDir)
	v.SetDefault("template_extension", def.TemplateExtension)
	v.SetDefault("template_sheet", def.TemplateSheet)
	v.SetDefault("template_header_row", def.TemplateHeaderRow)
	v.SetDefault("delimiter", def.Delimiter)
	v.SetDefault("encoding", def.Encoding)
	v.SetDefault("output_encoding", def.OutputEncoding)
	v.SetDefault("line_ending", def.LineEnding)
	v.SetDefault("legacy_text", def.LegacyText)
	v.SetDefault("data_sheet", def.DataSheet)
	v.SetDefault("placeholder_header", def.PlaceholderHeader)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
}

// FromViper builds a Config from the merged viper settings.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Source:            v.GetString("source"),
		Target:            v.GetString("target"),
		TemplatesDir:      v.GetString("templates_dir"),
		TemplateExtension: v.GetString("template_extension"),
		TemplateSheet:     v.GetString("template_sheet"),
		TemplateHeaderRow: v.GetInt("template_header_row"),
		Delimiter:         v.GetString("delimiter"),
		Encoding:          v.GetString("encoding"),
		OutputEncoding:    v.GetString("output_encoding"),
		LineEnding:        v.GetString("line_ending"),
		LegacyText:        v.GetBool("legacy_text"),
		DataSheet:         v.GetString("data_sheet"),
		PlaceholderHeader: v.GetString("placeholder_header"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}
	cfg.ApplyDefaults()
	return cfg
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
