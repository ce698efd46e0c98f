package config

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "xlsx", cfg.TemplateExtension)
	assert.Equal(t, "Sheet1", cfg.TemplateSheet)
	assert.Equal(t, 1, cfg.TemplateHeaderRow)
	assert.Equal(t, "|", cfg.Delimiter)
	assert.Equal(t, "UTF-8", cfg.Encoding)
	assert.Equal(t, "lf", cfg.LineEnding)
	assert.Equal(t, "Data", cfg.DataSheet)
	assert.Equal(t, "No_name", cfg.PlaceholderHeader)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestApplyDefaults_StripsExtensionDot(t *testing.T) {
	cfg := &Config{TemplateExtension: ".xlsm"}
	cfg.ApplyDefaults()
	assert.Equal(t, "xlsm", cfg.TemplateExtension)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Source = "in.txt"
		cfg.Target = "out"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing source", mutate: func(c *Config) { c.Source = "" }, wantErr: "source"},
		{name: "missing target", mutate: func(c *Config) { c.Target = "" }, wantErr: "target"},
		{name: "long delimiter", mutate: func(c *Config) { c.Delimiter = "||" }, wantErr: "delimiter"},
		{name: "bad header row", mutate: func(c *Config) { c.TemplateHeaderRow = -1 }, wantErr: "template_header_row"},
		{name: "bad line ending", mutate: func(c *Config) { c.LineEnding = "cr" }, wantErr: "line_ending"},
		{name: "legacy ignores line ending", mutate: func(c *Config) { c.LineEnding = "cr"; c.LegacyText = true }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLineTerminator(t *testing.T) {
	cfg := Default()

	term, err := cfg.LineTerminator()
	require.NoError(t, err)
	assert.Equal(t, "\n", term)

	cfg.LineEnding = "CRLF"
	term, err = cfg.LineTerminator()
	require.NoError(t, err)
	assert.Equal(t, "\r\n", term)

	cfg.LegacyText = true
	term, err = cfg.LineTerminator()
	require.NoError(t, err)
	assert.Equal(t, "", term)
}

func TestFromViper_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("target: ./from-file\nencoding: ISO-8859-1\n"), 0o644))
	t.Setenv("ECFSPLIT_TARGET", "./from-env")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := FromViper(v)
	assert.Equal(t, "./from-env", cfg.Target)
	assert.Equal(t, "ISO-8859-1", cfg.Encoding)
	assert.Equal(t, "Data", cfg.DataSheet)
}

func TestMarshal_Loadable(t *testing.T) {
	cfg := Default()
	cfg.TemplatesDir = "./templates"

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "templates_dir: ./templates")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(data)))
	assert.Equal(t, cfg, FromViper(v))
}
