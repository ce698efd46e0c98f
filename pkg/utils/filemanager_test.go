package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestWriteSummaryLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	fm := NewFileManager(fs, "/out")

	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	path, err := fm.WriteSummaryLog(ProcessingSummary{
		RunID:      "run-1",
		SourceFile: "/in/export.txt",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Second),
		TotalRows:  3,
		Blocks: []BlockInfo{
			{BlockCode: "X300", Rows: 1, Columns: 1, HeaderSource: "template"},
			{BlockCode: "X310", Rows: 2, Columns: 2, HeaderSource: "positional"},
		},
		Failures: []FailureInfo{{BlockCode: "X310", Sink: "spreadsheet", ErrorMessage: "disk full"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/out/conversion_summary_run-1.txt", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Run ID:         run-1")
	assert.Contains(t, content, "Duration:       2s")
	assert.Contains(t, content, "Total Rows:     3")
	assert.Contains(t, content, "X310     rows=2")
	assert.Contains(t, content, "X310 (spreadsheet): disk full")
}

func TestWriteSummaryLog_ReadOnly(t *testing.T) {
	fm := NewFileManager(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/out")

	_, err := fm.WriteSummaryLog(ProcessingSummary{RunID: "x"})
	assert.Error(t, err)
}

// closeFailFs hands out files whose Close always fails.
type closeFailFs struct {
	afero.Fs
}

func (c *closeFailFs) Create(name string) (afero.File, error) {
	file, err := c.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return &closeFailFile{File: file}, nil
}

type closeFailFile struct {
	afero.File
}

func (f *closeFailFile) Close() error {
	_ = f.File.Close()
	return errors.New("device not ready")
}

func TestWriteSummaryLog_CloseError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	fm := NewFileManager(&closeFailFs{Fs: fs}, "/out")

	path, err := fm.WriteSummaryLog(ProcessingSummary{RunID: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close summary file")
	assert.Empty(t, path)
}
