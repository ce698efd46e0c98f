package exporter

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

type staticHeaders map[types.BlockCode]types.HeaderList

func (s staticHeaders) Lookup(code types.BlockCode) (types.HeaderList, bool) {
	headers, ok := s[code]
	return headers, ok
}

// failingSink fails for one block code and writes a marker otherwise.
type failingSink struct {
	failOn types.BlockCode
}

func (s *failingSink) Name() string      { return "failing" }
func (s *failingSink) Extension() string { return "bad" }
func (s *failingSink) Write(w io.Writer, code types.BlockCode, _ []types.Record, _ types.HeaderList) error {
	if code == s.failOn {
		return errors.New("boom")
	}
	_, err := io.WriteString(w, "ok")
	return err
}

func sampleTable() *types.BlockTable {
	table := types.NewBlockTable()
	table.Append("X310", types.Record{"IDX1", "foo", "extra"})
	table.Append("X310", types.Record{"IDX1", "bar"})
	table.Append("X500", types.Record{"a", "b"})
	return table
}

func readSheet(t *testing.T, fs afero.Fs, path, sheet string) [][]string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func newExporter(fs afero.Fs) *Exporter {
	return &Exporter{
		Fs:        fs,
		TargetDir: "/out",
		Sinks: []Sink{
			&TextSink{},
			&SpreadsheetSink{SheetName: "Data"},
		},
	}
}

func TestExport_WritesBothArtifactsPerCode(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))

	report := newExporter(fs).Export(sampleTable(), staticHeaders{"X310": {"Index", "Name"}})
	require.NoError(t, report.Err())
	assert.Len(t, report.Artifacts, 4)

	text, err := afero.ReadFile(fs, "/out/X310.txt")
	require.NoError(t, err)
	assert.Equal(t, "IDX1|foo|extra\nIDX1|bar\n", string(text))

	rows := readSheet(t, fs, "/out/X310.xlsx", "Data")
	assert.Equal(t, [][]string{
		{"Index", "Name", "No_name"},
		{"IDX1", "foo", "extra"},
		{"IDX1", "bar"},
	}, rows)

	// No template for X500: positional labels.
	rows = readSheet(t, fs, "/out/X500.xlsx", "Data")
	assert.Equal(t, [][]string{{"0", "1"}, {"a", "b"}}, rows)
}

func TestExport_TruncatesExistingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/X500.txt", []byte("old content that is longer"), 0o644))

	report := newExporter(fs).Export(sampleTable(), nil)
	require.NoError(t, report.Err())

	text, err := afero.ReadFile(fs, "/out/X500.txt")
	require.NoError(t, err)
	assert.Equal(t, "a|b\n", string(text))
}

func TestExport_FailureDoesNotBlockSiblings(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))

	exp := newExporter(fs)
	exp.Sinks = []Sink{&failingSink{failOn: "X310"}, &TextSink{}}

	report := exp.Export(sampleTable(), nil)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, types.BlockCode("X310"), failed[0].BlockCode)
	assert.Equal(t, "failing", failed[0].Sink)

	data, err := afero.ReadFile(fs, "/out/X500.bad")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	for _, path := range []string{"/out/X310.txt", "/out/X500.txt"} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	err = report.Err()
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 1)

	var exportErr *ExportError
	require.True(t, errors.As(merr.Errors[0], &exportErr))
	assert.Equal(t, "/out/X310.bad", exportErr.Path)
	assert.Contains(t, err.Error(), "boom")
}

func TestExport_UnwritableTarget(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	report := newExporter(fs).Export(sampleTable(), nil)

	assert.Len(t, report.Failed(), 4)
	assert.Error(t, report.Err())
}

func TestExport_ProgressBar(t *testing.T) {
	fs := afero.NewMemMapFs()
	var progress bytes.Buffer

	exp := newExporter(fs)
	exp.Progress = &progress
	report := exp.Export(sampleTable(), nil)

	require.NoError(t, report.Err())
	assert.NotEmpty(t, progress.String())
}

func TestExport_EmptyTable(t *testing.T) {
	report := newExporter(afero.NewMemMapFs()).Export(types.NewBlockTable(), nil)

	assert.Empty(t, report.Artifacts)
	assert.NoError(t, report.Err())
}

func TestExport_RejectsBlockCodesOutsideTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))

	table := types.NewBlockTable()
	table.Append("../escaped", types.Record{"x"})
	table.Append(`sub\dir`, types.Record{"y"})
	table.Append("..", types.Record{"z"})
	table.Append("X200", types.Record{"ok"})

	report := newExporter(fs).Export(table, nil)

	failed := report.Failed()
	require.Len(t, failed, 6)
	for _, artifact := range failed {
		assert.NotEqual(t, types.BlockCode("X200"), artifact.BlockCode)
		assert.ErrorIs(t, artifact.Err, ErrUnsafeBlockCode)
	}

	var exportErr *ExportError
	require.ErrorAs(t, report.Err(), &exportErr)
	assert.ErrorIs(t, report.Err(), ErrUnsafeBlockCode)

	escaped, err := afero.Exists(fs, "/escaped.txt")
	require.NoError(t, err)
	assert.False(t, escaped)

	data, err := afero.ReadFile(fs, "/out/X200.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(data))
}
