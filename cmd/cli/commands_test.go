package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/adapters/report"
	"gomend/domain/table"
	"gomend/internal/missing"
)

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(fs, &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func memFile(t *testing.T, path, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	return fs
}

func TestProfileJSON(t *testing.T) {
	fs := memFile(t, "/in.csv", "price,city\n1,a\nNA,b\n3,c\n4,\n")

	out, err := run(t, fs, "profile", "--input", "/in.csv", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Data missing.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 4, doc.Data.Rows)
	assert.Equal(t, 2, doc.Data.TotalMissing)
	assert.Equal(t, 0.25, doc.Data.Ratios()["price"])
}

func TestRepairWritesCSV(t *testing.T) {
	fs := memFile(t, "/in.csv", "price,city\n1,a\n,b\n3,c\n")

	_, err := run(t, fs, "repair", "--input", "/in.csv", "--column", "price", "--strategy", "mean", "--out", "/out.csv")
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, "/out.csv")
	require.NoError(t, err)
	assert.Equal(t, "price,city\n1,a\n2,b\n3,c\n", string(raw))
}

func TestRepairPreview(t *testing.T) {
	fs := memFile(t, "/in.csv", "city\na\nNA\na\n")

	out, err := run(t, fs, "repair", "--input", "/in.csv", "--column", "0", "--strategy", "mode", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| 1 | a |")
}

func TestOutliersDetect(t *testing.T) {
	var b strings.Builder
	b.WriteString("x\n")
	for _, v := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "100"} {
		b.WriteString(v + "\n")
	}
	fs := memFile(t, "/in.csv", b.String())

	out, err := run(t, fs, "outliers", "detect", "--input", "/in.csv", "--columns", "x", "--detector", "iqr", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Data report.Detection `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "iqr", doc.Data.Method)
	assert.Equal(t, []table.RowID{9}, doc.Data.Rows)
}

func TestOutliersHandle(t *testing.T) {
	fs := memFile(t, "/in.csv", "x\n1\n2\n3\n4\n5\n6\n7\n8\n9\n100\n")

	_, err := run(t, fs, "outliers", "handle", "--input", "/in.csv", "--column", "x", "--strategy", "median", "--out", "/out.csv")
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, "/out.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "5", lines[len(lines)-1])
}

func TestCommandErrors(t *testing.T) {
	fs := memFile(t, "/in.csv", "city\na\nb\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"profile"}},
		{"both sources", []string{"profile", "--input", "/in.csv", "--query", "select 1"}},
		{"missing file", []string{"profile", "--input", "/nope.csv"}},
		{"bad strategy", []string{"repair", "--input", "/in.csv", "--column", "city", "--strategy", "guess"}},
		{"not numeric", []string{"transform", "--input", "/in.csv", "--column", "city"}},
		{"bad format", []string{"summary", "--input", "/in.csv", "--format", "pdf"}},
		{"query without url", []string{"summary", "--query", "select 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, fs, tt.args...)
			assert.Error(t, err)
		})
	}
}
