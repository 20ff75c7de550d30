// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "CSV", want: FormatCSV},
		{in: "xlsx", want: FormatXLSX},
		{in: "yml", want: FormatYAML},
		{in: "sqlite3", want: FormatSQLite},
		{in: "parquet", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOutputConfigResolvedFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, OutputConfig{Path: "out.csv"}.ResolvedFormat())
	assert.Equal(t, FormatCSV, OutputConfig{Path: "-"}.ResolvedFormat())
	assert.Equal(t, FormatXLSX, OutputConfig{Path: "stats.XLSX"}.ResolvedFormat())
	assert.Equal(t, FormatSQLite, OutputConfig{Path: "runs.db"}.ResolvedFormat())
	assert.Equal(t, FormatJSON, OutputConfig{Path: "out.csv", Format: FormatJSON}.ResolvedFormat())
}

func TestParseExtractionMode(t *testing.T) {
	m, err := ParseExtractionMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFile, m)

	m, err = ParseExtractionMode("Series")
	require.NoError(t, err)
	assert.Equal(t, ModeSeries, m)

	_, err = ParseExtractionMode("study")
	assert.Error(t, err)
}

func TestSelectedFieldsCopies(t *testing.T) {
	cfg := ExtractionConfig{}
	fields := cfg.SelectedFields()
	assert.Equal(t, DefaultFields, fields)
	fields[0] = "changed"
	assert.Equal(t, "AccessionNumber", DefaultFields[0])

	cfg.Fields = []string{"KVP", "Rows"}
	assert.Equal(t, []string{"KVP", "Rows"}, cfg.SelectedFields())
}

func TestRecordRowFillsMissing(t *testing.T) {
	r := Record{Values: map[string]string{"KVP": "90"}}
	assert.Equal(t, []string{"", "90", ""}, r.Row([]string{"Rows", "KVP", "Columns"}))

	table := &Table{Fields: []string{"KVP"}, Records: []Record{r, {}}}
	assert.Equal(t, [][]string{{"90"}, {""}}, table.Rows())
}
