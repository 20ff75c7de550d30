// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dicom-stats/internal/dicomtest"
	"github.com/pdiddy/dicom-stats/pkg/types"
)

// setViper overrides key for the duration of the test.
func setViper(t *testing.T, key string, value any) {
	t.Helper()
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, nil) })
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ';'},
		{in: ";", want: ';'},
		{in: ",", want: ','},
		{in: "tab", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: "|", want: '|'},
		{in: "§", want: '§'},
		{in: ";;", wantErr: true},
		{in: `"`, wantErr: true},
		{in: "\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDelimiter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "trims and drops empty", in: []string{" KVP ", "", "Rows"}, want: []string{"KVP", "Rows"}},
		{name: "rejoins tag notation", in: []string{"KVP", "(0018", "0060)", "Rows"}, want: []string{"KVP", "(0018,0060)", "Rows"}},
		{name: "whole tag kept", in: []string{"(0018,0060)"}, want: []string{"(0018,0060)"}},
		{name: "splits comma separated entry", in: []string{"KVP,Modality"}, want: []string{"KVP", "Modality"}},
		{name: "tag inside comma separated entry", in: []string{"(0018,1149),KVP"}, want: []string{"(0018,1149)", "KVP"}},
		{name: "mixed", in: []string{" AccessionNumber , (0018,0060)", "Rows,"}, want: []string{"AccessionNumber", "(0018,0060)", "Rows"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}

func TestConfigFromViper(t *testing.T) {
	setViper(t, "fields", []string{"KVP", "StudyDate"})
	setViper(t, "mode", "series")
	setViper(t, "output", "stats.db")
	setViper(t, "vendor_adjustments", true)

	ext, out, err := configFromViper()
	require.NoError(t, err)

	assert.Equal(t, []string{"KVP", "StudyDate"}, ext.Fields)
	assert.Equal(t, types.ModeSeries, ext.Mode)
	assert.True(t, ext.VendorAdjustments)
	assert.False(t, ext.ExcludeDerived)
	assert.Equal(t, types.FormatSQLite, out.ResolvedFormat())
	assert.Equal(t, ';', out.Delimiter)
	assert.Equal(t, []string{"stats.db", "stats.db-wal", "stats.db-shm", "stats.db-journal"}, ext.Exclude)
}

func TestConfigFromViperCommaSeparatedEnv(t *testing.T) {
	viper.SetEnvPrefix("DICOM_STATS")
	viper.AutomaticEnv()
	t.Setenv("DICOM_STATS_FIELDS", "KVP,Modality,(0018,1149)")

	ext, _, err := configFromViper()
	require.NoError(t, err)
	assert.Equal(t, []string{"KVP", "Modality", "(0018,1149)"}, ext.Fields)
}

func TestConfigFromViperSelectedColumns(t *testing.T) {
	setViper(t, "selected_columns", []string{"PatientSex", "KVP"})

	ext, _, err := configFromViper()
	require.NoError(t, err)
	assert.Equal(t, []string{"PatientSex", "KVP"}, ext.Fields)
}

func TestConfigFromViperRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"mode":      "study",
		"format":    "parquet",
		"delimiter": "ab",
	} {
		t.Run(key, func(t *testing.T) {
			setViper(t, key, value)
			_, _, err := configFromViper()
			assert.Error(t, err)
		})
	}
}

func TestConfigFromViperStdout(t *testing.T) {
	setViper(t, "output", "-")

	ext, out, err := configFromViper()
	require.NoError(t, err)
	assert.Equal(t, "-", out.Path)
	assert.Empty(t, ext.Exclude)
}

func TestExtractCommand(t *testing.T) {
	root := t.TempDir()
	dicomtest.New().Set("AccessionNumber", "A1").Set("KVP", "90").WriteFile(t, root, "s1/IMG0001")
	dicomtest.New().Set("AccessionNumber", "A2").WriteFile(t, root, "s2/IMG0001")
	dicomtest.WriteRaw(t, root, "s2/notes.txt", []byte("scanner notes"))
	out := filepath.Join(t.TempDir(), "stats.csv")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"extract", root, "-o", out, "--fields", "AccessionNumber,KVP"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		// Parsed flag values outlive Execute and feed viper.
		_ = extractCmd.Flags().Lookup("fields").Value.(pflag.SliceValue).Replace(nil)
		_ = extractCmd.Flags().Set("output", defaultOutput)
	})

	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "AccessionNumber;KVP\r\nA1;90\r\nA2;\r\n", string(data))
	assert.Contains(t, stdout.String(), "Wrote 2 rows to "+out)
	assert.Contains(t, stdout.String(), "Batch summary: 2 extracted, 0 filtered, 0 duplicates, 1 failed (total: 3)")
	assert.Contains(t, stderr.String(), "skipping unparsable file")
}

func TestInspect(t *testing.T) {
	path := dicomtest.New().
		Set("Manufacturer", "Planmeca").
		Set("KVP", "90").
		WriteFile(t, t.TempDir(), "IMG0001")

	var buf bytes.Buffer
	inspectCmd.SetOut(&buf)
	t.Cleanup(func() { inspectCmd.SetOut(nil) })

	require.NoError(t, runInspect(inspectCmd, []string{path}))
	assert.Contains(t, buf.String(), "(0002,0010)[TransferSyntaxUID]")
	assert.Contains(t, buf.String(), "(0008,0070)[Manufacturer] LO Planmeca")
	assert.Contains(t, buf.String(), "(0018,0060)[KVP] DS 90")
}

func TestInspectNotDICOM(t *testing.T) {
	path := dicomtest.WriteRaw(t, t.TempDir(), "notes.txt", []byte("plain text"))
	err := runInspect(inspectCmd, []string{path})
	assert.Error(t, err)
}

func TestFieldsDefault(t *testing.T) {
	var buf bytes.Buffer
	fieldsCmd.SetOut(&buf)
	t.Cleanup(func() { fieldsCmd.SetOut(nil) })

	require.NoError(t, runFields(fieldsCmd, nil))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, len(types.DefaultFields))
	assert.Contains(t, string(lines[0]), "AccessionNumber")
	assert.Contains(t, string(lines[0]), "(0008,0050)")
}

func TestFieldsSearch(t *testing.T) {
	var buf bytes.Buffer
	fieldsCmd.SetOut(&buf)
	require.NoError(t, fieldsCmd.Flags().Set("search", "manufacturer"))
	require.NoError(t, fieldsCmd.Flags().Set("limit", "40"))
	t.Cleanup(func() {
		fieldsCmd.SetOut(nil)
		_ = fieldsCmd.Flags().Set("search", "")
		_ = fieldsCmd.Flags().Set("limit", "10")
	})

	require.NoError(t, runFields(fieldsCmd, nil))
	assert.Contains(t, buf.String(), "Manufacturer")
	assert.Contains(t, buf.String(), "ManufacturerModelName")
}
