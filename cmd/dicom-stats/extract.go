// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dicom-stats/internal/export"
	"github.com/pdiddy/dicom-stats/internal/extract"
	"github.com/pdiddy/dicom-stats/pkg/types"
)

const defaultOutput = "dicom-stats.csv"

var extractCmd = &cobra.Command{
	Use:   "extract [root]",
	Short: "Extract the configured attributes of every DICOM file under root",
	Long: `Extract walks root (default: the current directory), reads the
configured fields from every file, and writes one row per file to the
output. Column order follows the field list; attributes a file lacks are
written as empty values. Files that are not DICOM are logged and skipped.

Fields come from --fields, or the "fields" (alias "selected_columns") list
in the config file, or the built-in CBCT statistics list. Keywords such as
"KVP" and tag notation such as "(0018,0060)" are both accepted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringP("output", "o", defaultOutput, `output file ("-" for stdout)`)
	f.String("format", "", "output format: csv, xlsx, json, yaml, or sqlite (default: from output extension)")
	f.StringSlice("fields", nil, "comma-separated fields to extract, in column order")
	f.String("mode", string(types.ModeFile), "one row per file or per series: file or series")
	f.String("delimiter", string(export.DefaultDelimiter), `CSV field delimiter ("tab" for a tab)`)
	f.String("sheet", export.DefaultSheet, "worksheet name for xlsx output")
	f.Bool("exclude-derived", false, "skip files whose ImageType contains DERIVED")
	f.Bool("vendor-adjustments", false, "apply Morita and Planmeca dose and slice-count rules")
	f.Bool("dedupe-content", false, "skip files whose content matches an earlier file")
	f.Bool("include-hidden", false, "also visit hidden files and directories")
	f.StringSlice("ext", nil, "only visit files with these extensions (default: all files)")
	f.Bool("strict-fields", false, "fail on unknown field names instead of writing empty columns")

	// Viper keys follow the config file spelling.
	for key, flag := range map[string]string{
		"output":             "output",
		"format":             "format",
		"fields":             "fields",
		"mode":               "mode",
		"delimiter":          "delimiter",
		"sheet":              "sheet",
		"exclude_derived":    "exclude-derived",
		"vendor_adjustments": "vendor-adjustments",
		"dedupe_content":     "dedupe-content",
		"include_hidden":     "include-hidden",
		"extensions":         "ext",
		"strict_fields":      "strict-fields",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	extractCfg, outputCfg, err := configFromViper()
	if err != nil {
		return err
	}

	ex, err := extract.New(extractCfg, logger)
	if err != nil {
		return err
	}

	table, summary, err := ex.Extract(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", root, err)
	}

	// Keep stdout clean when the table itself goes there.
	status := cmd.OutOrStdout()
	if outputCfg.Path == export.StdoutPath {
		status = cmd.ErrOrStderr()
	}

	if err := writeTable(cmd, status, table, outputCfg); err != nil {
		return err
	}
	fmt.Fprintln(status, summary)
	return nil
}

func writeTable(cmd *cobra.Command, status io.Writer, table *types.Table, cfg types.OutputConfig) error {
	format := cfg.ResolvedFormat()
	if format == types.FormatSQLite {
		runID, err := export.WriteSQLite(cmd.Context(), table, cfg.Path)
		if err != nil {
			return fmt.Errorf("writing %s: %w", cfg.Path, err)
		}
		fmt.Fprintf(status, "Stored %d rows in %s (run %s)\n", len(table.Records), cfg.Path, runID)
		return nil
	}

	if err := export.Write(cmd.Context(), table, cfg); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Path, err)
	}
	if cfg.Path != export.StdoutPath {
		fmt.Fprintf(status, "Wrote %d rows to %s (%s)\n", len(table.Records), cfg.Path, format)
	}
	return nil
}

// configFromViper assembles the run configuration from flags, environment
// and config file, in viper's precedence order.
func configFromViper() (types.ExtractionConfig, types.OutputConfig, error) {
	mode, err := types.ParseExtractionMode(viper.GetString("mode"))
	if err != nil {
		return types.ExtractionConfig{}, types.OutputConfig{}, err
	}
	format, err := types.ParseOutputFormat(viper.GetString("format"))
	if err != nil {
		return types.ExtractionConfig{}, types.OutputConfig{}, err
	}
	delimiter, err := parseDelimiter(viper.GetString("delimiter"))
	if err != nil {
		return types.ExtractionConfig{}, types.OutputConfig{}, err
	}

	fields := splitList(viper.GetStringSlice("fields"))
	if len(fields) == 0 {
		fields = splitList(viper.GetStringSlice("selected_columns"))
	}

	out := types.OutputConfig{
		Path:      viper.GetString("output"),
		Format:    format,
		Delimiter: delimiter,
		Sheet:     viper.GetString("sheet"),
	}
	if out.Path == "" {
		out.Path = defaultOutput
	}

	cfg := types.ExtractionConfig{
		Fields:            fields,
		Mode:              mode,
		ExcludeDerived:    viper.GetBool("exclude_derived"),
		VendorAdjustments: viper.GetBool("vendor_adjustments"),
		DedupeContent:     viper.GetBool("dedupe_content"),
		IncludeHidden:     viper.GetBool("include_hidden"),
		Extensions:        splitList(viper.GetStringSlice("extensions")),
		StrictFields:      viper.GetBool("strict_fields"),
	}
	if out.Path != export.StdoutPath {
		cfg.Exclude = []string{out.Path}
		if out.ResolvedFormat() == types.FormatSQLite {
			cfg.Exclude = append(cfg.Exclude, out.Path+"-wal", out.Path+"-shm", out.Path+"-journal")
		}
	}
	return cfg, out, nil
}

// splitList splits entries on commas, trims them and drops empty ones.
// Tag notation such as "(0018,0060)" is kept whole, whether it arrives as
// one entry or split in two by flag parsing.
func splitList(in []string) []string {
	var parts []string
	for _, entry := range in {
		parts = append(parts, strings.Split(entry, ",")...)
	}
	var out []string
	for i := 0; i < len(parts); i++ {
		s := strings.TrimSpace(parts[i])
		if strings.HasPrefix(s, "(") && !strings.Contains(s, ")") && i+1 < len(parts) {
			s += "," + strings.TrimSpace(parts[i+1])
			i++
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return export.DefaultDelimiter, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}
