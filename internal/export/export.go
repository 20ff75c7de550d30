// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes an extracted table as CSV, XLSX, JSON, YAML or into
// a SQLite database. Every format keeps the configured column order.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dicom-stats/pkg/types"
)

const (
	// DefaultDelimiter separates CSV fields unless configured otherwise.
	DefaultDelimiter = ';'
	// DefaultSheet names the XLSX worksheet unless configured otherwise.
	DefaultSheet = "DICOM"
	// StdoutPath selects standard output instead of a file.
	StdoutPath = "-"
)

// ErrStdoutUnsupported is returned for formats that need a real file.
var ErrStdoutUnsupported = errors.New("format cannot be written to stdout")

// stdout is where StdoutPath writes; tests replace it.
var stdout io.Writer = os.Stdout

// document is the JSON/YAML shape. Rows are positional so column order
// survives formats whose maps are unordered.
type document struct {
	Fields []string   `json:"fields" yaml:"fields"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// Write serializes table to cfg.Path in cfg's format. For SQLite the table
// is appended as a new run; use WriteSQLite to learn its ID.
func Write(ctx context.Context, table *types.Table, cfg types.OutputConfig) error {
	format := cfg.ResolvedFormat()
	if format == types.FormatSQLite {
		_, err := WriteSQLite(ctx, table, cfg.Path)
		return err
	}
	if cfg.Path == StdoutPath || cfg.Path == "" {
		return Encode(stdout, table, cfg)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Encode(f, table, cfg); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", cfg.Path, err)
	}
	return nil
}

// Encode writes table to w in cfg's format. SQLite needs a file path and
// is rejected.
func Encode(w io.Writer, table *types.Table, cfg types.OutputConfig) error {
	switch format := cfg.ResolvedFormat(); format {
	case types.FormatCSV:
		delim := cfg.Delimiter
		if delim == 0 {
			delim = DefaultDelimiter
		}
		return WriteCSV(w, table, delim)
	case types.FormatXLSX:
		sheet := cfg.Sheet
		if sheet == "" {
			sheet = DefaultSheet
		}
		return WriteXLSX(w, table, sheet)
	case types.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDocument(table)); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case types.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(table)); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case types.FormatSQLite:
		return fmt.Errorf("%s: %w", format, ErrStdoutUnsupported)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func newDocument(table *types.Table) document {
	rows := table.Rows()
	if rows == nil {
		rows = [][]string{}
	}
	return document{Fields: table.Fields, Rows: rows}
}
