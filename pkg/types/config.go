// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultFields is the column list used when none is configured: the
// exposure, geometry and device attributes needed for CBCT usage statistics.
var DefaultFields = []string{
	"AccessionNumber",
	"SeriesInstanceUID",
	"StudyDate",
	"StudyTime",
	"PatientBirthDate",
	"PatientSex",
	"KVP",
	"XRayTubeCurrent",
	"ExposureTime",
	"AcquiredImageAreaDoseProduct",
	"Columns",
	"Rows",
	"PixelSpacing",
	"ImagesInAcquisition",
	"SliceThickness",
	"Manufacturer",
	"StationName",
	"ManufacturerModelName",
	"ImageComments",
}

// ExtractionMode selects whether a row is emitted per file or per series.
type ExtractionMode string

const (
	ModeFile   ExtractionMode = "file"
	ModeSeries ExtractionMode = "series"
)

// ParseExtractionMode validates a mode name. The empty string selects
// ModeFile.
func ParseExtractionMode(s string) (ExtractionMode, error) {
	switch m := ExtractionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFile, nil
	case ModeFile, ModeSeries:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want file or series)", s)
	}
}

// ExtractionConfig holds settings for a batch extraction run.
type ExtractionConfig struct {
	// Fields is the ordered list of columns (keywords or tag notation such
	// as "(0018,0060)"). Empty means DefaultFields.
	Fields []string `json:"fields" yaml:"fields"`

	// Mode emits one row per file (default) or one per SeriesInstanceUID.
	Mode ExtractionMode `json:"mode" yaml:"mode"`

	// ExcludeDerived skips files whose ImageType contains DERIVED.
	ExcludeDerived bool `json:"exclude_derived" yaml:"exclude_derived"`

	// VendorAdjustments applies the Morita and Planmeca dose rules.
	VendorAdjustments bool `json:"vendor_adjustments" yaml:"vendor_adjustments"`

	// DedupeContent skips files whose bytes match an earlier file.
	DedupeContent bool `json:"dedupe_content" yaml:"dedupe_content"`

	// IncludeHidden also visits dot-files and dot-directories.
	IncludeHidden bool `json:"include_hidden" yaml:"include_hidden"`

	// Extensions restricts discovery to these file extensions (e.g. ".dcm").
	// Empty means every regular file.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// StrictFields turns unknown field names into an error instead of an
	// always-empty column.
	StrictFields bool `json:"strict_fields" yaml:"strict_fields"`

	// Exclude lists files never visited, typically the output file.
	Exclude []string `json:"-" yaml:"-"`
}

// SelectedFields returns Fields, or DefaultFields when none are configured.
func (c ExtractionConfig) SelectedFields() []string {
	if len(c.Fields) == 0 {
		return append([]string(nil), DefaultFields...)
	}
	return append([]string(nil), c.Fields...)
}

// OutputFormat selects the table serialization.
type OutputFormat string

const (
	FormatCSV    OutputFormat = "csv"
	FormatXLSX   OutputFormat = "xlsx"
	FormatJSON   OutputFormat = "json"
	FormatYAML   OutputFormat = "yaml"
	FormatSQLite OutputFormat = "sqlite"
)

// ParseOutputFormat validates a format name. The empty string is returned
// unchanged so the caller can fall back to the output path.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV, FormatXLSX, FormatJSON, FormatYAML, FormatSQLite:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv, xlsx, json, yaml or sqlite)", s)
	}
}

// FormatFromPath infers the format from the output file extension,
// defaulting to CSV.
func FormatFromPath(path string) OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// OutputConfig holds settings for writing the extracted table.
type OutputConfig struct {
	// Path is the output file; "-" writes text formats to stdout.
	Path string `json:"output" yaml:"output"`

	// Format overrides the format implied by Path.
	Format OutputFormat `json:"format" yaml:"format"`

	// Delimiter is the CSV field separator (default ';'). The CLI parses it
	// from the "delimiter" string setting.
	Delimiter rune `json:"-" yaml:"-"`

	// Sheet is the worksheet name for XLSX output (default "DICOM").
	Sheet string `json:"sheet" yaml:"sheet"`
}

// ResolvedFormat returns Format, or the format implied by Path.
func (c OutputConfig) ResolvedFormat() OutputFormat {
	if c.Format != "" {
		return c.Format
	}
	return FormatFromPath(c.Path)
}
