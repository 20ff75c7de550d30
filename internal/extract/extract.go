// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a directory tree of DICOM files into a table with
// one row per file (or per series) and one column per configured field.
// Files that cannot be parsed are logged and skipped; a field missing from a
// file yields an empty cell.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/text/cases"

	"github.com/pdiddy/dicom-stats/internal/attribute"
	"github.com/pdiddy/dicom-stats/internal/discover"
	"github.com/pdiddy/dicom-stats/pkg/types"
)

// Summary holds counts from a batch extraction run.
type Summary struct {
	Extracted  int
	Filtered   int
	Duplicates int
	Failed     int
}

// Total returns the number of files visited.
func (s Summary) Total() int {
	return s.Extracted + s.Filtered + s.Duplicates + s.Failed
}

// HasFailures reports whether any file failed to parse.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s Summary) String() string {
	return fmt.Sprintf("Batch summary: %d extracted, %d filtered, %d duplicates, %d failed (total: %d)",
		s.Extracted, s.Filtered, s.Duplicates, s.Failed, s.Total())
}

// field is a configured column resolved against the dictionary. Unknown
// names keep their column but never match an element.
type field struct {
	name  string
	tag   tag.Tag
	known bool
}

// Extractor reads the configured fields from DICOM files.
type Extractor struct {
	cfg    types.ExtractionConfig
	fields []field
	names  []string
	logger *slog.Logger
	fold   cases.Caser

	// dirCounts caches discover.CountFiles per directory.
	dirCounts map[string]int
}

// New resolves the configured field names. Unknown names are logged with
// suggestions and kept as always-empty columns, or rejected when
// cfg.StrictFields is set.
func New(cfg types.ExtractionConfig, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode, err := types.ParseExtractionMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	names := cfg.SelectedFields()
	e := &Extractor{
		cfg:       cfg,
		names:     names,
		logger:    logger,
		fold:      cases.Fold(),
		dirCounts: make(map[string]int),
	}
	var unknown []string
	for _, name := range names {
		f, err := attribute.Resolve(name)
		if err != nil {
			unknown = append(unknown, name)
			attrs := []any{"field", name}
			if s := attribute.Suggest(name, 3); len(s) > 0 {
				attrs = append(attrs, "did_you_mean", strings.Join(s, ", "))
			}
			logger.Warn("unknown field, column will be empty", attrs...)
			e.fields = append(e.fields, field{name: name})
			continue
		}
		e.fields = append(e.fields, field{name: name, tag: f.Tag, known: true})
	}
	if cfg.StrictFields && len(unknown) > 0 {
		return nil, fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}
	return e, nil
}

// Fields returns the header of the tables this extractor produces.
func (e *Extractor) Fields() []string {
	return append([]string(nil), e.names...)
}

// Extract walks root and builds the table. The walk stops early only when
// ctx is cancelled or root cannot be read; per-file problems are counted in
// the summary.
func (e *Extractor) Extract(ctx context.Context, root string) (*types.Table, Summary, error) {
	var summary Summary
	paths, err := discover.Walk(root, discover.Options{
		IncludeHidden: e.cfg.IncludeHidden,
		Extensions:    e.cfg.Extensions,
		Exclude:       e.cfg.Exclude,
		Logger:        e.logger,
	})
	if err != nil {
		return nil, summary, err
	}
	e.logger.Info("discovered files", "root", root, "count", len(paths))

	table := &types.Table{Fields: e.Fields()}
	seenSeries := make(map[string]bool)
	seenContent := make(map[string]string)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return table, summary, err
		}

		var checksum string
		if e.cfg.DedupeContent {
			checksum, err = Checksum(path)
			if err != nil {
				e.logger.Warn("skipping unreadable file", "path", path, "error", err)
				summary.Failed++
				continue
			}
			if first, ok := seenContent[checksum]; ok {
				e.logger.Debug("skipping duplicate content", "path", path, "first", first)
				summary.Duplicates++
				continue
			}
		}

		rec, ds, err := e.extractFile(path)
		if err != nil {
			e.logger.Warn("skipping unparsable file", "path", path, "error", err)
			summary.Failed++
			continue
		}

		if e.cfg.ExcludeDerived && e.isDerived(&ds) {
			e.logger.Debug("skipping derived image", "path", path)
			summary.Filtered++
			continue
		}

		if e.cfg.Mode == types.ModeSeries {
			uid := attribute.Lookup(&ds, tag.SeriesInstanceUID)
			if uid == "" {
				e.logger.Debug("skipping file without SeriesInstanceUID", "path", path)
				summary.Filtered++
				continue
			}
			if seenSeries[uid] {
				summary.Duplicates++
				continue
			}
			seenSeries[uid] = true
		}

		if checksum != "" {
			seenContent[checksum] = path
			rec.Checksum = checksum
		}
		table.Records = append(table.Records, rec)
		summary.Extracted++
		e.logger.Debug("extracted", "path", path)
	}

	e.logger.Info("extraction finished",
		"extracted", summary.Extracted,
		"filtered", summary.Filtered,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed)
	return table, summary, nil
}

// ExtractFile reads one file into a record. Every configured field is
// present in Values, empty when the file lacks it.
func (e *Extractor) ExtractFile(path string) (types.Record, error) {
	rec, _, err := e.extractFile(path)
	return rec, err
}

func (e *Extractor) extractFile(path string) (types.Record, dicom.Dataset, error) {
	ds, err := attribute.ReadFile(path)
	if err != nil {
		return types.Record{}, ds, fmt.Errorf("parsing %s: %w", path, err)
	}
	rec := types.Record{
		SourcePath: path,
		Values:     make(map[string]string, len(e.fields)),
	}
	for _, f := range e.fields {
		rec.Values[f.name] = ""
		if !f.known {
			continue
		}
		rec.Values[f.name] = attribute.Lookup(&ds, f.tag)
	}
	if e.cfg.VendorAdjustments {
		e.applyVendorRules(path, &ds, &rec)
	}
	for k, v := range rec.Values {
		rec.Values[k] = Clean(v)
	}
	return rec, ds, nil
}

// setTag stores value in every configured column that maps to tag.
func (e *Extractor) setTag(rec *types.Record, t tag.Tag, value string) {
	for _, f := range e.fields {
		if f.known && f.tag == t {
			rec.Values[f.name] = value
		}
	}
}

// Checksum returns the hex xxhash64 of the file content.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

var cleaner = strings.NewReplacer("\n", " ", "\r", " ", ",", ";")

// Clean replaces line breaks with spaces and commas with semicolons so a
// value stays on one line and inside one cell.
func Clean(v string) string {
	return cleaner.Replace(v)
}

// isDerived reports whether ImageType marks the image as DERIVED.
func (e *Extractor) isDerived(ds *dicom.Dataset) bool {
	for _, v := range attribute.Strings(ds, tag.ImageType) {
		if e.fold.String(v) == "derived" {
			return true
		}
	}
	return false
}
