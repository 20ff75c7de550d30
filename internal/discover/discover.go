// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds candidate DICOM files under a directory tree.
// DICOM files frequently have no extension (PACS exports name them by
// instance number), so every regular file is a candidate unless an
// extension filter is configured.
package discover

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls which files Walk returns.
type Options struct {
	// IncludeHidden also visits names starting with a dot.
	IncludeHidden bool

	// Extensions, when non-empty, restricts results to these extensions
	// (case-insensitive, with or without the leading dot).
	Extensions []string

	// Exclude lists paths never returned, such as the output file when it
	// is written inside the tree being scanned.
	Exclude []string

	// Logger receives a warning for each unreadable directory. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// Walk returns the regular files under root in lexical order. Unreadable
// subdirectories are logged and skipped; only a missing or unreadable root
// is an error. A root that is itself a file is returned as the only result.
func Walk(root string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading root %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	exts := normalizeExtensions(opts.Extensions)
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		if abs, err := filepath.Abs(p); err == nil {
			excluded[abs] = true
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if len(excluded) > 0 {
			if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// CountFiles returns the number of regular files under dir, recursively and
// including hidden ones. A missing directory counts as zero.
func CountFiles(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && isRegular(path, d) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting files in %s: %w", dir, err)
	}
	return count, nil
}

// isRegular reports whether the entry is a regular file, following a
// symbolic link to its target.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func normalizeExtensions(list []string) map[string]bool {
	if len(list) == 0 {
		return nil
	}
	exts := make(map[string]bool, len(list))
	for _, e := range list {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return exts
}
