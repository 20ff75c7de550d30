// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given relative file paths under a temp dir.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestWalk(t *testing.T) {
	files := []string{
		"b/IMG0002",
		"b/IMG0001",
		"a/series1/1.dcm",
		"a/series1/2.DCM",
		"a/notes.txt",
		".hidden/IMG9",
		"a/.DS_Store",
		"top",
	}
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "all visible files in lexical order",
			want: []string{"a/notes.txt", "a/series1/1.dcm", "a/series1/2.DCM", "b/IMG0001", "b/IMG0002", "top"},
		},
		{
			name: "include hidden",
			opts: Options{IncludeHidden: true},
			want: []string{".hidden/IMG9", "a/.DS_Store", "a/notes.txt", "a/series1/1.dcm", "a/series1/2.DCM", "b/IMG0001", "b/IMG0002", "top"},
		},
		{
			name: "extension filter is case-insensitive",
			opts: Options{Extensions: []string{"dcm"}},
			want: []string{"a/series1/1.dcm", "a/series1/2.DCM"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := writeTree(t, files...)
			got, err := Walk(root, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rel(t, root, got))
		})
	}
}

func TestWalkExclude(t *testing.T) {
	root := writeTree(t, "IMG0001", "out.csv")
	got, err := Walk(root, Options{Exclude: []string{filepath.Join(root, "out.csv")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG0001"}, rel(t, root, got))
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}

func TestWalkFileRoot(t *testing.T) {
	root := writeTree(t, "IMG0001")
	path := filepath.Join(root, "IMG0001")
	got, err := Walk(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, got)
}

func TestCountFiles(t *testing.T) {
	root := writeTree(t, "s/1", "s/2", "s/sub/3", "s/.hidden")
	n, err := CountFiles(filepath.Join(root, "s"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = CountFiles(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
