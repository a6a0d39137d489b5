package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, content, 0644))
	}
	return root
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var rels []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels
}

func TestFilesIncludeGlobs(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"a.go":         []byte("package a"),
		"b.txt":        []byte("text"),
		"sub/c.go":     []byte("package c"),
		"sub/deep/d.go": []byte("package d"),
	})

	paths, errs := Files(Options{Root: root, Include: []string{"**/*.go"}})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"a.go", "sub/c.go", "sub/deep/d.go"}, relPaths(t, root, paths))
}

func TestFilesDefaultExcludes(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"keep.txt":                  []byte("keep"),
		"node_modules/skip.js":      []byte("skip"),
		".git/objects/abc":          []byte("skip"),
		"vendor/github.com/dep.go":  []byte("skip"),
	})

	paths, errs := Files(Options{Root: root})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"keep.txt"}, relPaths(t, root, paths))
}

func TestFilesExplicitExcludeOverridesDefaults(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"keep.txt":             []byte("keep"),
		"logs/app.log":         []byte("skip"),
		"node_modules/kept.js": []byte("explicit excludes replace the defaults"),
	})

	paths, errs := Files(Options{Root: root, Exclude: []string{"**/*.log"}})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"keep.txt", "node_modules/kept.js"}, relPaths(t, root, paths))
}

func TestFilesSizeLimit(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"small.txt": []byte("ok"),
		"big.txt":   make([]byte, 4096),
	})

	paths, errs := Files(Options{Root: root, MaxFileSize: 1024})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"small.txt"}, relPaths(t, root, paths))
}

func TestFilesSkipBinary(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"text.txt": []byte("plain text content"),
		"data.bin": {0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01, 0x02},
	})

	paths, errs := Files(Options{Root: root, SkipBinary: true})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"text.txt"}, relPaths(t, root, paths))
}

func TestIsBinary(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"empty":  {},
		"nul":    {'a', 0x00, 'b'},
		"text":   []byte("hello\nworld\n"),
	})

	assert.False(t, IsBinary(filepath.Join(root, "empty")))
	assert.True(t, IsBinary(filepath.Join(root, "nul")))
	assert.False(t, IsBinary(filepath.Join(root, "text")))
}
