// Package walk discovers the files a query runs against: directory
// traversal with doublestar include/exclude globs, binary sniffing, and a
// size ceiling. The query engine itself never touches discovery; this is
// the thin collaborator layer feeding it paths.
package walk

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/types"
)

// Options bounds one discovery pass.
type Options struct {
	Root        string
	Include     []string // doublestar globs against the root-relative path; empty means everything
	Exclude     []string // doublestar globs; matches are skipped
	MaxFileSize int64    // larger files are skipped (not errors); 0 uses the default
	SkipBinary  bool     // sniff and skip binary files
}

// DefaultExcludes keeps the usual noise out of a search when the caller
// provides no exclusions of their own.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
}

const sniffBytes = 512

// Files walks the tree under opts.Root and returns the paths that pass the
// include/exclude globs and size/binary filters. Per-file stat failures are
// collected, never fatal.
func Files(opts Options) ([]string, []error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = types.DefaultMaxFileSize
	}
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExcludes
	}

	var (
		paths []string
		errs  []error
	)
	walkErr := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, ferrors.NewFileError("walk", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && MatchesAny(exclude, rel+"/") {
				return fs.SkipDir
			}
			return nil
		}

		if MatchesAny(exclude, rel) {
			return nil
		}
		if len(opts.Include) > 0 && !MatchesAny(opts.Include, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			errs = append(errs, ferrors.NewFileError("stat", path, err))
			return nil
		}
		if info.Size() > opts.MaxFileSize {
			return nil
		}
		if opts.SkipBinary && IsBinary(path) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, ferrors.NewFileError("walk", opts.Root, walkErr))
	}
	return paths, errs
}

// MatchesAny reports whether rel matches any of the doublestar patterns.
// Directory patterns ending in "/**" also match the directory itself so
// SkipDir can prune the whole subtree.
func MatchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if dir, found := strings.CutSuffix(pattern, "/**"); found {
			if ok, err := doublestar.Match(dir, strings.TrimSuffix(rel, "/")); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// IsBinary sniffs the first bytes of a file for NUL characters, the same
// heuristic git uses. Read failures are treated as binary so the scanner
// skips rather than erroring twice on the same file.
func IsBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, err := f.Read(buf)
	if n == 0 || (err != nil && n < 0) {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
