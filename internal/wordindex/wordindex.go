// Package wordindex splits content into whitespace-delimited word spans and
// answers character-offset to word-index lookups. NEAR proximity checks are
// expressed in word distance, so every proximity comparison funnels through
// this package.
package wordindex

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/findql/internal/cache"
)

// Span is the character range occupied by one token, inclusive on both ends.
type Span struct {
	Start int
	End   int
}

// Index is the ordered span list for one content string.
type Index struct {
	spans []Span
}

// Build scans content once and records the true start/end offset of every
// non-empty whitespace-delimited token. Offsets are byte offsets into the
// original string; consecutive delimiters do not shift them.
func Build(content string) *Index {
	var spans []Span

	inWord := false
	start := 0
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if unicode.IsSpace(r) {
			if inWord {
				spans = append(spans, Span{Start: start, End: i - 1})
				inWord = false
			}
		} else if !inWord {
			start = i
			inWord = true
		}
		i += size
	}
	if inWord {
		spans = append(spans, Span{Start: start, End: len(content) - 1})
	}

	return &Index{spans: spans}
}

// Len returns the number of words.
func (ix *Index) Len() int {
	return len(ix.spans)
}

// Span returns the i-th word span.
func (ix *Index) Span(i int) Span {
	return ix.spans[i]
}

// WordAt returns the index of the word whose span contains the character
// offset. It reports false when the offset falls in inter-word whitespace
// or outside the content.
func (ix *Index) WordAt(offset int) (int, bool) {
	n := len(ix.spans)
	if n == 0 || offset < ix.spans[0].Start || offset > ix.spans[n-1].End {
		return 0, false
	}

	// First span ending at or after the offset
	i := sort.Search(n, func(j int) bool { return ix.spans[j].End >= offset })
	if i < n && ix.spans[i].Start <= offset {
		return i, true
	}
	return 0, false
}

// sizeOf estimates the footprint of a cached index: two ints per span plus
// slice and map-entry overhead.
func sizeOf(_ uint64, ix *Index) int64 {
	return int64(len(ix.spans))*16 + 48
}

// Service builds word indexes and memoizes them keyed by content identity,
// so repeated NEAR sub-queries against the same file content reuse one
// index. Identity is the xxhash of the content, never a mutable reference.
type Service struct {
	cache *cache.Cache[uint64, *Index]
}

// CacheName is the registry name for the word-index cache.
const CacheName = "wordindex"

// NewService creates a service backed by a cache from the given registry.
func NewService(reg *cache.Registry, opts cache.Options) *Service {
	return &Service{
		cache: cache.GetOrCreate(reg, CacheName, opts, cache.TrimStandard, sizeOf),
	}
}

// Index returns the word index for content, building it on a cache miss.
func (s *Service) Index(content string) *Index {
	key := xxhash.Sum64String(content)
	if ix, ok := s.cache.Get(key); ok {
		return ix
	}
	ix := Build(content)
	s.cache.Set(key, ix)
	return ix
}
