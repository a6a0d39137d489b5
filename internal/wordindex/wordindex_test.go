package wordindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/findql/internal/cache"
)

func TestBuildSimple(t *testing.T) {
	ix := Build("one two three")

	require.Equal(t, 3, ix.Len())
	assert.Equal(t, Span{Start: 0, End: 2}, ix.Span(0))
	assert.Equal(t, Span{Start: 4, End: 6}, ix.Span(1))
	assert.Equal(t, Span{Start: 8, End: 12}, ix.Span(2))
}

func TestBuildConsecutiveDelimiters(t *testing.T) {
	// Runs of whitespace must not shift offsets
	ix := Build("  one \t\n two  ")

	require.Equal(t, 2, ix.Len())
	assert.Equal(t, Span{Start: 2, End: 4}, ix.Span(0))
	assert.Equal(t, Span{Start: 9, End: 11}, ix.Span(1))
}

func TestBuildEmptyAndWhitespaceOnly(t *testing.T) {
	assert.Equal(t, 0, Build("").Len())
	assert.Equal(t, 0, Build("   \t\n ").Len())
}

func TestBuildSingleWord(t *testing.T) {
	ix := Build("word")
	require.Equal(t, 1, ix.Len())
	assert.Equal(t, Span{Start: 0, End: 3}, ix.Span(0))
}

func TestWordAt(t *testing.T) {
	ix := Build("one two three")

	cases := []struct {
		offset int
		word   int
		found  bool
	}{
		{0, 0, true},
		{2, 0, true},
		{3, 0, false}, // whitespace between words
		{4, 1, true},
		{6, 1, true},
		{7, 0, false},
		{8, 2, true},
		{12, 2, true},
		{13, 0, false}, // past the end
		{-1, 0, false},
		{100, 0, false},
	}
	for _, tc := range cases {
		word, found := ix.WordAt(tc.offset)
		assert.Equal(t, tc.found, found, "offset %d", tc.offset)
		if tc.found {
			assert.Equal(t, tc.word, word, "offset %d", tc.offset)
		}
	}
}

func TestWordAtEmptyIndex(t *testing.T) {
	_, found := Build("").WordAt(0)
	assert.False(t, found)
}

func TestBuildUnicodeWhitespace(t *testing.T) {
	// Non-breaking space is unicode whitespace
	ix := Build("a b")
	require.Equal(t, 2, ix.Len())
	assert.Equal(t, Span{Start: 0, End: 0}, ix.Span(0))
}

func TestServiceReusesCachedIndex(t *testing.T) {
	reg := cache.NewRegistry()
	svc := NewService(reg, cache.Options{MaxSize: 8})

	content := "alpha beta gamma"
	first := svc.Index(content)
	second := svc.Index(content)
	assert.Same(t, first, second, "same content must hit the cache")

	other := svc.Index("different content here")
	assert.NotSame(t, first, other)
	require.Equal(t, 3, other.Len())
}
