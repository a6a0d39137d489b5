package matcher

import (
	"strings"

	"github.com/surgebase/porter2"

	"github.com/standardbeagle/findql/internal/wordindex"
)

// stemPositions returns the start offsets of tokens whose Porter2 stem
// equals the term's stem, so "searching" matches content containing
// "searched" or "searches". Stemming is inherently case-insensitive; both
// sides are lowercased before stemming regardless of the case option.
func stemPositions(content, term string) []int {
	target := porter2.Stem(strings.ToLower(term))
	if target == "" {
		return nil
	}

	ix := wordindex.Build(content)
	var positions []int
	for i := 0; i < ix.Len(); i++ {
		span := ix.Span(i)
		token := strings.ToLower(trimWordPunct(content[span.Start : span.End+1]))
		if token == "" {
			continue
		}
		if porter2.Stem(token) == target {
			positions = append(positions, span.Start)
		}
	}
	return positions
}

// trimWordPunct strips surrounding punctuation so "searched," stems the
// same as "searched".
func trimWordPunct(token string) string {
	return strings.Trim(token, ".,;:!?\"'()[]{}<>")
}
