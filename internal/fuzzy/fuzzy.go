// Package fuzzy provides approximate term matching as a fallback when exact
// matching finds nothing. A term matches a content token when their
// edit-distance similarity clears the configured threshold; match positions
// are the token start offsets, so downstream proximity logic consumes them
// exactly like exact-match positions.
package fuzzy

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/findql/internal/types"
	"github.com/standardbeagle/findql/internal/wordindex"
)

// Result reports one fuzzy search over a content string.
type Result struct {
	IsMatch   bool
	Score     float64 // best similarity seen across all tokens
	Positions []int   // start offsets of accepted tokens, ascending
}

// Engine scores candidate tokens against a term using go-edlib.
type Engine struct {
	threshold float64
	algorithm edlib.Algorithm
}

// NewEngine creates an engine. An out-of-range threshold falls back to the
// default; algorithm is "jaro-winkler" (default) or "levenshtein".
func NewEngine(threshold float64, algorithm string) (*Engine, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = types.DefaultFuzzyThreshold
	}

	var alg edlib.Algorithm
	switch algorithm {
	case "", "jaro-winkler":
		alg = edlib.JaroWinkler
	case "levenshtein":
		alg = edlib.Levenshtein
	default:
		return nil, fmt.Errorf("unknown fuzzy algorithm %q (want jaro-winkler or levenshtein)", algorithm)
	}

	return &Engine{threshold: threshold, algorithm: alg}, nil
}

// Threshold returns the configured similarity threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Search compares term against every token of content and collects the
// tokens whose similarity clears the engine threshold. Terms shorter than
// the minimum fuzzy length never match; that gate also protects the scorer
// from degenerate one- and two-character comparisons.
func (e *Engine) Search(content, term string, caseSensitive bool) Result {
	return e.SearchWithThreshold(content, term, caseSensitive, e.threshold)
}

// SearchWithThreshold is Search with a per-query threshold override. An
// out-of-range threshold falls back to the engine's.
func (e *Engine) SearchWithThreshold(content, term string, caseSensitive bool, threshold float64) Result {
	if threshold <= 0 || threshold > 1 {
		threshold = e.threshold
	}
	if len(term) < types.MinFuzzyTermLength || content == "" {
		return Result{}
	}

	needle := term
	haystack := content
	if !caseSensitive {
		needle = strings.ToLower(term)
		haystack = strings.ToLower(content)
	}

	ix := wordindex.Build(haystack)
	var res Result
	for i := 0; i < ix.Len(); i++ {
		span := ix.Span(i)
		token := haystack[span.Start : span.End+1]

		score := e.similarity(token, needle)
		if score > res.Score {
			res.Score = score
		}
		if score >= threshold {
			res.IsMatch = true
			res.Positions = append(res.Positions, span.Start)
		}
	}
	return res
}

// similarity returns a 0..1 score for two strings.
func (e *Engine) similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score, err := edlib.StringsSimilarity(a, b, e.algorithm)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
