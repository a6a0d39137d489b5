// Package matcher resolves one query leaf into the character offsets where
// it occurs in a content string. Exact matching is always authoritative;
// the fuzzy engine is consulted only when exact matching finds nothing.
package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/findql/internal/cache"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/fuzzy"
	"github.com/standardbeagle/findql/internal/types"
)

// Kind discriminates the closed set of term representations. The variant is
// fixed when the query is parsed; nothing inspects runtime types later.
type Kind int

const (
	KindPlain Kind = iota // literal substring
	KindRegex             // regular expression, host regexp syntax
	KindFuzzy             // forced-fuzzy literal, skips the exact pass
)

// Term is one query leaf.
type Term struct {
	Kind Kind
	Text string
}

// Plain builds a literal term.
func Plain(text string) Term {
	return Term{Kind: KindPlain, Text: text}
}

// Pattern builds a regex term, validating the pattern up front so an
// invalid regex surfaces at parse time rather than mid-evaluation.
func Pattern(expr string) (Term, error) {
	if _, err := regexp.Compile(expr); err != nil {
		return Term{}, ferrors.NewPatternError(expr, err)
	}
	return Term{Kind: KindRegex, Text: expr}, nil
}

// Fuzzy builds a term that always takes the approximate path.
func Fuzzy(text string) Term {
	return Term{Kind: KindFuzzy, Text: text}
}

// CacheName is the registry name for the compiled-regex cache.
const CacheName = "regex"

// Matcher resolves terms against content. Safe for concurrent use: the
// compiled-pattern cache serializes its own access and everything else is
// read-only after construction.
type Matcher struct {
	fuzzy *fuzzy.Engine
	regex *cache.Cache[string, *regexp.Regexp]
}

// New creates a matcher sharing the given registry's compiled-regex cache.
func New(fz *fuzzy.Engine, reg *cache.Registry) *Matcher {
	return &Matcher{
		fuzzy: fz,
		regex: cache.GetOrCreate(reg, CacheName, cache.Options{MaxSize: 128}, cache.TrimStandard,
			func(k string, _ *regexp.Regexp) int64 { return int64(len(k)) * 8 }),
	}
}

// FindPositions returns every character offset where term occurs in
// content, sorted ascending. An invalid regex yields a *PatternError,
// never a silent empty result.
func (m *Matcher) FindPositions(content string, term Term, opts types.MatchOptions) ([]int, error) {
	var (
		positions []int
		err       error
	)

	switch term.Kind {
	case KindRegex:
		positions, err = m.regexPositions(content, term.Text, opts)
	case KindFuzzy:
		// Forced-fuzzy skips the exact pass entirely
		res := m.fuzzy.SearchWithThreshold(content, term.Text, opts.CaseSensitive, opts.FuzzyThreshold)
		return res.Positions, nil
	default:
		if opts.WholeWordMatching {
			positions, err = m.wholeWordPositions(content, term.Text, opts)
		} else {
			positions = plainPositions(content, term.Text, opts.CaseSensitive)
		}
	}
	if err != nil {
		return nil, err
	}

	// Fuzzy fallback: plain terms only, exact must have found nothing
	if len(positions) == 0 && term.Kind == KindPlain && opts.FuzzyEnabled &&
		len(term.Text) >= types.MinFuzzyTermLength {
		res := m.fuzzy.SearchWithThreshold(content, term.Text, opts.CaseSensitive, opts.FuzzyThreshold)
		if res.IsMatch {
			return res.Positions, nil
		}
	}

	return positions, nil
}

// regexPositions collects the start offset of every regex match. The
// stdlib's FindAllStringIndex already advances past zero-width matches, so
// empty-match patterns cannot loop.
func (m *Matcher) regexPositions(content, expr string, opts types.MatchOptions) ([]int, error) {
	re, err := m.compile(expr, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}

	locs := re.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil, nil
	}
	positions := make([]int, len(locs))
	for i, loc := range locs {
		positions[i] = loc[0]
	}
	return positions, nil
}

// wholeWordPositions anchors the escaped term between word boundaries.
// With stem matching enabled, tokens sharing the term's stem are also
// accepted; see stem.go.
func (m *Matcher) wholeWordPositions(content, text string, opts types.MatchOptions) ([]int, error) {
	expr := `\b` + regexp.QuoteMeta(text) + `\b`
	positions, err := m.regexPositions(content, expr, opts)
	if err != nil {
		return nil, err
	}

	if opts.StemMatching {
		positions = mergePositions(positions, stemPositions(content, text))
	}
	return positions, nil
}

// plainPositions scans for every occurrence, advancing one position past
// each found index so overlapping matches are all reported
// ("aba" in "abababa" yields 0, 2, 4).
func plainPositions(content, text string, caseSensitive bool) []int {
	if text == "" || content == "" || len(text) > len(content) {
		return nil
	}

	haystack := content
	needle := text
	if !caseSensitive {
		haystack = strings.ToLower(content)
		needle = strings.ToLower(text)
	}

	var positions []int
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			break
		}
		positions = append(positions, offset+idx)
		offset = offset + idx + 1
	}
	return positions
}

// compile returns a cached compiled pattern, keyed by pattern text plus the
// case flag so the two variants never collide.
func (m *Matcher) compile(expr string, caseSensitive bool) (*regexp.Regexp, error) {
	full := expr
	if !caseSensitive {
		full = "(?i)" + expr
	}

	if re, ok := m.regex.Get(full); ok {
		return re, nil
	}
	re, err := regexp.Compile(full)
	if err != nil {
		return nil, ferrors.NewPatternError(expr, err)
	}
	m.regex.Set(full, re)
	return re, nil
}

// mergePositions merges two ascending position lists, dropping duplicates.
func mergePositions(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	merged := append(append([]int{}, a...), b...)
	sort.Ints(merged)
	out := merged[:1]
	for _, p := range merged[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
