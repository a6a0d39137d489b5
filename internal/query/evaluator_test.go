package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/findql/internal/cache"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/fuzzy"
	"github.com/standardbeagle/findql/internal/matcher"
	"github.com/standardbeagle/findql/internal/types"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	fz, err := fuzzy.NewEngine(0.80, "jaro-winkler")
	require.NoError(t, err)
	return NewEvaluator(fz, cache.NewRegistry(), cache.Options{MaxSize: 64})
}

func lit(text string) *Literal {
	return NewLiteral(matcher.Plain(text))
}

func evalOK(t *testing.T, e *Evaluator, expr Expr, content string, opts types.MatchOptions) bool {
	t.Helper()
	matched, err := e.Evaluate(expr, content, opts)
	require.NoError(t, err)
	return matched
}

func TestEvaluateLiteral(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()

	assert.True(t, evalOK(t, e, lit("test"), "a test here", opts))
	assert.False(t, evalOK(t, e, lit("missing"), "a test here", opts))
}

func TestEvaluateNot(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()

	assert.False(t, evalOK(t, e, &Not{Child: lit("test")}, "a test here", opts))
	assert.True(t, evalOK(t, e, &Not{Child: lit("missing")}, "a test here", opts))
}

func TestEvaluateAnd(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()
	expr := &And{Left: lit("test"), Right: lit("example")}

	assert.True(t, evalOK(t, e, expr, "This is a test with example content.", opts))
	assert.False(t, evalOK(t, e, expr, "This is a test only.", opts),
		"left succeeds, right fails, conjunction is false")
	assert.False(t, evalOK(t, e, expr, "No relevant words.", opts))
}

func TestEvaluateOr(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()
	expr := &Or{Left: lit("alpha"), Right: lit("beta")}

	assert.True(t, evalOK(t, e, expr, "only beta here", opts))
	assert.True(t, evalOK(t, e, expr, "only alpha here", opts))
	assert.False(t, evalOK(t, e, expr, "neither word", opts))
}

func TestAndShortCircuits(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()

	// The right operand is an invalid construction that would warn if
	// reached; a failing left operand must prevent that.
	bad := &Near{Left: nil, Right: nil, Distance: -1}
	expr := &And{Left: lit("missing"), Right: bad}
	assert.False(t, evalOK(t, e, expr, "content without the word", opts))

	// Same for OR with a succeeding left operand
	orExpr := &Or{Left: lit("content"), Right: bad}
	assert.True(t, evalOK(t, e, orExpr, "content without the word", opts))
}

func TestEvaluatePatternErrorPropagates(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()

	// Bypass the validating constructor to simulate a stale pattern
	expr := NewLiteral(matcher.Term{Kind: matcher.KindRegex, Text: "(unclosed"})
	_, err := e.Evaluate(expr, "content", opts)
	require.Error(t, err)

	var pe *ferrors.PatternError
	assert.True(t, errors.As(err, &pe))
}

func TestEvaluateContentTooLarge(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()
	opts.MaxContentSize = 8

	_, err := e.Evaluate(lit("test"), "this content is far too large", opts)
	require.Error(t, err)

	var tooLarge *ferrors.ContentTooLargeError
	assert.True(t, errors.As(err, &tooLarge))
}

func TestEvaluateConcurrentUse(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()
	expr := &And{Left: lit("shared"), Right: lit("content")}

	done := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		go func() {
			matched, err := e.Evaluate(expr, "shared content across goroutines", opts)
			done <- matched && err == nil
		}()
	}
	for i := 0; i < 16; i++ {
		assert.True(t, <-done)
	}
}
