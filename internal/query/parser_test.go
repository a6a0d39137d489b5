package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/matcher"
	"github.com/standardbeagle/findql/internal/types"
)

func TestParseSingleTerm(t *testing.T) {
	expr, err := Parse("hello")
	require.NoError(t, err)

	leaf, ok := expr.(*Literal)
	require.True(t, ok)
	assert.Equal(t, matcher.KindPlain, leaf.Term.Kind)
	assert.Equal(t, "hello", leaf.Term.Text)
}

func TestParseQuotedPhrase(t *testing.T) {
	expr, err := Parse(`"two words"`)
	require.NoError(t, err)

	leaf := expr.(*Literal)
	assert.Equal(t, "two words", leaf.Term.Text)
}

func TestParseRegex(t *testing.T) {
	expr, err := Parse(`/err(or)?s?/`)
	require.NoError(t, err)

	leaf := expr.(*Literal)
	assert.Equal(t, matcher.KindRegex, leaf.Term.Kind)
	assert.Equal(t, "err(or)?s?", leaf.Term.Text)
}

func TestParseInvalidRegex(t *testing.T) {
	_, err := Parse(`/(unclosed/`)
	require.Error(t, err)

	var pe *ferrors.PatternError
	assert.True(t, errors.As(err, &pe))
}

func TestParseFuzzyTerm(t *testing.T) {
	expr, err := Parse("~recieve")
	require.NoError(t, err)

	leaf := expr.(*Literal)
	assert.Equal(t, matcher.KindFuzzy, leaf.Term.Kind)
	assert.Equal(t, "recieve", leaf.Term.Text)
}

func TestParsePrecedence(t *testing.T) {
	// AND binds tighter than OR: a OR b AND c == a OR (b AND c)
	expr, err := Parse("a OR b AND c")
	require.NoError(t, err)

	or, ok := expr.(*Or)
	require.True(t, ok)
	_, ok = or.Left.(*Literal)
	assert.True(t, ok)
	_, ok = or.Right.(*And)
	assert.True(t, ok)
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	expr, err := Parse("(a OR b) AND c")
	require.NoError(t, err)

	and, ok := expr.(*And)
	require.True(t, ok)
	_, ok = and.Left.(*Or)
	assert.True(t, ok)
}

func TestParseNot(t *testing.T) {
	expr, err := Parse("NOT error AND warning")
	require.NoError(t, err)

	// NOT binds to the nearest operand
	and := expr.(*And)
	not, ok := and.Left.(*Not)
	require.True(t, ok)
	assert.Equal(t, "error", not.Child.(*Literal).Term.Text)
}

func TestParseNear(t *testing.T) {
	expr, err := Parse(`NEAR(word1, word6, 5)`)
	require.NoError(t, err)

	near, ok := expr.(*Near)
	require.True(t, ok)
	assert.Equal(t, "word1", near.Left.Term.Text)
	assert.Equal(t, "word6", near.Right.Term.Text)
	assert.Equal(t, 5, near.Distance)
}

func TestParseNearRejectsComposite(t *testing.T) {
	_, err := Parse(`NEAR(a AND b, c, 3)`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrInvalidNearArguments))
}

func TestParseNearRejectsBadDistance(t *testing.T) {
	_, err := Parse(`NEAR(a, b, many)`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrInvalidNearArguments))
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	expr, err := Parse("a and b or not c")
	require.NoError(t, err)
	_, ok := expr.(*Or)
	assert.True(t, ok)
}

func TestParseNumberAsTerm(t *testing.T) {
	expr, err := Parse("404")
	require.NoError(t, err)
	assert.Equal(t, "404", expr.(*Literal).Term.Text)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"a AND",
		"(a OR b",
		`"unterminated`,
		"/unterminated",
		"a b", // implicit conjunction is not supported
		"~",
		"NEAR(a, b)",
	}
	for _, input := range cases {
		_, err := Parse(input)
		assert.Error(t, err, "input %q should fail to parse", input)
	}
}

func TestParsedQueryEndToEnd(t *testing.T) {
	e := newTestEvaluator(t)
	opts := types.DefaultMatchOptions()

	expr, err := Parse(`(test AND example) OR NEAR(alpha, beta, 2)`)
	require.NoError(t, err)

	assert.True(t, evalOK(t, e, expr, "a test with example content", opts))
	assert.True(t, evalOK(t, e, expr, "alpha x beta", opts))
	assert.False(t, evalOK(t, e, expr, "nothing of interest", opts))
}
