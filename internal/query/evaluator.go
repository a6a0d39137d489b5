package query

import (
	"fmt"

	"github.com/standardbeagle/findql/internal/cache"
	"github.com/standardbeagle/findql/internal/debug"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/fuzzy"
	"github.com/standardbeagle/findql/internal/matcher"
	"github.com/standardbeagle/findql/internal/types"
	"github.com/standardbeagle/findql/internal/wordindex"
)

// Evaluator walks an expression tree and produces a matched/not-matched
// verdict for one content string. It holds no mutable state of its own, so
// one evaluator may serve any number of concurrent file workers; the caches
// underneath serialize their own access.
type Evaluator struct {
	matcher *matcher.Matcher
	words   *wordindex.Service
}

// NewEvaluator wires an evaluator against a cache registry. The registry is
// owned by the composition root; the evaluator never reaches for ambient
// shared state.
func NewEvaluator(fz *fuzzy.Engine, reg *cache.Registry, wordCache cache.Options) *Evaluator {
	return &Evaluator{
		matcher: matcher.New(fz, reg),
		words:   wordindex.NewService(reg, wordCache),
	}
}

// Evaluate reports whether content satisfies the expression. And/Or
// short-circuit on their left operand; Near delegates to the proximity
// engine. Pattern errors propagate; a malformed NEAR node logs a warning
// and evaluates to false per the error-handling policy.
func (e *Evaluator) Evaluate(expr Expr, content string, opts types.MatchOptions) (bool, error) {
	if opts.MaxContentSize > 0 && int64(len(content)) > opts.MaxContentSize {
		return false, ferrors.NewContentTooLargeError("", int64(len(content)), opts.MaxContentSize)
	}
	return e.evaluate(expr, content, opts)
}

func (e *Evaluator) evaluate(expr Expr, content string, opts types.MatchOptions) (bool, error) {
	switch node := expr.(type) {
	case *Literal:
		positions, err := e.matcher.FindPositions(content, node.Term, opts)
		if err != nil {
			return false, err
		}
		return len(positions) > 0, nil

	case *Not:
		matched, err := e.evaluate(node.Child, content, opts)
		if err != nil {
			return false, err
		}
		return !matched, nil

	case *And:
		left, err := e.evaluate(node.Left, content, opts)
		if err != nil || !left {
			return false, err
		}
		return e.evaluate(node.Right, content, opts)

	case *Or:
		left, err := e.evaluate(node.Left, content, opts)
		if err != nil || left {
			return left, err
		}
		return e.evaluate(node.Right, content, opts)

	case *Near:
		return e.evaluateNear(node, content, opts)

	default:
		return false, fmt.Errorf("query: unknown expression node %T", expr)
	}
}

// MatcherPositions exposes leaf resolution for callers that need raw
// offsets (line extraction, highlighting).
func (e *Evaluator) MatcherPositions(content string, term matcher.Term, opts types.MatchOptions) ([]int, error) {
	return e.matcher.FindPositions(content, term, opts)
}

// warnInvalidNear records a malformed proximity node without failing the
// evaluation; a single bad node must never abort a batch search.
func warnInvalidNear(node *Near) {
	debug.Warn("near: invalid arguments (distance=%d, left=%v, right=%v), treating as no match\n",
		node.Distance, node.Left != nil, node.Right != nil)
}
