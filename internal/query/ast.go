// Package query defines the boolean/NEAR expression tree and evaluates it
// against content strings. Expressions are immutable once built and owned
// by the caller for the duration of one evaluation.
package query

import (
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/matcher"
)

// Expr is one node of a parsed query.
type Expr interface {
	isExpr()
}

// Literal is a leaf term: plain text, regex, or forced-fuzzy.
type Literal struct {
	Term matcher.Term
}

// Not negates its child.
type Not struct {
	Child Expr
}

// And is a short-circuiting conjunction.
type And struct {
	Left  Expr
	Right Expr
}

// Or is a short-circuiting disjunction.
type Or struct {
	Left  Expr
	Right Expr
}

// Near requires both arguments to occur within Distance words of each
// other. Arguments are restricted to literal leaves; NewNear enforces that
// and the evaluator independently guards against hand-built violations.
type Near struct {
	Left     *Literal
	Right    *Literal
	Distance int
}

func (*Literal) isExpr() {}
func (*Not) isExpr()     {}
func (*And) isExpr()     {}
func (*Or) isExpr()      {}
func (*Near) isExpr()    {}

// NewLiteral wraps a term in a leaf node.
func NewLiteral(term matcher.Term) *Literal {
	return &Literal{Term: term}
}

// NewNear validates and builds a proximity node. Composite sub-expressions
// and negative distances are rejected here so the error carries context at
// parse time instead of degrading a whole evaluation.
func NewNear(left, right Expr, distance int) (*Near, error) {
	l, lok := left.(*Literal)
	r, rok := right.(*Literal)
	if !lok || !rok || distance < 0 {
		return nil, ferrors.ErrInvalidNearArguments
	}
	return &Near{Left: l, Right: r, Distance: distance}, nil
}
