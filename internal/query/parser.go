package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/matcher"
)

// Query syntax:
//
//	term                plain term (no whitespace or reserved characters)
//	"some phrase"       quoted plain term, may contain spaces
//	/pat+ern/           regular expression, host regexp syntax
//	~term               forced-fuzzy term
//	NOT expr            negation
//	expr AND expr       conjunction (binds tighter than OR)
//	expr OR expr        disjunction
//	NEAR(a, b, 3)       proximity, literal leaves only
//	( expr )            grouping
//
// Keywords are matched case-insensitively.

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokRegex
	tokFuzzy
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokAnd
	tokOr
	tokNot
	tokNear
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	toks []token
	pos  int
}

// Parse converts a query string into an expression tree. Syntax errors,
// invalid regex literals, and malformed NEAR calls are reported with the
// offending position; nothing is silently dropped.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("query: unexpected %q at offset %d", p.peek().text, p.peek().pos)
	}
	return expr, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokWord, tokString, tokNumber:
		return NewLiteral(matcher.Plain(tok.text)), nil

	case tokFuzzy:
		return NewLiteral(matcher.Fuzzy(tok.text)), nil

	case tokRegex:
		term, err := matcher.Pattern(tok.text)
		if err != nil {
			return nil, err
		}
		return NewLiteral(term), nil

	case tokLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case tokNear:
		return p.parseNear(tok)

	default:
		return nil, fmt.Errorf("query: unexpected %q at offset %d", tok.text, tok.pos)
	}
}

func (p *parser) parseNear(near token) (Expr, error) {
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokComma); err != nil {
		return nil, err
	}
	right, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokComma); err != nil {
		return nil, err
	}
	num := p.next()
	if num.kind != tokNumber {
		return nil, fmt.Errorf("query: NEAR distance must be a non-negative integer, got %q at offset %d: %w",
			num.text, num.pos, ferrors.ErrInvalidNearArguments)
	}
	distance, err := strconv.Atoi(num.text)
	if err != nil || distance < 0 {
		return nil, fmt.Errorf("query: NEAR distance %q at offset %d: %w", num.text, num.pos, ferrors.ErrInvalidNearArguments)
	}
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	node, err := NewNear(left, right, distance)
	if err != nil {
		return nil, fmt.Errorf("query: NEAR at offset %d: %w", near.pos, err)
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) error {
	tok := p.next()
	if tok.kind != kind {
		return fmt.Errorf("query: unexpected %q at offset %d", tok.text, tok.pos)
	}
	return nil
}

// reserved characters that terminate a bare word
func isWordTerminator(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == ','
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++

		case r == '"':
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("query: unterminated string at offset %d", i)
			}
			toks = append(toks, token{tokString, input[i+1 : i+1+end], i})
			i += end + 2

		case r == '/':
			end := strings.IndexByte(input[i+1:], '/')
			if end < 0 {
				return nil, fmt.Errorf("query: unterminated regex at offset %d", i)
			}
			toks = append(toks, token{tokRegex, input[i+1 : i+1+end], i})
			i += end + 2

		case r == '~':
			start := i + 1
			j := start
			for j < len(input) {
				r2, s2 := utf8.DecodeRuneInString(input[j:])
				if isWordTerminator(r2) {
					break
				}
				j += s2
			}
			if j == start {
				return nil, fmt.Errorf("query: dangling ~ at offset %d", i)
			}
			toks = append(toks, token{tokFuzzy, input[start:j], i})
			i = j

		default:
			start := i
			j := i
			for j < len(input) {
				r2, s2 := utf8.DecodeRuneInString(input[j:])
				if isWordTerminator(r2) {
					break
				}
				j += s2
			}
			word := input[start:j]
			i = j

			switch strings.ToUpper(word) {
			case "AND":
				toks = append(toks, token{tokAnd, word, start})
			case "OR":
				toks = append(toks, token{tokOr, word, start})
			case "NOT":
				toks = append(toks, token{tokNot, word, start})
			case "NEAR":
				toks = append(toks, token{tokNear, word, start})
			default:
				if isNumber(word) {
					toks = append(toks, token{tokNumber, word, start})
				} else {
					toks = append(toks, token{tokWord, word, start})
				}
			}
		}
	}
	toks = append(toks, token{tokEOF, "", len(input)})
	return toks, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
