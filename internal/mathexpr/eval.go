// Package mathexpr evaluates plain arithmetic typed or spoken by the user.
//
// Only digits, the operators + - * / ** and parentheses, decimal points and
// whitespace are accepted. Anything else is rejected before parsing, so no
// identifiers, calls or member access can ever be reached.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var allowed = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)

// maxDepth bounds parser recursion. Every cycle through the grammar (a
// parenthesis, a unary sign or an exponent) passes through unary.
const maxDepth = 256

var errTooDeep = errors.New("expression nested too deeply")

// Evaluate returns the value of expr. The second result is false when the
// expression is rejected: disallowed characters, bad syntax, unbalanced
// parentheses, division by zero or a non-finite result.
func Evaluate(expr string) (result float64, ok bool) {
	if !allowed.MatchString(expr) {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			result, ok = 0, false
		}
	}()
	toks, err := tokenize(expr)
	if err != nil || len(toks) == 0 {
		return 0, false
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil || p.pos != len(p.toks) {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Format renders a result without trailing zeros.
func Format(v float64) string {
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	num  float64
}

func tokenize(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			i++
		case c == '+':
			out = append(out, token{kind: tokPlus})
			i++
		case c == '-':
			out = append(out, token{kind: tokMinus})
			i++
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				out = append(out, token{kind: tokPow})
				i += 2
			} else {
				out = append(out, token{kind: tokStar})
				i++
			}
		case c == '/':
			out = append(out, token{kind: tokSlash})
			i++
		case c == '(':
			out = append(out, token{kind: tokLParen})
			i++
		case c == ')':
			out = append(out, token{kind: tokRParen})
			i++
		case (c >= '0' && c <= '9') || c == '.':
			j := i
			dots := 0
			for j < len(s) && ((s[j] >= '0' && s[j] <= '9') || s[j] == '.') {
				if s[j] == '.' {
					dots++
				}
				j++
			}
			lit := s[i:j]
			if dots > 1 || lit == "." {
				return nil, fmt.Errorf("malformed number %q", lit)
			}
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q: %w", lit, err)
			}
			out = append(out, token{kind: tokNumber, num: v})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	return out, nil
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) accept(k tokenKind) bool {
	if t, ok := p.peek(); ok && t.kind == k {
		p.pos++
		return true
	}
	return false
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept(tokPlus):
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept(tokMinus):
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept(tokStar):
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept(tokSlash):
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

// unary := ('+'|'-') unary | power
func (p *parser) unary() (float64, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, errTooDeep
	}
	if p.accept(tokMinus) {
		v, err := p.unary()
		return -v, err
	}
	if p.accept(tokPlus) {
		return p.unary()
	}
	return p.power()
}

// power := atom ('**' unary)?
// The exponent may carry its own sign; -2**2 is -(2**2).
func (p *parser) power() (float64, error) {
	base, err := p.atom()
	if err != nil {
		return 0, err
	}
	if p.accept(tokPow) {
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		if base == 0 && exp < 0 {
			return 0, fmt.Errorf("zero to a negative power")
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) atom() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokLParen:
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if !p.accept(tokRParen) {
			return 0, fmt.Errorf("unbalanced parentheses")
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token at %d", p.pos)
	}
}
