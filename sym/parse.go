package sym

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Parse reads a single expression written in the usual infix notation:
// numbers, symbols, function calls, parentheses, and the operators
// + - * / and ** (with ^ accepted as a synonym). Multiplication is
// always explicit, so "2r" is an error while "2*r" is not. The returned
// tree is simplified. Unknown function names parse fine and fail only
// when the expression is differentiated or compiled.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	p := &parser{toks: toks}
	e, err := p.parseSum()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errors.Wrapf(ErrParse, "unexpected %q at offset %d", tok.text, tok.pos)
	}
	return e.Simplify(), nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			i = scanNumber(runes, i)
			toks = append(toks, token{kind: tokNum, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(c):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case c == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				toks = append(toks, token{kind: tokOp, text: "**", pos: i})
				i += 2
				break
			}
			toks = append(toks, token{kind: tokOp, text: "*", pos: i})
			i++
		case strings.ContainsRune("+-/^()", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		default:
			return nil, errors.Wrapf(ErrParse, "unexpected character %q at offset %d", c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

// scanNumber consumes digits, at most one decimal point, and an
// optional exponent part. Validity of the spelling is left to the
// rational conversion in parseAtom.
func scanNumber(runes []rune, i int) int {
	for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
		i++
	}
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			i = j
		}
	}
	return i
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(op string) bool {
	if tok := p.peek(); tok.kind == tokOp && tok.text == op {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseSum() (Expr, error) {
	e, err := p.parseProduct()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for {
		switch {
		case p.accept("+"):
			rhs, err := p.parseProduct()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			e = AddOf(e, rhs)
		case p.accept("-"):
			rhs, err := p.parseProduct()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			e = AddOf(e, Neg(rhs))
		default:
			return e, nil
		}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for {
		switch {
		case p.accept("*"):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			e = MulOf(e, rhs)
		case p.accept("/"):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			e = MulOf(e, PowOf(rhs, N(-1)))
		default:
			return e, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.accept("-") {
		e, err := p.parseUnary()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return Neg(e), nil
	}
	if p.accept("+") {
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower binds tighter than unary minus on its left while allowing
// a signed exponent, matching the usual reading of -x**2 and 2**-3.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if p.accept("**") || p.accept("^") {
		exp, err := p.parseUnary()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(tok.text)
		if !ok {
			return nil, errors.Wrapf(ErrParse, "bad number %q at offset %d", tok.text, tok.pos)
		}
		return &Num{val: r}, nil
	case tokIdent:
		if p.accept("(") {
			arg, err := p.parseSum()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			if !p.accept(")") {
				return nil, errors.Wrapf(ErrParse, "missing ) in call to %s at offset %d", tok.text, tok.pos)
			}
			return Apply(tok.text, arg), nil
		}
		return S(tok.text), nil
	case tokOp:
		if tok.text == "(" {
			e, err := p.parseSum()
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			if !p.accept(")") {
				return nil, errors.Wrapf(ErrParse, "missing ) at offset %d", tok.pos)
			}
			return e, nil
		}
		return nil, errors.Wrapf(ErrParse, "unexpected %q at offset %d", tok.text, tok.pos)
	}
	return nil, errors.Wrapf(ErrParse, "unexpected end of expression at offset %d", tok.pos)
}
