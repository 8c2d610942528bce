package gruntz

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Infix parser
// ============================================================
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | name | name "(" expr { "," expr } ")" | "(" expr ")"
//
// Names E, pi, I and oo denote constants. Derivative(f, x) builds an inert
// derivative node. Names may not start with an underscore.

type token struct {
	kind byte // 'n' number, 'i' identifier, 'e' end, or the operator byte
	text string
	pos  int
}

type parser struct {
	src  string
	toks []token
	pos  int
}

// Parse reads an infix expression.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != 'e' {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e.Simplify(), nil
}

// MustParse is Parse for trusted input; it panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			start := i
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: 'n', text: src[start:i], pos: start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(src) && (unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i])) || src[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: 'i', text: src[start:i], pos: start})
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: '^', text: "**", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^(),", c):
			toks = append(toks, token{kind: byte(c), text: string(c), pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: parse: unexpected character %q at offset %d", ErrInvalidArgument, c, i)
		}
	}
	toks = append(toks, token{kind: 'e', text: "end of input", pos: len(src)})
	return toks, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != 'e' {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return fmt.Errorf("%w: parse: %s at offset %d", ErrInvalidArgument, fmt.Sprintf(format, args...), t.pos)
}

func (p *parser) expect(kind byte) error {
	if t := p.next(); t.kind != kind {
		return p.errorf(t, "expected %q, found %q", string(kind), t.text)
	}
	return nil
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != '+' && op != '-' {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == '-' {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != '*' && op != '/' {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '/' {
			if n, ok := right.(*Num); ok && n.IsZero() {
				return nil, p.errorf(p.peek(), "division by zero")
			}
			right = PowOf(right, N(-1))
		}
		left = MulOf(left, right)
	}
}

func (p *parser) unary() (Expr, error) {
	switch p.peek().kind {
	case '-':
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	case '+':
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != '^' {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case 'n':
		r := new(big.Rat)
		if _, ok := r.SetString(t.text); !ok {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return &Num{val: r}, nil
	case '(':
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return e, nil
	case 'i':
		if p.peek().kind == '(' {
			p.next()
			return p.call(t)
		}
		return p.name(t)
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func (p *parser) name(t token) (Expr, error) {
	switch t.text {
	case "E":
		return E, nil
	case "pi":
		return Pi, nil
	case "I":
		return I, nil
	case "oo", "inf":
		return Oo, nil
	}
	if strings.HasPrefix(t.text, "_") {
		return nil, p.errorf(t, "names starting with '_' are reserved")
	}
	return S(t.text), nil
}

func (p *parser) call(t token) (Expr, error) {
	var args []Expr
	if p.peek().kind != ')' {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != ',' {
				break
			}
			p.next()
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	switch t.text {
	case "sqrt":
		if len(args) != 1 {
			return nil, p.errorf(t, "sqrt takes one argument")
		}
		return SqrtOf(args[0]), nil
	case "Derivative", "diff":
		if len(args) != 2 {
			return nil, p.errorf(t, "%s takes an expression and a symbol", t.text)
		}
		v, ok := args[1].(*Sym)
		if !ok {
			return nil, p.errorf(t, "%s: second argument must be a symbol", t.text)
		}
		return DerivativeOf(args[0], v.name), nil
	}
	if len(args) == 0 {
		return nil, p.errorf(t, "%s: missing arguments", t.text)
	}
	if strings.HasPrefix(t.text, "_") {
		return nil, p.errorf(t, "names starting with '_' are reserved")
	}
	return FuncOf(canonicalFuncName(t.text), args...), nil
}
