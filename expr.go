package gruntz

import (
	"fmt"
	"math"
	"math/big"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable node of a symbolic expression tree. The set of node
// types is closed: every implementation lives in this package.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num - exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("gruntz: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}
func NFloat(f float64) *Num { return &Num{val: new(big.Rat).SetFloat64(f)} }

// NRat wraps a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(ratNegOne) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Sign() int             { return n.val.Sign() }

var (
	ratOne    = big.NewRat(1, 1)
	ratNegOne = big.NewRat(-1, 1)
)

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numSub(a, b *Num) *Num { return &Num{val: new(big.Rat).Sub(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("gruntz: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numCmp(a, b *Num) int  { return a.val.Cmp(b.val) }

// maxExactPower bounds integer powers folded into a single rational.
const maxExactPower = 256

// numPowInt returns a^k exactly. a must be nonzero when k < 0.
func numPowInt(a *Num, k int64) *Num {
	neg := k < 0
	if neg {
		k = -k
	}
	e := big.NewInt(k)
	num := new(big.Int).Exp(a.val.Num(), e, nil)
	den := new(big.Int).Exp(a.val.Denom(), e, nil)
	r := &Num{val: new(big.Rat).SetFrac(num, den)}
	if neg {
		return numRecip(r)
	}
	return r
}

// intRoot returns the exact q-th root of a non-negative integer, if any.
func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if n.Sign() < 0 || q < 1 {
		return nil, false
	}
	if n.Sign() == 0 || q == 1 {
		return new(big.Int).Set(n), true
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(f, 0) {
		return nil, false
	}
	guess := int64(math.Round(math.Pow(f, 1/float64(q))))
	e := big.NewInt(q)
	for _, c := range []int64{guess - 1, guess, guess + 1} {
		if c < 0 {
			continue
		}
		cand := big.NewInt(c)
		if new(big.Int).Exp(cand, e, nil).Cmp(n) == 0 {
			return cand, true
		}
	}
	return nil, false
}

// numPowRat folds a^(p/q) when the result is rational.
func numPowRat(a *Num, exp *Num) (*Num, bool) {
	if exp.IsInteger() {
		k := exp.val.Num()
		if !k.IsInt64() || abs64(k.Int64()) > maxExactPower {
			return nil, false
		}
		if a.IsZero() && k.Sign() < 0 {
			return nil, false
		}
		return numPowInt(a, k.Int64()), true
	}
	if a.IsNegative() {
		return nil, false
	}
	q := exp.val.Denom()
	if !q.IsInt64() || q.Int64() > 64 {
		return nil, false
	}
	rn, ok1 := intRoot(a.val.Num(), q.Int64())
	rd, ok2 := intRoot(a.val.Denom(), q.Int64())
	if !ok1 || !ok2 {
		return nil, false
	}
	root := &Num{val: new(big.Rat).SetFrac(rn, rd)}
	return numPowRat(root, &Num{val: new(big.Rat).SetInt(exp.val.Num())})
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ============================================================
// Sym - symbolic variable
// ============================================================

// Sym is a named variable. A positive symbol carries the assumption that it
// only takes values greater than zero.
type Sym struct {
	name     string
	positive bool
}

func S(name string) *Sym { return &Sym{name: name} }

// PosSym returns a symbol assumed to be positive.
func PosSym(name string) *Sym { return &Sym{name: name, positive: true} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) IsPositive() bool      { return s.positive }
func (s *Sym) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "sym", "name": s.name}
	if s.positive {
		m["positive"] = true
	}
	return m
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

// ============================================================
// Const - named mathematical constants
// ============================================================

type Const struct{ name string }

var (
	E  = &Const{name: "E"}
	Pi = &Const{name: "pi"}
	I  = &Const{name: "I"}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

func (c *Const) LaTeX() string {
	switch c.name {
	case "E":
		return "e"
	case "pi":
		return "\\pi"
	case "I":
		return "i"
	}
	return c.name
}

func (c *Const) Eval() (*Num, bool) {
	switch c.name {
	case "E":
		return NFloat(math.E), true
	case "pi":
		return NFloat(math.Pi), true
	}
	return nil, false
}

// ============================================================
// Inf - signed infinity
// ============================================================

type Inf struct{ sign int }

var (
	Oo    = &Inf{sign: 1}
	NegOo = &Inf{sign: -1}
)

func (o *Inf) Simplify() Expr        { return o }
func (o *Inf) Sub(string, Expr) Expr { return o }
func (o *Inf) Eval() (*Num, bool)    { return nil, false }
func (o *Inf) Equal(other Expr) bool { v, ok := other.(*Inf); return ok && v.sign == o.sign }
func (o *Inf) exprType() string      { return "inf" }
func (o *Inf) Sign() int             { return o.sign }
func (o *Inf) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "inf", "sign": o.sign}
}

func (o *Inf) String() string {
	if o.sign < 0 {
		return "-oo"
	}
	return "oo"
}

func (o *Inf) LaTeX() string {
	if o.sign < 0 {
		return "-\\infty"
	}
	return "\\infty"
}

// ============================================================
// BigO - remainder term for series
// ============================================================

type BigO struct {
	varName string
	order   Expr
}

func OTerm(varName string, order int) *BigO { return &BigO{varName: varName, order: N(int64(order))} }

// OTermRat returns O(varName^order) for a rational order.
func OTermRat(varName string, order *Num) *BigO { return &BigO{varName: varName, order: order} }

// OTermOf returns O(varName^order) for a constant order expression.
func OTermOf(varName string, order Expr) *BigO { return &BigO{varName: varName, order: order} }

func (o *BigO) Simplify() Expr        { return o }
func (o *BigO) String() string        { return "O(" + PowOf(S(o.varName), o.order).String() + ")" }
func (o *BigO) LaTeX() string         { return "\\mathcal{O}\\left(" + PowOf(S(o.varName), o.order).LaTeX() + "\\right)" }
func (o *BigO) Sub(string, Expr) Expr { return o }
func (o *BigO) Eval() (*Num, bool)    { return nil, false }
func (o *BigO) Equal(other Expr) bool {
	b, ok := other.(*BigO)
	return ok && b.varName == o.varName && b.order.Equal(o.order)
}
func (o *BigO) exprType() string { return "bigo" }
func (o *BigO) toJSON() map[string]interface{} {
	var order interface{} = o.order.String()
	if _, ok := o.order.(*Num); !ok {
		order = o.order.toJSON()
	}
	return map[string]interface{}{"type": "bigo", "var": o.varName, "order": order}
}
func (o *BigO) Order() Expr { return o.order }

// ============================================================
// Derivative - unevaluated derivative
// ============================================================

// Derivative is an inert d/dvar node. The package never differentiates;
// the node exists so that callers can pass such expressions in and get a
// clean refusal back.
type Derivative struct {
	expr    Expr
	varName string
}

func DerivativeOf(e Expr, varName string) Expr {
	return &Derivative{expr: e.Simplify(), varName: varName}
}

func (d *Derivative) Simplify() Expr     { return &Derivative{expr: d.expr.Simplify(), varName: d.varName} }
func (d *Derivative) Eval() (*Num, bool) { return nil, false }
func (d *Derivative) exprType() string   { return "derivative" }
func (d *Derivative) String() string {
	return "Derivative(" + d.expr.String() + ", " + d.varName + ")"
}
func (d *Derivative) LaTeX() string {
	return "\\frac{d}{d" + d.varName + "}\\left(" + d.expr.LaTeX() + "\\right)"
}
func (d *Derivative) Equal(other Expr) bool {
	o, ok := other.(*Derivative)
	return ok && d.varName == o.varName && d.expr.Equal(o.expr)
}
func (d *Derivative) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "derivative", "expr": d.expr.toJSON(), "var": d.varName}
}

// Sub renames the differentiation variable when value is a symbol and
// otherwise substitutes into the operand only.
func (d *Derivative) Sub(varName string, value Expr) Expr {
	inner := d.expr.Sub(varName, value)
	name := d.varName
	if varName == d.varName {
		if s, ok := value.(*Sym); ok {
			name = s.name
		}
	}
	return &Derivative{expr: inner.Simplify(), varName: name}
}
