package gruntz

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Add - sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

// Simplify flattens nested sums, folds numbers and collects like terms.
// Terms are ordered by their canonical key with the numeric part last.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	keys := []string{}
	infSign, mixed := 0, false
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Inf:
			if infSign != 0 && infSign != v.sign {
				mixed = true
			}
			infSign = v.sign
		default:
			c, rest := splitCoeff(t)
			k := rest.String()
			if _, seen := coeffs[k]; !seen {
				keys = append(keys, k)
				coeffs[k] = N(0)
				rests[k] = rest
			}
			coeffs[k] = numAdd(coeffs[k], c)
		}
	}
	if infSign != 0 {
		if mixed {
			return &Add{terms: []Expr{NegOo, Oo}}
		}
		if infSign > 0 {
			return Oo
		}
		return NegOo
	}
	sort.Strings(keys)
	result := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		c := coeffs[k]
		if c.IsZero() {
			continue
		}
		if c.IsOne() {
			result = append(result, rests[k])
		} else {
			result = append(result, scaled(c, rests[k]))
		}
	}
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff separates the rational coefficient of a canonical term.
func splitCoeff(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// scaled builds c*rest for a canonical, coefficient-free rest.
func scaled(c *Num, rest Expr) Expr {
	if m, ok := rest.(*Mul); ok {
		return &Mul{factors: append([]Expr{c}, m.factors...)}
	}
	if _, ok := rest.(*Add); ok {
		return MulOf(c, rest)
	}
	return &Mul{factors: []Expr{c, rest}}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) LaTeX() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

// ============================================================
// Mul - product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// Simplify flattens nested products, folds the rational coefficient,
// collects equal bases by adding exponents and combines exponential
// factors into a single exp. A rational coefficient times a single sum is
// distributed.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	coeff := N(1)
	infSign := 0
	var expArgs []Expr
	keys := []string{}
	bases := map[string]Expr{}
	exps := map[string][]Expr{}
	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Inf:
			if infSign == 0 {
				infSign = 1
			}
			infSign *= v.sign
		default:
			if fn, ok := f.(*Func); ok && fn.name == "exp" {
				expArgs = append(expArgs, fn.args[0])
				continue
			}
			b, e := baseExp(f)
			k := b.String()
			if _, seen := bases[k]; !seen {
				keys = append(keys, k)
				bases[k] = b
			}
			exps[k] = append(exps[k], e)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := []Expr{}
	again := false
	absorb := func(p Expr) {
		switch v := p.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			again = true
			others = append(others, v.factors...)
		default:
			others = append(others, p)
		}
	}
	for _, k := range keys {
		absorb(PowOf(bases[k], AddOf(exps[k]...)))
	}
	if len(expArgs) > 0 {
		ex := ExpOf(AddOf(expArgs...))
		if fn, ok := ex.(*Func); !ok || fn.name != "exp" {
			if _, isNum := ex.(*Num); !isNum {
				again = true
			}
		}
		absorb(ex)
	}
	if again {
		parts := append([]Expr{coeff}, others...)
		if infSign < 0 {
			parts = append(parts, NegOo)
		} else if infSign > 0 {
			parts = append(parts, Oo)
		}
		return MulOf(parts...)
	}
	if coeff.IsZero() {
		return N(0)
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	for i := range ks {
		others[i] = ks[i].e
	}

	if infSign != 0 {
		inf := Oo
		if infSign*coeff.Sign() < 0 {
			inf = NegOo
		}
		if len(others) == 0 {
			return inf
		}
		return &Mul{factors: append(others, inf)}
	}
	if len(others) == 0 {
		return coeff
	}
	if len(others) == 1 {
		if add, ok := others[0].(*Add); ok && !coeff.IsOne() {
			terms := make([]Expr, len(add.terms))
			for i, t := range add.terms {
				terms[i] = MulOf(coeff, t)
			}
			return AddOf(terms...)
		}
	}
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func baseExp(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		_, isAdd := f.(*Add)
		if isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		_, isAdd := f.(*Add)
		if isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return strings.Join(parts, " ")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

// ============================================================
// Pow - base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }
func SqrtOf(arg Expr) Expr      { return PowOf(arg, F(1, 2)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}
	expIsInt := expIsNum && en.IsInteger()

	switch b := base.(type) {
	case *Num:
		if b.IsOne() {
			return N(1)
		}
		if expIsNum {
			if r, ok := numPowRat(b, en); ok {
				return r
			}
		}
	case *Inf:
		if expIsNum {
			if en.IsNegative() {
				return N(0)
			}
			if b.sign > 0 {
				return Oo
			}
			if expIsInt {
				if en.val.Num().Bit(0) == 0 {
					return Oo
				}
				return NegOo
			}
		}
	case *Const:
		if b.name == "I" && expIsInt {
			switch mod4(en) {
			case 0:
				return N(1)
			case 1:
				return I
			case 2:
				return N(-1)
			default:
				return &Mul{factors: []Expr{N(-1), I}}
			}
		}
	case *Func:
		if b.name == "exp" {
			return ExpOf(MulOf(b.args[0], exp))
		}
	case *Pow:
		if expIsInt || isPositive(b.base) {
			return PowOf(b.base, MulOf(b.exp, exp))
		}
	case *Mul:
		if expIsInt || allPositive(b.factors) {
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
	}
	return &Pow{base: base, exp: exp}
}

// mod4 reduces an integer exponent of I.
func mod4(n *Num) int64 {
	return new(big.Int).Mod(n.val.Num(), big.NewInt(4)).Int64()
}

func isPositive(e Expr) bool {
	s, ok := KnownSign(e)
	return ok && s > 0
}

func allPositive(es []Expr) bool {
	for _, e := range es {
		if !isPositive(e) {
			return false
		}
	}
	return true
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	_, baseIsAdd := p.base.(*Add)
	_, baseIsMul := p.base.(*Mul)
	_, baseIsPow := p.base.(*Pow)
	if bn, ok := p.base.(*Num); ok && (bn.IsNegative() || !bn.IsInteger()) {
		baseIsMul = true
	}
	if baseIsAdd || baseIsMul || baseIsPow {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Num:
		if !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	case *Sym, *Const, *Func:
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	expStr := p.exp.LaTeX()
	_, baseIsAdd := p.base.(*Add)
	_, baseIsMul := p.base.(*Mul)
	if baseIsAdd || baseIsMul {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + expStr + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if ok1 && ok2 {
		pf := math.Pow(b.Float64(), e.Float64())
		if math.IsNaN(pf) || math.IsInf(pf, 0) {
			return nil, false
		}
		return NFloat(pf), true
	}
	return nil, false
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
