package gruntz

import "sort"

// ============================================================
// Top-level helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

// Sub replaces every occurrence of the named symbol by value.
func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

// ============================================================
// Traversal
// ============================================================

// children returns the direct operands of e.
func children(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.terms
	case *Mul:
		return v.factors
	case *Pow:
		return []Expr{v.base, v.exp}
	case *Func:
		return v.args
	case *Derivative:
		return []Expr{v.expr}
	}
	return nil
}

// rebuild constructs a node of the same kind as e over new operands.
func rebuild(e Expr, kids []Expr) Expr {
	switch v := e.(type) {
	case *Add:
		return AddOf(kids...)
	case *Mul:
		return MulOf(kids...)
	case *Pow:
		return PowOf(kids[0], kids[1])
	case *Func:
		return FuncOf(v.name, kids...)
	case *Derivative:
		return DerivativeOf(kids[0], v.varName)
	}
	return e
}

// mapChildren rebuilds e with fn applied to every direct operand.
func mapChildren(e Expr, fn func(Expr) Expr) Expr {
	kids := children(e)
	if len(kids) == 0 {
		return e
	}
	out := make([]Expr, len(kids))
	for i, k := range kids {
		out[i] = fn(k)
	}
	return rebuild(e, out)
}

// Has reports whether the symbol named name occurs in e.
func Has(e Expr, name string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == name
	case *BigO:
		return v.varName == name
	case *Derivative:
		return v.varName == name || Has(v.expr, name)
	}
	for _, k := range children(e) {
		if Has(k, name) {
			return true
		}
	}
	return false
}

// FreeSymbols returns the set of symbol names occurring in e.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the names of FreeSymbols in lexical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, out map[string]struct{}) {
	if s, ok := e.(*Sym); ok {
		out[s.name] = struct{}{}
		return
	}
	for _, k := range children(e) {
		collectSymbols(k, out)
	}
}

// replaceAll substitutes whole subexpressions, matched by canonical form,
// top-down.
func replaceAll(e Expr, subs map[string]Expr) Expr {
	if len(subs) == 0 {
		return e
	}
	if r, ok := subs[e.String()]; ok {
		return r
	}
	return mapChildren(e, func(k Expr) Expr { return replaceAll(k, subs) })
}

// ============================================================
// Expansion
// ============================================================

// maxExpandPower bounds the integer powers of sums multiplied out.
const maxExpandPower = 10

// Expand distributes products over sums and multiplies out small positive
// integer powers of sums, recursively through function arguments.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()) }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Mul:
		result := Expr(N(1))
		for _, f := range v.factors {
			result = distribute(result, expandExpr(f))
		}
		return result
	case *Pow:
		base := expandExpr(v.base)
		exp := expandExpr(v.exp)
		if n, ok := exp.(*Num); ok && n.IsInteger() {
			if _, isAdd := base.(*Add); isAdd {
				k := n.val.Num().Int64()
				if n.val.Num().IsInt64() && k >= 2 && k <= maxExpandPower {
					result := Expr(N(1))
					for i := int64(0); i < k; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return PowOf(base, exp)
	case *Func, *Derivative:
		return mapChildren(e, expandExpr)
	}
	return e
}

// distribute multiplies two expanded expressions term by term.
func distribute(a, b Expr) Expr {
	ta, tb := termsOf(a), termsOf(b)
	if len(ta) == 1 && len(tb) == 1 {
		return MulOf(a, b)
	}
	out := make([]Expr, 0, len(ta)*len(tb))
	for _, x := range ta {
		for _, y := range tb {
			out = append(out, MulOf(x, y))
		}
	}
	return AddOf(out...)
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Sign knowledge
// ============================================================

// KnownSign returns the sign of e when it follows from its structure and
// the positivity assumptions of its symbols. Function arguments are taken
// to be real.
func KnownSign(e Expr) (int, bool) {
	switch v := e.(type) {
	case *Num:
		return v.Sign(), true
	case *Const:
		if v.name == "I" {
			return 0, false
		}
		return 1, true
	case *Sym:
		if v.positive {
			return 1, true
		}
	case *Inf:
		return v.sign, true
	case *Mul:
		s := 1
		for _, f := range v.factors {
			fs, ok := KnownSign(f)
			if !ok {
				return 0, false
			}
			s *= fs
		}
		return s, true
	case *Add:
		s := 0
		for _, t := range v.terms {
			ts, ok := KnownSign(t)
			if !ok {
				return 0, false
			}
			if ts == 0 {
				continue
			}
			if s != 0 && ts != s {
				return 0, false
			}
			s = ts
		}
		return s, true
	case *Pow:
		bs, ok := KnownSign(v.base)
		if ok && bs > 0 {
			return 1, true
		}
		if n, isNum := v.exp.(*Num); isNum && n.IsInteger() && ok && bs != 0 {
			if n.val.Num().Bit(0) == 0 {
				return 1, true
			}
			return bs, true
		}
	case *Func:
		if len(v.args) != 1 {
			return 0, false
		}
		arg := v.args[0]
		switch v.name {
		case "exp", "cosh":
			if !hasImaginary(arg) {
				return 1, true
			}
		case "abs":
			if s, ok := KnownSign(arg); ok && s != 0 {
				return 1, true
			}
		case "atan", "sinh", "tanh":
			return KnownSign(arg)
		case "log":
			if n, ok := arg.(*Num); ok && n.IsPositive() {
				return numCmp(n, N(1)), true
			}
			if c, ok := arg.(*Const); ok && c.name == "pi" {
				return 1, true
			}
		}
	}
	return 0, false
}

func hasImaginary(e Expr) bool {
	if c, ok := e.(*Const); ok {
		return c.name == "I"
	}
	for _, k := range children(e) {
		if hasImaginary(k) {
			return true
		}
	}
	return false
}

// isImaginaryMultiple reports whether c is I times a real factor.
func isImaginaryMultiple(c Expr) bool {
	if k, ok := c.(*Const); ok {
		return k.name == "I"
	}
	m, ok := c.(*Mul)
	if !ok {
		return false
	}
	seen := false
	for _, f := range m.factors {
		if k, ok := f.(*Const); ok && k.name == "I" {
			if seen {
				return false
			}
			seen = true
			continue
		}
		if hasImaginary(f) {
			return false
		}
	}
	return seen
}

// ============================================================
// Tractable form
// ============================================================

// rewriteTractable expresses e with exp and log where the limit engine
// needs them: E becomes exp(1), hyperbolic functions become exponentials,
// tan becomes sin/cos and a power with a non-constant exponent becomes
// exp(exponent*log(base)).
func rewriteTractable(e Expr) Expr {
	e = mapChildren(e, rewriteTractable)
	switch v := e.(type) {
	case *Const:
		if v.name == "E" {
			return ExpOf(N(1))
		}
	case *Pow:
		if _, ok := v.exp.(*Num); !ok && len(FreeSymbols(v.exp)) > 0 {
			return ExpOf(MulOf(v.exp, LogOf(v.base)))
		}
	case *Func:
		if len(v.args) != 1 {
			return e
		}
		a := v.args[0]
		switch v.name {
		case "sinh":
			return MulOf(F(1, 2), SubOf(ExpOf(a), ExpOf(MulOf(N(-1), a))))
		case "cosh":
			return MulOf(F(1, 2), AddOf(ExpOf(a), ExpOf(MulOf(N(-1), a))))
		case "tanh":
			m := ExpOf(MulOf(N(-2), a))
			return DivOf(SubOf(N(1), m), AddOf(N(1), m))
		case "tan":
			return DivOf(SinOf(a), CosOf(a))
		}
	}
	return e
}

// rewriteIntractable turns exp(1) back into E for presentation.
func rewriteIntractable(e Expr) Expr {
	if f, ok := e.(*Func); ok && f.name == "exp" && len(f.args) == 1 && isNumEqual(f.args[0], 1) {
		return E
	}
	return mapChildren(e, rewriteIntractable)
}
