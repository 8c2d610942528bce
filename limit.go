package gruntz

import "fmt"

// ============================================================
// Limit Orchestrator
// ============================================================

// Direction selects the side of a finite limit point.
type Direction int

const (
	Right Direction = iota // from above, "+"
	Left                   // from below, "-"
)

func (d Direction) String() string {
	if d == Left {
		return "-"
	}
	return "+"
}

// ParseDirection accepts "+", "-", "right" and "left". The empty string is
// taken as "+".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "+", "right":
		return Right, nil
	case "-", "left":
		return Left, nil
	}
	return Right, fmt.Errorf("%w: direction %q", ErrInvalidArgument, s)
}

// limitinf computes the limit of e as x tends to +oo.
func (l *limiter) limitinf(e Expr, x *Sym) (Expr, error) {
	err := l.enter("limitinf", e)
	defer l.leave()
	if err != nil {
		return nil, err
	}
	e = rewriteTractable(e)
	if !Has(e, x.name) {
		return e, nil
	}
	restore := func(r Expr) Expr { return r }
	if !x.positive {
		e, x, restore = l.prepare(e, x)
	}
	key := memoKey(x, e)
	if v, ok := l.memo.lookupLimit(key); ok {
		return restore(v), nil
	}

	c0, e0, err := l.leadterm(e, x)
	if err != nil {
		return nil, err
	}
	sig, err := l.sign(e0, x)
	if err != nil {
		return nil, err
	}
	var result Expr
	switch sig {
	case 1:
		result = N(0)
	case -1:
		if isImaginaryMultiple(c0) {
			result = MulOf(c0, Oo)
			break
		}
		s, err := l.sign(c0, x)
		if err != nil {
			return nil, err
		}
		switch s {
		case 1:
			result = Oo
		case -1:
			result = NegOo
		default:
			return nil, newError(ErrInvariant, "limitinf", c0, "leading coefficient is zero")
		}
	default:
		result, err = l.limitinf(c0, x)
		if err != nil {
			return nil, err
		}
	}
	l.memo.storeLimit(key, result)
	l.tracef("limitinf(%s, %s) = %s", e, x, result)
	return restore(result), nil
}

// ============================================================
// Public entry points
// ============================================================

// LimitInf returns the limit of e as x tends to +oo.
func (en *Engine) LimitInf(e Expr, x *Sym) (Expr, error) {
	l := en.newLimiter()
	r, err := l.limitinf(e.Simplify(), x)
	if err != nil {
		return nil, err
	}
	return rewriteIntractable(r), nil
}

// Gruntz returns the limit of e as z tends to z0. z0 may be Oo, NegOo or
// any expression free of z; dir picks the side of a finite z0.
func (en *Engine) Gruntz(e, z, z0 Expr, dir Direction) (Expr, error) {
	zs, ok := z.(*Sym)
	if !ok {
		return nil, newError(ErrInvalidArgument, "gruntz", z, "limit variable must be a symbol")
	}
	z0 = z0.Simplify()
	var target Expr
	switch p := z0.(type) {
	case *Inf:
		if p.sign > 0 {
			target = e.Simplify()
		} else {
			target = Sub(e, zs.name, MulOf(N(-1), zs))
		}
	default:
		if Has(z0, zs.name) {
			return nil, newError(ErrInvalidArgument, "gruntz", z0, "limit point depends on %s", zs.name)
		}
		if isUnbounded(z0) {
			return nil, newError(ErrInvalidArgument, "gruntz", z0, "unsupported limit point")
		}
		step := PowOf(zs, N(-1))
		if dir == Left {
			step = MulOf(N(-1), step)
		}
		target = Sub(e, zs.name, AddOf(z0, step))
	}
	l := en.newLimiter()
	r, err := l.limitinf(target, zs)
	if err != nil {
		return nil, err
	}
	return rewriteIntractable(r), nil
}

// Sign returns the eventual sign of e as x tends to +oo.
func (en *Engine) Sign(e Expr, x *Sym) (int, error) {
	l := en.newLimiter()
	pe, px, _ := l.prepare(e, x)
	return l.sign(pe, px)
}

// Compare orders a and b by growth rate as x tends to +oo.
func (en *Engine) Compare(a, b Expr, x *Sym) (Comparison, error) {
	l := en.newLimiter()
	pa, px, _ := l.prepare(a, x)
	pb := rewriteTractable(b.Simplify())
	if px != x {
		pb = Sub(pb, x.name, px)
	}
	return l.compare(pa, pb, px)
}

// MRVResult lists a most rapidly varying set and the expression restated
// in its placeholders.
type MRVResult struct {
	Set       []Expr
	Rewritten Expr
}

// MRV returns the most rapidly varying subexpressions of e at x -> +oo.
func (en *Engine) MRV(e Expr, x *Sym) (MRVResult, error) {
	l := en.newLimiter()
	pe, px, restore := l.prepare(e, x)
	s, r, err := l.mrv(pe, px)
	if err != nil {
		return MRVResult{}, err
	}
	set := make([]Expr, s.len())
	for i, m := range s.exprs {
		set[i] = rewriteIntractable(restore(m))
	}
	return MRVResult{Set: set, Rewritten: restore(r)}, nil
}

// LeadTerm returns the leading coefficient and exponent of e at x -> +oo
// in terms of the infinitesimal of its most rapidly varying set. The
// exponent is a *Num whenever it is rational.
func (en *Engine) LeadTerm(e Expr, x *Sym) (Expr, Expr, error) {
	l := en.newLimiter()
	pe, px, restore := l.prepare(e, x)
	c0, e0, err := l.leadterm(pe, px)
	if err != nil {
		return nil, nil, err
	}
	return rewriteIntractable(restore(c0)), e0, nil
}

// SeriesLeadTerm returns the leading term of the expansion of e in the
// infinitesimal v, trying truncation orders 1, 2, 4, 6 and 8.
func SeriesLeadTerm(e Expr, v *Sym) (Expr, Expr, error) {
	return defaultEngine.SeriesLeadTerm(e, v)
}

func (en *Engine) SeriesLeadTerm(e Expr, v *Sym) (Expr, Expr, error) {
	s, err := en.CalculateSeries(e, v, LogOf(v))
	if err != nil {
		return nil, nil, err
	}
	c0, e0 := s.LeadTerm()
	return rewriteIntractable(c0), e0, nil
}

// Series is a truncated expansion returned by CalculateSeries.
type Series struct{ s *series }

// LeadTerm returns the first coefficient and its exponent.
func (s Series) LeadTerm() (Expr, Expr) { return s.s.leadTerm() }

// Expr renders the series with its remainder as an O term.
func (s Series) Expr(v *Sym) Expr { return s.s.Expr(v) }

// Exact reports whether the series has no remainder.
func (s Series) Exact() bool { return s.s.order == nil }

func (s Series) String() string { return s.s.String() }

// CalculateSeries expands e in the positive infinitesimal v on the default
// engine.
func CalculateSeries(e Expr, v *Sym, logv Expr) (Series, error) {
	return defaultEngine.CalculateSeries(e, v, logv)
}

// CalculateSeries expands e in the positive infinitesimal v, with logv
// standing for log(v). Coefficient signs are decided by the engine treating
// v as the only variable, within the engine's budget.
func (en *Engine) CalculateSeries(e Expr, v *Sym, logv Expr) (Series, error) {
	l := en.newLimiter()
	pv := v
	ex := rewriteTractable(e.Simplify())
	if !v.positive {
		pv = l.fresh("p")
		ex = Sub(ex, v.name, pv)
		logv = Sub(logv, v.name, pv)
	}
	s, err := calculateSeries(ex, pv, logv, func(c Expr) (int, error) { return l.sign(c, pv) })
	if err != nil {
		return Series{}, err
	}
	if pv != v {
		for i := range s.terms {
			s.terms[i].coeff = Sub(s.terms[i].coeff, pv.name, v)
		}
	}
	return Series{s: s}, nil
}

// Package-level conveniences on the default engine.

func LimitInf(e Expr, x *Sym) (Expr, error) { return defaultEngine.LimitInf(e, x) }
func Gruntz(e, z, z0 Expr, dir Direction) (Expr, error) {
	return defaultEngine.Gruntz(e, z, z0, dir)
}
func Sign(e Expr, x *Sym) (int, error)              { return defaultEngine.Sign(e, x) }
func Compare(a, b Expr, x *Sym) (Comparison, error) { return defaultEngine.Compare(a, b, x) }
func MRV(e Expr, x *Sym) (MRVResult, error)         { return defaultEngine.MRV(e, x) }
func LeadTerm(e Expr, x *Sym) (Expr, Expr, error)   { return defaultEngine.LeadTerm(e, x) }

// ============================================================
// Limit - result-struct entry point
// ============================================================

type LimitResult struct {
	Value   Expr
	Success bool
	Error   string
}

// Limit computes lim_{varName -> point} expr from the right.
func Limit(expr Expr, varName string, point Expr) LimitResult {
	return LimitDir(expr, varName, point, Right)
}

// LimitDir computes a one-sided limit.
func LimitDir(expr Expr, varName string, point Expr, dir Direction) LimitResult {
	v, err := Gruntz(expr, S(varName), point, dir)
	if err != nil {
		return LimitResult{Success: false, Error: err.Error()}
	}
	return LimitResult{Value: v, Success: true}
}
