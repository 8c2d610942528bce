package gruntz

import (
	"errors"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Truncated generalized power series
// ============================================================

// seriesTerm is coeff*w^exp with coeff free of w. The exponent is an exact
// *Num whenever the growth ratios involved are rational, and otherwise a
// real constant expression such as log(2)/log(3).
type seriesTerm struct {
	exp   Expr
	coeff Expr
}

// series is a finite sum of terms in increasing exponent order plus an
// optional remainder O(w^order). A nil order means the sum is exact.
type series struct {
	terms []seriesTerm
	order Expr
}

// seriesOrders are the truncation orders tried, in turn, by calculateSeries.
var seriesOrders = []int64{1, 2, 4, 6, 8}

// maxTaylorTerms caps the number of terms of a single Taylor sum.
const maxTaylorTerms = 48

// expTolerance is the distance below which two numerically evaluated
// exponents are taken as equal.
const expTolerance = 1e-12

// seriesCtx holds what one expansion needs: the series variable, the
// expression standing for log(w), the truncation order and a sign oracle
// for w-free coefficients.
type seriesCtx struct {
	w    *Sym
	logw Expr
	n    Expr
	sign func(Expr) (int, error)
}

// ============================================================
// Exponent arithmetic
// ============================================================

// evalFloat evaluates a constant expression to a finite float64.
func evalFloat(e Expr) (float64, bool) {
	v, ok := e.Eval()
	if !ok {
		return 0, false
	}
	f := v.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isRealConstant reports whether e is free of symbols and evaluates to a
// finite real number.
func isRealConstant(e Expr) bool {
	if _, ok := e.(*Num); ok {
		return true
	}
	if len(FreeSymbols(e)) > 0 {
		return false
	}
	_, ok := evalFloat(e)
	return ok
}

// expNorm brings an exponent to canonical form. A symbolic exponent that
// evaluates to zero within expTolerance becomes the exact 0.
func expNorm(e Expr) Expr {
	if _, ok := e.(*Num); ok {
		return e
	}
	d := Expand(e)
	if _, ok := d.(*Num); ok {
		return d
	}
	if f, ok := evalFloat(d); ok && math.Abs(f) < expTolerance {
		return N(0)
	}
	return d
}

func expAdd(a, b Expr) Expr {
	an, ok1 := a.(*Num)
	bn, ok2 := b.(*Num)
	if ok1 && ok2 {
		return numAdd(an, bn)
	}
	return expNorm(AddOf(a, b))
}

func expSub(a, b Expr) Expr { return expAdd(a, MulOf(N(-1), b)) }

func expMul(a, b Expr) Expr {
	an, ok1 := a.(*Num)
	bn, ok2 := b.(*Num)
	if ok1 && ok2 {
		return numMul(an, bn)
	}
	return expNorm(MulOf(a, b))
}

// expCmp orders two exponents: exactly when both are rational, otherwise
// by the numeric value of their difference. Exponents that cannot be
// evaluated are ordered by their text so that sorting stays deterministic.
func expCmp(a, b Expr) int {
	an, ok1 := a.(*Num)
	bn, ok2 := b.(*Num)
	if ok1 && ok2 {
		return an.val.Cmp(bn.val)
	}
	d := expNorm(SubOf(a, b))
	if n, ok := d.(*Num); ok {
		return n.val.Sign()
	}
	fa, okA := evalFloat(a)
	fb, okB := evalFloat(b)
	if !okA || !okB {
		return strings.Compare(a.String(), b.String())
	}
	scale := math.Max(1, math.Max(math.Abs(fa), math.Abs(fb)))
	switch diff := fa - fb; {
	case math.Abs(diff) <= expTolerance*scale:
		return 0
	case diff < 0:
		return -1
	}
	return 1
}

func expSign(e Expr) int { return expCmp(e, N(0)) }

// minOrder treats nil as +infinity.
func minOrder(a, b Expr) Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case expCmp(a, b) <= 0:
		return a
	}
	return b
}

// ============================================================
// Series arithmetic
// ============================================================

func exactZero() *series { return &series{} }

func constSeries(c Expr) *series {
	if n, ok := c.(*Num); ok && n.IsZero() {
		return exactZero()
	}
	return &series{terms: []seriesTerm{{exp: N(0), coeff: c}}}
}

func monomial(coeff Expr, exp Expr) *series {
	return &series{terms: []seriesTerm{{exp: exp, coeff: coeff}}}
}

func (s *series) isExactZero() bool { return len(s.terms) == 0 && s.order == nil }

// lead returns the smallest exponent that is not known to vanish: the first
// term, or the remainder order when no term is known.
func (s *series) lead() Expr {
	if len(s.terms) > 0 {
		return s.terms[0].exp
	}
	return s.order
}

// truncate drops every term at or beyond o and records o as the remainder.
func (s *series) truncate(o Expr) *series {
	order := minOrder(s.order, o)
	out := &series{order: order}
	for _, t := range s.terms {
		if order != nil && expCmp(t.exp, order) >= 0 {
			break
		}
		out.terms = append(out.terms, t)
	}
	return out
}

// normalize merges equal exponents, expands coefficients, drops zeros and
// drops terms hidden by the remainder.
func normalize(terms []seriesTerm, order Expr) *series {
	sort.SliceStable(terms, func(i, j int) bool { return expCmp(terms[i].exp, terms[j].exp) < 0 })
	out := &series{order: order}
	for i := 0; i < len(terms); {
		j := i
		parts := []Expr{}
		for j < len(terms) && expCmp(terms[j].exp, terms[i].exp) == 0 {
			parts = append(parts, terms[j].coeff)
			j++
		}
		exp := terms[i].exp
		i = j
		if order != nil && expCmp(exp, order) >= 0 {
			break
		}
		c := Expand(AddOf(parts...))
		if n, ok := c.(*Num); ok && n.IsZero() {
			continue
		}
		out.terms = append(out.terms, seriesTerm{exp: exp, coeff: c})
	}
	return out
}

func addSeries(a, b *series) *series {
	terms := make([]seriesTerm, 0, len(a.terms)+len(b.terms))
	terms = append(terms, a.terms...)
	terms = append(terms, b.terms...)
	return normalize(terms, minOrder(a.order, b.order))
}

func mulSeries(a, b *series) *series {
	if a.isExactZero() || b.isExactZero() {
		return exactZero()
	}
	var order Expr
	if a.order != nil {
		order = minOrder(order, expAdd(a.order, b.lead()))
	}
	if b.order != nil {
		order = minOrder(order, expAdd(b.order, a.lead()))
	}
	terms := make([]seriesTerm, 0, len(a.terms)*len(b.terms))
	for _, x := range a.terms {
		for _, y := range b.terms {
			terms = append(terms, seriesTerm{exp: expAdd(x.exp, y.exp), coeff: MulOf(x.coeff, y.coeff)})
		}
	}
	return normalize(terms, order)
}

func scaleSeries(s *series, c Expr) *series { return mulSeries(constSeries(c), s) }

// shiftSeries multiplies s by w^d for a real constant d.
func shiftSeries(s *series, d Expr) *series {
	out := &series{}
	if s.order != nil {
		out.order = expAdd(s.order, d)
	}
	for _, t := range s.terms {
		out.terms = append(out.terms, seriesTerm{exp: expAdd(t.exp, d), coeff: t.coeff})
	}
	return out
}

// split returns the leading coefficient c0 and exponent a0 of s together
// with T such that s = c0*w^a0*(1 + T). Every exponent of T is positive.
func (s *series) split() (Expr, Expr, *series, error) {
	if len(s.terms) == 0 {
		return nil, nil, nil, errPrecision
	}
	c0, a0 := s.terms[0].coeff, s.terms[0].exp
	inv := PowOf(c0, N(-1))
	t := &series{}
	if s.order != nil {
		t.order = expSub(s.order, a0)
	}
	for _, term := range s.terms[1:] {
		t.terms = append(t.terms, seriesTerm{
			exp:   expSub(term.exp, a0),
			coeff: Expand(MulOf(term.coeff, inv)),
		})
	}
	return c0, a0, t, nil
}

// constPart splits s into its w^0 coefficient and the positive-exponent
// remainder. It refuses series with negative exponents.
func (s *series) constPart(op string, e Expr) (Expr, *series, error) {
	if len(s.terms) > 0 && expSign(s.terms[0].exp) < 0 {
		return nil, nil, newError(ErrUnsupportedConstruct, op, e, "argument is unbounded")
	}
	if s.order != nil && expSign(s.order) <= 0 {
		return nil, nil, errPrecision
	}
	var c Expr = N(0)
	rest := &series{order: s.order}
	for _, t := range s.terms {
		if expSign(t.exp) == 0 {
			c = t.coeff
			continue
		}
		rest.terms = append(rest.terms, t)
	}
	return c, rest, nil
}

// taylorCount returns the largest K with K*m < limit, for m > 0.
func taylorCount(limit, m Expr) int64 {
	var k int64
	ln, ok1 := limit.(*Num)
	mn, ok2 := m.(*Num)
	if ok1 && ok2 {
		q := new(big.Rat).Quo(ln.val, mn.val)
		k = new(big.Int).Quo(q.Num(), q.Denom()).Int64()
		if q.IsInt() {
			k--
		}
	} else {
		fl, okL := evalFloat(limit)
		fm, okM := evalFloat(m)
		if !okL || !okM || fm <= 0 {
			return 0
		}
		q := fl / fm
		if q > maxTaylorTerms+1 {
			return maxTaylorTerms
		}
		k = int64(math.Ceil(q)) - 1
	}
	if k < 0 {
		k = 0
	}
	if k > maxTaylorTerms {
		k = maxTaylorTerms
	}
	return k
}

// taylor sums coeff(k)*T^k for k = 0..K where K is the largest count the
// requested order can use. T must have only positive exponents.
func (c *seriesCtx) taylor(t *series, coeff func(k int) Expr) *series {
	if t.isExactZero() {
		return constSeries(coeff(0))
	}
	m := t.lead()
	k := taylorCount(minOrder(t.order, c.n), m)
	cut := expMul(N(k+1), m)
	result := constSeries(coeff(0))
	power := constSeries(N(1))
	for i := 1; i <= int(k); i++ {
		power = mulSeries(power, t).truncate(cut)
		if a := coeff(i); !isNumEqual(a, 0) {
			result = addSeries(result, scaleSeries(power, a))
		}
	}
	return result.truncate(cut)
}

func factorial(k int) *Num {
	r := N(1)
	for i := 2; i <= k; i++ {
		r = numMul(r, N(int64(i)))
	}
	return r
}

func expCoeff(k int) Expr { return numRecip(factorial(k)) }

func logCoeff(k int) Expr {
	if k == 0 {
		return N(0)
	}
	if k%2 == 0 {
		return F(-1, int64(k))
	}
	return F(1, int64(k))
}

func sinCoeff(k int) Expr {
	if k%2 == 0 {
		return N(0)
	}
	c := numRecip(factorial(k))
	if (k/2)%2 == 1 {
		return numNeg(c)
	}
	return c
}

func cosCoeff(k int) Expr {
	if k%2 == 1 {
		return N(0)
	}
	c := numRecip(factorial(k))
	if (k/2)%2 == 1 {
		return numNeg(c)
	}
	return c
}

func atanCoeff(k int) Expr {
	if k%2 == 0 {
		return N(0)
	}
	if (k/2)%2 == 1 {
		return F(-1, int64(k))
	}
	return F(1, int64(k))
}

// asinCoeff is (2j)!/(4^j (j!)^2 (2j+1)) for k = 2j+1.
func asinCoeff(k int) Expr {
	if k%2 == 0 {
		return N(0)
	}
	j := k / 2
	num := factorial(2 * j)
	den := numMul(numMul(numPowInt(N(4), int64(j)), numMul(factorial(j), factorial(j))), N(int64(k)))
	return numDiv(num, den)
}

// binomCoeff returns the generalized binomial coefficient of p over k.
func binomCoeff(p Expr) func(k int) Expr {
	return func(k int) Expr {
		factors := []Expr{numRecip(factorial(k))}
		for i := 0; i < k; i++ {
			factors = append(factors, SubOf(p, N(int64(i))))
		}
		return Expand(MulOf(factors...))
	}
}

// ============================================================
// Expansion
// ============================================================

func (c *seriesCtx) expand(e Expr) (*series, error) {
	if !Has(e, c.w.name) {
		return constSeries(e), nil
	}
	switch v := e.(type) {
	case *Sym:
		return monomial(N(1), N(1)), nil
	case *Add:
		acc := exactZero()
		for _, t := range v.terms {
			s, err := c.expand(t)
			if err != nil {
				return nil, err
			}
			acc = addSeries(acc, s)
		}
		return acc, nil
	case *Mul:
		acc := constSeries(N(1))
		for _, f := range v.factors {
			s, err := c.expand(f)
			if err != nil {
				return nil, err
			}
			acc = mulSeries(acc, s)
		}
		return acc, nil
	case *Pow:
		if Has(v.exp, c.w.name) {
			return c.expand(ExpOf(MulOf(v.exp, LogOf(v.base))))
		}
		b, err := c.expand(v.base)
		if err != nil {
			return nil, err
		}
		return c.pow(b, v.exp, e)
	case *Func:
		if len(v.args) != 1 {
			return nil, newError(ErrUnsupportedConstruct, "series", e, "function of several arguments")
		}
		a, err := c.expand(v.args[0])
		if err != nil {
			return nil, err
		}
		switch v.name {
		case "exp":
			return c.exp(a, e)
		case "log":
			return c.log(a)
		case "sin", "cos":
			return c.trig(v.name, a, e)
		case "atan":
			return c.atan(a, e)
		case "asin":
			a0, t, err := a.constPart("series", e)
			if err != nil {
				return nil, err
			}
			if !isNumEqual(a0, 0) {
				return nil, newError(ErrUnsupportedConstruct, "series", e, "asin away from zero")
			}
			return c.taylor(t, asinCoeff), nil
		case "abs":
			if len(a.terms) == 0 {
				return nil, errPrecision
			}
			s, err := c.sign(a.terms[0].coeff)
			if err != nil {
				return nil, err
			}
			return scaleSeries(a, N(int64(s))), nil
		case "sinh", "cosh", "tanh", "tan":
			return c.expand(rewriteTractable(e))
		}
	}
	return nil, newError(ErrUnsupportedConstruct, "series", e, "no expansion rule")
}

func (c *seriesCtx) pow(b *series, p Expr, e Expr) (*series, error) {
	if pn, ok := p.(*Num); ok && pn.IsInteger() && pn.IsPositive() && pn.val.Num().IsInt64() && pn.val.Num().Int64() <= maxExpandPower {
		acc := constSeries(N(1))
		for i := int64(0); i < pn.val.Num().Int64(); i++ {
			acc = mulSeries(acc, b)
		}
		return acc, nil
	}
	c0, a0, t, err := b.split()
	if err != nil {
		return nil, err
	}
	var shift Expr
	switch {
	case expSign(a0) == 0:
		shift = N(0)
	case isRealConstant(p):
		shift = expMul(a0, p)
	default:
		return nil, newError(ErrUnsupportedConstruct, "series", e, "exponent of w is not a real constant")
	}
	body := c.taylor(t, binomCoeff(p))
	return shiftSeries(scaleSeries(body, PowOf(c0, p)), shift), nil
}

func (c *seriesCtx) exp(a *series, e Expr) (*series, error) {
	a0, t, err := a.constPart("series", e)
	if err != nil {
		return nil, err
	}
	return scaleSeries(c.taylor(t, expCoeff), ExpOf(a0)), nil
}

func (c *seriesCtx) log(a *series) (*series, error) {
	c0, a0, t, err := a.split()
	if err != nil {
		return nil, err
	}
	head := AddOf(LogOf(c0), MulOf(a0, c.logw))
	return addSeries(constSeries(head), c.taylor(t, logCoeff)), nil
}

func (c *seriesCtx) trig(name string, a *series, e Expr) (*series, error) {
	a0, t, err := a.constPart("series", e)
	if err != nil {
		return nil, err
	}
	cs := c.taylor(t, cosCoeff)
	sn := c.taylor(t, sinCoeff)
	if name == "sin" {
		return addSeries(scaleSeries(cs, SinOf(a0)), scaleSeries(sn, CosOf(a0))), nil
	}
	return addSeries(scaleSeries(cs, CosOf(a0)), scaleSeries(sn, MulOf(N(-1), SinOf(a0)))), nil
}

func (c *seriesCtx) atan(a *series, e Expr) (*series, error) {
	if len(a.terms) > 0 && expSign(a.terms[0].exp) < 0 {
		// atan(A) = sign(A)*pi/2 - atan(1/A) for unbounded A
		s, err := c.sign(a.terms[0].coeff)
		if err != nil {
			return nil, err
		}
		inv, err := c.pow(a, N(-1), e)
		if err != nil {
			return nil, err
		}
		tail, err := c.atan(inv, e)
		if err != nil {
			return nil, err
		}
		head := constSeries(MulOf(N(int64(s)), F(1, 2), Pi))
		return addSeries(head, scaleSeries(tail, N(-1))), nil
	}
	a0, t, err := a.constPart("series", e)
	if err != nil {
		return nil, err
	}
	if isNumEqual(a0, 0) {
		return c.taylor(t, atanCoeff), nil
	}
	// atan(a0 + T) = atan(a0) + atan(T/(1 + a0^2 + a0*T))
	den := addSeries(constSeries(AddOf(N(1), PowOf(a0, N(2)))), scaleSeries(t, a0))
	inv, err := c.pow(den, N(-1), e)
	if err != nil {
		return nil, err
	}
	q := mulSeries(t, inv)
	if q.isExactZero() {
		return constSeries(AtanOf(a0)), nil
	}
	return addSeries(constSeries(AtanOf(a0)), c.taylor(q, atanCoeff)), nil
}

// ============================================================
// Retry driver
// ============================================================

// calculateSeries expands e in w at increasing truncation orders until at
// least one term is known.
func calculateSeries(e Expr, w *Sym, logw Expr, sign func(Expr) (int, error)) (*series, error) {
	for _, n := range seriesOrders {
		ctx := &seriesCtx{w: w, logw: logw, n: N(n), sign: sign}
		s, err := ctx.expand(e)
		if errors.Is(err, errPrecision) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(s.terms) > 0 || s.order == nil {
			return s, nil
		}
	}
	return nil, newError(ErrSeriesExhausted, "series", e, "no nonzero term up to order %d", seriesOrders[len(seriesOrders)-1])
}

// leadTerm returns the leading coefficient and exponent of s. The exact
// zero series has leading term (0, 0).
func (s *series) leadTerm() (Expr, Expr) {
	if len(s.terms) == 0 {
		return N(0), N(0)
	}
	return s.terms[0].coeff, s.terms[0].exp
}

// Expr renders s as c1*w^e1 + ... + O(w^order).
func (s *series) Expr(w *Sym) Expr {
	parts := make([]Expr, 0, len(s.terms)+1)
	for _, t := range s.terms {
		parts = append(parts, MulOf(t.coeff, PowOf(w, t.exp)))
	}
	sum := AddOf(parts...)
	if s.order == nil {
		return sum
	}
	return AddOf(sum, OTermOf(w.name, s.order))
}

func (s *series) String() string {
	parts := make([]string, 0, len(s.terms)+1)
	for _, t := range s.terms {
		parts = append(parts, "("+t.coeff.String()+")*w^"+expString(t.exp))
	}
	if s.order != nil {
		parts = append(parts, "O(w^"+expString(s.order)+")")
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " + ")
}

func expString(e Expr) string {
	if _, ok := e.(*Num); ok {
		return e.String()
	}
	return "(" + e.String() + ")"
}
