package gruntz

// ============================================================
// Leadterm Extractor
// ============================================================

// leadterm returns (c0, e0) such that e behaves like c0*w^e0 where w is an
// infinitesimal standing for a most rapidly varying subexpression of e.
// e0 is a rational *Num unless the set mixes exponentials whose growth
// ratio is irrational, in which case it is a real constant expression.
func (l *limiter) leadterm(e Expr, x *Sym) (Expr, Expr, error) {
	err := l.enter("leadterm", e)
	defer l.leave()
	if err != nil {
		return nil, nil, err
	}
	if !Has(e, x.name) {
		return e, N(0), nil
	}
	key := memoKey(x, e)
	if v, ok := l.memo.lookupLead(key); ok {
		return v.coeff, v.exp, nil
	}

	omega, exps, err := l.mrv(e, x)
	if err != nil {
		return nil, nil, err
	}
	signer := func(c Expr) (int, error) { return l.sign(c, x) }
	if omega.len() == 0 {
		s, err := calculateSeries(e, x, LogOf(x), signer)
		if err != nil {
			return nil, nil, err
		}
		c0, e0 := s.leadTerm()
		if !isNumEqual(e0, 0) {
			return nil, nil, newError(ErrInvariant, "leadterm", e, "x-free expansion has exponent %s", e0)
		}
		return c0, e0, nil
	}
	if _, ok := omega.lookup(x); ok {
		omega = omega.moveUp(x)
		exps = Sub(exps, x.name, ExpOf(x))
	}

	w := l.fresh("w")
	f, logw, err := l.rewrite(exps, omega, x, w)
	if err != nil {
		return nil, nil, err
	}
	s, err := calculateSeries(f, w, logw, signer)
	if err != nil {
		return nil, nil, err
	}
	c0, e0 := s.leadTerm()
	if Has(c0, w.name) {
		return nil, nil, newError(ErrInvariant, "leadterm", c0, "leading coefficient depends on %s", w.name)
	}
	l.memo.storeLead(key, leadEntry{coeff: c0, exp: e0})
	l.tracef("leadterm(%s, %s) = (%s, %s)", e, x, c0, e0)
	return c0, e0, nil
}
