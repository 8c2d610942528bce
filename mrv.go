package gruntz

// ============================================================
// subsSet - MRV mapping with rewrite rules
// ============================================================

// subsSet maps subexpressions of a limit problem to placeholder symbols.
// The mapped expressions never contain placeholders. rewrites records, for
// placeholders standing for exp(g) where g itself contains mapped
// subexpressions, exp(g) expressed in the other placeholders.
type subsSet struct {
	exprs    []Expr
	vars     []*Sym
	index    map[string]int
	rewrites map[string]Expr
}

func newSubsSet() *subsSet {
	return &subsSet{index: map[string]int{}, rewrites: map[string]Expr{}}
}

func (s *subsSet) len() int { return len(s.exprs) }

func (s *subsSet) lookup(e Expr) (*Sym, bool) {
	i, ok := s.index[e.String()]
	if !ok {
		return nil, false
	}
	return s.vars[i], true
}

func (s *subsSet) add(e Expr, v *Sym) {
	s.index[e.String()] = len(s.exprs)
	s.exprs = append(s.exprs, e)
	s.vars = append(s.vars, v)
}

// placeholder returns the symbol for e, allocating one if needed.
func (s *subsSet) placeholder(e Expr, l *limiter) *Sym {
	if v, ok := s.lookup(e); ok {
		return v
	}
	v := l.fresh("d")
	s.add(e, v)
	return v
}

// meets reports whether s and t map a common subexpression.
func (s *subsSet) meets(t *subsSet) bool {
	for k := range t.index {
		if _, ok := s.index[k]; ok {
			return true
		}
	}
	return false
}

func (s *subsSet) copy() *subsSet {
	r := newSubsSet()
	for i, e := range s.exprs {
		r.add(e, s.vars[i])
	}
	for k, v := range s.rewrites {
		r.rewrites[k] = v
	}
	return r
}

// doSubs replaces every placeholder of s in e by its expression.
func (s *subsSet) doSubs(e Expr) Expr {
	for i, v := range s.vars {
		e = Sub(e, v.name, s.exprs[i])
	}
	return e
}

// union merges t into a copy of s. Placeholders of t whose expression is
// already mapped by s are renamed to the placeholder of s, in exps and in
// the rewrite rules of t.
func (s *subsSet) union(t *subsSet, exps Expr) (*subsSet, Expr) {
	res := s.copy()
	tr := map[string]*Sym{}
	for i, e := range t.exprs {
		if v, ok := res.lookup(e); ok {
			if exps != nil {
				exps = Sub(exps, t.vars[i].name, v)
			}
			tr[t.vars[i].name] = v
			continue
		}
		res.add(e, t.vars[i])
	}
	for k, r := range t.rewrites {
		for from, to := range tr {
			r = Sub(r, from, to)
		}
		res.rewrites[k] = r
	}
	return res, exps
}

// moveUp substitutes x -> exp(x) in every mapped expression and rewrite.
func (s *subsSet) moveUp(x *Sym) *subsSet {
	r := newSubsSet()
	up := ExpOf(x)
	for i, e := range s.exprs {
		r.add(Sub(e, x.name, up), s.vars[i])
	}
	for k, v := range s.rewrites {
		r.rewrites[k] = Sub(v, x.name, up)
	}
	return r
}

// ============================================================
// MRV Set Builder
// ============================================================

// mrv returns the most rapidly varying subexpressions of e together with e
// restated in their placeholders.
func (l *limiter) mrv(e Expr, x *Sym) (*subsSet, Expr, error) {
	err := l.enter("mrv", e)
	defer l.leave()
	if err != nil {
		return nil, nil, err
	}
	if !Has(e, x.name) {
		return newSubsSet(), e, nil
	}
	switch v := e.(type) {
	case *Sym:
		s := newSubsSet()
		return s, s.placeholder(x, l), nil
	case *Add, *Mul:
		return l.mrvSumProduct(e, x)
	case *Pow:
		if Has(v.exp, x.name) {
			return l.mrv(ExpOf(MulOf(v.exp, LogOf(v.base))), x)
		}
		s, b, err := l.mrv(v.base, x)
		if err != nil {
			return nil, nil, err
		}
		return s, PowOf(b, v.exp), nil
	case *Func:
		switch v.name {
		case "log":
			s, a, err := l.mrv(v.args[0], x)
			if err != nil {
				return nil, nil, err
			}
			return s, LogOf(a), nil
		case "exp":
			return l.mrvExp(v, x)
		}
		return l.mrvFunc(v, x)
	case *Derivative:
		return nil, nil, newError(ErrUnsupportedConstruct, "mrv", e, "derivative")
	}
	return nil, nil, newError(ErrUnsupportedConstruct, "mrv", e, "no mrv rule for %s", e.exprType())
}

func (l *limiter) mrvSumProduct(e Expr, x *Sym) (*subsSet, Expr, error) {
	var indep, dep []Expr
	for _, k := range children(e) {
		if Has(k, x.name) {
			dep = append(dep, k)
		} else {
			indep = append(indep, k)
		}
	}
	if len(dep) == 1 {
		s, d, err := l.mrv(dep[0], x)
		if err != nil {
			return nil, nil, err
		}
		return s, rebuild(e, append(indep, d)), nil
	}
	s1, e1, err := l.mrv(dep[0], x)
	if err != nil {
		return nil, nil, err
	}
	s2, e2, err := l.mrv(rebuild(e, dep[1:]), x)
	if err != nil {
		return nil, nil, err
	}
	return l.mrvMax1(s1, s2, rebuild(e, append(indep, e1, e2)), x)
}

func (l *limiter) mrvExp(f *Func, x *Sym) (*subsSet, Expr, error) {
	arg := f.args[0]
	if inner, ok := arg.(*Func); ok && inner.name == "log" {
		return l.mrv(inner.args[0], x)
	}
	lim, err := l.limitinf(arg, x)
	if err != nil {
		return nil, nil, err
	}
	if !isUnbounded(lim) {
		s, a, err := l.mrv(arg, x)
		if err != nil {
			return nil, nil, err
		}
		return s, ExpOf(a), nil
	}
	s1 := newSubsSet()
	e1 := s1.placeholder(f, l)
	s2, e2, err := l.mrv(arg, x)
	if err != nil {
		return nil, nil, err
	}
	su, _ := s1.union(s2, nil)
	su.rewrites[e1.name] = ExpOf(e2)
	return l.mrvMax3(s1, e1, s2, ExpOf(e2), su, e1, x)
}

// mrvFunc handles functions other than exp and log. At most one argument
// may vary with x.
func (l *limiter) mrvFunc(f *Func, x *Sym) (*subsSet, Expr, error) {
	var found *subsSet
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		s, ea, err := l.mrv(a, x)
		if err != nil {
			return nil, nil, err
		}
		args[i] = ea
		if s.len() == 0 {
			continue
		}
		if found != nil {
			return nil, nil, newError(ErrUnsupportedConstruct, "mrv", f, "function of several varying arguments")
		}
		found = s
	}
	if found == nil {
		found = newSubsSet()
	}
	return found, FuncOf(f.name, args...), nil
}

// ============================================================
// Union-with-max
// ============================================================

// mrvMax3 keeps the set of the faster growing class, or the union when
// both sets belong to the same class.
func (l *limiter) mrvMax3(f *subsSet, expsf Expr, g *subsSet, expsg Expr, union *subsSet, expsboth Expr, x *Sym) (*subsSet, Expr, error) {
	switch {
	case f.len() == 0:
		return g, expsg, nil
	case g.len() == 0:
		return f, expsf, nil
	case f.meets(g):
		return union, expsboth, nil
	}
	c, err := l.compare(f.exprs[0], g.exprs[0], x)
	if err != nil {
		return nil, nil, err
	}
	switch c {
	case GreaterThan:
		return f, expsf, nil
	case LessThan:
		return g, expsg, nil
	}
	return union, expsboth, nil
}

// mrvMax1 merges the sets of two operands of exps. The losing set's
// placeholders are substituted back into exps.
func (l *limiter) mrvMax1(f, g *subsSet, exps Expr, x *Sym) (*subsSet, Expr, error) {
	u, b := f.union(g, exps)
	return l.mrvMax3(f, g.doSubs(exps), g, f.doSubs(exps), u, b, x)
}
