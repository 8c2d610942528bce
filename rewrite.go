package gruntz

import "sort"

// ============================================================
// Rewriter
// ============================================================

// dependencyOrder returns the positions of s ordered by height in the
// rewrite dependency graph, highest first, together with the heights. A
// placeholder whose rewrite mentions another placeholder sits above it, so
// substituting in this order never reintroduces an eliminated placeholder.
func (s *subsSet) dependencyOrder() ([]int, []int) {
	heights := make([]int, s.len())
	var height func(i int) int
	height = func(i int) int {
		if heights[i] > 0 {
			return heights[i]
		}
		h := 1
		if r, ok := s.rewrites[s.vars[i].name]; ok {
			for j, v := range s.vars {
				if j != i && Has(r, v.name) {
					h += height(j)
				}
			}
		}
		heights[i] = h
		return h
	}
	order := make([]int, s.len())
	for i := range order {
		height(i)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return heights[order[a]] > heights[order[b]] })
	return order, heights
}

// representative picks the position whose exponential w will denote.
func representative(order, heights []int, rule Representative) int {
	last := order[len(order)-1]
	if rule != RepresentativeFirst {
		return last
	}
	for _, i := range order {
		if heights[i] == heights[last] {
			return i
		}
	}
	return last
}

// rewrite restates e, written in the placeholders of omega, in terms of the
// infinitesimal w. It also returns the expression standing for log(w).
func (l *limiter) rewrite(e Expr, omega *subsSet, x, w *Sym) (Expr, Expr, error) {
	err := l.enter("rewrite", e)
	defer l.leave()
	if err != nil {
		return nil, nil, err
	}
	if omega.len() == 0 {
		return nil, nil, newError(ErrInvariant, "rewrite", e, "empty mrv set")
	}
	for _, m := range omega.exprs {
		if f, ok := m.(*Func); !ok || f.name != "exp" {
			return nil, nil, newError(ErrInvariant, "rewrite", m, "mrv element is not an exponential")
		}
	}
	order, heights := omega.dependencyOrder()
	rep := representative(order, heights, l.cfg.Representative)
	g0 := omega.exprs[rep].(*Func).args[0]

	sig, err := l.sign(g0, x)
	if err != nil {
		return nil, nil, err
	}
	var wsym Expr = w
	switch sig {
	case 1:
		wsym = PowOf(w, N(-1))
	case -1:
	default:
		return nil, nil, newError(ErrAmbiguousSign, "rewrite", g0, "representative exponent has sign %d", sig)
	}

	type substitution struct {
		name  string
		value Expr
	}
	subs := make([]substitution, 0, len(order))
	for _, i := range order {
		g := omega.exprs[i].(*Func).args[0]
		c, err := l.limitinf(DivOf(g, g0), x)
		if err != nil {
			return nil, nil, err
		}
		if isUnbounded(c) || Has(c, x.name) {
			return nil, nil, newError(ErrInvariant, "rewrite", omega.exprs[i], "growth ratio %s is not finite", c)
		}
		if !isRealConstant(c) {
			return nil, nil, newError(ErrAmbiguousSign, "rewrite", omega.exprs[i], "growth ratio %s cannot be ordered", c)
		}
		arg := g
		if r, ok := omega.rewrites[omega.vars[i].name]; ok {
			rf, ok := r.(*Func)
			if !ok || rf.name != "exp" {
				return nil, nil, newError(ErrInvariant, "rewrite", r, "rewrite rule is not an exponential")
			}
			arg = rf.args[0]
		}
		value := MulOf(ExpOf(Expand(SubOf(arg, MulOf(c, g0)))), PowOf(wsym, c))
		subs = append(subs, substitution{name: omega.vars[i].name, value: value})
	}

	f := e
	for _, s := range subs {
		f = Sub(f, s.name, s.value)
	}
	for _, v := range omega.vars {
		if Has(f, v.name) {
			return nil, nil, newError(ErrInvariant, "rewrite", f, "placeholder %s left after rewriting", v.name)
		}
	}

	logw := g0
	if sig == 1 {
		logw = MulOf(N(-1), g0)
	}
	l.tracef("rewrite(%s) = %s, log(w) = %s", e, f, logw)
	return f, logw, nil
}
