package gruntz

import "math"

// ============================================================
// Sign Oracle
// ============================================================

// sign returns the eventual sign of e as x grows without bound.
func (l *limiter) sign(e Expr, x *Sym) (int, error) {
	err := l.enter("sign", e)
	defer l.leave()
	if err != nil {
		return 0, err
	}
	key := memoKey(x, e)
	if s, ok := l.memo.lookupSign(key); ok {
		return s, nil
	}
	s, err := l.signOf(e, x)
	if err != nil {
		return 0, err
	}
	l.memo.storeSign(key, s)
	l.tracef("sign(%s, %s) = %d", e, x, s)
	return s, nil
}

func (l *limiter) signOf(e Expr, x *Sym) (int, error) {
	if s, ok := KnownSign(e); ok {
		return s, nil
	}
	if !Has(e, x.name) {
		return constSign(e)
	}
	if sym, ok := e.(*Sym); ok && sym.name == x.name {
		return 1, nil
	}
	switch v := e.(type) {
	case *Mul:
		sa, err := l.sign(v.factors[0], x)
		if err != nil {
			return 0, err
		}
		if sa == 0 {
			return 0, nil
		}
		sb, err := l.sign(MulOf(v.factors[1:]...), x)
		if err != nil {
			return 0, err
		}
		return sa * sb, nil
	case *Func:
		switch v.name {
		case "exp":
			return 1, nil
		case "log":
			return l.sign(SubOf(v.args[0], N(1)), x)
		}
	case *Pow:
		s, err := l.sign(v.base, x)
		if err != nil {
			return 0, err
		}
		if s == 1 {
			return 1, nil
		}
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			if s == 0 {
				return 0, nil
			}
			if n.val.Num().Bit(0) == 0 {
				return 1, nil
			}
			return s, nil
		}
	}
	c0, _, err := l.leadterm(e, x)
	if err != nil {
		return 0, err
	}
	return l.sign(c0, x)
}

// constSign decides the sign of an expression free of the limit variable
// by numeric evaluation.
func constSign(e Expr) (int, error) {
	v, ok := e.Eval()
	if !ok {
		return 0, newError(ErrAmbiguousSign, "sign", e, "cannot evaluate constant")
	}
	f := v.Float64()
	switch {
	case math.IsNaN(f):
		return 0, newError(ErrAmbiguousSign, "sign", e, "constant evaluates to NaN")
	case f > 0:
		return 1, nil
	case f < 0:
		return -1, nil
	}
	return 0, nil
}
