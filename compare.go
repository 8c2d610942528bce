package gruntz

// ============================================================
// Comparator
// ============================================================

// Comparison orders two expressions by growth rate.
type Comparison int

const (
	LessThan    Comparison = -1
	EqualTo     Comparison = 0
	GreaterThan Comparison = 1
)

func (c Comparison) String() string {
	switch c {
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	}
	return "="
}

// compare decides whether a grows slower than, like, or faster than b. The
// log of an exponential is taken as its argument.
func (l *limiter) compare(a, b Expr, x *Sym) (Comparison, error) {
	err := l.enter("compare", a)
	defer l.leave()
	if err != nil {
		return EqualTo, err
	}
	c, err := l.limitinf(DivOf(logOrArg(a), logOrArg(b)), x)
	if err != nil {
		return EqualTo, err
	}
	var r Comparison
	switch {
	case isNumEqual(c, 0):
		r = LessThan
	case isUnbounded(c):
		r = GreaterThan
	default:
		r = EqualTo
	}
	l.tracef("compare(%s, %s) = %s", a, b, r)
	return r, nil
}

func logOrArg(e Expr) Expr {
	if f, ok := e.(*Func); ok && f.name == "exp" {
		return f.args[0]
	}
	return LogOf(e)
}

// isUnbounded reports whether e is an infinity or a multiple of one.
func isUnbounded(e Expr) bool {
	switch v := e.(type) {
	case *Inf:
		return true
	case *Mul:
		for _, f := range v.factors {
			if _, ok := f.(*Inf); ok {
				return true
			}
		}
	}
	return false
}
