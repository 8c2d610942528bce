package gruntz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStrings(s *subsSet) []string {
	out := make([]string, s.len())
	for i, e := range s.exprs {
		out[i] = e.String()
	}
	return out
}

func TestMRV_SingleExponential(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, exps, err := l.mrv(MulOf(PowOf(x, N(2)), ExpOf(MulOf(N(-1), x))), x)
	require.NoError(t, err)
	assert.Equal(t, []string{"exp(-1*x)"}, setStrings(s))
	v, ok := s.lookup(ExpOf(MulOf(N(-1), x)))
	require.True(t, ok)
	assert.True(t, Has(exps, v.name))
}

func TestMRV_VariableOnly(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, _, err := l.mrv(AddOf(PowOf(x, N(2)), LogOf(x)), x)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, setStrings(s))
}

func TestMRV_SameClassIsMerged(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	e := SubOf(ExpOf(AddOf(x, ExpOf(MulOf(N(-1), x)))), ExpOf(x))
	s, exps, err := l.mrv(e, x)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"exp(exp(-1*x) + x)", "exp(-1*x)", "exp(x)"}, setStrings(s))
	assert.True(t, Has(exps, s.vars[0].name))
	assert.False(t, Has(exps, x.name))
	require.Contains(t, s.rewrites, s.vars[0].name)
	assert.True(t, Has(s.rewrites[s.vars[0].name], s.vars[1].name))
}

func TestMRV_IndependentPart(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, exps, err := l.mrv(AddOf(S("y"), N(3)), x)
	require.NoError(t, err)
	assert.Equal(t, 0, s.len())
	assert.Equal(t, "y + 3", exps.String())
}

func TestMRV_UnionWithEmptyIsIdentity(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, exps, err := l.mrv(ExpOf(x), x)
	require.NoError(t, err)

	u, ue := s.union(newSubsSet(), exps)
	assert.Equal(t, setStrings(s), setStrings(u))
	assert.True(t, exps.Equal(ue))

	m, me, err := l.mrvMax1(newSubsSet(), s, exps, x)
	require.NoError(t, err)
	assert.Equal(t, setStrings(s), setStrings(m))
	assert.True(t, exps.Equal(me))
}

func TestMRV_SeveralVaryingArgumentsUnsupported(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	_, _, err := l.mrv(FuncOf("besselj", x, x), x)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConstruct))
}

func TestMRV_MoveUp(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, _, err := l.mrv(x, x)
	require.NoError(t, err)
	up := s.moveUp(x)
	assert.Equal(t, []string{"exp(x)"}, setStrings(up))
	assert.Equal(t, s.vars, up.vars)
}

// ============================================================
// Rewriter
// ============================================================

func TestRewrite_LeavesNoPlaceholder(t *testing.T) {
	x := PosSym("x")
	for _, rep := range []Representative{RepresentativeLast, RepresentativeFirst} {
		t.Run(rep.String(), func(t *testing.T) {
			en := NewEngine(Config{Representative: rep})
			l := en.newLimiter()
			e := SubOf(ExpOf(AddOf(x, ExpOf(MulOf(N(-1), x)))), ExpOf(x))
			omega, exps, err := l.mrv(e, x)
			require.NoError(t, err)
			_, hasX := omega.lookup(x)
			require.False(t, hasX)

			w := l.fresh("w")
			f, logw, err := l.rewrite(exps, omega, x, w)
			require.NoError(t, err)
			for _, v := range omega.vars {
				assert.False(t, Has(f, v.name), "placeholder %s survived in %s", v.name, f)
			}
			assert.True(t, Has(f, w.name))
			assert.True(t, Has(logw, x.name))
		})
	}
}

func TestRewrite_IrrationalGrowthRatio(t *testing.T) {
	x := PosSym("x")
	for _, rep := range []Representative{RepresentativeLast, RepresentativeFirst} {
		t.Run(rep.String(), func(t *testing.T) {
			l := NewEngine(Config{Representative: rep}).newLimiter()
			e := AddOf(ExpOf(x), ExpOf(MulOf(SqrtOf(N(2)), x)))
			omega, exps, err := l.mrv(e, x)
			require.NoError(t, err)
			require.Equal(t, 2, omega.len())

			w := l.fresh("w")
			f, _, err := l.rewrite(exps, omega, x, w)
			require.NoError(t, err)
			for _, v := range omega.vars {
				assert.False(t, Has(f, v.name), "placeholder %s survived in %s", v.name, f)
			}
			assert.False(t, Has(f, x.name), "got %s", f)

			c0, e0, err := l.leadterm(e, x)
			require.NoError(t, err)
			assert.Equal(t, "1", c0.String())
			assert.Equal(t, -1, expSign(e0))
		})
	}
}

func TestRewrite_DependencyOrder(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	e := SubOf(ExpOf(AddOf(x, ExpOf(MulOf(N(-1), x)))), ExpOf(x))
	omega, _, err := l.mrv(e, x)
	require.NoError(t, err)
	order, heights := omega.dependencyOrder()
	require.Len(t, order, omega.len())
	for i := 1; i < len(order); i++ {
		assert.GreaterOrEqual(t, heights[order[i-1]], heights[order[i]])
	}
	top := omega.exprs[order[0]].String()
	assert.Equal(t, "exp(exp(-1*x) + x)", top)
}

func TestRewrite_RejectsNonExponential(t *testing.T) {
	x := PosSym("x")
	l := defaultEngine.newLimiter()
	s, exps, err := l.mrv(x, x)
	require.NoError(t, err)
	_, _, err = l.rewrite(exps, s, x, l.fresh("w"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestRepresentative(t *testing.T) {
	order := []int{2, 0, 1, 3}
	heights := []int{1, 1, 2, 1}
	assert.Equal(t, 3, representative(order, heights, RepresentativeLast))
	assert.Equal(t, 0, representative(order, heights, RepresentativeFirst))
}

// ============================================================
// Memo and budget
// ============================================================

func TestMemo_FirstWriteWins(t *testing.T) {
	m := newMemo()
	x := PosSym("x")
	k := memoKey(x, ExpOf(x))
	m.storeLimit(k, Oo)
	m.storeLimit(k, N(0))
	v, ok := m.lookupLimit(k)
	require.True(t, ok)
	assert.True(t, v.Equal(Oo))
	assert.Equal(t, 1, m.size())
}

func TestLimiter_Budget(t *testing.T) {
	l := NewEngine(Config{MaxDepth: 2, MaxCalls: 100}).newLimiter()
	require.NoError(t, l.enter("a", N(1)))
	require.NoError(t, l.enter("b", N(1)))
	err := l.enter("c", N(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "c", e.Op)
}

func TestLimiter_FreshNamesAreReserved(t *testing.T) {
	l := defaultEngine.newLimiter()
	a, b := l.fresh("w"), l.fresh("w")
	assert.NotEqual(t, a.Name(), b.Name())
	assert.True(t, a.IsPositive())
	_, err := Parse(a.Name())
	assert.Error(t, err)
}
