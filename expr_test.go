package gruntz_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gruntz"
)

// ============================================================
// Num / Sym
// ============================================================

func TestNum_Rational(t *testing.T) {
	assert.Equal(t, "1/3", gruntz.F(1, 3).String())
	assert.Equal(t, "1/2", gruntz.F(2, 4).String())
	assert.Equal(t, `\frac{2}{5}`, gruntz.F(2, 5).LaTeX())
	assert.Equal(t, `-\frac{1}{2}`, gruntz.F(-1, 2).LaTeX())
}

func TestSym_Positivity(t *testing.T) {
	s, ok := gruntz.KnownSign(gruntz.PosSym("x"))
	require.True(t, ok)
	assert.Equal(t, 1, s)

	_, ok = gruntz.KnownSign(gruntz.S("y"))
	assert.False(t, ok, "plain symbols carry no sign")
}

// ============================================================
// Canonical simplification
// ============================================================

func TestAdd_CollectsLikeTerms(t *testing.T) {
	x := gruntz.S("x")
	assert.Equal(t, "3*x + 2", gruntz.AddOf(x, x, x, gruntz.N(2)).String())
	assert.Equal(t, "0", gruntz.SubOf(x, x).String())
}

func TestMul_CollectsPowers(t *testing.T) {
	x := gruntz.S("x")
	assert.Equal(t, "x^2", gruntz.MulOf(x, x).String())
	assert.Equal(t, "1", gruntz.DivOf(x, x).String())
	assert.Equal(t, "x^6", gruntz.PowOf(gruntz.PowOf(x, gruntz.N(2)), gruntz.N(3)).String())
}

func TestMul_CombinesExponentials(t *testing.T) {
	x, y := gruntz.S("x"), gruntz.S("y")
	got := gruntz.MulOf(gruntz.ExpOf(x), gruntz.ExpOf(y))
	assert.Equal(t, "exp(x + y)", got.String())
	assert.Equal(t, "1", gruntz.MulOf(gruntz.ExpOf(x), gruntz.ExpOf(gruntz.MulOf(gruntz.N(-1), x))).String())
}

func TestPow_ImaginaryUnit(t *testing.T) {
	assert.Equal(t, "-1", gruntz.PowOf(gruntz.I, gruntz.N(2)).String())
	assert.Equal(t, "1", gruntz.PowOf(gruntz.I, gruntz.N(4)).String())
}

func TestPow_NumericRoots(t *testing.T) {
	assert.Equal(t, "2", gruntz.SqrtOf(gruntz.N(4)).String())
	assert.Equal(t, "1/8", gruntz.PowOf(gruntz.N(2), gruntz.N(-3)).String())
}

func TestFunc_Identities(t *testing.T) {
	x := gruntz.S("x")
	assert.Equal(t, "x", gruntz.ExpOf(gruntz.LogOf(x)).String())
	assert.Equal(t, "x", gruntz.LogOf(gruntz.ExpOf(x)).String())
	assert.Equal(t, "1", gruntz.LogOf(gruntz.E).String())
	assert.Equal(t, "0", gruntz.SinOf(gruntz.N(0)).String())
	assert.Equal(t, "1", gruntz.CosOf(gruntz.N(0)).String())
	assert.Equal(t, "-1*sin(x)", gruntz.SinOf(gruntz.MulOf(gruntz.N(-1), x)).String())
	assert.Equal(t, "cos(x)", gruntz.CosOf(gruntz.MulOf(gruntz.N(-1), x)).String())
	assert.Equal(t, "3", gruntz.AbsOf(gruntz.N(-3)).String())
}

func TestExpand(t *testing.T) {
	x := gruntz.S("x")
	sq := gruntz.PowOf(gruntz.AddOf(x, gruntz.N(1)), gruntz.N(2))
	assert.Equal(t, "2*x + x^2 + 1", gruntz.Expand(sq).String())
}

func TestSubstitute(t *testing.T) {
	x := gruntz.S("x")
	linear := gruntz.AddOf(gruntz.MulOf(gruntz.N(2), x), gruntz.N(3))
	assert.Equal(t, "13", gruntz.Sub(linear, "x", gruntz.N(5)).String())
}

func TestFreeSymbols(t *testing.T) {
	e := gruntz.AddOf(gruntz.MulOf(gruntz.S("y"), gruntz.S("x")), gruntz.S("z"))
	assert.Equal(t, []string{"x", "y", "z"}, gruntz.SortedSymbols(e))
}

func TestBigO_String(t *testing.T) {
	assert.Equal(t, "O(x^3)", gruntz.OTerm("x", 3).String())
	assert.Equal(t, "O(x^(1/2))", gruntz.OTermRat("x", gruntz.F(1, 2)).String())
}

// ============================================================
// Parser
// ============================================================

func TestParse(t *testing.T) {
	cases := []struct{ src, want string }{
		{"2*x + 3", "2*x + 3"},
		{"x^2", "x^2"},
		{"2**3", "8"},
		{"ln(x)", "log(x)"},
		{"arctan(x)", "atan(x)"},
		{"E", "E"},
		{"-x", "-1*x"},
		{"x - x", "0"},
		{"oo", "oo"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := gruntz.Parse(c.src)
			require.NoError(t, err)
			assert.Equal(t, c.want, e.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"1/0", "_w1 + 1", "sin(", "x $ y", "Derivative(x, 2)", "(x"} {
		t.Run(src, func(t *testing.T) {
			_, err := gruntz.Parse(src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, gruntz.ErrInvalidArgument))
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { gruntz.MustParse("(") })
}

// ============================================================
// JSON
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	for _, src := range []string{"sin(x)/x", "exp(x + exp(-x)) - exp(x)", "(1 + 1/x)^x", "x^(1/2)*pi"} {
		t.Run(src, func(t *testing.T) {
			e := gruntz.MustParse(src)
			s, err := gruntz.ToJSON(e)
			require.NoError(t, err)

			var m map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(s), &m))
			back, err := gruntz.FromJSON(m)
			require.NoError(t, err)
			assert.True(t, e.Equal(back), "want %s, got %s", e, back)
		})
	}
}

func TestFromJSON_RationalValue(t *testing.T) {
	e, err := gruntz.FromJSON(map[string]interface{}{"type": "num", "value": "3/2"})
	require.NoError(t, err)
	assert.True(t, e.Equal(gruntz.F(3, 2)))
}

func TestFromJSON_PositiveSymbol(t *testing.T) {
	e, err := gruntz.FromJSON(map[string]interface{}{"type": "sym", "name": "t", "positive": true})
	require.NoError(t, err)
	s, ok := gruntz.KnownSign(e)
	require.True(t, ok)
	assert.Equal(t, 1, s)
}

func TestFromJSON_Errors(t *testing.T) {
	bad := []map[string]interface{}{
		nil,
		{},
		{"type": "nope"},
		{"type": "pow", "base": map[string]interface{}{"type": "sym", "name": "x"}},
		{"type": "const", "name": "tau"},
		{"type": "add", "terms": []interface{}{"x"}},
	}
	for _, m := range bad {
		_, err := gruntz.FromJSON(m)
		assert.Error(t, err, "%v", m)
	}
}
