package gruntz

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownSigner(e Expr) (int, error) {
	if s, ok := KnownSign(e); ok {
		return s, nil
	}
	return constSign(e)
}

func TestSeries_ExpLeadTerm(t *testing.T) {
	w := PosSym("w")
	s, err := calculateSeries(ExpOf(w), w, LogOf(w), knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.Equal(t, "1", c0.String())
	assert.True(t, isNumEqual(e0, 0))
	require.NotNil(t, s.order, "a transcendental expansion is never exact")
}

func TestSeries_RetriesWhenLeadingTermsCancel(t *testing.T) {
	w := PosSym("w")
	e := DivOf(SinOf(w), w)
	// order 1 leaves nothing but the remainder
	ctx := &seriesCtx{w: w, logw: LogOf(w), n: N(1), sign: knownSigner}
	first, err := ctx.expand(e)
	require.NoError(t, err)
	assert.Empty(t, first.terms)

	s, err := calculateSeries(e, w, LogOf(w), knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.Equal(t, "1", c0.String())
	assert.True(t, isNumEqual(e0, 0))
}

func TestSeries_GeometricOrderTracking(t *testing.T) {
	w := PosSym("w")
	e := PowOf(SubOf(N(1), w), N(-1))
	ctx := &seriesCtx{w: w, logw: LogOf(w), n: N(4), sign: knownSigner}
	s, err := ctx.expand(e)
	require.NoError(t, err)
	require.Len(t, s.terms, 4)
	for i, term := range s.terms {
		assert.True(t, isNumEqual(term.exp, int64(i)), "term %d exponent %s", i, term.exp)
		assert.True(t, isNumEqual(term.coeff, 1), "term %d coefficient %s", i, term.coeff)
	}
	require.NotNil(t, s.order)
	assert.True(t, isNumEqual(s.order, 4))
}

func TestSeries_ExactPolynomial(t *testing.T) {
	w := PosSym("w")
	e := MustParse("(1 + w)^2 - 1")
	s, err := calculateSeries(Sub(e, "w", w), w, LogOf(w), knownSigner)
	require.NoError(t, err)
	assert.Nil(t, s.order)
	require.Len(t, s.terms, 2)
	assert.True(t, isNumEqual(s.terms[0].coeff, 2))
	assert.True(t, isNumEqual(s.terms[1].coeff, 1))
}

func TestSeries_LogUsesLogw(t *testing.T) {
	w := PosSym("w")
	logw := MulOf(N(-1), PosSym("g"))
	s, err := calculateSeries(LogOf(w), w, logw, knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.True(t, c0.Equal(logw), "got %s", c0)
	assert.True(t, isNumEqual(e0, 0))
}

func TestSeries_RationalExponent(t *testing.T) {
	w := PosSym("w")
	s, err := calculateSeries(SqrtOf(MulOf(N(4), w)), w, LogOf(w), knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.Equal(t, "2", c0.String())
	assert.True(t, e0.Equal(F(1, 2)), "got %s", e0)
}

func TestSeries_Exhausted(t *testing.T) {
	w := PosSym("w")
	e := AddOf(PowOf(SinOf(w), N(2)), PowOf(CosOf(w), N(2)), N(-1))
	_, err := calculateSeries(e, w, LogOf(w), knownSigner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeriesExhausted))
}

func TestSeries_UnboundedOscillation(t *testing.T) {
	w := PosSym("w")
	_, err := calculateSeries(SinOf(PowOf(w, N(-1))), w, LogOf(w), knownSigner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConstruct))
}

func TestSeries_AtanAtInfinity(t *testing.T) {
	w := PosSym("w")
	s, err := calculateSeries(AtanOf(PowOf(w, N(-1))), w, LogOf(w), knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.True(t, isNumEqual(e0, 0))
	assert.True(t, c0.Equal(MulOf(F(1, 2), Pi)), "got %s", c0)
}

func TestSeries_Expr(t *testing.T) {
	w := PosSym("w")
	s := &series{terms: []seriesTerm{{exp: N(0), coeff: N(1)}, {exp: N(1), coeff: N(3)}}, order: N(2)}
	got := s.Expr(w)
	assert.True(t, Has(got, "w"))
	assert.Contains(t, got.String(), "O(w^2)")
	assert.Contains(t, got.String(), "3*w")
}

// ============================================================
// Irrational exponents
// ============================================================

func TestExpCmp(t *testing.T) {
	sqrt2 := SqrtOf(N(2))
	assert.Equal(t, -1, expCmp(N(1), sqrt2))
	assert.Equal(t, 1, expCmp(sqrt2, F(7, 5)))
	assert.Equal(t, 0, expCmp(sqrt2, SqrtOf(N(2))))
	assert.Equal(t, -1, expCmp(N(-1), MulOf(N(-1), DivOf(LogOf(N(2)), LogOf(N(3))))))
	assert.True(t, isNumEqual(expAdd(MulOf(N(-1), sqrt2), sqrt2), 0))
	assert.Equal(t, -1, expSign(SubOf(N(1), DivOf(LogOf(N(5)), LogOf(N(3))))))
}

func TestSeries_IrrationalPowersOfW(t *testing.T) {
	w := PosSym("w")
	c := DivOf(LogOf(N(2)), LogOf(N(3)))
	// w^-1 - w^-c with 0 < c < 1
	e := SubOf(PowOf(w, N(-1)), PowOf(w, MulOf(N(-1), c)))
	s, err := calculateSeries(e, w, LogOf(w), knownSigner)
	require.NoError(t, err)
	require.Len(t, s.terms, 2)
	c0, e0 := s.leadTerm()
	assert.Equal(t, "1", c0.String())
	assert.True(t, isNumEqual(e0, -1))
	assert.True(t, isNumEqual(s.terms[1].coeff, -1))
	assert.Equal(t, 1, expCmp(s.terms[1].exp, e0))
	f, ok := evalFloat(s.terms[1].exp)
	require.True(t, ok)
	assert.InDelta(t, -math.Log(2)/math.Log(3), f, 1e-12)
}

func TestSeries_IrrationalShiftCancels(t *testing.T) {
	w := PosSym("w")
	r := SqrtOf(N(2))
	// w^-r / (w^-r + w^-1) = 1/(1 + w^(r-1))
	num := PowOf(w, MulOf(N(-1), r))
	e := MulOf(num, PowOf(AddOf(num, PowOf(w, N(-1))), N(-1)))
	s, err := calculateSeries(e, w, LogOf(w), knownSigner)
	require.NoError(t, err)
	c0, e0 := s.leadTerm()
	assert.Equal(t, "1", c0.String())
	assert.True(t, isNumEqual(e0, 0), "got %s", e0)
	require.NotNil(t, s.order)
	assert.Equal(t, 1, expSign(s.order))
	assert.Contains(t, s.Expr(w).String(), "O(")
}
