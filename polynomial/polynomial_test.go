package polynomial

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fft"
)

func randomPolynomial(t *testing.T, n int) Polynomial {
	t.Helper()
	p := make(Polynomial, n)
	for i := range p {
		_, err := p[i].SetRandom()
		require.NoError(t, err)
	}
	return p
}

func naiveMul(a, b Polynomial) Polynomial {
	if len(a) == 0 || len(b) == 0 {
		return Polynomial{}
	}
	res := make(Polynomial, len(a)+len(b)-1)
	var t fr.Element
	for i := range a {
		for j := range b {
			t.Mul(&a[i], &b[j])
			res[i+j].Add(&res[i+j], &t)
		}
	}
	return res
}

func TestMulAgainstNaive(t *testing.T) {
	for _, sizes := range [][2]int{{1, 1}, {2, 3}, {7, 9}, {32, 17}, {64, 64}} {
		a := randomPolynomial(t, sizes[0])
		b := randomPolynomial(t, sizes[1])
		got, err := Mul(a, b)
		require.NoError(t, err)
		want := naiveMul(a, b)
		require.Equal(t, len(want), len(got))
		for i := range want {
			require.True(t, got[i].Equal(&want[i]), "sizes=%v i=%d", sizes, i)
		}
	}
}

func TestEvalHorner(t *testing.T) {
	// p = 3 + 2X + X^2, p(5) = 38
	p := Polynomial{}
	p = append(p, fr.Element{}, fr.Element{}, fr.Element{})
	p[0].SetUint64(3)
	p[1].SetUint64(2)
	p[2].SetUint64(1)
	var x fr.Element
	x.SetUint64(5)
	v := p.Eval(&x)
	var want fr.Element
	want.SetUint64(38)
	require.True(t, v.Equal(&want))
}

func TestAddSub(t *testing.T) {
	a := randomPolynomial(t, 5)
	b := randomPolynomial(t, 8)

	var sum, diff Polynomial
	sum.Add(a, b)
	diff.Sub(sum, b)
	require.Equal(t, 8, len(diff))
	for i := range a {
		require.True(t, diff[i].Equal(&a[i]))
	}
	for i := len(a); i < len(diff); i++ {
		require.True(t, diff[i].IsZero())
	}
}

func TestEvaluateInterpolateRoundTrip(t *testing.T) {
	d, err := fft.NewDomain(16)
	require.NoError(t, err)

	p := randomPolynomial(t, 16)
	evals, err := Evaluate(p, d)
	require.NoError(t, err)

	// evaluations match Horner on each domain element
	var x fr.Element
	x.SetOne()
	for i := 0; i < 4; i++ {
		v := p.Eval(&x)
		require.True(t, evals[i].Equal(&v), "i=%d", i)
		x.Mul(&x, &d.Generator)
	}

	back, err := Interpolate(evals, d)
	require.NoError(t, err)
	for i := range p {
		require.True(t, back[i].Equal(&p[i]))
	}
}

func TestInterpolateLagrange(t *testing.T) {
	xs := make([]fr.Element, 6)
	for i := range xs {
		xs[i].SetUint64(uint64(10 + i))
	}
	p := randomPolynomial(t, 6)
	ys := make([]fr.Element, 6)
	for i := range ys {
		ys[i] = p.Eval(&xs[i])
	}
	got, err := InterpolateLagrange(xs, ys)
	require.NoError(t, err)
	for i := range p {
		require.True(t, got[i].Equal(&p[i]))
	}

	xs[3] = xs[0]
	_, err = InterpolateLagrange(xs, ys)
	require.ErrorIs(t, err, ErrDuplicatePoint)
}

func TestDivByXMinusC(t *testing.T) {
	p := randomPolynomial(t, 12)
	var c fr.Element
	c.SetUint64(77)

	q, rem := DivByXMinusC(p, c)
	require.True(t, rem.Equal(ptr(p.Eval(&c))))

	// q*(X-c) + rem == p
	var negc fr.Element
	negc.Neg(&c)
	check := mulByLinear(q, negc)
	check[0].Add(&check[0], &rem)
	require.Equal(t, len(p), len(check))
	for i := range p {
		require.True(t, check[i].Equal(&p[i]))
	}
}

func TestDivByVanishing(t *testing.T) {
	const n = 8
	q := randomPolynomial(t, 5)
	r := randomPolynomial(t, n)

	// p = q*(X^n - 1) + r
	p := Shift(q, n)
	var tmp Polynomial
	tmp.Sub(p, q)
	tmp.Add(tmp, r)

	gotQ, gotR := DivByVanishing(tmp, n)
	require.Equal(t, len(q), len(gotQ))
	for i := range q {
		require.True(t, gotQ[i].Equal(&q[i]))
	}
	require.Equal(t, n, len(gotR))
	for i := range r {
		require.True(t, gotR[i].Equal(&r[i]))
	}
}

func TestDegreeAndTrim(t *testing.T) {
	p := make(Polynomial, 6)
	p[2].SetUint64(4)
	require.Equal(t, 2, p.Degree())
	require.Equal(t, 3, len(p.Trim()))
	require.Equal(t, -1, Polynomial{}.Degree())
}

func ptr(e fr.Element) *fr.Element { return &e }
