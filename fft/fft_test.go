package fft

import (
	"math/big"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

func randomVector(t *testing.T, n int) []fr.Element {
	t.Helper()
	res := make([]fr.Element, n)
	for i := range res {
		_, err := res[i].SetRandom()
		require.NoError(t, err)
	}
	return res
}

// naiveDFT evaluates the coefficients at every power of the generator.
func naiveDFT(coeffs []fr.Element, d *Domain) []fr.Element {
	n := int(d.Cardinality)
	res := make([]fr.Element, n)
	var x fr.Element
	x.SetOne()
	for i := 0; i < n; i++ {
		var acc fr.Element
		for j := n - 1; j >= 0; j-- {
			acc.Mul(&acc, &x)
			acc.Add(&acc, &coeffs[j])
		}
		res[i] = acc
		x.Mul(&x, &d.Generator)
	}
	return res
}

func TestNewDomain(t *testing.T) {
	d, err := NewDomain(5)
	require.NoError(t, err)
	require.Equal(t, uint64(8), d.Cardinality)

	// generator has exact order 8
	var g fr.Element
	g.Exp(d.Generator, big.NewInt(8))
	require.True(t, g.IsOne())
	g.Exp(d.Generator, big.NewInt(4))
	require.False(t, g.IsOne())

	_, err = NewDomain(1 << 50)
	require.ErrorIs(t, err, ErrDomainTooLarge)
}

func TestFFTAgainstNaive(t *testing.T) {
	for _, n := range []int{2, 4, 16, 64} {
		d, err := NewDomain(uint64(n))
		require.NoError(t, err)

		coeffs := randomVector(t, n)
		want := naiveDFT(coeffs, d)

		got := append([]fr.Element(nil), coeffs...)
		require.NoError(t, d.FFT(got, DIF))
		BitReverse(got)
		for i := range want {
			require.True(t, got[i].Equal(&want[i]), "n=%d i=%d", n, i)
		}
	}
}

func TestFFTInvalidSize(t *testing.T) {
	d, err := NewDomain(8)
	require.NoError(t, err)
	require.ErrorIs(t, d.FFT(make([]fr.Element, 7), DIF), ErrInvalidFFTSize)
	require.ErrorIs(t, d.FFTInverse(make([]fr.Element, 9), DIT), ErrInvalidFFTSize)
}

func TestFFTRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 8

	properties := gopter.NewProperties(parameters)

	properties.Property("DIF then inverse DIT is the identity", prop.ForAll(
		func(logN uint8) bool {
			n := uint64(1) << logN
			d, err := NewDomain(n)
			if err != nil {
				return false
			}
			a := randomVector(t, int(n))
			b := append([]fr.Element(nil), a...)
			if err := d.FFT(b, DIF); err != nil {
				return false
			}
			if err := d.FFTInverse(b, DIT); err != nil {
				return false
			}
			for i := range a {
				if !a[i].Equal(&b[i]) {
					return false
				}
			}
			return true
		},
		gen.UInt8Range(1, 10),
	))

	properties.Property("coset round trip is the identity", prop.ForAll(
		func(logN uint8) bool {
			n := uint64(1) << logN
			d, err := NewDomain(n)
			if err != nil {
				return false
			}
			a := randomVector(t, int(n))
			b := append([]fr.Element(nil), a...)
			if err := d.FFT(b, DIF, OnCoset()); err != nil {
				return false
			}
			if err := d.FFTInverse(b, DIT, OnCoset()); err != nil {
				return false
			}
			for i := range a {
				if !a[i].Equal(&b[i]) {
					return false
				}
			}
			return true
		},
		gen.UInt8Range(1, 10),
	))

	properties.Property("result does not depend on the number of workers", prop.ForAll(
		func(logN uint8) bool {
			n := uint64(1) << logN
			d, err := NewDomain(n)
			if err != nil {
				return false
			}
			a := randomVector(t, int(n))
			seq := append([]fr.Element(nil), a...)
			par := append([]fr.Element(nil), a...)
			if err := d.FFT(seq, DIF, WithNbTasks(1)); err != nil {
				return false
			}
			if err := d.FFT(par, DIF, WithNbTasks(16)); err != nil {
				return false
			}
			for i := range seq {
				if !seq[i].Equal(&par[i]) {
					return false
				}
			}
			return true
		},
		gen.UInt8Range(4, 12),
	))

	properties.TestingRun(t, gopter.NewFormatedReporter(false, 240, os.Stdout))
}

func TestBitReverse(t *testing.T) {
	a := randomVector(t, 8)
	b := append([]fr.Element(nil), a...)
	BitReverse(b)
	BitReverse(b)
	for i := range a {
		require.True(t, a[i].Equal(&b[i]))
	}
	// spot-check one swap
	c := randomVector(t, 8)
	d := append([]fr.Element(nil), c...)
	BitReverse(d)
	require.True(t, d[1].Equal(&c[4]))
	require.True(t, d[3].Equal(&c[6]))
}
