package msm

import (
	"math/big"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

func randomInput(t *testing.T, n int) ([]bls12377.G1Affine, []fr.Element) {
	t.Helper()
	_, _, g, _ := bls12377.Generators()
	points := make([]bls12377.G1Affine, n)
	scalars := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		var s fr.Element
		_, err := s.SetRandom()
		require.NoError(t, err)
		var sb big.Int
		s.BigInt(&sb)
		points[i].ScalarMultiplication(&g, &sb)
		_, err = scalars[i].SetRandom()
		require.NoError(t, err)
	}
	return points, scalars
}

func naiveMSM(points []bls12377.G1Affine, scalars []fr.Element) bls12377.G1Affine {
	var acc bls12377.G1Jac
	var sb big.Int
	for i := range points {
		var p bls12377.G1Affine
		scalars[i].BigInt(&sb)
		p.ScalarMultiplication(&points[i], &sb)
		var pj bls12377.G1Jac
		pj.FromAffine(&p)
		acc.AddAssign(&pj)
	}
	var res bls12377.G1Affine
	res.FromJacobian(&acc)
	return res
}

func TestMSMEmpty(t *testing.T) {
	res, err := MSM(nil, nil)
	require.NoError(t, err)
	require.True(t, res.IsInfinity())
}

func TestMSMLengthMismatch(t *testing.T) {
	points, scalars := randomInput(t, 4)
	_, err := MSM(points, scalars[:3])
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestMSMSingle(t *testing.T) {
	points, scalars := randomInput(t, 1)
	res, err := MSM(points, scalars)
	require.NoError(t, err)
	want := naiveMSM(points, scalars)
	require.True(t, res.Equal(&want))
}

func TestMSMAgainstNaive(t *testing.T) {
	for _, n := range []int{2, 3, 17, 64, 257} {
		points, scalars := randomInput(t, n)
		res, err := MSM(points, scalars)
		require.NoError(t, err)
		want := naiveMSM(points, scalars)
		require.True(t, res.Equal(&want), "n=%d", n)
	}
}

func TestMSMZeroScalars(t *testing.T) {
	points, scalars := randomInput(t, 32)
	for i := range scalars {
		scalars[i].SetZero()
	}
	res, err := MSM(points, scalars)
	require.NoError(t, err)
	require.True(t, res.IsInfinity())
}

func TestMSMInfinityPoints(t *testing.T) {
	_, scalars := randomInput(t, 16)
	points := make([]bls12377.G1Affine, 16) // all infinity
	res, err := MSM(points, scalars)
	require.NoError(t, err)
	require.True(t, res.IsInfinity())
}

func TestMSMChunkInvariance(t *testing.T) {
	points, scalars := randomInput(t, 300)
	seq, err := MSM(points, scalars, WithNbTasks(1))
	require.NoError(t, err)
	for _, nbTasks := range []int{2, 3, 8, 64} {
		par, err := MSM(points, scalars, WithNbTasks(nbTasks))
		require.NoError(t, err)
		require.True(t, par.Equal(&seq), "nbTasks=%d", nbTasks)
	}
}

func TestMSMProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)

	properties.Property("windowed result matches the naive sum", prop.ForAll(
		func(n int) bool {
			points, scalars := randomInput(t, n)
			res, err := MSM(points, scalars)
			if err != nil {
				return false
			}
			want := naiveMSM(points, scalars)
			return res.Equal(&want)
		},
		gen.IntRange(1, 128),
	))

	properties.Property("MSM is linear in any one scalar", prop.ForAll(
		func(n int) bool {
			points, scalars := randomInput(t, n)
			base, err := MSM(points, scalars)
			if err != nil {
				return false
			}
			var delta fr.Element
			if _, err := delta.SetRandom(); err != nil {
				return false
			}
			scalars[0].Add(&scalars[0], &delta)
			shifted, err := MSM(points, scalars)
			if err != nil {
				return false
			}
			var db big.Int
			delta.BigInt(&db)
			var dp bls12377.G1Affine
			dp.ScalarMultiplication(&points[0], &db)
			var want bls12377.G1Affine
			want.Add(&base, &dp)
			return shifted.Equal(&want)
		},
		gen.IntRange(2, 64),
	))

	properties.TestingRun(t, gopter.NewFormatedReporter(false, 240, os.Stdout))
}
