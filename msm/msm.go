// Package msm implements multi-scalar multiplication over the BLS12-377 G1
// group with a windowed (Pippenger) bucket algorithm. Inputs are partitioned
// into contiguous chunks processed independently; partial sums are merged in
// index order, so the result does not depend on the number of workers.
package msm

import (
	"errors"
	"math/big"
	"math/bits"
	"runtime"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/internal/parallel"
)

// ErrInvalidLength is returned when the number of points and scalars differ.
var ErrInvalidLength = errors.New("msm: len(points) != len(scalars)")

// a chunk below this size is not worth a goroutine
const minChunkSize = 128

// Option configures an MSM call.
type Option func(*config)

// WithNbTasks bounds the number of goroutines; WithNbTasks(1) forces the
// strictly sequential path.
func WithNbTasks(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.nbTasks = n
	}
}

type config struct {
	nbTasks int
}

// MSM returns sum_i scalars[i] * points[i]. The empty sum is the group
// identity (the point at infinity).
func MSM(points []bls12377.G1Affine, scalars []fr.Element, opts ...Option) (bls12377.G1Affine, error) {
	var res bls12377.G1Affine
	if len(points) != len(scalars) {
		return res, ErrInvalidLength
	}
	n := len(points)
	if n == 0 {
		return res, nil // infinity
	}
	if n == 1 {
		var s big.Int
		scalars[0].BigInt(&s)
		res.ScalarMultiplication(&points[0], &s)
		return res, nil
	}

	cfg := config{nbTasks: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	nbChunks := cfg.nbTasks
	if nbChunks > n/minChunkSize {
		nbChunks = n / minChunkSize
	}
	if nbChunks < 1 {
		nbChunks = 1
	}

	c := bestC(n / nbChunks)

	partial := make([]bls12377.G1Jac, nbChunks)
	parallel.Execute(nbChunks, func(start, end int) {
		for chunk := start; chunk < end; chunk++ {
			lo := chunk * n / nbChunks
			hi := (chunk + 1) * n / nbChunks
			partial[chunk] = innerMSM(points[lo:hi], scalars[lo:hi], c)
		}
	}, cfg.nbTasks)

	// merge in index order; group addition is associative and commutative so
	// the chunking does not change the sum
	var acc bls12377.G1Jac
	for i := range partial {
		acc.AddAssign(&partial[i])
	}
	res.FromJacobian(&acc)
	return res, nil
}

// innerMSM is the sequential windowed bucket method on one chunk.
func innerMSM(points []bls12377.G1Affine, scalars []fr.Element, c int) bls12377.G1Jac {
	var total bls12377.G1Jac
	if len(points) == 0 {
		return total
	}

	// regular (non-Montgomery) limbs, scanned window by window
	digits := make([][fr.Limbs]uint64, len(scalars))
	for i := range scalars {
		digits[i] = scalars[i].Bits()
	}

	nbWindows := (fr.Bits + c - 1) / c
	buckets := make([]bls12377.G1Jac, (1<<c)-1)

	for w := nbWindows - 1; w >= 0; w-- {
		for i := 0; i < c; i++ {
			total.DoubleAssign()
		}

		for i := range buckets {
			buckets[i].Set(&g1Infinity)
		}
		for i := range points {
			d := window(&digits[i], w*c, c)
			if d != 0 {
				buckets[d-1].AddMixed(&points[i])
			}
		}

		// sum_b (b+1)*buckets[b] via a running sum, scanned from the top
		var runningSum, windowSum bls12377.G1Jac
		for b := len(buckets) - 1; b >= 0; b-- {
			runningSum.AddAssign(&buckets[b])
			windowSum.AddAssign(&runningSum)
		}
		total.AddAssign(&windowSum)
	}
	return total
}

var g1Infinity bls12377.G1Jac

// window extracts the c-bit digit of limbs starting at bit offset start.
func window(limbs *[fr.Limbs]uint64, start, c int) uint64 {
	limb := start >> 6
	off := start & 63
	if limb >= fr.Limbs {
		return 0
	}
	d := limbs[limb] >> off
	if off+c > 64 && limb+1 < fr.Limbs {
		d |= limbs[limb+1] << (64 - off)
	}
	return d & ((1 << c) - 1)
}

// bestC picks the window width minimizing bucket setup plus addition work for
// the given input length.
func bestC(n int) int {
	c := bits.Len(uint(n))
	if c > 3 {
		c -= 3
	}
	if c < 1 {
		c = 1
	}
	if c > 16 {
		c = 16
	}
	return c
}
