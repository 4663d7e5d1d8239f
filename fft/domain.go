// Package fft provides a radix-2 Fast Fourier Transform over the BLS12-377
// scalar field, on power-of-two multiplicative subgroups and their cosets.
package fft

import (
	"errors"
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/logger"
)

// the largest power-of-two order of an element of fr; the generator below
// generates the subgroup of that order.
const maxOrderRoot uint64 = 47

// generator of the 2-adic subgroup of fr, of order 2^47.
const twoAdicRootOfUnity = "8065159656716812877374967518403273466521432693661810619979959746626482506078"

// smallest generator of fr^*, used as the coset shift.
const frMultiplicativeGen = 22

var (
	// ErrDomainTooLarge is returned when the requested cardinality exceeds the
	// order of the field's 2-adic subgroup.
	ErrDomainTooLarge = errors.New("fft: domain cardinality is not supported by the field's two-adic subgroup")

	// ErrInvalidFFTSize is returned when the input size does not match the
	// domain cardinality.
	ErrInvalidFFTSize = errors.New("fft: input size does not match domain cardinality")
)

// Domain is an immutable description of a multiplicative subgroup of fr with a
// power-of-two cardinality, plus the precomputed tables the FFT kernels need.
// A Domain is created once per proving session and shared read-only.
type Domain struct {
	Cardinality            uint64
	CardinalityInv         fr.Element
	Generator              fr.Element
	GeneratorInv           fr.Element
	FrMultiplicativeGen    fr.Element
	FrMultiplicativeGenInv fr.Element

	// Twiddles[stage][j] = w^(j*2^stage) where w is the domain generator;
	// one slice per stage of the recursive FFT.
	Twiddles    [][]fr.Element
	TwiddlesInv [][]fr.Element

	// CosetTable[i] = FrMultiplicativeGen^i, natural order.
	CosetTable    []fr.Element
	CosetTableInv []fr.Element
}

// NewDomain returns the subgroup of fr with cardinality the next power of two
// >= m. It fails with ErrDomainTooLarge when no such subgroup exists.
func NewDomain(m uint64) (*Domain, error) {
	if m == 0 {
		return nil, ErrDomainTooLarge
	}
	x := ecc.NextPowerOfTwo(m)
	logx := uint64(bits.TrailingZeros64(x))
	if logx > maxOrderRoot {
		return nil, ErrDomainTooLarge
	}

	var rootOfUnity fr.Element
	if _, err := rootOfUnity.SetString(twoAdicRootOfUnity); err != nil {
		panic(err) // the constant is well-formed
	}

	d := &Domain{Cardinality: x}

	// Generator = rootOfUnity^(2^(maxOrderRoot - logx)) has order x
	expo := new(big.Int).SetUint64(1 << (maxOrderRoot - logx))
	d.Generator.Exp(rootOfUnity, expo)
	d.GeneratorInv.Inverse(&d.Generator)
	d.CardinalityInv.SetUint64(x).Inverse(&d.CardinalityInv)
	d.FrMultiplicativeGen.SetUint64(frMultiplicativeGen)
	d.FrMultiplicativeGenInv.Inverse(&d.FrMultiplicativeGen)

	d.preComputeTwiddles()

	log := logger.Logger()
	log.Trace().Uint64("cardinality", x).Msg("new fft domain")

	return d, nil
}

func (d *Domain) preComputeTwiddles() {
	nbStages := uint64(bits.TrailingZeros64(d.Cardinality))

	d.Twiddles = make([][]fr.Element, nbStages)
	d.TwiddlesInv = make([][]fr.Element, nbStages)
	d.CosetTable = powers(d.FrMultiplicativeGen, int(d.Cardinality))
	d.CosetTableInv = powers(d.FrMultiplicativeGenInv, int(d.Cardinality))

	build := func(t [][]fr.Element, omega fr.Element) {
		w := omega
		for i := uint64(0); i < nbStages; i++ {
			t[i] = powers(w, int(d.Cardinality>>(i+1)))
			w.Square(&w)
		}
	}
	build(d.Twiddles, d.Generator)
	build(d.TwiddlesInv, d.GeneratorInv)
}

// powers returns [1, w, w^2, ..., w^(n-1)]
func powers(w fr.Element, n int) []fr.Element {
	if n == 0 {
		return nil
	}
	res := make([]fr.Element, n)
	res[0] = fr.One()
	for i := 1; i < n; i++ {
		res[i].Mul(&res[i-1], &w)
	}
	return res
}
