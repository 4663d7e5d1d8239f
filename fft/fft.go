package fft

import (
	"math/bits"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/internal/parallel"
)

// Decimation is used in the FFT call to select decimation in time or in frequency.
type Decimation uint8

const (
	// DIT (decimation in time) expects its input in bit-reversed order and
	// produces a natural-order output.
	DIT Decimation = iota
	// DIF (decimation in frequency) expects a natural-order input and
	// produces a bit-reversed output.
	DIF
)

// parallelize threshold for a single butterfly op, if the fft stage is not
// parallelized already
const butterflyThreshold = 16

// FFT computes (recursively) the discrete Fourier transform of a and stores
// the result in a. len(a) must equal the domain cardinality.
func (d *Domain) FFT(a []fr.Element, decimation Decimation, opts ...Option) error {
	if uint64(len(a)) != d.Cardinality {
		return ErrInvalidFFTSize
	}
	cfg := newConfig(opts...)

	if cfg.coset {
		// p(gen*x) has coefficients p_i * gen^i
		scaleByTable(a, d.CosetTable, decimation == DIT, cfg.nbTasks)
	}

	maxSplits := splits(cfg.nbTasks)
	switch decimation {
	case DIF:
		difFFT(a, d.Twiddles, 0, maxSplits, nil)
	case DIT:
		ditFFT(a, d.Twiddles, 0, maxSplits, nil)
	}
	return nil
}

// FFTInverse computes the inverse discrete Fourier transform of a and stores
// the result in a, including the scaling by 1/cardinality.
func (d *Domain) FFTInverse(a []fr.Element, decimation Decimation, opts ...Option) error {
	if uint64(len(a)) != d.Cardinality {
		return ErrInvalidFFTSize
	}
	cfg := newConfig(opts...)

	maxSplits := splits(cfg.nbTasks)
	switch decimation {
	case DIF:
		difFFT(a, d.TwiddlesInv, 0, maxSplits, nil)
	case DIT:
		ditFFT(a, d.TwiddlesInv, 0, maxSplits, nil)
	}

	if cfg.coset {
		// undo the coset shift while scaling by 1/n; the coefficient of X^i
		// sits at position i (DIT output) or bitrev(i) (DIF output)
		nInv := d.CardinalityInv
		table := d.CosetTableInv
		bitReversedIndex := decimation == DIF
		parallel.Execute(len(a), func(start, end int) {
			var s fr.Element
			for i := start; i < end; i++ {
				j := i
				if bitReversedIndex {
					j = reverseIndex(i, len(a))
				}
				s.Mul(&table[j], &nInv)
				a[i].Mul(&a[i], &s)
			}
		}, cfg.nbTasks)
		return nil
	}

	nInv := d.CardinalityInv
	parallel.Execute(len(a), func(start, end int) {
		for i := start; i < end; i++ {
			a[i].Mul(&a[i], &nInv)
		}
	}, cfg.nbTasks)
	return nil
}

func difFFT(a []fr.Element, twiddles [][]fr.Element, stage, maxSplits int, chDone chan struct{}) {
	if chDone != nil {
		defer func() {
			chDone <- struct{}{}
		}()
	}
	n := len(a)
	if n == 1 {
		return
	}
	m := n >> 1

	// if stage < maxSplits, we parallelize this butterfly;
	// we have ~numCPU/2^stage cpus available
	if m > butterflyThreshold && stage < maxSplits {
		numCPU := runtime.NumCPU() / (1 << stage)
		parallel.Execute(m, func(start, end int) {
			var t fr.Element
			for i := start; i < end; i++ {
				t = a[i]
				a[i].Add(&a[i], &a[i+m])
				a[i+m].
					Sub(&t, &a[i+m]).
					Mul(&a[i+m], &twiddles[stage][i])
			}
		}, numCPU)
	} else {
		var t fr.Element

		// i == 0
		t = a[0]
		a[0].Add(&a[0], &a[m])
		a[m].Sub(&t, &a[m])

		for i := 1; i < m; i++ {
			t = a[i]
			a[i].Add(&a[i], &a[i+m])
			a[i+m].
				Sub(&t, &a[i+m]).
				Mul(&a[i+m], &twiddles[stage][i])
		}
	}

	if m == 1 {
		return
	}

	nextStage := stage + 1
	if stage < maxSplits {
		chDone := make(chan struct{}, 1)
		go difFFT(a[m:n], twiddles, nextStage, maxSplits, chDone)
		difFFT(a[0:m], twiddles, nextStage, maxSplits, nil)
		<-chDone
	} else {
		difFFT(a[0:m], twiddles, nextStage, maxSplits, nil)
		difFFT(a[m:n], twiddles, nextStage, maxSplits, nil)
	}
}

func ditFFT(a []fr.Element, twiddles [][]fr.Element, stage, maxSplits int, chDone chan struct{}) {
	if chDone != nil {
		defer func() {
			chDone <- struct{}{}
		}()
	}
	n := len(a)
	if n == 1 {
		return
	}
	m := n >> 1

	nextStage := stage + 1
	if stage < maxSplits {
		chDone := make(chan struct{}, 1)
		go ditFFT(a[m:n], twiddles, nextStage, maxSplits, chDone)
		ditFFT(a[0:m], twiddles, nextStage, maxSplits, nil)
		<-chDone
	} else {
		ditFFT(a[0:m], twiddles, nextStage, maxSplits, nil)
		ditFFT(a[m:n], twiddles, nextStage, maxSplits, nil)
	}

	if m > butterflyThreshold && stage < maxSplits {
		numCPU := runtime.NumCPU() / (1 << stage)
		parallel.Execute(m, func(start, end int) {
			var t, tm fr.Element
			for k := start; k < end; k++ {
				t = a[k]
				tm.Mul(&a[k+m], &twiddles[stage][k])
				a[k].Add(&a[k], &tm)
				a[k+m].Sub(&t, &tm)
			}
		}, numCPU)
	} else {
		var t, tm fr.Element

		// k == 0, twiddle == 1
		t = a[0]
		a[0].Add(&a[0], &a[m])
		a[m].Sub(&t, &a[m])

		for k := 1; k < m; k++ {
			t = a[k]
			tm.Mul(&a[k+m], &twiddles[stage][k])
			a[k].Add(&a[k], &tm)
			a[k+m].Sub(&t, &tm)
		}
	}
}

// BitReverse applies the bit-reversal permutation to a.
// len(a) must be a power of 2.
func BitReverse(a []fr.Element) {
	n := uint64(len(a))
	nn := uint64(64 - bits.TrailingZeros64(n))

	for i := uint64(0); i < n; i++ {
		irev := bits.Reverse64(i) >> nn
		if irev > i {
			a[i], a[irev] = a[irev], a[i]
		}
	}
}

// reverseIndex returns the bit-reversal of i for a slice of length n (a power
// of two).
func reverseIndex(i, n int) int {
	return int(bits.Reverse64(uint64(i)) >> (64 - uint64(bits.TrailingZeros64(uint64(n)))))
}

// scaleByTable multiplies a[pos] by table[i] where i is the coefficient index
// stored at pos (equal to pos, or to bitrev(pos) for bit-reversed inputs).
func scaleByTable(a []fr.Element, table []fr.Element, bitReversedIndex bool, nbTasks int) {
	parallel.Execute(len(a), func(start, end int) {
		for p := start; p < end; p++ {
			i := p
			if bitReversedIndex {
				i = reverseIndex(p, len(a))
			}
			a[p].Mul(&a[p], &table[i])
		}
	}, nbTasks)
}

func splits(nbTasks int) int {
	if nbTasks <= 1 {
		return -1
	}
	return bits.TrailingZeros64(ecc.NextPowerOfTwo(uint64(nbTasks)))
}
