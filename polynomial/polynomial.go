// Package polynomial manipulates dense univariate polynomials over the
// BLS12-377 scalar field, in coefficient or evaluation form. Multiplication
// and on-domain interpolation go through the fft package; everything else is
// plain coefficient arithmetic.
package polynomial

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fft"
)

var (
	// ErrDuplicatePoint is returned by InterpolateLagrange on repeated abscissae.
	ErrDuplicatePoint = errors.New("polynomial: interpolation points must be distinct")

	// ErrNotDivisible is returned when an exact division leaves a remainder.
	ErrNotDivisible = errors.New("polynomial: division leaves a non-zero remainder")
)

// Polynomial is a dense polynomial, p[i] the coefficient of X^i.
type Polynomial []fr.Element

// Clone returns a deep copy of p with extra capacity for c more coefficients.
func (p Polynomial) Clone(c ...int) Polynomial {
	capacity := len(p)
	if len(c) == 1 {
		capacity += c[0]
	}
	r := make(Polynomial, len(p), capacity)
	copy(r, p)
	return r
}

// Degree returns the degree of p, -1 for the zero polynomial.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsZero() {
			return i
		}
	}
	return -1
}

// Eval evaluates p at x using Horner's method.
func (p Polynomial) Eval(x *fr.Element) fr.Element {
	var res fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		res.Mul(&res, x)
		res.Add(&res, &p[i])
	}
	return res
}

// Add sets p = p1 + p2 and returns p.
func (p *Polynomial) Add(p1, p2 Polynomial) *Polynomial {
	bigger, smaller := p1, p2
	if len(bigger) < len(smaller) {
		bigger, smaller = smaller, bigger
	}
	if len(*p) < len(bigger) {
		*p = append(*p, make(Polynomial, len(bigger)-len(*p))...)
	}
	*p = (*p)[:len(bigger)]
	copy(*p, bigger)
	for i := 0; i < len(smaller); i++ {
		(*p)[i].Add(&(*p)[i], &smaller[i])
	}
	return p
}

// Sub sets p = p1 - p2 and returns p.
func (p *Polynomial) Sub(p1, p2 Polynomial) *Polynomial {
	n := len(p1)
	if len(p2) > n {
		n = len(p2)
	}
	if len(*p) < n {
		*p = append(*p, make(Polynomial, n-len(*p))...)
	}
	*p = (*p)[:n]
	for i := 0; i < n; i++ {
		var a, b fr.Element
		if i < len(p1) {
			a = p1[i]
		}
		if i < len(p2) {
			b = p2[i]
		}
		(*p)[i].Sub(&a, &b)
	}
	return p
}

// Scale multiplies every coefficient of p by c in place.
func (p Polynomial) Scale(c *fr.Element) {
	for i := range p {
		p[i].Mul(&p[i], c)
	}
}

// Shift returns X^k * p.
func Shift(p Polynomial, k int) Polynomial {
	r := make(Polynomial, len(p)+k)
	copy(r[k:], p)
	return r
}

// Trim drops the trailing zero coefficients of p.
func (p Polynomial) Trim() Polynomial {
	return p[:p.Degree()+1]
}

// Mul returns a*b, computed by zero-padding both operands to the product's
// domain size, transforming, multiplying pointwise and transforming back.
func Mul(a, b Polynomial, opts ...fft.Option) (Polynomial, error) {
	if len(a) == 0 || len(b) == 0 {
		return Polynomial{}, nil
	}
	n := uint64(len(a) + len(b) - 1)
	d, err := fft.NewDomain(n)
	if err != nil {
		return nil, err
	}

	pa := make(Polynomial, d.Cardinality)
	pb := make(Polynomial, d.Cardinality)
	copy(pa, a)
	copy(pb, b)

	// DIF forward leaves both operands in bit-reversed order; the pointwise
	// product is order-agnostic and DIT brings the result back to natural order.
	if err := d.FFT(pa, fft.DIF, opts...); err != nil {
		return nil, err
	}
	if err := d.FFT(pb, fft.DIF, opts...); err != nil {
		return nil, err
	}
	for i := range pa {
		pa[i].Mul(&pa[i], &pb[i])
	}
	if err := d.FFTInverse(pa, fft.DIT, opts...); err != nil {
		return nil, err
	}
	return pa[:n], nil
}

// Evaluate returns the evaluations of p over d, in natural order.
// len(p) must be at most the domain cardinality.
func Evaluate(p Polynomial, d *fft.Domain, opts ...fft.Option) (Polynomial, error) {
	if uint64(len(p)) > d.Cardinality {
		return nil, fft.ErrInvalidFFTSize
	}
	evals := make(Polynomial, d.Cardinality)
	copy(evals, p)
	if err := d.FFT(evals, fft.DIF, opts...); err != nil {
		return nil, err
	}
	fft.BitReverse(evals)
	return evals, nil
}

// Interpolate returns the unique polynomial of degree < |d| matching the given
// natural-order evaluations over d (an inverse FFT).
func Interpolate(evals Polynomial, d *fft.Domain, opts ...fft.Option) (Polynomial, error) {
	if uint64(len(evals)) != d.Cardinality {
		return nil, fft.ErrInvalidFFTSize
	}
	coeffs := evals.Clone()
	if err := d.FFTInverse(coeffs, fft.DIF, opts...); err != nil {
		return nil, err
	}
	fft.BitReverse(coeffs)
	return coeffs, nil
}

// InterpolateLagrange returns the unique polynomial of degree < len(xs) with
// p(xs[i]) = ys[i], for arbitrary distinct abscissae. O(n^2); intended for
// small point sets and tests; on-domain interpolation should use Interpolate.
func InterpolateLagrange(xs, ys []fr.Element) (Polynomial, error) {
	if len(xs) != len(ys) {
		return nil, errors.New("polynomial: mismatching point slice lengths")
	}
	n := len(xs)
	res := make(Polynomial, n)

	for i := 0; i < n; i++ {
		// numerator prod_{j!=i} (X - xs[j]), denominator prod_{j!=i} (xs[i]-xs[j])
		num := Polynomial{fr.One()}
		var den fr.Element
		den.SetOne()
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			var negx, diff fr.Element
			negx.Neg(&xs[j])
			num = mulByLinear(num, negx)
			diff.Sub(&xs[i], &xs[j])
			if diff.IsZero() {
				return nil, ErrDuplicatePoint
			}
			den.Mul(&den, &diff)
		}
		den.Inverse(&den)
		den.Mul(&den, &ys[i])
		for k := 0; k < len(num); k++ {
			var t fr.Element
			t.Mul(&num[k], &den)
			res[k].Add(&res[k], &t)
		}
	}
	return res, nil
}

// mulByLinear returns p * (X + c)
func mulByLinear(p Polynomial, c fr.Element) Polynomial {
	r := make(Polynomial, len(p)+1)
	for i := 0; i < len(p); i++ {
		var t fr.Element
		t.Mul(&p[i], &c)
		r[i].Add(&r[i], &t)
		r[i+1].Add(&r[i+1], &p[i])
	}
	return r
}

// DivByXMinusC returns the quotient q such that p = q*(X-c) + p(c)
// (synthetic division), together with p(c).
func DivByXMinusC(p Polynomial, c fr.Element) (q Polynomial, rem fr.Element) {
	if len(p) == 0 {
		return Polynomial{}, fr.Element{}
	}
	q = make(Polynomial, len(p)-1)
	var acc fr.Element
	for i := len(p) - 1; i > 0; i-- {
		acc.Mul(&acc, &c)
		acc.Add(&acc, &p[i])
		q[i-1] = acc
	}
	acc.Mul(&acc, &c)
	rem.Add(&acc, &p[0])
	return q, rem
}

// DivByVanishing divides p by X^n - 1, returning the quotient and the
// remainder (of degree < n).
func DivByVanishing(p Polynomial, n uint64) (q, rem Polynomial) {
	if uint64(len(p)) <= n {
		return Polynomial{}, p.Clone()
	}
	work := p.Clone()
	q = make(Polynomial, uint64(len(p))-n)
	for i := len(work) - 1; uint64(i) >= n; i-- {
		q[uint64(i)-n] = work[i]
		work[uint64(i)-n].Add(&work[uint64(i)-n], &work[i])
	}
	return q, work[:n]
}
