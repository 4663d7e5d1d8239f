// Package kzg implements a polynomial commitment scheme with optional hiding,
// over BLS12-377. A commitment to p with blinder r is [p(τ)]G₁ + [r(τ)]γG₁;
// an opening at z carries the claimed value p(z), the blinder value r(z) and
// a witness for both quotients. Batch openings at a single point fold the
// polynomials with powers of a transcript challenge before opening.
package kzg

import (
	"errors"
	"io"
	"math/big"

	"golang.org/x/crypto/blake2b"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fiatshamir"
	"github.com/proofworks/gomarlin/msm"
	"github.com/proofworks/gomarlin/polynomial"
)

var (
	ErrMinSRSSize            = errors.New("kzg: minimum srs size is 2")
	ErrInvalidPolynomialSize = errors.New("kzg: invalid polynomial size (larger than srs or == 0)")
	ErrInvalidNbDigests      = errors.New("kzg: number of digests is not the same as the number of polynomials")
	ErrZeroNbDigests         = errors.New("kzg: number of digests is zero")
)

// ProvingKey holds the G₁ powers of τ and their γ-scaled counterparts used
// for blinding.
type ProvingKey struct {
	G1      []bls12377.G1Affine // [G₁ [τ]G₁ , [τ²]G₁, ... ]
	G1Gamma []bls12377.G1Affine // [γG₁, [γτ]G₁, [γτ²]G₁, ... ]
}

// VerifyingKey holds the generators needed for the pairing checks.
type VerifyingKey struct {
	G1      bls12377.G1Affine
	G1Gamma bls12377.G1Affine
	G2      [2]bls12377.G2Affine // [G₂, [τ]G₂]
}

// SRS is the structured reference string; Pk and Vk share the same τ and γ.
type SRS struct {
	Pk ProvingKey
	Vk VerifyingKey
}

// Digest is a commitment to a polynomial.
type Digest = bls12377.G1Affine

// OpeningProof opens one (possibly folded) polynomial at one point.
type OpeningProof struct {
	// H is a commitment to the witness quotients (X-z) | p(X)-p(z), r(X)-r(z)
	H bls12377.G1Affine

	ClaimedValue fr.Element // p(z)

	// ClaimedValueRandom is the blinder evaluation r(z); zero for a
	// commitment made without hiding.
	ClaimedValueRandom fr.Element
}

// BatchOpeningProof opens several polynomials at the same point.
type BatchOpeningProof struct {
	H                  bls12377.G1Affine
	ClaimedValues      []fr.Element
	ClaimedValueRandom fr.Element
}

// NewSRS samples τ and γ from rng and returns an SRS supporting commitments
// to polynomials of size up to size coefficients.
func NewSRS(size uint64, rng io.Reader) (*SRS, error) {
	if size < 2 {
		return nil, ErrMinSRSSize
	}
	tau, err := randomFr(rng)
	if err != nil {
		return nil, err
	}
	gamma, err := randomFr(rng)
	if err != nil {
		return nil, err
	}
	return newSRS(size, tau, gamma), nil
}

// NewSRSFromSeed derives τ and γ from seed with a blake2b XOF. Intended for
// tests and development setups where a reproducible SRS is wanted.
func NewSRSFromSeed(size uint64, seed []byte) (*SRS, error) {
	if size < 2 {
		return nil, ErrMinSRSSize
	}
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, nil)
	if err != nil {
		return nil, err
	}
	if _, err := xof.Write(seed); err != nil {
		return nil, err
	}
	tau, err := randomFr(xof)
	if err != nil {
		return nil, err
	}
	gamma, err := randomFr(xof)
	if err != nil {
		return nil, err
	}
	return newSRS(size, tau, gamma), nil
}

func newSRS(size uint64, tau, gamma fr.Element) *SRS {
	_, _, g1Aff, g2Aff := bls12377.Generators()

	tauPowers := make([]fr.Element, size)
	gammaTauPowers := make([]fr.Element, size)
	tauPowers[0].SetOne()
	gammaTauPowers[0].Set(&gamma)
	for i := uint64(1); i < size; i++ {
		tauPowers[i].Mul(&tauPowers[i-1], &tau)
		gammaTauPowers[i].Mul(&gammaTauPowers[i-1], &tau)
	}

	var srs SRS
	srs.Pk.G1 = bls12377.BatchScalarMultiplicationG1(&g1Aff, tauPowers)
	srs.Pk.G1Gamma = bls12377.BatchScalarMultiplicationG1(&g1Aff, gammaTauPowers)

	srs.Vk.G1 = srs.Pk.G1[0]
	srs.Vk.G1Gamma = srs.Pk.G1Gamma[0]
	srs.Vk.G2[0] = g2Aff
	var tauBig big.Int
	tau.BigInt(&tauBig)
	srs.Vk.G2[1].ScalarMultiplication(&g2Aff, &tauBig)

	return &srs
}

// Commit commits to p without hiding.
func Commit(p polynomial.Polynomial, pk *ProvingKey) (Digest, error) {
	if len(p) == 0 || len(p) > len(pk.G1) {
		return Digest{}, ErrInvalidPolynomialSize
	}
	return msm.MSM(pk.G1[:len(p)], p)
}

// CommitHiding commits to p blinded by a fresh random polynomial of degree
// hidingBound sampled from rng. The blinder is returned; it is needed to
// open the commitment. hidingBound must be at least the number of openings
// the commitment will undergo.
func CommitHiding(p polynomial.Polynomial, pk *ProvingKey, hidingBound int, rng io.Reader) (Digest, polynomial.Polynomial, error) {
	var res Digest
	if len(p) == 0 || len(p) > len(pk.G1) {
		return res, nil, ErrInvalidPolynomialSize
	}
	blinder := make(polynomial.Polynomial, hidingBound+1)
	for i := range blinder {
		r, err := randomFr(rng)
		if err != nil {
			return res, nil, err
		}
		blinder[i] = r
	}

	c, err := msm.MSM(pk.G1[:len(p)], p)
	if err != nil {
		return res, nil, err
	}
	mask, err := msm.MSM(pk.G1Gamma[:len(blinder)], blinder)
	if err != nil {
		return res, nil, err
	}
	res.Add(&c, &mask)
	return res, blinder, nil
}

// Open computes an opening proof for p at point. blinder is the polynomial
// returned by CommitHiding, or nil for a non-hiding commitment.
func Open(p polynomial.Polynomial, point fr.Element, blinder polynomial.Polynomial, pk *ProvingKey) (OpeningProof, error) {
	var res OpeningProof
	if len(p) == 0 || len(p) > len(pk.G1) {
		return res, ErrInvalidPolynomialSize
	}

	q, v := polynomial.DivByXMinusC(p, point)
	res.ClaimedValue = v

	h, err := msm.MSM(pk.G1[:len(q)], q)
	if err != nil {
		return res, err
	}
	res.H = h

	if len(blinder) > 0 {
		qr, rv := polynomial.DivByXMinusC(blinder, point)
		res.ClaimedValueRandom = rv
		if len(qr) > 0 {
			mask, err := msm.MSM(pk.G1Gamma[:len(qr)], qr)
			if err != nil {
				return res, err
			}
			res.H.Add(&res.H, &mask)
		}
	}
	return res, nil
}

// Verify checks an opening proof against a commitment. A well-formed proof
// that fails the pairing check yields (false, nil); structural problems
// yield an error.
func Verify(commitment *Digest, proof *OpeningProof, point fr.Element, vk *VerifyingKey) (bool, error) {
	// F = C - [v]G₁ - [r(z)]γG₁ + [z]H
	var vBig, rvBig, zBig big.Int
	proof.ClaimedValue.BigInt(&vBig)
	proof.ClaimedValueRandom.BigInt(&rvBig)
	point.BigInt(&zBig)

	var vg, rvg, zh, f, negH bls12377.G1Affine
	vg.ScalarMultiplication(&vk.G1, &vBig)
	rvg.ScalarMultiplication(&vk.G1Gamma, &rvBig)
	zh.ScalarMultiplication(&proof.H, &zBig)
	f.Sub(commitment, &vg)
	f.Sub(&f, &rvg)
	f.Add(&f, &zh)
	negH.Neg(&proof.H)

	// e(F, G₂) · e(-H, [τ]G₂) == 1
	return bls12377.PairingCheck(
		[]bls12377.G1Affine{f, negH},
		[]bls12377.G2Affine{vk.G2[0], vk.G2[1]},
	)
}

// BatchOpenSinglePoint opens several polynomials at the same point with one
// witness commitment. blinders[i] is the blinder of polynomials[i], nil when
// the commitment is not hiding; blinders itself may be nil.
func BatchOpenSinglePoint(polynomials []polynomial.Polynomial, digests []Digest, point fr.Element, blinders []polynomial.Polynomial, pk *ProvingKey) (BatchOpeningProof, error) {
	var res BatchOpeningProof
	if len(polynomials) == 0 {
		return res, ErrZeroNbDigests
	}
	if len(polynomials) != len(digests) {
		return res, ErrInvalidNbDigests
	}
	if blinders != nil && len(blinders) != len(polynomials) {
		return res, ErrInvalidNbDigests
	}

	res.ClaimedValues = make([]fr.Element, len(polynomials))
	for i := range polynomials {
		if len(polynomials[i]) == 0 || len(polynomials[i]) > len(pk.G1) {
			return res, ErrInvalidPolynomialSize
		}
		res.ClaimedValues[i] = polynomials[i].Eval(&point)
	}

	gamma, err := deriveGamma(point, digests, res.ClaimedValues)
	if err != nil {
		return res, err
	}

	// fold polynomials and blinders with powers of gamma
	var folded polynomial.Polynomial
	var foldedBlinder polynomial.Polynomial
	var pow fr.Element
	pow.SetOne()
	for i := range polynomials {
		scaled := polynomials[i].Clone()
		scaled.Scale(&pow)
		folded.Add(folded, scaled)
		if blinders != nil && len(blinders[i]) > 0 {
			scaledBlinder := blinders[i].Clone()
			scaledBlinder.Scale(&pow)
			foldedBlinder.Add(foldedBlinder, scaledBlinder)
		}
		pow.Mul(&pow, &gamma)
	}

	proof, err := Open(folded, point, foldedBlinder, pk)
	if err != nil {
		return res, err
	}
	res.H = proof.H
	res.ClaimedValueRandom = proof.ClaimedValueRandom
	return res, nil
}

// BatchVerifySinglePoint verifies a batch opening of digests at point.
func BatchVerifySinglePoint(digests []Digest, proof *BatchOpeningProof, point fr.Element, vk *VerifyingKey) (bool, error) {
	folded, foldedDigest, err := FoldProof(digests, proof, point)
	if err != nil {
		return false, err
	}
	return Verify(&foldedDigest, &folded, point, vk)
}

// FoldProof turns a batch opening proof into a single opening proof for the
// folded digest, replaying the fold challenge from the transcript. The
// result can be aggregated further with BatchVerifyMultiPoints.
func FoldProof(digests []Digest, proof *BatchOpeningProof, point fr.Element) (OpeningProof, Digest, error) {
	var res OpeningProof
	var foldedDigest Digest
	if len(digests) == 0 {
		return res, foldedDigest, ErrZeroNbDigests
	}
	if len(digests) != len(proof.ClaimedValues) {
		return res, foldedDigest, ErrInvalidNbDigests
	}

	gamma, err := deriveGamma(point, digests, proof.ClaimedValues)
	if err != nil {
		return res, foldedDigest, err
	}

	powers := make([]fr.Element, len(digests))
	powers[0].SetOne()
	for i := 1; i < len(powers); i++ {
		powers[i].Mul(&powers[i-1], &gamma)
	}

	foldedDigest, err = msm.MSM(digests, powers)
	if err != nil {
		return res, foldedDigest, err
	}
	var foldedValue fr.Element
	var tmp fr.Element
	for i := range proof.ClaimedValues {
		tmp.Mul(&proof.ClaimedValues[i], &powers[i])
		foldedValue.Add(&foldedValue, &tmp)
	}

	res.H = proof.H
	res.ClaimedValue = foldedValue
	res.ClaimedValueRandom = proof.ClaimedValueRandom
	return res, foldedDigest, nil
}

// BatchVerifyMultiPoints verifies several opening proofs, possibly at
// distinct points, with a single pairing check. The proofs are combined with
// random coefficients sampled from rng, so a batch accepts exactly when every
// member would (up to the combination's soundness error).
func BatchVerifyMultiPoints(digests []Digest, proofs []OpeningProof, points []fr.Element, vk *VerifyingKey, rng io.Reader) (bool, error) {
	if len(digests) != len(proofs) || len(digests) != len(points) {
		return false, ErrInvalidNbDigests
	}
	if len(digests) == 0 {
		return false, ErrZeroNbDigests
	}
	if len(digests) == 1 {
		return Verify(&digests[0], &proofs[0], points[0], vk)
	}

	lambdas := make([]fr.Element, len(digests))
	lambdas[0].SetOne()
	for i := 1; i < len(lambdas); i++ {
		l, err := randomFr(rng)
		if err != nil {
			return false, err
		}
		lambdas[i] = l
	}

	// Σ λᵢvᵢ, Σ λᵢr(z)ᵢ, and the λᵢzᵢ coefficients for the H terms
	var sumValues, sumRandom fr.Element
	zScaled := make([]fr.Element, len(proofs))
	hs := make([]bls12377.G1Affine, len(proofs))
	var tmp fr.Element
	for i := range proofs {
		tmp.Mul(&lambdas[i], &proofs[i].ClaimedValue)
		sumValues.Add(&sumValues, &tmp)
		tmp.Mul(&lambdas[i], &proofs[i].ClaimedValueRandom)
		sumRandom.Add(&sumRandom, &tmp)
		zScaled[i].Mul(&lambdas[i], &points[i])
		hs[i] = proofs[i].H
	}

	foldedDigests, err := msm.MSM(digests, lambdas)
	if err != nil {
		return false, err
	}
	foldedZH, err := msm.MSM(hs, zScaled)
	if err != nil {
		return false, err
	}
	foldedH, err := msm.MSM(hs, lambdas)
	if err != nil {
		return false, err
	}

	var svBig, srBig big.Int
	sumValues.BigInt(&svBig)
	sumRandom.BigInt(&srBig)
	var vg, rvg, f, negH bls12377.G1Affine
	vg.ScalarMultiplication(&vk.G1, &svBig)
	rvg.ScalarMultiplication(&vk.G1Gamma, &srBig)
	f.Sub(&foldedDigests, &vg)
	f.Sub(&f, &rvg)
	f.Add(&f, &foldedZH)
	negH.Neg(&foldedH)

	return bls12377.PairingCheck(
		[]bls12377.G1Affine{f, negH},
		[]bls12377.G2Affine{vk.G2[0], vk.G2[1]},
	)
}

// deriveGamma computes the fold challenge from the opening point, the
// digests and the claimed values.
func deriveGamma(point fr.Element, digests []Digest, claimedValues []fr.Element) (fr.Element, error) {
	t := fiatshamir.NewTranscript("gamma")
	if err := t.Bind("gamma", &point); err != nil {
		return fr.Element{}, err
	}
	for i := range digests {
		if err := t.BindPoint("gamma", &digests[i]); err != nil {
			return fr.Element{}, err
		}
	}
	for i := range claimedValues {
		if err := t.Bind("gamma", &claimedValues[i]); err != nil {
			return fr.Element{}, err
		}
	}
	return t.ComputeChallenge("gamma")
}

// randomFr samples a field element from rng with negligible bias.
func randomFr(rng io.Reader) (fr.Element, error) {
	var buf [64]byte
	var res fr.Element
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return res, err
	}
	res.SetBytes(buf[:])
	return res, nil
}
