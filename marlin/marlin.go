// Package marlin implements a preprocessing zkSNARK for sparse R1CS with a
// universal setup. The constraint matrices are arithmetized once into nine
// committed index polynomials; each proof then runs an outer sumcheck tying
// the witness to the linear maps and an inner sumcheck tying the claimed
// sums to the committed matrices, with all openings batched into two
// commitment-scheme proofs. Challenges are derived by Fiat-Shamir over the
// index commitments, the public inputs and the prover messages.
package marlin

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fft"
	"github.com/proofworks/gomarlin/fiatshamir"
	"github.com/proofworks/gomarlin/kzg"
	"github.com/proofworks/gomarlin/polynomial"
	"github.com/proofworks/gomarlin/r1cs"
)

var (
	// ErrSRSTooSmall is returned by Setup when the SRS cannot commit to
	// polynomials of the circuit's maximum degree.
	ErrSRSTooSmall = errors.New("marlin: srs too small for the constraint system")

	// ErrConstraintUnsatisfied is returned by Prove when the assignment does
	// not satisfy the constraint system.
	ErrConstraintUnsatisfied = errors.New("marlin: witness does not satisfy the constraint system")

	// ErrInvalidProof is returned by Verify on a structurally malformed
	// proof. A well-formed proof that fails a check yields (false, nil).
	ErrInvalidProof = errors.New("marlin: malformed proof")
)

// challengeNames fixes the Fiat-Shamir schedule shared by prover and
// verifier.
var challengeNames = []string{
	"alpha", "eta_a", "eta_b", "eta_c", "lambda",
	"beta",
	"delta_a", "delta_b", "delta_c",
	"gamma",
}

// number of claimed values in each opening batch
const (
	nbOpeningsBeta  = 7  // w, za, zb, zc, g1, shifted g1, h1
	nbOpeningsGamma = 16 // nine index polynomials, g/shifted g per matrix, h2
)

// VerifyingKey holds the index commitments and the domain geometry of one
// constraint system.
type VerifyingKey struct {
	// SizeH, SizeK, SizeX are the cardinalities of the variable, matrix and
	// public-input domains; MaxDegree is the largest committed degree.
	SizeH, SizeK, SizeX uint64
	MaxDegree           uint64
	NbPublic            uint64

	// CommitmentsIndex holds row, col, val commitments for each matrix, in
	// matrix-major order (rowA, colA, valA, rowB, ...).
	CommitmentsIndex [9]kzg.Digest

	Kzg kzg.VerifyingKey
}

// ProvingKey holds everything the prover needs: the constraint system, the
// commitment key and the preprocessed index.
type ProvingKey struct {
	Vk  *VerifyingKey
	Kzg kzg.ProvingKey
	Ccs *r1cs.System

	idx *index
}

// Proof is a non-interactive argument for one statement.
type Proof struct {
	// round 1: witness and linear-map commitments
	CommitmentW  kzg.Digest
	CommitmentZA kzg.Digest
	CommitmentZB kzg.Digest
	CommitmentZC kzg.Digest

	// round 2: outer sumcheck
	CommitmentG1        kzg.Digest
	CommitmentG1Shifted kzg.Digest
	CommitmentH1        kzg.Digest

	// round 3: inner sumcheck, one claimed sum and one g per matrix
	Sums               [3]fr.Element
	CommitmentG        [3]kzg.Digest
	CommitmentGShifted [3]kzg.Digest
	CommitmentH2       kzg.Digest

	// openings of the first-round polynomials at beta and of the index
	// polynomials at gamma
	BatchOpeningBeta  kzg.BatchOpeningProof
	BatchOpeningGamma kzg.BatchOpeningProof
}

// index is the preprocessed form of a constraint system: for each matrix,
// its nonzero entries with columns mapped to variable slots on H, and the
// interpolated row, col, val polynomials over K.
type index struct {
	domainH *fft.Domain
	domainK *fft.Domain
	domainX *fft.Domain

	maxDegree uint64

	entries [3][]matrixEntry
	polys   [9]polynomial.Polynomial
}

// matrixEntry is one nonzero coefficient; Col is the slot on H after
// variable placement, not the original variable id.
type matrixEntry struct {
	Row, Col uint64
	Coeff    fr.Element
}

// variableSlot maps a variable to its slot on H. The constant one and the
// public inputs sit on the subgroup X (every stride-th slot); secret
// variables fill the slots in between.
func variableSlot(v, nbPublicCol, stride uint64) uint64 {
	if v < nbPublicCol {
		return v * stride
	}
	w := v - nbPublicCol
	return (w/(stride-1))*stride + w%(stride-1) + 1
}

// vanishingEval returns x^n - 1.
func vanishingEval(x *fr.Element, n uint64) fr.Element {
	var res, one fr.Element
	res.Exp(*x, new(big.Int).SetUint64(n))
	one.SetOne()
	res.Sub(&res, &one)
	return res
}

// publicPolynomial interpolates (1, public...) over the domain X.
func publicPolynomial(public []fr.Element, domainX *fft.Domain) (polynomial.Polynomial, error) {
	padded := make(polynomial.Polynomial, domainX.Cardinality)
	padded[0].SetOne()
	copy(padded[1:], public)
	return polynomial.Interpolate(padded, domainX)
}

// bindRound1 commits the transcript to the index, the statement and the
// witness commitments before any challenge is drawn.
func bindRound1(tr *fiatshamir.Transcript, vk *VerifyingKey, public []fr.Element, w, za, zb, zc *kzg.Digest) error {
	for i := range vk.CommitmentsIndex {
		if err := tr.BindPoint("alpha", &vk.CommitmentsIndex[i]); err != nil {
			return err
		}
	}
	for i := range public {
		if err := tr.Bind("alpha", &public[i]); err != nil {
			return err
		}
	}
	for _, d := range []*kzg.Digest{w, za, zb, zc} {
		if err := tr.BindPoint("alpha", d); err != nil {
			return err
		}
	}
	return nil
}

func bindRound2(tr *fiatshamir.Transcript, g1, g1Shifted, h1 *kzg.Digest) error {
	for _, d := range []*kzg.Digest{g1, g1Shifted, h1} {
		if err := tr.BindPoint("beta", d); err != nil {
			return err
		}
	}
	return nil
}

// bindRound3 binds the claimed sums and the inner sumcheck commitments; h2
// depends on the delta challenges and is bound to gamma separately.
func bindRound3(tr *fiatshamir.Transcript, sums *[3]fr.Element, g, gShifted *[3]kzg.Digest) error {
	for i := range sums {
		if err := tr.Bind("delta_a", &sums[i]); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if err := tr.BindPoint("delta_a", &g[i]); err != nil {
			return err
		}
		if err := tr.BindPoint("delta_a", &gShifted[i]); err != nil {
			return err
		}
	}
	return nil
}
