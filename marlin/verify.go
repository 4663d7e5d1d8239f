package marlin

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fft"
	"github.com/proofworks/gomarlin/fiatshamir"
	"github.com/proofworks/gomarlin/kzg"
	"github.com/proofworks/gomarlin/logger"
	"github.com/proofworks/gomarlin/r1cs"
)

// Verify checks a proof against a verifying key and public inputs. A proof
// that fails a cryptographic check yields (false, nil); structural problems
// with the inputs yield an error. rng feeds the random coefficients of the
// final batched pairing check.
func Verify(proof *Proof, vk *VerifyingKey, public []fr.Element, rng io.Reader) (bool, error) {
	log := logger.Logger().With().
		Str("curve", "bls12_377").
		Str("backend", "marlin").Logger()
	start := time.Now()

	if uint64(len(public)) != vk.NbPublic {
		return false, fmt.Errorf("%w: got %d public inputs, want %d", r1cs.ErrInvalidWitnessSize, len(public), vk.NbPublic)
	}
	if len(proof.BatchOpeningBeta.ClaimedValues) != nbOpeningsBeta ||
		len(proof.BatchOpeningGamma.ClaimedValues) != nbOpeningsGamma {
		return false, ErrInvalidProof
	}

	h := vk.SizeH
	k := vk.SizeK
	t := vk.SizeX
	maxDegree := vk.MaxDegree

	// replay the transcript
	tr := fiatshamir.NewTranscript(challengeNames...)
	if err := bindRound1(tr, vk, public, &proof.CommitmentW, &proof.CommitmentZA, &proof.CommitmentZB, &proof.CommitmentZC); err != nil {
		return false, err
	}
	alpha, err := tr.ComputeChallenge("alpha")
	if err != nil {
		return false, err
	}
	var eta [3]fr.Element
	for i, name := range []string{"eta_a", "eta_b", "eta_c"} {
		if eta[i], err = tr.ComputeChallenge(name); err != nil {
			return false, err
		}
	}
	lambda, err := tr.ComputeChallenge("lambda")
	if err != nil {
		return false, err
	}
	if err := bindRound2(tr, &proof.CommitmentG1, &proof.CommitmentG1Shifted, &proof.CommitmentH1); err != nil {
		return false, err
	}
	beta, err := tr.ComputeChallenge("beta")
	if err != nil {
		return false, err
	}
	if err := bindRound3(tr, &proof.Sums, &proof.CommitmentG, &proof.CommitmentGShifted); err != nil {
		return false, err
	}
	var delta [3]fr.Element
	for i, name := range []string{"delta_a", "delta_b", "delta_c"} {
		if delta[i], err = tr.ComputeChallenge(name); err != nil {
			return false, err
		}
	}
	if err := tr.BindPoint("gamma", &proof.CommitmentH2); err != nil {
		return false, err
	}
	gamma, err := tr.ComputeChallenge("gamma")
	if err != nil {
		return false, err
	}

	vW := proof.BatchOpeningBeta.ClaimedValues[0]
	vZ := [3]fr.Element{
		proof.BatchOpeningBeta.ClaimedValues[1],
		proof.BatchOpeningBeta.ClaimedValues[2],
		proof.BatchOpeningBeta.ClaimedValues[3],
	}
	vG1 := proof.BatchOpeningBeta.ClaimedValues[4]
	vSG1 := proof.BatchOpeningBeta.ClaimedValues[5]
	vH1 := proof.BatchOpeningBeta.ClaimedValues[6]

	gammaVals := proof.BatchOpeningGamma.ClaimedValues
	// layout: rowA colA valA rowB colB valB rowC colC valC, then g/sg per
	// matrix, then h2
	vRow := [3]fr.Element{gammaVals[0], gammaVals[3], gammaVals[6]}
	vCol := [3]fr.Element{gammaVals[1], gammaVals[4], gammaVals[7]}
	vVal := [3]fr.Element{gammaVals[2], gammaVals[5], gammaVals[8]}
	vG := [3]fr.Element{gammaVals[9], gammaVals[11], gammaVals[13]}
	vSG := [3]fr.Element{gammaVals[10], gammaVals[12], gammaVals[14]}
	vH2 := gammaVals[15]

	// degree bound checks: a shifted opening must equal the plain opening
	// scaled by the point raised to the shift
	var shift, expect fr.Element
	shift.Exp(beta, new(big.Int).SetUint64(maxDegree-(h-2)))
	expect.Mul(&vG1, &shift)
	if !expect.Equal(&vSG1) {
		return false, nil
	}
	shift.Exp(gamma, new(big.Int).SetUint64(maxDegree-(k-2)))
	for m := 0; m < 3; m++ {
		expect.Mul(&vG[m], &shift)
		if !expect.Equal(&vSG[m]) {
			return false, nil
		}
	}

	// outer sumcheck at beta:
	// lambda*(za*zb - zc) + r(alpha,beta)*sum(eta*zm) - t(beta)*z(beta)
	//   == h1(beta)*vH(beta) + beta*g1(beta)
	vHAlpha := vanishingEval(&alpha, h)
	vHBeta := vanishingEval(&beta, h)
	vXBeta := vanishingEval(&beta, t)

	domainX, err := fft.NewDomain(t)
	if err != nil {
		return false, err
	}
	xHat, err := publicPolynomial(public, domainX)
	if err != nil {
		return false, err
	}
	xBeta := xHat.Eval(&beta)

	var zBeta fr.Element
	zBeta.Mul(&vW, &vXBeta)
	zBeta.Add(&zBeta, &xBeta)

	// r(alpha,beta) = (alpha^h - beta^h)/(alpha - beta)
	var rAlphaBeta, den fr.Element
	rAlphaBeta.Sub(&vHAlpha, &vHBeta)
	den.Sub(&alpha, &beta)
	den.Inverse(&den)
	rAlphaBeta.Mul(&rAlphaBeta, &den)

	// t(beta) is exactly the eta-weighted claimed sums
	var tBeta, tmp fr.Element
	for m := 0; m < 3; m++ {
		tmp.Mul(&eta[m], &proof.Sums[m])
		tBeta.Add(&tBeta, &tmp)
	}

	var lhs, rhs fr.Element
	lhs.Mul(&vZ[0], &vZ[1])
	lhs.Sub(&lhs, &vZ[2])
	lhs.Mul(&lhs, &lambda)
	var etaComb fr.Element
	for m := 0; m < 3; m++ {
		tmp.Mul(&eta[m], &vZ[m])
		etaComb.Add(&etaComb, &tmp)
	}
	tmp.Mul(&rAlphaBeta, &etaComb)
	lhs.Add(&lhs, &tmp)
	tmp.Mul(&tBeta, &zBeta)
	lhs.Sub(&lhs, &tmp)

	rhs.Mul(&vH1, &vHBeta)
	tmp.Mul(&beta, &vG1)
	rhs.Add(&rhs, &tmp)
	if !lhs.Equal(&rhs) {
		return false, nil
	}

	// inner sumcheck at gamma, batched over the three matrices:
	// sum_m delta_m*(vH(alpha)*vH(beta)*val_m
	//   - (alpha-row_m)*(beta-col_m)*(gamma*g_m + sigma_m/|K|))
	//   == h2(gamma)*vK(gamma)
	var vHAlphaBeta fr.Element
	vHAlphaBeta.Mul(&vHAlpha, &vHBeta)
	vKGamma := vanishingEval(&gamma, k)
	var kInv fr.Element
	kInv.SetUint64(k)
	kInv.Inverse(&kInv)

	var lhs2 fr.Element
	for m := 0; m < 3; m++ {
		var term, dr, dc, inner fr.Element
		term.Mul(&vHAlphaBeta, &vVal[m])
		dr.Sub(&alpha, &vRow[m])
		dc.Sub(&beta, &vCol[m])
		inner.Mul(&gamma, &vG[m])
		tmp.Mul(&proof.Sums[m], &kInv)
		inner.Add(&inner, &tmp)
		dr.Mul(&dr, &dc)
		dr.Mul(&dr, &inner)
		term.Sub(&term, &dr)
		term.Mul(&term, &delta[m])
		lhs2.Add(&lhs2, &term)
	}
	var rhs2 fr.Element
	rhs2.Mul(&vH2, &vKGamma)
	if !lhs2.Equal(&rhs2) {
		return false, nil
	}

	// fold the two batch openings and run one pairing check over both
	betaDigests := []kzg.Digest{proof.CommitmentW, proof.CommitmentZA, proof.CommitmentZB, proof.CommitmentZC, proof.CommitmentG1, proof.CommitmentG1Shifted, proof.CommitmentH1}
	foldedBeta, foldedBetaDigest, err := kzg.FoldProof(betaDigests, &proof.BatchOpeningBeta, beta)
	if err != nil {
		return false, err
	}

	gammaDigests := make([]kzg.Digest, 0, nbOpeningsGamma)
	gammaDigests = append(gammaDigests, vk.CommitmentsIndex[:]...)
	for m := 0; m < 3; m++ {
		gammaDigests = append(gammaDigests, proof.CommitmentG[m], proof.CommitmentGShifted[m])
	}
	gammaDigests = append(gammaDigests, proof.CommitmentH2)
	foldedGamma, foldedGammaDigest, err := kzg.FoldProof(gammaDigests, &proof.BatchOpeningGamma, gamma)
	if err != nil {
		return false, err
	}

	ok, err := kzg.BatchVerifyMultiPoints(
		[]kzg.Digest{foldedBetaDigest, foldedGammaDigest},
		[]kzg.OpeningProof{foldedBeta, foldedGamma},
		[]fr.Element{beta, gamma},
		&vk.Kzg,
		rng,
	)
	if err != nil {
		return false, err
	}

	log.Debug().Dur("took", time.Since(start)).Bool("accepted", ok).Msg("verifier done")
	return ok, nil
}
