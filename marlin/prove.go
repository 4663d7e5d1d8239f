package marlin

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/fft"
	"github.com/proofworks/gomarlin/fiatshamir"
	"github.com/proofworks/gomarlin/kzg"
	"github.com/proofworks/gomarlin/logger"
	"github.com/proofworks/gomarlin/polynomial"
)

// hidingBound covers the single opening each committed polynomial undergoes.
const hidingBound = 1

// Option configures a Prove or Verify call.
type Option func(*config)

// WithNbTasks bounds the number of goroutines used by the transforms.
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

func newConfig(opts ...Option) config {
	cfg := config{nbTasks: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Prove produces an argument that the prover knows secret completing public
// into a satisfying assignment of pk's constraint system. The assignment is
// checked first; an unsatisfying witness fails fast with
// ErrConstraintUnsatisfied. rng feeds the blinders that make the argument
// zero-knowledge.
func Prove(pk *ProvingKey, public, secret []fr.Element, rng io.Reader, opts ...Option) (*Proof, error) {
	log := logger.Logger().With().
		Str("curve", "bls12_377").
		Int("nbConstraints", pk.Ccs.NbConstraints()).
		Str("backend", "marlin").Logger()
	start := time.Now()

	cfg := newConfig(opts...)
	fopts := []fft.Option{fft.WithNbTasks(cfg.nbTasks)}

	z, err := pk.Ccs.FullAssignment(public, secret)
	if err != nil {
		return nil, err
	}
	if err := pk.Ccs.IsSatisfied(z); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstraintUnsatisfied, err)
	}

	idx := pk.idx
	h := idx.domainH.Cardinality
	k := idx.domainK.Cardinality
	t := idx.domainX.Cardinality
	stride := h / t
	maxDegree := idx.maxDegree
	nbPublicCol := uint64(1 + pk.Ccs.NbPublic)

	var proof Proof

	// round 1: place the assignment on H, extract the witness polynomial and
	// the three linear-map polynomials, blind them off H and commit.
	placed := make(polynomial.Polynomial, h)
	for v := uint64(0); v < uint64(len(z)); v++ {
		placed[variableSlot(v, nbPublicCol, stride)] = z[v]
	}
	zTilde, err := polynomial.Interpolate(placed, idx.domainH, fopts...)
	if err != nil {
		return nil, err
	}
	zTilde, err = blindOffDomain(zTilde, h, rng)
	if err != nil {
		return nil, err
	}

	xHat, err := publicPolynomial(public, idx.domainX)
	if err != nil {
		return nil, err
	}

	// w = (z - x) / (X^t - 1); exact since both agree on X
	var wNum polynomial.Polynomial
	wNum.Sub(zTilde, xHat)
	wPoly, _ := polynomial.DivByVanishing(wNum, t)

	zPolys := make([]polynomial.Polynomial, 3)
	for m := 0; m < 3; m++ {
		evals := make(polynomial.Polynomial, h)
		for i := range pk.Ccs.Constraints {
			c := &pk.Ccs.Constraints[i]
			switch m {
			case 0:
				evals[i] = c.L.Eval(z)
			case 1:
				evals[i] = c.R.Eval(z)
			case 2:
				evals[i] = c.O.Eval(z)
			}
		}
		p, err := polynomial.Interpolate(evals, idx.domainH, fopts...)
		if err != nil {
			return nil, err
		}
		if p, err = blindOffDomain(p, h, rng); err != nil {
			return nil, err
		}
		zPolys[m] = p
	}

	wBlinder, zBlinders := polynomial.Polynomial(nil), make([]polynomial.Polynomial, 3)
	if proof.CommitmentW, wBlinder, err = kzg.CommitHiding(wPoly, &pk.Kzg, hidingBound, rng); err != nil {
		return nil, err
	}
	for m, dst := range []*kzg.Digest{&proof.CommitmentZA, &proof.CommitmentZB, &proof.CommitmentZC} {
		if *dst, zBlinders[m], err = kzg.CommitHiding(zPolys[m], &pk.Kzg, hidingBound, rng); err != nil {
			return nil, err
		}
	}

	tr := fiatshamir.NewTranscript(challengeNames...)
	if err := bindRound1(tr, pk.Vk, public, &proof.CommitmentW, &proof.CommitmentZA, &proof.CommitmentZB, &proof.CommitmentZC); err != nil {
		return nil, err
	}
	alpha, err := tr.ComputeChallenge("alpha")
	if err != nil {
		return nil, err
	}
	var eta [3]fr.Element
	for i, name := range []string{"eta_a", "eta_b", "eta_c"} {
		if eta[i], err = tr.ComputeChallenge(name); err != nil {
			return nil, err
		}
	}
	lambda, err := tr.ComputeChallenge("lambda")
	if err != nil {
		return nil, err
	}

	// round 2: outer sumcheck. t(Y) aggregates the linear maps at alpha;
	// q1 = lambda*(za*zb - zc) + r(alpha,X)*sum(eta*zm) - t*z sums to zero
	// over H and splits as h1*(X^h - 1) + X*g1.
	omega := powerTable(idx.domainH)
	vHAlpha := vanishingEval(&alpha, h)

	rowDen := make([]fr.Element, h)
	for i := uint64(0); i < h; i++ {
		rowDen[i].Sub(&alpha, &omega[i])
	}
	rowDen = fr.BatchInvert(rowDen)

	tEvals := make(polynomial.Polynomial, h)
	var tmp fr.Element
	for m := 0; m < 3; m++ {
		for _, en := range idx.entries[m] {
			tmp.Mul(&eta[m], &en.Coeff)
			tmp.Mul(&tmp, &vHAlpha)
			tmp.Mul(&tmp, &rowDen[en.Row])
			tEvals[en.Col].Add(&tEvals[en.Col], &tmp)
		}
	}
	tPoly, err := polynomial.Interpolate(tEvals, idx.domainH, fopts...)
	if err != nil {
		return nil, err
	}

	// r(alpha, X) = (alpha^h - X^h)/(alpha - X) = sum alpha^(h-1-i) X^i
	rAlpha := make(polynomial.Polynomial, h)
	rAlpha[h-1].SetOne()
	for i := int(h) - 2; i >= 0; i-- {
		rAlpha[i].Mul(&rAlpha[i+1], &alpha)
	}

	zPoly := polynomial.Shift(wPoly, int(t))
	zPoly.Sub(zPoly, wPoly)
	zPoly.Add(zPoly, xHat)

	prodAB, err := polynomial.Mul(zPolys[0], zPolys[1], fopts...)
	if err != nil {
		return nil, err
	}
	var q1 polynomial.Polynomial
	q1.Sub(prodAB, zPolys[2])
	q1.Scale(&lambda)

	var comb polynomial.Polynomial
	for m := 0; m < 3; m++ {
		scaled := zPolys[m].Clone()
		scaled.Scale(&eta[m])
		comb.Add(comb, scaled)
	}
	rComb, err := polynomial.Mul(rAlpha, comb, fopts...)
	if err != nil {
		return nil, err
	}
	q1.Add(q1, rComb)

	tz, err := polynomial.Mul(tPoly, zPoly, fopts...)
	if err != nil {
		return nil, err
	}
	q1.Sub(q1, tz)

	h1Poly, rem := polynomial.DivByVanishing(q1, h)
	h1Poly = nonEmpty(h1Poly)
	g1Poly := nonEmpty(rem[1:]) // the constant term is zero: q1 sums to zero over H
	sg1Poly := polynomial.Shift(g1Poly, int(maxDegree-(h-2)))

	var g1Blinder, sg1Blinder, h1Blinder polynomial.Polynomial
	if proof.CommitmentG1, g1Blinder, err = kzg.CommitHiding(g1Poly, &pk.Kzg, hidingBound, rng); err != nil {
		return nil, err
	}
	if proof.CommitmentG1Shifted, sg1Blinder, err = kzg.CommitHiding(sg1Poly, &pk.Kzg, hidingBound, rng); err != nil {
		return nil, err
	}
	if proof.CommitmentH1, h1Blinder, err = kzg.CommitHiding(h1Poly, &pk.Kzg, hidingBound, rng); err != nil {
		return nil, err
	}

	if err := bindRound2(tr, &proof.CommitmentG1, &proof.CommitmentG1Shifted, &proof.CommitmentH1); err != nil {
		return nil, err
	}
	beta, err := tr.ComputeChallenge("beta")
	if err != nil {
		return nil, err
	}

	// round 3: inner sumcheck. For each matrix the sum sigma of
	// vH(alpha)*vH(beta)*val(kappa) / ((alpha-row(kappa))*(beta-col(kappa)))
	// over K is claimed, with f = X*g + sigma/|K| its decomposition.
	vHBeta := vanishingEval(&beta, h)
	var vHAlphaBeta fr.Element
	vHAlphaBeta.Mul(&vHAlpha, &vHBeta)
	kInv := idx.domainK.CardinalityInv

	gPolys := make([]polynomial.Polynomial, 3)
	sgPolys := make([]polynomial.Polynomial, 3)
	for m := 0; m < 3; m++ {
		den := make([]fr.Element, k)
		var one fr.Element
		one.SetOne()
		for e := uint64(0); e < k; e++ {
			row, col := &one, &one
			if e < uint64(len(idx.entries[m])) {
				row = &omega[idx.entries[m][e].Row]
				col = &omega[idx.entries[m][e].Col]
			}
			var dr, dc fr.Element
			dr.Sub(&alpha, row)
			dc.Sub(&beta, col)
			den[e].Mul(&dr, &dc)
		}
		den = fr.BatchInvert(den)

		fEvals := make(polynomial.Polynomial, k)
		var sigma fr.Element
		for e := uint64(0); e < uint64(len(idx.entries[m])); e++ {
			en := &idx.entries[m][e]
			fEvals[e].Mul(&en.Coeff, &omega[en.Col])
			fEvals[e].Mul(&fEvals[e], &idx.domainH.CardinalityInv)
			fEvals[e].Mul(&fEvals[e], &vHAlphaBeta)
			fEvals[e].Mul(&fEvals[e], &den[e])
			sigma.Add(&sigma, &fEvals[e])
		}
		proof.Sums[m] = sigma

		fHat, err := polynomial.Interpolate(fEvals, idx.domainK, fopts...)
		if err != nil {
			return nil, err
		}
		gPolys[m] = nonEmpty(fHat[1:])
		sgPolys[m] = polynomial.Shift(gPolys[m], int(maxDegree-(k-2)))
	}

	gBlinders := make([]polynomial.Polynomial, 3)
	sgBlinders := make([]polynomial.Polynomial, 3)
	for m := 0; m < 3; m++ {
		if proof.CommitmentG[m], gBlinders[m], err = kzg.CommitHiding(gPolys[m], &pk.Kzg, hidingBound, rng); err != nil {
			return nil, err
		}
		if proof.CommitmentGShifted[m], sgBlinders[m], err = kzg.CommitHiding(sgPolys[m], &pk.Kzg, hidingBound, rng); err != nil {
			return nil, err
		}
	}

	// h2 is a function of the batching challenges, so it cannot be bound to
	// them; it is bound to gamma below instead.
	var delta [3]fr.Element
	if err := bindRound3(tr, &proof.Sums, &proof.CommitmentG, &proof.CommitmentGShifted); err != nil {
		return nil, err
	}
	for i, name := range []string{"delta_a", "delta_b", "delta_c"} {
		if delta[i], err = tr.ComputeChallenge(name); err != nil {
			return nil, err
		}
	}

	var p2 polynomial.Polynomial
	for m := 0; m < 3; m++ {
		alphaMinusRow := idx.polys[3*m].Clone()
		for i := range alphaMinusRow {
			alphaMinusRow[i].Neg(&alphaMinusRow[i])
		}
		alphaMinusRow[0].Add(&alphaMinusRow[0], &alpha)

		betaMinusCol := idx.polys[3*m+1].Clone()
		for i := range betaMinusCol {
			betaMinusCol[i].Neg(&betaMinusCol[i])
		}
		betaMinusCol[0].Add(&betaMinusCol[0], &beta)

		inner := polynomial.Shift(gPolys[m], 1)
		inner[0].Mul(&proof.Sums[m], &kInv)

		prod, err := polynomial.Mul(alphaMinusRow, betaMinusCol, fopts...)
		if err != nil {
			return nil, err
		}
		if prod, err = polynomial.Mul(prod, inner, fopts...); err != nil {
			return nil, err
		}

		pm := idx.polys[3*m+2].Clone()
		pm.Scale(&vHAlphaBeta)
		var diff polynomial.Polynomial
		diff.Sub(pm, prod)
		diff.Scale(&delta[m])
		p2.Add(p2, diff)
	}
	h2Poly, _ := polynomial.DivByVanishing(p2, k)
	h2Poly = nonEmpty(h2Poly)

	var h2Blinder polynomial.Polynomial
	if proof.CommitmentH2, h2Blinder, err = kzg.CommitHiding(h2Poly, &pk.Kzg, hidingBound, rng); err != nil {
		return nil, err
	}
	if err := tr.BindPoint("gamma", &proof.CommitmentH2); err != nil {
		return nil, err
	}
	gamma, err := tr.ComputeChallenge("gamma")
	if err != nil {
		return nil, err
	}

	// openings: first-round and outer polynomials at beta, index and inner
	// polynomials at gamma
	betaPolys := []polynomial.Polynomial{wPoly, zPolys[0], zPolys[1], zPolys[2], g1Poly, sg1Poly, h1Poly}
	betaDigests := []kzg.Digest{proof.CommitmentW, proof.CommitmentZA, proof.CommitmentZB, proof.CommitmentZC, proof.CommitmentG1, proof.CommitmentG1Shifted, proof.CommitmentH1}
	betaBlinders := []polynomial.Polynomial{wBlinder, zBlinders[0], zBlinders[1], zBlinders[2], g1Blinder, sg1Blinder, h1Blinder}
	if proof.BatchOpeningBeta, err = kzg.BatchOpenSinglePoint(betaPolys, betaDigests, beta, betaBlinders, &pk.Kzg); err != nil {
		return nil, err
	}

	gammaPolys := make([]polynomial.Polynomial, 0, nbOpeningsGamma)
	gammaDigests := make([]kzg.Digest, 0, nbOpeningsGamma)
	gammaBlinders := make([]polynomial.Polynomial, 0, nbOpeningsGamma)
	for i := 0; i < 9; i++ {
		gammaPolys = append(gammaPolys, idx.polys[i])
		gammaDigests = append(gammaDigests, pk.Vk.CommitmentsIndex[i])
		gammaBlinders = append(gammaBlinders, nil)
	}
	for m := 0; m < 3; m++ {
		gammaPolys = append(gammaPolys, gPolys[m], sgPolys[m])
		gammaDigests = append(gammaDigests, proof.CommitmentG[m], proof.CommitmentGShifted[m])
		gammaBlinders = append(gammaBlinders, gBlinders[m], sgBlinders[m])
	}
	gammaPolys = append(gammaPolys, h2Poly)
	gammaDigests = append(gammaDigests, proof.CommitmentH2)
	gammaBlinders = append(gammaBlinders, h2Blinder)
	if proof.BatchOpeningGamma, err = kzg.BatchOpenSinglePoint(gammaPolys, gammaDigests, gamma, gammaBlinders, &pk.Kzg); err != nil {
		return nil, err
	}

	log.Debug().Dur("took", time.Since(start)).Msg("prover done")
	return &proof, nil
}

// blindOffDomain adds (X^n - 1) times a fresh degree-one polynomial to p,
// leaving its values on the size-n domain unchanged.
func blindOffDomain(p polynomial.Polynomial, n uint64, rng io.Reader) (polynomial.Polynomial, error) {
	need := int(n) + 2
	res := p.Clone()
	if len(res) < need {
		res = append(res, make(polynomial.Polynomial, need-len(res))...)
	}
	var buf [64]byte
	for i := 0; i < 2; i++ {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, err
		}
		var rho fr.Element
		rho.SetBytes(buf[:])
		res[i].Sub(&res[i], &rho)
		res[int(n)+i].Add(&res[int(n)+i], &rho)
	}
	return res, nil
}

func nonEmpty(p polynomial.Polynomial) polynomial.Polynomial {
	if len(p) == 0 {
		return make(polynomial.Polynomial, 1)
	}
	return p
}
