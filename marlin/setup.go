package marlin

import (
	"sort"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"golang.org/x/sync/errgroup"

	"github.com/proofworks/gomarlin/fft"
	"github.com/proofworks/gomarlin/kzg"
	"github.com/proofworks/gomarlin/logger"
	"github.com/proofworks/gomarlin/polynomial"
	"github.com/proofworks/gomarlin/r1cs"
)

// Setup preprocesses a constraint system against a universal SRS, committing
// to the nine index polynomials. The SRS must support the circuit's maximum
// degree; the same SRS can index any circuit that fits.
func Setup(ccs *r1cs.System, srs *kzg.SRS) (*ProvingKey, *VerifyingKey, error) {
	log := logger.Logger().With().
		Str("curve", "bls12_377").
		Int("nbConstraints", ccs.NbConstraints()).
		Str("backend", "marlin").Logger()
	start := time.Now()

	idx, err := buildIndex(ccs)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(srs.Pk.G1)) < idx.maxDegree+1 {
		return nil, nil, ErrSRSTooSmall
	}

	vk := &VerifyingKey{
		SizeH:     idx.domainH.Cardinality,
		SizeK:     idx.domainK.Cardinality,
		SizeX:     idx.domainX.Cardinality,
		MaxDegree: idx.maxDegree,
		NbPublic:  uint64(ccs.NbPublic),
		Kzg:       srs.Vk,
	}

	var g errgroup.Group
	for i := range idx.polys {
		i := i
		g.Go(func() error {
			d, err := kzg.Commit(idx.polys[i], &srs.Pk)
			if err != nil {
				return err
			}
			vk.CommitmentsIndex[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	pk := &ProvingKey{
		Vk:  vk,
		Kzg: srs.Pk,
		Ccs: ccs,
		idx: idx,
	}

	log.Debug().Dur("took", time.Since(start)).Msg("circuit indexed")
	return pk, vk, nil
}

// buildIndex derives the domain geometry of ccs, coalesces the three
// matrices and interpolates their row, col, val polynomials over K.
func buildIndex(ccs *r1cs.System) (*index, error) {
	nbPublicCol := uint64(1 + ccs.NbPublic)
	nbSecret := uint64(ccs.NbSecret)

	// X holds the constant one and the public inputs; H must leave enough
	// slots between consecutive X elements for the secret variables.
	t := ecc.NextPowerOfTwo(nbPublicCol)
	h := ecc.NextPowerOfTwo(uint64(ccs.NbConstraints()))
	if h < 2 {
		h = 2
	}
	if h < t {
		h = t
	}
	if nbSecret > 0 && h == t {
		h *= 2
	}
	for h-t < nbSecret {
		h *= 2
	}
	stride := h / t

	var idx index
	var err error
	if idx.domainH, err = fft.NewDomain(h); err != nil {
		return nil, err
	}
	if idx.domainX, err = fft.NewDomain(t); err != nil {
		return nil, err
	}

	// coalesce repeated (row, variable) pairs, drop zeros, place columns
	nnzMax := uint64(2)
	for m, pick := range [3]func(*r1cs.Constraint) r1cs.LinearCombination{
		func(c *r1cs.Constraint) r1cs.LinearCombination { return c.L },
		func(c *r1cs.Constraint) r1cs.LinearCombination { return c.R },
		func(c *r1cs.Constraint) r1cs.LinearCombination { return c.O },
	} {
		coeffs := make(map[[2]uint64]fr.Element)
		for i := range ccs.Constraints {
			row := uint64(i)
			for _, term := range pick(&ccs.Constraints[i]) {
				key := [2]uint64{row, term.VariableID}
				c := coeffs[key]
				c.Add(&c, &term.Coeff)
				coeffs[key] = c
			}
		}
		entries := make([]matrixEntry, 0, len(coeffs))
		for key, c := range coeffs {
			if c.IsZero() {
				continue
			}
			entries = append(entries, matrixEntry{
				Row:   key[0],
				Col:   variableSlot(key[1], nbPublicCol, stride),
				Coeff: c,
			})
		}
		sort.Slice(entries, func(a, b int) bool {
			if entries[a].Row != entries[b].Row {
				return entries[a].Row < entries[b].Row
			}
			return entries[a].Col < entries[b].Col
		})
		idx.entries[m] = entries
		if n := uint64(len(entries)); n > nnzMax {
			nnzMax = n
		}
	}

	k := ecc.NextPowerOfTwo(nnzMax)
	if idx.domainK, err = fft.NewDomain(k); err != nil {
		return nil, err
	}

	idx.maxDegree = h + t + 2
	if 2*k > idx.maxDegree {
		idx.maxDegree = 2 * k
	}

	// row, col, val evaluations over K; val is normalized by col/|H| so the
	// bivariate sum representation matches the linear maps. Unused slots get
	// (1, 1, 0), which contributes nothing.
	omega := powerTable(idx.domainH)
	hInv := idx.domainH.CardinalityInv
	for m := 0; m < 3; m++ {
		rowEv := make(polynomial.Polynomial, k)
		colEv := make(polynomial.Polynomial, k)
		valEv := make(polynomial.Polynomial, k)
		for e := uint64(0); e < k; e++ {
			if e < uint64(len(idx.entries[m])) {
				en := &idx.entries[m][e]
				rowEv[e] = omega[en.Row]
				colEv[e] = omega[en.Col]
				valEv[e].Mul(&en.Coeff, &colEv[e])
				valEv[e].Mul(&valEv[e], &hInv)
			} else {
				rowEv[e].SetOne()
				colEv[e].SetOne()
			}
		}
		for j, ev := range []polynomial.Polynomial{rowEv, colEv, valEv} {
			p, err := polynomial.Interpolate(ev, idx.domainK)
			if err != nil {
				return nil, err
			}
			idx.polys[3*m+j] = p
		}
	}

	return &idx, nil
}

// powerTable returns the powers of the domain generator, one per element.
func powerTable(d *fft.Domain) []fr.Element {
	res := make([]fr.Element, d.Cardinality)
	res[0].SetOne()
	for i := uint64(1); i < d.Cardinality; i++ {
		res[i].Mul(&res[i-1], &d.Generator)
	}
	return res
}
