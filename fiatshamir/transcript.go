package fiatshamir

import (
	"errors"
	"hash"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
)

var (
	errChallengeNotFound            = errors.New("challenge not recorded in the transcript")
	errChallengeAlreadyComputed     = errors.New("challenge already computed, cannot be binded to other values")
	errPreviousChallengeNotComputed = errors.New("the previous challenge is needed and has not been computed")
)

// Transcript handles the creation of challenges for the Fiat-Shamir
// transform, in a fixed order given at construction. A challenge binds the
// previous challenge, its own name and the values bound to it.
type Transcript struct {
	h          hash.Hash
	challenges map[string]*challenge
	previous   *challenge
}

type challenge struct {
	position   int
	blocks     [][fr.Bytes]byte
	value      fr.Element
	isComputed bool
}

// NewTranscript returns a transcript expecting the given challenges, in
// order. Challenge names must be shorter than fr.Bytes bytes.
func NewTranscript(challengeIDs ...string) *Transcript {
	t := &Transcript{
		h:          mimc.NewMiMC(),
		challenges: make(map[string]*challenge, len(challengeIDs)),
	}
	for i, id := range challengeIDs {
		t.challenges[id] = &challenge{position: i}
	}
	return t
}

// Bind binds a field element to a challenge. A challenge can be bound to an
// arbitrary number of values, but once computed it cannot be bound anymore.
func (t *Transcript) Bind(challengeID string, value *fr.Element) error {
	c, ok := t.challenges[challengeID]
	if !ok {
		return errChallengeNotFound
	}
	if c.isComputed {
		return errChallengeAlreadyComputed
	}
	c.blocks = append(c.blocks, value.Bytes())
	return nil
}

// BindPoint binds a G1 point to a challenge, split into two half-width
// blocks as in Sponge.AbsorbPoint.
func (t *Transcript) BindPoint(challengeID string, p *bls12377.G1Affine) error {
	c, ok := t.challenges[challengeID]
	if !ok {
		return errChallengeNotFound
	}
	if c.isComputed {
		return errChallengeAlreadyComputed
	}
	b := p.Bytes()
	var lo, hi [fr.Bytes]byte
	copy(hi[fr.Bytes-len(b)/2:], b[:len(b)/2])
	copy(lo[fr.Bytes-len(b)/2:], b[len(b)/2:])
	c.blocks = append(c.blocks, hi, lo)
	return nil
}

// ComputeChallenge computes the challenge corresponding to the given name.
// The resulting value is H(previous || name || bindings); the first challenge
// has no predecessor. Once computed, a challenge keeps its value.
func (t *Transcript) ComputeChallenge(challengeID string) (fr.Element, error) {
	var res fr.Element
	c, ok := t.challenges[challengeID]
	if !ok {
		return res, errChallengeNotFound
	}
	if c.isComputed {
		return c.value, nil
	}

	t.h.Reset()
	defer t.h.Reset()

	if c.position != 0 {
		if t.previous == nil || t.previous.position != c.position-1 {
			return res, errPreviousChallengeNotComputed
		}
		prev := t.previous.value.Bytes()
		t.h.Write(prev[:]) //nolint:errcheck
	}

	var name [fr.Bytes]byte
	copy(name[fr.Bytes-len(challengeID):], challengeID)
	t.h.Write(name[:]) //nolint:errcheck

	for i := range c.blocks {
		t.h.Write(c.blocks[i][:]) //nolint:errcheck
	}

	res.SetBytes(t.h.Sum(nil))
	c.value = res
	c.isComputed = true
	t.previous = c
	return res, nil
}
