// Package fiatshamir derives verifier challenges from a transcript of prover
// messages, replacing interaction with a MiMC sponge over the BLS12-377
// scalar field.
package fiatshamir

import (
	"hash"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
)

// Sponge absorbs field elements and curve points and squeezes challenges.
// Squeezing chains the digest back into the state, so successive squeezes
// without new absorptions yield distinct values.
type Sponge struct {
	h hash.Hash
}

// NewSponge returns an empty sponge.
func NewSponge() *Sponge {
	return &Sponge{h: mimc.NewMiMC()}
}

// Absorb adds a field element to the state.
func (s *Sponge) Absorb(e *fr.Element) {
	b := e.Bytes()
	s.h.Write(b[:]) //nolint:errcheck // canonical field encoding
}

// AbsorbPoint adds a G1 point to the state. The compressed encoding is split
// into two half-width blocks so each block is a canonical field encoding.
func (s *Sponge) AbsorbPoint(p *bls12377.G1Affine) {
	b := p.Bytes()
	var buf [fr.Bytes]byte
	copy(buf[fr.Bytes-len(b)/2:], b[:len(b)/2])
	s.h.Write(buf[:]) //nolint:errcheck
	copy(buf[fr.Bytes-len(b)/2:], b[len(b)/2:])
	s.h.Write(buf[:]) //nolint:errcheck
}

// Squeeze produces one challenge and folds the digest back into the state.
func (s *Sponge) Squeeze() fr.Element {
	d := s.h.Sum(nil)
	var e fr.Element
	e.SetBytes(d)
	s.h.Reset()
	s.h.Write(d) //nolint:errcheck // digest is a canonical field encoding
	return e
}
