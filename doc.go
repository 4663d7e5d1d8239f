// Package gomarlin implements the proving pipeline of a preprocessing zkSNARK:
// finite-field FFTs, multi-scalar multiplication, a KZG polynomial commitment
// scheme with hiding commitments, and a Marlin-style holographic proof system
// over R1CS.
//
// The algebraic primitives (field, curve, pairing) are consumed from
// gnark-crypto; the engine is instantiated over BLS12-377.
//
// Typical use:
//
//	srs, _ := kzg.NewSRS(size, rand.Reader)
//	pk, vk, _ := marlin.Setup(cs, srs)
//	proof, _ := marlin.Prove(pk, public, secret, rand.Reader)
//	ok, _ := marlin.Verify(proof, vk, public, rand.Reader)
package gomarlin

import (
	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
)

// Version of the library.
var Version = semver.MustParse("0.1.0")

// Curve returns the curve the engine is instantiated over.
func Curve() ecc.ID {
	return ecc.BLS12_377
}
