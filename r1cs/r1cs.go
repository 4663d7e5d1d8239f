// Package r1cs describes rank-1 constraint systems in sparse form. A
// constraint ⟨L,z⟩·⟨R,z⟩ = ⟨O,z⟩ relates three linear combinations over the
// full assignment z = (1, public..., secret...); variable 0 is pinned to the
// constant one.
package r1cs

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

var (
	ErrInvalidVariable       = errors.New("r1cs: term references a variable outside the system")
	ErrInvalidWitnessSize    = errors.New("r1cs: assignment size does not match the system")
	ErrUnsatisfiedConstraint = errors.New("r1cs: unsatisfied constraint")
	ErrUnconstrainedVariable = errors.New("r1cs: secret variable appears in no constraint")
)

// Term is coeff·z[VariableID].
type Term struct {
	VariableID uint64
	Coeff      fr.Element
}

// LinearCombination is a sparse vector of terms; ids need not be sorted and
// may repeat, repeated ids add up.
type LinearCombination []Term

// Constraint is L·R = O.
type Constraint struct {
	L, R, O LinearCombination
}

// System is a sparse R1CS over the BLS12-377 scalar field.
type System struct {
	// NbPublic counts the public inputs, excluding the constant one.
	NbPublic int
	NbSecret int

	Constraints []Constraint
}

// NewSystem returns an empty system with the given variable counts.
func NewSystem(nbPublic, nbSecret int) *System {
	return &System{NbPublic: nbPublic, NbSecret: nbSecret}
}

// NbVariables returns the full assignment length, constant included.
func (s *System) NbVariables() int {
	return 1 + s.NbPublic + s.NbSecret
}

// NbConstraints returns the number of constraints.
func (s *System) NbConstraints() int {
	return len(s.Constraints)
}

// NewTerm builds a term from a variable id and a coefficient.
func NewTerm(variableID uint64, coeff fr.Element) Term {
	return Term{VariableID: variableID, Coeff: coeff}
}

// OneTerm builds a term with coefficient one.
func OneTerm(variableID uint64) Term {
	var one fr.Element
	one.SetOne()
	return Term{VariableID: variableID, Coeff: one}
}

// AddConstraint appends a constraint and returns its index. Terms must
// reference variables of the system.
func (s *System) AddConstraint(c Constraint) (int, error) {
	n := uint64(s.NbVariables())
	for _, lc := range []LinearCombination{c.L, c.R, c.O} {
		for _, t := range lc {
			if t.VariableID >= n {
				return -1, fmt.Errorf("%w: id %d, system has %d variables", ErrInvalidVariable, t.VariableID, n)
			}
		}
	}
	s.Constraints = append(s.Constraints, c)
	return len(s.Constraints) - 1, nil
}

// Eval computes ⟨lc, z⟩.
func (lc LinearCombination) Eval(z []fr.Element) fr.Element {
	var res, tmp fr.Element
	for _, t := range lc {
		tmp.Mul(&t.Coeff, &z[t.VariableID])
		res.Add(&res, &tmp)
	}
	return res
}

// FullAssignment assembles z = (1, public..., secret...).
func (s *System) FullAssignment(public, secret []fr.Element) ([]fr.Element, error) {
	if len(public) != s.NbPublic || len(secret) != s.NbSecret {
		return nil, fmt.Errorf("%w: got %d public, %d secret, want %d and %d",
			ErrInvalidWitnessSize, len(public), len(secret), s.NbPublic, s.NbSecret)
	}
	z := make([]fr.Element, s.NbVariables())
	z[0].SetOne()
	copy(z[1:], public)
	copy(z[1+s.NbPublic:], secret)
	return z, nil
}

// IsSatisfied checks every constraint against the full assignment z.
func (s *System) IsSatisfied(z []fr.Element) error {
	if len(z) != s.NbVariables() {
		return ErrInvalidWitnessSize
	}
	var one fr.Element
	one.SetOne()
	if !z[0].Equal(&one) {
		return fmt.Errorf("%w: z[0] must be one", ErrInvalidWitnessSize)
	}
	for i, c := range s.Constraints {
		l := c.L.Eval(z)
		r := c.R.Eval(z)
		o := c.O.Eval(z)
		l.Mul(&l, &r)
		if !l.Equal(&o) {
			return fmt.Errorf("%w: constraint %d", ErrUnsatisfiedConstraint, i)
		}
	}
	return nil
}

// Validate checks structural sanity: every term references a variable of the
// system, and every secret variable is constrained. Run after deserializing
// a system from an untrusted source.
func (s *System) Validate() error {
	if s.NbPublic < 0 || s.NbSecret < 0 {
		return ErrInvalidWitnessSize
	}
	n := uint64(s.NbVariables())
	seen := bitset.New(uint(n))
	for i, c := range s.Constraints {
		for _, lc := range []LinearCombination{c.L, c.R, c.O} {
			for _, t := range lc {
				if t.VariableID >= n {
					return fmt.Errorf("%w: constraint %d references id %d", ErrInvalidVariable, i, t.VariableID)
				}
				seen.Set(uint(t.VariableID))
			}
		}
	}
	for v := uint(1 + s.NbPublic); v < uint(n); v++ {
		if !seen.Test(v) {
			return fmt.Errorf("%w: variable %d", ErrUnconstrainedVariable, v)
		}
	}
	return nil
}
