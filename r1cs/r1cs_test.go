package r1cs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// mulSystem builds the circuit a*b = c with public c and secret a, b.
func mulSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem(1, 2)
	_, err := s.AddConstraint(Constraint{
		L: LinearCombination{OneTerm(2)},
		R: LinearCombination{OneTerm(3)},
		O: LinearCombination{OneTerm(1)},
	})
	require.NoError(t, err)
	return s
}

func elems(vs ...uint64) []fr.Element {
	res := make([]fr.Element, len(vs))
	for i, v := range vs {
		res[i].SetUint64(v)
	}
	return res
}

func TestSystemSatisfied(t *testing.T) {
	s := mulSystem(t)

	z, err := s.FullAssignment(elems(12), elems(3, 4))
	require.NoError(t, err)
	require.NoError(t, s.IsSatisfied(z))
}

func TestSystemUnsatisfied(t *testing.T) {
	s := mulSystem(t)

	z, err := s.FullAssignment(elems(12), elems(3, 5))
	require.NoError(t, err)
	require.ErrorIs(t, s.IsSatisfied(z), ErrUnsatisfiedConstraint)
}

func TestSystemAssignmentSize(t *testing.T) {
	s := mulSystem(t)

	_, err := s.FullAssignment(elems(12, 1), elems(3, 4))
	require.ErrorIs(t, err, ErrInvalidWitnessSize)
	_, err = s.FullAssignment(elems(12), elems(3))
	require.ErrorIs(t, err, ErrInvalidWitnessSize)
}

func TestSystemConstantOne(t *testing.T) {
	s := mulSystem(t)

	z, err := s.FullAssignment(elems(12), elems(3, 4))
	require.NoError(t, err)
	z[0].SetUint64(2)
	require.ErrorIs(t, s.IsSatisfied(z), ErrInvalidWitnessSize)
}

func TestAddConstraintRange(t *testing.T) {
	s := NewSystem(1, 1)
	_, err := s.AddConstraint(Constraint{
		L: LinearCombination{OneTerm(7)},
	})
	require.ErrorIs(t, err, ErrInvalidVariable)
}

func TestValidate(t *testing.T) {
	s := mulSystem(t)
	require.NoError(t, s.Validate())

	// secret variable 3 no longer referenced
	s2 := NewSystem(1, 2)
	_, err := s2.AddConstraint(Constraint{
		L: LinearCombination{OneTerm(2)},
		R: LinearCombination{OneTerm(2)},
		O: LinearCombination{OneTerm(1)},
	})
	require.NoError(t, err)
	require.ErrorIs(t, s2.Validate(), ErrUnconstrainedVariable)

	// out-of-range id injected behind the builder's back
	s3 := mulSystem(t)
	s3.Constraints[0].O[0].VariableID = 99
	require.ErrorIs(t, s3.Validate(), ErrInvalidVariable)
}

func TestLinearCombinationRepeatedIDs(t *testing.T) {
	var two fr.Element
	two.SetUint64(2)
	lc := LinearCombination{OneTerm(1), NewTerm(1, two)}
	z := elems(1, 5)
	v := lc.Eval(z)
	var want fr.Element
	want.SetUint64(15)
	require.True(t, v.Equal(&want))
}

func TestSystemSerialization(t *testing.T) {
	s := mulSystem(t)

	var buf bytes.Buffer
	written, err := s.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var back System
	read, err := back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, written, read)
	require.Equal(t, s.NbPublic, back.NbPublic)
	require.Equal(t, s.NbSecret, back.NbSecret)
	require.Equal(t, len(s.Constraints), len(back.Constraints))

	z, err := back.FullAssignment(elems(12), elems(3, 4))
	require.NoError(t, err)
	require.NoError(t, back.IsSatisfied(z))

	var truncated System
	_, err = truncated.ReadFrom(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	require.Error(t, err)
}
