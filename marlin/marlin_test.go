package marlin

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/proofworks/gomarlin/kzg"
	"github.com/proofworks/gomarlin/r1cs"
)

const testSRSSize = 256

func testSRS(t *testing.T) *kzg.SRS {
	t.Helper()
	srs, err := kzg.NewSRSFromSeed(testSRSSize, []byte("marlin test srs"))
	require.NoError(t, err)
	return srs
}

// mulCircuit is a*b = c with public c and secret a, b.
func mulCircuit(t *testing.T) *r1cs.System {
	t.Helper()
	ccs := r1cs.NewSystem(1, 2)
	_, err := ccs.AddConstraint(r1cs.Constraint{
		L: r1cs.LinearCombination{r1cs.OneTerm(2)},
		R: r1cs.LinearCombination{r1cs.OneTerm(3)},
		O: r1cs.LinearCombination{r1cs.OneTerm(1)},
	})
	require.NoError(t, err)
	return ccs
}

// powerCircuit proves knowledge of x with x^8 = y: three squarings with
// intermediate secret variables.
func powerCircuit(t *testing.T) *r1cs.System {
	t.Helper()
	// variables: 0=one, 1=y (public), 2=x, 3=x^2, 4=x^4
	ccs := r1cs.NewSystem(1, 3)
	for _, c := range []r1cs.Constraint{
		{L: r1cs.LinearCombination{r1cs.OneTerm(2)}, R: r1cs.LinearCombination{r1cs.OneTerm(2)}, O: r1cs.LinearCombination{r1cs.OneTerm(3)}},
		{L: r1cs.LinearCombination{r1cs.OneTerm(3)}, R: r1cs.LinearCombination{r1cs.OneTerm(3)}, O: r1cs.LinearCombination{r1cs.OneTerm(4)}},
		{L: r1cs.LinearCombination{r1cs.OneTerm(4)}, R: r1cs.LinearCombination{r1cs.OneTerm(4)}, O: r1cs.LinearCombination{r1cs.OneTerm(1)}},
	} {
		_, err := ccs.AddConstraint(c)
		require.NoError(t, err)
	}
	return ccs
}

func elems(vs ...uint64) []fr.Element {
	res := make([]fr.Element, len(vs))
	for i, v := range vs {
		res[i].SetUint64(v)
	}
	return res
}

func TestProveVerify(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	proof, err := Prove(pk, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)

	ok, err := Verify(proof, vk, elems(12), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestProveVerifyPowerCircuit(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(powerCircuit(t), srs)
	require.NoError(t, err)

	// 3^8 = 6561
	proof, err := Prove(pk, elems(6561), elems(3, 9, 81), rand.Reader)
	require.NoError(t, err)

	ok, err := Verify(proof, vk, elems(6561), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify(proof, vk, elems(6562), rand.Reader)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProveUnsatisfiedWitness(t *testing.T) {
	srs := testSRS(t)
	pk, _, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	_, err = Prove(pk, elems(12), elems(3, 5), rand.Reader)
	require.ErrorIs(t, err, ErrConstraintUnsatisfied)
}

func TestVerifyWrongPublicInput(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	proof, err := Prove(pk, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)

	ok, err := Verify(proof, vk, elems(13), rand.Reader)
	require.NoError(t, err)
	require.False(t, ok)

	// wrong number of public inputs is structural, not a reject
	_, err = Verify(proof, vk, elems(12, 1), rand.Reader)
	require.ErrorIs(t, err, r1cs.ErrInvalidWitnessSize)
}

func TestVerifyTamperedProof(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	proof, err := Prove(pk, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)

	tampered := *proof
	var one fr.Element
	one.SetOne()
	tampered.Sums[0].Add(&tampered.Sums[0], &one)
	ok, err := Verify(&tampered, vk, elems(12), rand.Reader)
	require.NoError(t, err)
	require.False(t, ok)

	tampered = *proof
	tampered.CommitmentZA = proof.CommitmentZB
	ok, err = Verify(&tampered, vk, elems(12), rand.Reader)
	require.NoError(t, err)
	require.False(t, ok)

	tampered = *proof
	tampered.BatchOpeningBeta.ClaimedValues = tampered.BatchOpeningBeta.ClaimedValues[:3]
	_, err = Verify(&tampered, vk, elems(12), rand.Reader)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestSetupSRSTooSmall(t *testing.T) {
	srs, err := kzg.NewSRSFromSeed(4, []byte("tiny srs"))
	require.NoError(t, err)

	_, _, err = Setup(mulCircuit(t), srs)
	require.ErrorIs(t, err, ErrSRSTooSmall)
}

func TestProofSerialization(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	proof, err := Prove(pk, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := proof.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var back Proof
	read, err := back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, written, read)

	ok, err := Verify(&back, vk, elems(12), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)

	var truncated Proof
	_, err = truncated.ReadFrom(bytes.NewReader(buf.Bytes()[:buf.Len()/3]))
	require.Error(t, err)
}

func TestVerifyingKeySerialization(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := vk.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var back VerifyingKey
	read, err := back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, written, read)

	proof, err := Prove(pk, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)
	ok, err := Verify(proof, &back, elems(12), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestProvingKeySerialization(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(mulCircuit(t), srs)
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := pk.WriteTo(&buf)
	require.NoError(t, err)

	var back ProvingKey
	read, err := back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, written, read)

	proof, err := Prove(&back, elems(12), elems(3, 4), rand.Reader)
	require.NoError(t, err)
	ok, err := Verify(proof, vk, elems(12), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestProveWithNbTasks(t *testing.T) {
	srs := testSRS(t)
	pk, vk, err := Setup(powerCircuit(t), srs)
	require.NoError(t, err)

	proof, err := Prove(pk, elems(6561), elems(3, 9, 81), rand.Reader, WithNbTasks(1))
	require.NoError(t, err)
	ok, err := Verify(proof, vk, elems(6561), rand.Reader)
	require.NoError(t, err)
	require.True(t, ok)
}
