package marlin

import (
	"encoding/binary"
	"errors"
	"io"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"

	"github.com/proofworks/gomarlin/r1cs"
)

var errKeyMismatch = errors.New("marlin: verifying key does not match the constraint system")

// WriteTo writes binary encoding of the proof.
func (proof *Proof) WriteTo(w io.Writer) (int64, error) {
	enc := bls12377.NewEncoder(w)
	toEncode := []interface{}{
		&proof.CommitmentW,
		&proof.CommitmentZA,
		&proof.CommitmentZB,
		&proof.CommitmentZC,
		&proof.CommitmentG1,
		&proof.CommitmentG1Shifted,
		&proof.CommitmentH1,
		&proof.Sums[0],
		&proof.Sums[1],
		&proof.Sums[2],
		&proof.CommitmentG[0],
		&proof.CommitmentG[1],
		&proof.CommitmentG[2],
		&proof.CommitmentGShifted[0],
		&proof.CommitmentGShifted[1],
		&proof.CommitmentGShifted[2],
		&proof.CommitmentH2,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	n := enc.BytesWritten()
	m, err := proof.BatchOpeningBeta.WriteTo(w)
	n += m
	if err != nil {
		return n, err
	}
	m, err = proof.BatchOpeningGamma.WriteTo(w)
	return n + m, err
}

// ReadFrom reads a proof; points are checked to be in the correct subgroup.
func (proof *Proof) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12377.NewDecoder(r)
	toDecode := []interface{}{
		&proof.CommitmentW,
		&proof.CommitmentZA,
		&proof.CommitmentZB,
		&proof.CommitmentZC,
		&proof.CommitmentG1,
		&proof.CommitmentG1Shifted,
		&proof.CommitmentH1,
		&proof.Sums[0],
		&proof.Sums[1],
		&proof.Sums[2],
		&proof.CommitmentG[0],
		&proof.CommitmentG[1],
		&proof.CommitmentG[2],
		&proof.CommitmentGShifted[0],
		&proof.CommitmentGShifted[1],
		&proof.CommitmentGShifted[2],
		&proof.CommitmentH2,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	n := dec.BytesRead()
	m, err := proof.BatchOpeningBeta.ReadFrom(r)
	n += m
	if err != nil {
		return n, err
	}
	m, err = proof.BatchOpeningGamma.ReadFrom(r)
	n += m
	if err != nil {
		return n, err
	}
	if len(proof.BatchOpeningBeta.ClaimedValues) != nbOpeningsBeta ||
		len(proof.BatchOpeningGamma.ClaimedValues) != nbOpeningsGamma {
		return n, ErrInvalidProof
	}
	return n, nil
}

// WriteTo writes binary encoding of the verifying key.
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, v := range []uint64{vk.SizeH, vk.SizeK, vk.SizeX, vk.MaxDegree, vk.NbPublic} {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return n, err
		}
		n += 8
	}
	enc := bls12377.NewEncoder(w)
	for i := range vk.CommitmentsIndex {
		if err := enc.Encode(&vk.CommitmentsIndex[i]); err != nil {
			return n + enc.BytesWritten(), err
		}
	}
	n += enc.BytesWritten()
	m, err := vk.Kzg.WriteTo(w)
	return n + m, err
}

// ReadFrom reads a verifying key.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	for _, v := range []*uint64{&vk.SizeH, &vk.SizeK, &vk.SizeX, &vk.MaxDegree, &vk.NbPublic} {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return n, err
		}
		n += 8
	}
	dec := bls12377.NewDecoder(r)
	for i := range vk.CommitmentsIndex {
		if err := dec.Decode(&vk.CommitmentsIndex[i]); err != nil {
			return n + dec.BytesRead(), err
		}
	}
	n += dec.BytesRead()
	m, err := vk.Kzg.ReadFrom(r)
	return n + m, err
}

// WriteTo writes the constraint system, the verifying key and the commitment
// key; the index itself is rebuilt on read.
func (pk *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	n, err := pk.Ccs.WriteTo(w)
	if err != nil {
		return n, err
	}
	m, err := pk.Vk.WriteTo(w)
	n += m
	if err != nil {
		return n, err
	}
	m, err = pk.Kzg.WriteTo(w)
	return n + m, err
}

// ReadFrom reads a proving key and re-derives the index from the embedded
// constraint system.
func (pk *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	pk.Ccs = new(r1cs.System)
	n, err := pk.Ccs.ReadFrom(r)
	if err != nil {
		return n, err
	}
	pk.Vk = new(VerifyingKey)
	m, err := pk.Vk.ReadFrom(r)
	n += m
	if err != nil {
		return n, err
	}
	m, err = pk.Kzg.ReadFrom(r)
	n += m
	if err != nil {
		return n, err
	}

	idx, err := buildIndex(pk.Ccs)
	if err != nil {
		return n, err
	}
	if idx.domainH.Cardinality != pk.Vk.SizeH ||
		idx.domainK.Cardinality != pk.Vk.SizeK ||
		idx.domainX.Cardinality != pk.Vk.SizeX ||
		idx.maxDegree != pk.Vk.MaxDegree ||
		uint64(pk.Ccs.NbPublic) != pk.Vk.NbPublic {
		return n, errKeyMismatch
	}
	pk.idx = idx
	return n, nil
}
