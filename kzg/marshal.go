package kzg

import (
	"io"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
)

// WriteTo writes binary encoding of the proving key.
func (pk *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	enc := bls12377.NewEncoder(w)
	toEncode := []interface{}{
		pk.G1,
		pk.G1Gamma,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

// ReadFrom reads a proving key. Points are checked to be on the curve and in
// the correct subgroup.
func (pk *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12377.NewDecoder(r)
	toDecode := []interface{}{
		&pk.G1,
		&pk.G1Gamma,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	return dec.BytesRead(), nil
}

// WriteTo writes binary encoding of the verifying key.
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	enc := bls12377.NewEncoder(w)
	toEncode := []interface{}{
		&vk.G1,
		&vk.G1Gamma,
		&vk.G2[0],
		&vk.G2[1],
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

// ReadFrom reads a verifying key, with curve and subgroup checks.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12377.NewDecoder(r)
	toDecode := []interface{}{
		&vk.G1,
		&vk.G1Gamma,
		&vk.G2[0],
		&vk.G2[1],
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	return dec.BytesRead(), nil
}

// WriteTo writes binary encoding of the SRS.
func (srs *SRS) WriteTo(w io.Writer) (int64, error) {
	n, err := srs.Pk.WriteTo(w)
	if err != nil {
		return n, err
	}
	m, err := srs.Vk.WriteTo(w)
	return n + m, err
}

// ReadFrom reads an SRS.
func (srs *SRS) ReadFrom(r io.Reader) (int64, error) {
	n, err := srs.Pk.ReadFrom(r)
	if err != nil {
		return n, err
	}
	m, err := srs.Vk.ReadFrom(r)
	return n + m, err
}

// WriteTo writes binary encoding of an opening proof.
func (proof *OpeningProof) WriteTo(w io.Writer) (int64, error) {
	enc := bls12377.NewEncoder(w)
	toEncode := []interface{}{
		&proof.H,
		&proof.ClaimedValue,
		&proof.ClaimedValueRandom,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

// ReadFrom reads an opening proof.
func (proof *OpeningProof) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12377.NewDecoder(r)
	toDecode := []interface{}{
		&proof.H,
		&proof.ClaimedValue,
		&proof.ClaimedValueRandom,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	return dec.BytesRead(), nil
}

// WriteTo writes binary encoding of a batch opening proof.
func (proof *BatchOpeningProof) WriteTo(w io.Writer) (int64, error) {
	enc := bls12377.NewEncoder(w)
	toEncode := []interface{}{
		&proof.H,
		proof.ClaimedValues,
		&proof.ClaimedValueRandom,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

// ReadFrom reads a batch opening proof.
func (proof *BatchOpeningProof) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12377.NewDecoder(r)
	toDecode := []interface{}{
		&proof.H,
		&proof.ClaimedValues,
		&proof.ClaimedValueRandom,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}
	return dec.BytesRead(), nil
}
