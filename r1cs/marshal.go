package r1cs

import (
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
)

// serializationVersion tags encoded systems; readers accept the same major.
const serializationVersion = "0.1.0"

type header struct {
	_       struct{} `cbor:",toarray"`
	Version string
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countReader struct {
	r io.Reader
	n int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// WriteTo writes a versioned CBOR encoding of the system.
func (s *System) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return cw.n, err
	}
	enc := encMode.NewEncoder(cw)
	if err := enc.Encode(header{Version: serializationVersion}); err != nil {
		return cw.n, err
	}
	if err := enc.Encode(s); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom reads a system written by WriteTo, checks the version tag and
// validates the structure before returning.
func (s *System) ReadFrom(r io.Reader) (int64, error) {
	cr := &countReader{r: r}
	decMode, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return cr.n, err
	}
	dec := decMode.NewDecoder(cr)

	var h header
	if err := dec.Decode(&h); err != nil {
		return cr.n, err
	}
	v, err := semver.Parse(h.Version)
	if err != nil {
		return cr.n, fmt.Errorf("r1cs: invalid version tag %q: %w", h.Version, err)
	}
	current := semver.MustParse(serializationVersion)
	if v.Major != current.Major {
		return cr.n, fmt.Errorf("r1cs: incompatible version %s, expected %d.x.x", h.Version, current.Major)
	}

	if err := dec.Decode(s); err != nil {
		return cr.n, err
	}
	if err := s.Validate(); err != nil {
		return cr.n, err
	}
	return cr.n, nil
}
