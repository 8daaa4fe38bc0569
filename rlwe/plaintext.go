package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

// Plaintext is a common base type for RLWE plaintexts.
type Plaintext struct {
	*MetaData
	Value ring.RNSPoly
}

// NewPlaintext creates a new [Plaintext] at the given level.
// The [MetaData] is initialized with the default scale of the
// parameters and with the IsNTT flag set.
func NewPlaintext(params ParameterProvider, level int) (pt *Plaintext) {
	p := params.GetRLWEParameters()

	// Sanity check
	if level < 0 || level > p.MaxLevel() {
		panic(fmt.Errorf("cannot NewPlaintext: level=%d not in [0, %d]", level, p.MaxLevel()))
	}

	return &Plaintext{
		MetaData: &MetaData{Scale: p.DefaultScale(), IsNTT: true},
		Value:    ring.NewRNSPoly(p.N(), level),
	}
}

// N returns the ring degree of the receiver.
func (pt Plaintext) N() int {
	return pt.Value.N()
}

// LogN returns the log2 of the ring degree of the receiver.
func (pt Plaintext) LogN() int {
	return pt.Value.LogN()
}

// Level returns the level of the receiver.
func (pt Plaintext) Level() int {
	return pt.Value.Level()
}

// Clone returns a deep copy of the receiver.
func (pt Plaintext) Clone() *Plaintext {
	return &Plaintext{MetaData: pt.MetaData.Clone(), Value: *pt.Value.Clone()}
}

// Copy copies the input plaintext and its metadata on the receiver.
func (pt *Plaintext) Copy(other *Plaintext) {
	pt.Value.Copy(&other.Value)
	*pt.MetaData = *other.MetaData.Clone()
}

// Equal performs a deep equal.
func (pt Plaintext) Equal(other *Plaintext) bool {
	return pt.MetaData.Equal(other.MetaData) && pt.Value.Equal(&other.Value)
}

// BinarySize returns the serialized size of the object in bytes.
func (pt Plaintext) BinarySize() int {
	return pt.MetaData.BinarySize() + pt.Value.BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (pt Plaintext) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = pt.MetaData.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = pt.Value.WriteTo(w); err != nil {
			return n + inc, err
		}

		return n + inc, err

	default:
		return pt.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (pt *Plaintext) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if pt.MetaData == nil {
			pt.MetaData = &MetaData{}
		}

		if inc, err = pt.MetaData.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		n += inc

		if inc, err = pt.Value.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		return n + inc, nil

	default:
		return pt.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pt Plaintext) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pt.BinarySize())
	_, err = pt.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (pt *Plaintext) UnmarshalBinary(p []byte) (err error) {
	_, err = pt.ReadFrom(buffer.NewBuffer(p))
	return
}
