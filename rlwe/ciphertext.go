package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/buffer"
	"github.com/Pro7ech/fedavg/utils/sampling"
	"github.com/Pro7ech/fedavg/utils/structs"
)

// Ciphertext is a generic type for RLWE ciphertexts.
// A ciphertext of degree d is a vector of d+1 polynomials
// at the same level.
type Ciphertext struct {
	*MetaData
	Value structs.Vector[ring.RNSPoly]
}

// NewCiphertext returns a new [Ciphertext] with zero values and an associated
// [MetaData] set to the default scale of the parameters and the IsNTT flag set.
func NewCiphertext(params ParameterProvider, degree, level int) (ct *Ciphertext) {

	p := params.GetRLWEParameters()

	// Sanity check
	if level < 0 || level > p.MaxLevel() {
		panic(fmt.Errorf("cannot NewCiphertext: level=%d not in [0, %d]", level, p.MaxLevel()))
	}

	// Sanity check
	if degree < 0 {
		panic(fmt.Errorf("cannot NewCiphertext: degree=%d < 0", degree))
	}

	N := p.N()

	var poly ring.RNSPoly
	buf := make([]uint64, (degree+1)*poly.BufferSize(N, level))

	value := make([]ring.RNSPoly, degree+1)
	for i := range value {
		size := poly.BufferSize(N, level)
		value[i].FromBuffer(N, level, buf[i*size:(i+1)*size])
	}

	return &Ciphertext{
		MetaData: &MetaData{Scale: p.DefaultScale(), IsNTT: true},
		Value:    value,
	}
}

// N returns the ring degree of the receiver.
func (ct Ciphertext) N() int {
	return ct.Value[0].N()
}

// LogN returns the log2 of the ring degree of the receiver.
func (ct Ciphertext) LogN() int {
	return ct.Value[0].LogN()
}

// Degree returns the degree of the receiver.
func (ct Ciphertext) Degree() int {
	return len(ct.Value) - 1
}

// Level returns the level of the receiver.
func (ct Ciphertext) Level() int {
	return ct.Value[0].Level()
}

// Resize drops the moduli above the given level. It panics if
// level is larger than the level of the receiver.
func (ct *Ciphertext) Resize(level int) {

	// Sanity check
	if level > ct.Level() {
		panic(fmt.Errorf("cannot Resize: level=%d > ct.Level()=%d", level, ct.Level()))
	}

	for i := range ct.Value {
		ct.Value[i].Resize(level)
	}
}

// Clone returns a deep copy of the receiver.
func (ct Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{MetaData: ct.MetaData.Clone(), Value: ct.Value.Clone()}
}

// Copy copies the input ciphertext and its metadata on the receiver.
func (ct *Ciphertext) Copy(other *Ciphertext) {
	for i := range ct.Value {
		ct.Value[i].Copy(&other.Value[i])
	}
	*ct.MetaData = *other.MetaData.Clone()
}

// Equal performs a deep equal.
func (ct Ciphertext) Equal(other *Ciphertext) bool {
	return ct.MetaData.Equal(other.MetaData) && ct.Value.Equal(other.Value)
}

// Randomize populates the receiver with uniform random coefficients.
func (ct *Ciphertext) Randomize(params ParameterProvider, source *sampling.Source) {
	sampler := ring.NewUniformSampler(source, params.GetRLWEParameters().RingQ().ModuliChain()).AtLevel(ct.Level())
	for i := range ct.Value {
		sampler.Read(ct.Value[i])
	}
}

// BinarySize returns the serialized size of the object in bytes.
func (ct Ciphertext) BinarySize() int {
	return ct.MetaData.BinarySize() + ct.Value.BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// Unless w implements the buffer.Writer interface (see utils/buffer/writer.go),
// it will be wrapped into a bufio.Writer. Since this requires allocations, it
// is preferable to pass a buffer.Writer directly:
//
//   - When writing multiple times to a io.Writer, it is preferable to first wrap the
//     io.Writer in a pre-allocated bufio.Writer.
//   - When writing to a pre-allocated var b []byte, it is preferable to pass
//     buffer.NewBuffer(b) as w (see utils/buffer/buffer.go).
func (ct Ciphertext) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = ct.MetaData.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = ct.Value.WriteTo(w); err != nil {
			return n + inc, err
		}

		return n + inc, err

	default:
		return ct.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Decoding failures are wrapped into
// [ErrDeserialization].
//
// Unless r implements the buffer.Reader interface (see utils/buffer/reader.go),
// it will be wrapped into a bufio.Reader. Since this requires allocation, it
// is preferable to pass a buffer.Reader directly.
func (ct *Ciphertext) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if ct.MetaData == nil {
			ct.MetaData = &MetaData{}
		}

		if inc, err = ct.MetaData.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		n += inc

		if inc, err = ct.Value.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		n += inc

		if err = ct.check(); err != nil {
			return n, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		return n, nil

	default:
		return ct.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (ct Ciphertext) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(ct.BinarySize())
	_, err = ct.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (ct *Ciphertext) UnmarshalBinary(p []byte) (err error) {
	_, err = ct.ReadFrom(buffer.NewBuffer(p))
	return
}

// check verifies that all the polynomials of the receiver share the same shape.
func (ct Ciphertext) check() error {

	if len(ct.Value) == 0 {
		return fmt.Errorf("ciphertext has no polynomial")
	}

	N, level := ct.Value[0].N(), ct.Value[0].Level()

	for i := range ct.Value[1:] {
		if ct.Value[i+1].N() != N || ct.Value[i+1].Level() != level {
			return fmt.Errorf("ciphertext polynomials have mismatching dimensions")
		}
	}

	return nil
}

// CheckLevel returns an error wrapping [ErrLevelExhausted] if the receiver's level
// is out of range for the given parameters, and an error wrapping [ErrInvalidParameters]
// if its ring degree does not match.
func (ct Ciphertext) CheckLevel(params ParameterProvider) error {

	p := params.GetRLWEParameters()

	if err := ct.check(); err != nil {
		return fmt.Errorf("%w: %w", ErrLevelExhausted, err)
	}

	if ct.N() != p.N() {
		return fmt.Errorf("%w: ring degree %d does not match parameters ring degree %d", ErrInvalidParameters, ct.N(), p.N())
	}

	if level := ct.Level(); level < 0 || level > p.MaxLevel() {
		return fmt.Errorf("%w: level %d not in [0, %d]", ErrLevelExhausted, level, p.MaxLevel())
	}

	return nil
}
