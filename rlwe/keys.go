package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

// SecretKey is a type for generic RLWE secret keys.
// The polynomial is stored in the NTT and Montgomery domain.
type SecretKey struct {
	Value ring.RNSPoly
}

// NewSecretKey generates a new [SecretKey] with zero values.
func NewSecretKey(params ParameterProvider) *SecretKey {
	p := params.GetRLWEParameters()
	return &SecretKey{Value: p.RingQ().NewRNSPoly()}
}

// N returns the ring degree of the receiver.
func (sk SecretKey) N() int {
	return sk.Value.N()
}

// LogN returns the log2 of the ring degree of the receiver.
func (sk SecretKey) LogN() int {
	return sk.Value.LogN()
}

// Level returns the level of the receiver.
func (sk SecretKey) Level() int {
	return sk.Value.Level()
}

// Equal performs a deep equal.
func (sk SecretKey) Equal(other *SecretKey) bool {
	return sk.Value.Equal(&other.Value)
}

// Clone returns a deep copy of the receiver.
func (sk SecretKey) Clone() *SecretKey {
	return &SecretKey{Value: *sk.Value.Clone()}
}

// BinarySize returns the serialized size of the object in bytes.
func (sk SecretKey) BinarySize() int {
	return sk.Value.BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (sk SecretKey) WriteTo(w io.Writer) (n int64, err error) {
	return sk.Value.WriteTo(w)
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Decoding failures are wrapped into
// [ErrDeserialization].
func (sk *SecretKey) ReadFrom(r io.Reader) (n int64, err error) {
	if n, err = sk.Value.ReadFrom(r); err != nil {
		return n, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (sk SecretKey) MarshalBinary() (p []byte, err error) {
	return sk.Value.MarshalBinary()
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (sk *SecretKey) UnmarshalBinary(p []byte) (err error) {
	_, err = sk.ReadFrom(buffer.NewBuffer(p))
	return
}

func (sk SecretKey) isEncryptionKey() {}

// PublicKey is a type for generic RLWE public keys.
// It is an encryption of zero (-a*s + e, a) under the secret key,
// stored in the NTT and Montgomery domain.
type PublicKey struct {
	Value [2]ring.RNSPoly
}

// NewPublicKey returns a new [PublicKey] with zero values.
func NewPublicKey(params ParameterProvider) (pk *PublicKey) {
	rQ := params.GetRLWEParameters().RingQ()
	return &PublicKey{Value: [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()}}
}

// N returns the ring degree of the receiver.
func (pk PublicKey) N() int {
	return pk.Value[0].N()
}

// LogN returns the log2 of the ring degree of the receiver.
func (pk PublicKey) LogN() int {
	return pk.Value[0].LogN()
}

// Level returns the level of the receiver.
func (pk PublicKey) Level() int {
	return pk.Value[0].Level()
}

// AsCiphertext wraps the receiver into a [Ciphertext] sharing its
// backing arrays.
func (pk *PublicKey) AsCiphertext() *Ciphertext {
	return &Ciphertext{
		MetaData: &MetaData{IsNTT: true, IsMontgomery: true},
		Value:    pk.Value[:],
	}
}

// Equal performs a deep equal.
func (pk PublicKey) Equal(other *PublicKey) bool {
	return pk.Value[0].Equal(&other.Value[0]) && pk.Value[1].Equal(&other.Value[1])
}

// Clone returns a deep copy of the receiver.
func (pk PublicKey) Clone() *PublicKey {
	return &PublicKey{Value: [2]ring.RNSPoly{*pk.Value[0].Clone(), *pk.Value[1].Clone()}}
}

// BinarySize returns the serialized size of the object in bytes.
func (pk PublicKey) BinarySize() int {
	return pk.Value[0].BinarySize() + pk.Value[1].BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (pk PublicKey) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		for i := range pk.Value {
			if inc, err = pk.Value[i].WriteTo(w); err != nil {
				return n + inc, err
			}
			n += inc
		}

		return n, nil

	default:
		return pk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Decoding failures are wrapped into
// [ErrDeserialization].
func (pk *PublicKey) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		for i := range pk.Value {
			if inc, err = pk.Value[i].ReadFrom(r); err != nil {
				return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
			}
			n += inc
		}

		if pk.Value[0].N() != pk.Value[1].N() || pk.Value[0].Level() != pk.Value[1].Level() {
			return n, fmt.Errorf("%w: public key polynomials have mismatching dimensions", ErrDeserialization)
		}

		return n, nil

	default:
		return pk.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pk PublicKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pk.BinarySize())
	_, err = pk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (pk *PublicKey) UnmarshalBinary(p []byte) (err error) {
	_, err = pk.ReadFrom(buffer.NewBuffer(p))
	return
}

func (pk PublicKey) isEncryptionKey() {}
