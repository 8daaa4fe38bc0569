package fedavg

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

// Envelope is the encrypted contribution of a party, or the encrypted
// aggregate of several contributions.
//
// Count is the sample count of the contribution, or the total count of an
// aggregate, and is zero when unknown. Schema is the digest of the feature
// schema of the encrypted vector.
type Envelope struct {
	Schema     Digest
	Count      float64
	Ciphertext *rlwe.Ciphertext
}

// Level returns the level of the ciphertext of the receiver.
func (e Envelope) Level() int {
	return e.Ciphertext.Level()
}

// Slots returns the number of slots of the ciphertext of the receiver.
func (e Envelope) Slots() int {
	return e.Ciphertext.Slots()
}

// Equal performs a deep equal.
func (e Envelope) Equal(other *Envelope) bool {
	return e.Schema == other.Schema && e.Count == other.Count && e.Ciphertext.Equal(other.Ciphertext)
}

// CheckLevel returns an error if the ciphertext of the receiver is
// missing or does not match the given parameters.
func (e Envelope) CheckLevel(params rlwe.ParameterProvider) error {
	if e.Ciphertext == nil || e.Ciphertext.MetaData == nil {
		return fmt.Errorf("envelope has no ciphertext")
	}
	return e.Ciphertext.CheckLevel(params)
}

// BinarySize returns the serialized size of the object in bytes.
func (e Envelope) BinarySize() int {
	return DigestSize + 8 + e.Ciphertext.BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (e Envelope) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.Write(w, e.Schema[:]); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.WriteUint64(w, math.Float64bits(e.Count)); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = e.Ciphertext.WriteTo(w); err != nil {
			return n + inc, err
		}

		return n + inc, w.Flush()

	default:
		return e.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Decoding failures are wrapped into
// [ErrDeserialization].
func (e *Envelope) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if inc, err = buffer.Read(r, e.Schema[:]); err != nil {
			return n + inc, fmt.Errorf("%w: schema digest: %w", ErrDeserialization, err)
		}

		n += inc

		var count uint64
		if inc, err = buffer.ReadUint64(r, &count); err != nil {
			return n + inc, fmt.Errorf("%w: count: %w", ErrDeserialization, err)
		}

		n += inc

		e.Count = math.Float64frombits(count)

		if err = checkCount(e.Count, false); err != nil {
			return n, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		if e.Ciphertext == nil {
			e.Ciphertext = new(rlwe.Ciphertext)
		}

		if inc, err = e.Ciphertext.ReadFrom(r); err != nil {
			return n + inc, err
		}

		return n + inc, nil

	default:
		return e.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (e Envelope) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(e.BinarySize())
	_, err = e.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (e *Envelope) UnmarshalBinary(p []byte) (err error) {
	_, err = e.ReadFrom(buffer.NewBuffer(p))
	return
}
