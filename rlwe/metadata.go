package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"

	"github.com/Pro7ech/fedavg/utils/buffer"
)

// MetaData is a struct storing the metadata of a [Plaintext] or [Ciphertext].
type MetaData struct {
	// Scale is the scaling factor of the plaintext.
	Scale Scale

	// LogSlots is the log2 of the number of slots used by the plaintext.
	LogSlots int

	// IsNTT is a flag indicating if the polynomials are in the NTT domain.
	IsNTT bool

	// IsMontgomery is a flag indicating if the polynomials are in the Montgomery domain.
	IsMontgomery bool
}

// Clone returns a copy of the receiver.
func (m MetaData) Clone() *MetaData {
	return &MetaData{
		Scale:        NewScale(m.Scale),
		LogSlots:     m.LogSlots,
		IsNTT:        m.IsNTT,
		IsMontgomery: m.IsMontgomery,
	}
}

// Equal returns true if two MetaData structs are identical.
func (m MetaData) Equal(other *MetaData) (res bool) {
	return cmp.Equal(m, *other, cmp.Comparer(func(a, b Scale) bool { return a.Cmp(b) == 0 }))
}

// Slots returns the number of slots used by the plaintext.
func (m MetaData) Slots() int {
	return 1 << m.LogSlots
}

// LogScale returns the log2 of the scale.
func (m MetaData) LogScale() float64 {
	return m.Scale.Log2()
}

// BinarySize returns the serialized size of the object in bytes.
func (m MetaData) BinarySize() int {
	return m.Scale.BinarySize() + 3
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (m MetaData) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = m.Scale.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.WriteAsUint8(w, m.LogSlots); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.WriteAsUint8(w, m.IsNTT); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.WriteAsUint8(w, m.IsMontgomery); err != nil {
			return n + inc, err
		}

		n += inc

		return n, w.Flush()

	default:
		return m.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (m *MetaData) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if inc, err = m.Scale.ReadFrom(r); err != nil {
			return n + inc, err
		}

		n += inc

		var flags [3]uint8
		for i := range flags {
			if inc, err = buffer.ReadUint8(r, &flags[i]); err != nil {
				return n + inc, err
			}
			n += inc
		}

		if flags[1] > 1 || flags[2] > 1 {
			return n, fmt.Errorf("invalid metadata: boolean flags must be 0 or 1")
		}

		m.LogSlots = int(flags[0])
		m.IsNTT = flags[1] == 1
		m.IsMontgomery = flags[2] == 1

		return n, nil

	default:
		return m.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (m MetaData) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(m.BinarySize())
	_, err = m.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (m *MetaData) UnmarshalBinary(p []byte) (err error) {
	_, err = m.ReadFrom(buffer.NewBuffer(p))
	return
}
