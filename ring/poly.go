package ring

import (
	"io"
	"math/bits"

	"github.com/Pro7ech/fedavg/utils/structs"
)

// Poly is the structure that contains the coefficients of a polynomial
// modulo a single prime.
type Poly []uint64

// NewPoly allocates a new [Poly] of N coefficients set to zero.
func NewPoly(N int) Poly {
	return make([]uint64, N)
}

// N returns the number of coefficients of the polynomial.
func (p Poly) N() int {
	return len(p)
}

// LogN returns the base two logarithm of the number of coefficients of the polynomial.
func (p Poly) LogN() int {
	return bits.Len64(uint64(p.N()) - 1)
}

// Zero sets all coefficients of the target polynomial to 0.
func (p Poly) Zero() {
	ZeroVec(p)
}

// Clone returns a deep copy of the receiver.
func (p Poly) Clone() *Poly {
	pCpy := NewPoly(p.N())
	copy(pCpy, p)
	return &pCpy
}

// Copy copies the coefficients of p1 on the receiver.
func (p Poly) Copy(p1 Poly) {
	copy(p, p1)
}

// Equal returns true if the receiver and other have the same coefficients.
func (p Poly) Equal(other *Poly) bool {
	return structs.Vector[uint64](p).Equal(structs.Vector[uint64](*other))
}

// BinarySize returns the serialized size of the object in bytes.
func (p Poly) BinarySize() (size int) {
	return structs.Vector[uint64](p).BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (p Poly) WriteTo(w io.Writer) (n int64, err error) {
	return structs.Vector[uint64](p).WriteTo(w)
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (p *Poly) ReadFrom(r io.Reader) (n int64, err error) {
	v := structs.Vector[uint64](*p)
	if n, err = v.ReadFrom(r); err != nil {
		return
	}
	*p = Poly(v)
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p Poly) MarshalBinary() (data []byte, err error) {
	return structs.Vector[uint64](p).MarshalBinary()
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (p *Poly) UnmarshalBinary(data []byte) (err error) {
	v := structs.Vector[uint64](*p)
	if err = v.UnmarshalBinary(data); err != nil {
		return
	}
	*p = Poly(v)
	return
}
