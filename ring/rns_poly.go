package ring

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/Pro7ech/fedavg/utils"
	"github.com/Pro7ech/fedavg/utils/buffer"
	"github.com/Pro7ech/fedavg/utils/structs"
)

// RNSPoly is the structure that contains the coefficients of an RNS polynomial.
// Coefficients are stored as a matrix backed by an 1D array.
type RNSPoly []Poly

// BufferSize returns the minimum buffer size
// to instantiate the receiver through [FromBuffer].
func (p *RNSPoly) BufferSize(N, Level int) int {
	return N * (Level + 1)
}

// FromBuffer assigns new backing array to the receiver.
func (p *RNSPoly) FromBuffer(N, Level int, buf []uint64) {

	// Sanity check
	if len(buf) < p.BufferSize(N, Level) {
		panic(fmt.Errorf("invalid buffer size: N=%d x (Level+1)=%d > len(buf)=%d", N, Level+1, len(buf)))
	}

	*p = make([]Poly, Level+1)
	for i := range Level + 1 {
		(*p)[i] = buf[i*N : (i+1)*N]
	}
}

// NewRNSPoly creates a new polynomial with N coefficients set to zero and Level+1 moduli.
func NewRNSPoly(N, Level int) (p RNSPoly) {
	p.FromBuffer(N, Level, make([]uint64, p.BufferSize(N, Level)))
	return
}

// At returns the i-th row of the receiver.
func (p RNSPoly) At(i int) Poly {
	// Sanity check
	if i > p.Level() {
		panic(fmt.Errorf("i=%d > p.Level()=%d", i, p.Level()))
	}
	return p[i]
}

// Resize resizes the level of the target polynomial to the provided level.
// If the provided level is larger than the current level, then allocates zero
// coefficients, otherwise dereferences the coefficients above the provided level.
func (p *RNSPoly) Resize(level int) {
	N := p.N()
	if p.Level() > level {
		*p = (*p)[:level+1]
	} else if level > p.Level() {
		prevLevel := p.Level()
		*p = append(*p, make([]Poly, level-prevLevel)...)
		for i := prevLevel + 1; i < level+1; i++ {
			(*p)[i] = NewPoly(N)
		}
	}
}

// N returns the number of coefficients of the polynomial, which equals the degree of the Ring cyclotomic polynomial.
func (p RNSPoly) N() int {
	if len(p) == 0 {
		return 0
	}
	return p.At(0).N()
}

// LogN returns the base two logarithm of the number of coefficients of the polynomial.
func (p RNSPoly) LogN() int {
	return bits.Len64(uint64(p.N()) - 1)
}

// Level returns the current number of moduli minus 1.
func (p RNSPoly) Level() int {
	return len(p) - 1
}

// Zero sets all coefficients of the target polynomial to 0.
func (p RNSPoly) Zero() {
	for i := range p {
		ZeroVec(p.At(i))
	}
}

// Equal returns true if the receiver and other have the same level and coefficients.
func (p RNSPoly) Equal(other *RNSPoly) bool {
	return structs.Vector[Poly](p).Equal(structs.Vector[Poly](*other))
}

// Clone returns a deep copy of the receiver.
func (p RNSPoly) Clone() *RNSPoly {
	pCpy := NewRNSPoly(p.N(), p.Level())
	pCpy.CopyLvl(p.Level(), &p)
	return &pCpy
}

// Copy copies the coefficients of p1 on the target polynomial.
// This method will resize the target polynomial to the level of
// the input polynomial.
func (p *RNSPoly) Copy(p1 *RNSPoly) {
	p.Resize(p1.Level())
	p.CopyLvl(p1.Level(), p1)
}

// CopyLvl copies the coefficients of p1 on the target polynomial.
// This method does nothing if the underlying arrays are the same.
// Expects the degree of both polynomials to be identical.
func (p *RNSPoly) CopyLvl(level int, p1 *RNSPoly) {
	for i := 0; i < level+1; i++ {
		if !utils.Alias1D(p.At(i), p1.At(i)) {
			copy(p.At(i), p1.At(i))
		}
	}
}

// BinarySize returns the serialized size of the object in bytes.
func (p RNSPoly) BinarySize() (size int) {
	return structs.Vector[Poly](p).BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// Unless w implements the buffer.Writer interface (see utils/buffer/buffer.go),
// it will be wrapped into a bufio.Writer. Since this requires allocations, it
// is preferable to pass a buffer.Writer directly:
//
//   - When writing multiple times to a io.Writer, it is preferable to first wrap the
//     io.Writer in a pre-allocated bufio.Writer.
//   - When writing to a pre-allocated var b []byte, it is preferable to pass
//     buffer.NewBuffer(b) as w (see utils/buffer/buffer.go).
func (p RNSPoly) WriteTo(w io.Writer) (n int64, err error) {
	return structs.Vector[Poly](p).WriteTo(w)
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
//
// All the limbs read must have the same power of two number of coefficients.
func (p *RNSPoly) ReadFrom(r io.Reader) (n int64, err error) {
	v := structs.Vector[Poly](*p)
	if n, err = v.ReadFrom(r); err != nil {
		return
	}
	*p = []Poly(v)
	return n, p.check()
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p RNSPoly) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err = p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (p *RNSPoly) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

func (p RNSPoly) check() error {

	if len(p) == 0 {
		return fmt.Errorf("invalid RNSPoly: no limb")
	}

	N := p[0].N()

	if !utils.IsPowerOfTwo(N) {
		return fmt.Errorf("invalid RNSPoly: N=%d is not a power of two", N)
	}

	for i := range p {
		if p[i].N() != N {
			return fmt.Errorf("invalid RNSPoly: limb %d has %d coefficients but limb 0 has %d", i, p[i].N(), N)
		}
	}

	return nil
}
