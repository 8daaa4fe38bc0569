package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// ReadAsUint8 reads an uint8 from r and stores the result into *c
// with pointer type casting into type T. The value pointed by c is
// zeroed before the byte is written.
func ReadAsUint8[T any](r Reader, c *T) (n int64, err error) {
	var zero T
	*c = zero
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return ReadUint8(r, (*uint8)(unsafe.Pointer(c)))
}

// ReadAsUint64 reads an uint64 from r and stores the result into *c
// with pointer type casting into type T.
func ReadAsUint64[T any](r Reader, c *T) (n int64, err error) {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return ReadUint64(r, (*uint64)(unsafe.Pointer(c)))
}

// ReadAsUint64Slice reads a slice of uint64 from r and stores the result
// into c with pointer type casting into type T.
func ReadAsUint64Slice[T any](r Reader, c []T) (n int64, err error) {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return ReadUint64Slice(r, *(*[]uint64)(unsafe.Pointer(&c)))
}

// Read reads exactly len(c) bytes from r.
func Read(r Reader, c []byte) (n int64, err error) {
	nint, err := io.ReadFull(r, c)
	return int64(nint), err
}

// ReadUint8 reads a byte from r and stores the result into c.
func ReadUint8(r Reader, c *uint8) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint8: c is nil")
	}

	var bb [1]byte

	if n, err = Read(r, bb[:]); err != nil {
		return
	}

	*c = bb[0]

	return
}

// ReadUint64 reads an uint64 from r and stores the result into c.
func ReadUint64(r Reader, c *uint64) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint64: c is nil")
	}

	var bb [8]byte

	if n, err = Read(r, bb[:]); err != nil {
		return
	}

	*c = binary.LittleEndian.Uint64(bb[:])

	return
}

// ReadUint64Slice reads a slice of uint64 from r and stores the result into c.
func ReadUint64Slice(r Reader, c []uint64) (n int64, err error) {

	for len(c) > 0 {

		chunk := max(1, min(len(c), r.Size()>>3))

		var buf []byte
		if buf, err = r.Peek(chunk << 3); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return
		}

		for i := range chunk {
			c[i] = binary.LittleEndian.Uint64(buf[i<<3:])
		}

		var inc int
		if inc, err = r.Discard(chunk << 3); err != nil {
			return n + int64(inc), err
		}

		n += int64(inc)

		c = c[chunk:]
	}

	return
}
