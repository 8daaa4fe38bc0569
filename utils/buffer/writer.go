package buffer

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// WriteAsUint8 casts &T to an *uint8 and writes it to w.
// User must ensure that T can be stored in an uint8.
func WriteAsUint8[T any](w Writer, c T) (n int64, err error) {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return WriteUint8(w, *(*uint8)(unsafe.Pointer(&c)))
}

// WriteAsUint64 casts &T to an *uint64 and writes it to w.
// User must ensure that T can be stored in an uint64.
func WriteAsUint64[T any](w Writer, c T) (n int64, err error) {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return WriteUint64(w, *(*uint64)(unsafe.Pointer(&c)))
}

// WriteAsUint64Slice casts &[]T into *[]uint64 and writes it to w.
// User must ensure that T can be stored in an uint64.
func WriteAsUint64Slice[T any](w Writer, c []T) (n int64, err error) {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	return WriteUint64Slice(w, *(*[]uint64)(unsafe.Pointer(&c)))
}

// Write writes a slice of bytes to w.
func Write(w Writer, c []byte) (n int64, err error) {
	nint, err := w.Write(c)
	return int64(nint), err
}

// WriteUint8 writes a byte c to w.
func WriteUint8(w Writer, c uint8) (n int64, err error) {

	if err = ensureAvailable(w, 1); err != nil {
		return
	}

	buf := w.AvailableBuffer()[:1]
	buf[0] = c

	nint, err := w.Write(buf)

	return int64(nint), err
}

// WriteUint64 writes an uint64 c to w.
func WriteUint64(w Writer, c uint64) (n int64, err error) {

	if err = ensureAvailable(w, 8); err != nil {
		return
	}

	buf := w.AvailableBuffer()[:8]

	binary.LittleEndian.PutUint64(buf, c)

	nint, err := w.Write(buf)

	return int64(nint), err
}

// WriteUint64Slice writes a slice of uint64 c to w.
func WriteUint64Slice(w Writer, c []uint64) (n int64, err error) {

	for len(c) > 0 {

		if err = ensureAvailable(w, 8); err != nil {
			return
		}

		chunk := min(len(c), w.Available()>>3)

		buf := w.AvailableBuffer()[:chunk<<3]

		for i := range chunk {
			binary.LittleEndian.PutUint64(buf[i<<3:], c[i])
		}

		var inc int
		if inc, err = w.Write(buf); err != nil {
			return n + int64(inc), err
		}

		n += int64(inc)

		c = c[chunk:]
	}

	return
}

// ensureAvailable flushes w if less than size bytes are available.
func ensureAvailable(w Writer, size int) (err error) {

	if w.Available() >= size {
		return
	}

	if err = w.Flush(); err != nil {
		return
	}

	if w.Available() < size {
		return fmt.Errorf("cannot write %d bytes: available buffer is %d even after flush", size, w.Available())
	}

	return
}
