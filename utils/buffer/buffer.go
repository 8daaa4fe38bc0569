// Package buffer implements methods for efficiently writing and reading values
// to and from io.Writer and io.Reader that also expose their internal buffers.
// All values are encoded in little-endian.
package buffer

import (
	"fmt"
	"io"
)

// Writer is an interface for writers that expose their internal
// buffers. It is implemented by [bufio.Writer] and by [Buffer].
type Writer interface {
	io.Writer
	Flush() (err error)
	AvailableBuffer() []byte
	Available() int
}

// Reader is an interface for readers that expose their internal
// buffers. It is implemented by [bufio.Reader] and by [Buffer].
type Reader interface {
	io.Reader
	Size() int
	Peek(n int) ([]byte, error)
	Discard(n int) (discarded int, err error)
}

// Buffer is a fixed size []byte-based buffer that complies to the
// [Writer] and [Reader] interfaces. Writes beyond its capacity
// return an error instead of growing the backing slice.
type Buffer struct {
	buf []byte
	n   int
	off int
}

// NewBuffer creates a new [Buffer] with buff as a backing slice.
// The read and write offsets start at buff[0].
func NewBuffer(buff []byte) *Buffer {
	return &Buffer{buf: buff}
}

// NewBufferSize creates a new [Buffer] with the given capacity.
func NewBufferSize(size int) *Buffer {
	return &Buffer{buf: make([]byte, size)}
}

// Write writes p into b.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p)+b.n > len(b.buf) {
		return 0, fmt.Errorf("buffer too small: cannot write %d bytes, %d available", len(p), b.Available())
	}
	n = copy(b.buf[b.n:], p)
	b.n += n
	return
}

// Flush is a no-op.
func (b *Buffer) Flush() (err error) {
	return nil
}

// AvailableBuffer returns an empty slice with b.Available() capacity.
// It is only valid until the next write on b.
func (b *Buffer) AvailableBuffer() []byte {
	return b.buf[b.n:][:0]
}

// Available returns the number of bytes that can still be written.
func (b *Buffer) Available() int {
	return len(b.buf) - b.n
}

// Bytes returns the backing slice.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Reset re-initializes the read and write offsets.
func (b *Buffer) Reset() {
	b.n = 0
	b.off = 0
}

// Read reads len(p) bytes into p. It returns io.EOF if fewer bytes were available.
func (b *Buffer) Read(p []byte) (n int, err error) {
	n = copy(p, b.buf[b.off:])
	b.off += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the number of bytes left to read.
func (b *Buffer) Size() int {
	return len(b.buf) - b.off
}

// Peek returns the next n bytes without advancing the read offset.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if b.off+n > len(b.buf) {
		return b.buf[b.off:], io.EOF
	}
	return b.buf[b.off : b.off+n], nil
}

// Discard skips the next n bytes.
func (b *Buffer) Discard(n int) (discarded int, err error) {
	remain := len(b.buf) - b.off
	if n > remain {
		b.off = len(b.buf)
		return remain, io.EOF
	}
	b.off += n
	return n, nil
}
