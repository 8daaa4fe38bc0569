package structs

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/utils/buffer"
)

// Vector is a struct wrapping a slice of components of type T.
// T can be:
//   - uint64, int64, int or float64, which are serialized as 8 bytes each.
//   - Or any object that implements Cloner, Equatable, BinarySizer, io.WriterTo or
//     io.ReaderFrom depending on the method called.
type Vector[T any] []T

// isWord returns true if T is serialized as a single 8-byte word.
func isWord[T any]() bool {
	var t T
	switch any(t).(type) {
	case uint64, int64, int, float64:
		return true
	}
	return false
}

// Clone returns a deep copy of the object.
// If T is a struct, this method requires that T implements Cloner.
func (v Vector[T]) Clone() (vcpy Vector[T]) {

	vcpy = Vector[T](make([]T, len(v)))

	if isWord[T]() {
		copy(vcpy, v)
		return
	}

	var t T
	if _, isClonable := any(&t).(Cloner[T]); !isClonable {
		panic(fmt.Errorf("component of type %T does not comply to %T", t, new(Cloner[T])))
	}

	for i := range v {
		vcpy[i] = *any(&v[i]).(Cloner[T]).Clone()
	}

	return
}

// BinarySize returns the serialized size of the object in bytes.
// If T is a struct, this method requires that T implements BinarySizer.
func (v Vector[T]) BinarySize() (size int) {

	if isWord[T]() {
		return 8 + len(v)*8
	}

	var t T
	if _, isSizable := any(&t).(BinarySizer); !isSizable {
		panic(fmt.Errorf("vector component of type %T does not comply to %T", t, new(BinarySizer)))
	}

	size = 8
	for i := range v {
		size += any(&v[i]).(BinarySizer).BinarySize()
	}

	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// If T is a struct, this method requires that T implements io.WriterTo.
//
// Unless w implements the buffer.Writer interface (see utils/buffer/buffer.go),
// it will be wrapped into a bufio.Writer. When writing to a pre-allocated
// var b []byte, it is preferable to pass buffer.NewBuffer(b) as w.
func (v Vector[T]) WriteTo(w io.Writer) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var inc int64
		if inc, err = buffer.WriteAsUint64(w, len(v)); err != nil {
			return inc, fmt.Errorf("buffer.WriteAsUint64[int]: %w", err)
		}

		n += inc

		if isWord[T]() {

			if inc, err = buffer.WriteAsUint64Slice(w, v); err != nil {
				return n + inc, fmt.Errorf("buffer.WriteAsUint64Slice[%T]: %w", *new(T), err)
			}

			n += inc

		} else {

			if _, isWritable := any(new(T)).(io.WriterTo); !isWritable {
				return n, fmt.Errorf("vector component of type %T does not comply to %T", *new(T), new(io.WriterTo))
			}

			for i := range v {
				if inc, err = any(&v[i]).(io.WriterTo).WriteTo(w); err != nil {
					return n + inc, fmt.Errorf("%T.WriteTo: %w", v[i], err)
				}
				n += inc
			}
		}

		return n, w.Flush()

	default:
		return v.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
//
// If T is a struct, this method requires that T implements io.ReaderFrom.
//
// Unless r implements the buffer.Reader interface (see utils/buffer/buffer.go),
// it will be wrapped into a bufio.Reader. When reading from a var b []byte,
// it is preferable to pass a buffer.NewBuffer(b) as r.
func (v *Vector[T]) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		var size uint64

		if inc, err = buffer.ReadUint64(r, &size); err != nil {
			return inc, fmt.Errorf("buffer.ReadUint64: %w", err)
		}

		n += inc

		if size > MaxVectorSize {
			return n, fmt.Errorf("invalid vector size: %d > %d", size, MaxVectorSize)
		}

		if uint64(cap(*v)) < size {
			*v = make([]T, size)
		}

		*v = (*v)[:size]

		if isWord[T]() {

			if inc, err = buffer.ReadAsUint64Slice(r, *v); err != nil {
				return n + inc, fmt.Errorf("buffer.ReadAsUint64Slice[%T]: %w", *new(T), err)
			}

			n += inc

		} else {

			if _, isReadable := any(new(T)).(io.ReaderFrom); !isReadable {
				return n, fmt.Errorf("vector component of type %T does not comply to %T", *new(T), new(io.ReaderFrom))
			}

			for i := range *v {
				if inc, err = any(&(*v)[i]).(io.ReaderFrom).ReadFrom(r); err != nil {
					return n + inc, fmt.Errorf("%T.ReadFrom: %w", (*v)[i], err)
				}
				n += inc
			}
		}

		return n, nil

	default:
		return v.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (v Vector[T]) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(v.BinarySize())
	_, err = v.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (v *Vector[T]) UnmarshalBinary(p []byte) (err error) {
	_, err = v.ReadFrom(buffer.NewBuffer(p))
	return
}

// Equal performs a deep equal.
// If T is a struct, this method requires that T implements Equatable.
func (v Vector[T]) Equal(other Vector[T]) (isEqual bool) {

	if len(v) != len(other) {
		return false
	}

	if isWord[T]() {
		return buffer.EqualAsUint64Slice([]T(v), []T(other))
	}

	var t T
	if _, isEquatable := any(&t).(Equatable[T]); !isEquatable {
		panic(fmt.Errorf("vector component of type %T does not comply to %T", t, new(Equatable[T])))
	}

	for i := range v {
		if !any(&v[i]).(Equatable[T]).Equal(&other[i]) {
			return false
		}
	}

	return true
}
