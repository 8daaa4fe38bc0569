package buffer

import (
	"encoding"
	"io"
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// EqualAsUint64Slice casts &[]T into *[]uint64 and checks that v == w.
// User must ensure that T can be stored in an uint64.
func EqualAsUint64Slice[T any](v, w []T) bool {
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	a := *(*[]uint64)(unsafe.Pointer(&v))
	/* #nosec G103 -- behavior and consequences well understood, pointer type cast */
	b := *(*[]uint64)(unsafe.Pointer(&w))

	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// binarySerializer is the set of methods shared by all
// the serializable objects of this module.
type binarySerializer interface {
	BinarySize() int
	io.WriterTo
	io.ReaderFrom
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type equatable[T any] interface {
	Equal(T) bool
}

// RequireSerializerCorrect checks that:
//   - WriteTo writes exactly BinarySize() bytes and ReadFrom reads them back
//   - MarshalBinary produces the same bytes as WriteTo
//   - UnmarshalBinary followed by MarshalBinary is the identity on the bytes
//   - the round-tripped object is equal to the input, if T implements Equal(T) bool
//
// T must be a pointer type.
func RequireSerializerCorrect[T binarySerializer](t *testing.T, input T) {

	buf := NewBufferSize(input.BinarySize())

	n, err := input.WriteTo(buf)
	require.NoError(t, err)
	require.Equal(t, int64(input.BinarySize()), n, "WriteTo: invalid number of bytes written")

	output := newOf(input)

	n, err = output.ReadFrom(NewBuffer(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(input.BinarySize()), n, "ReadFrom: invalid number of bytes read")

	dataMarshal, err := input.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), dataMarshal, "MarshalBinary != WriteTo")

	output = newOf(input)
	require.NoError(t, output.UnmarshalBinary(dataMarshal))

	dataRemarshal, err := output.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, dataMarshal, dataRemarshal, "UnmarshalBinary: input != output")

	if eq, ok := any(input).(equatable[T]); ok {
		require.True(t, eq.Equal(output), "UnmarshalBinary: input != output")
	}
}

// newOf allocates a new zero value of the type pointed by T.
func newOf[T any](x T) T {
	return reflect.New(reflect.TypeOf(x).Elem()).Interface().(T)
}
