package buffer

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {

	t.Run("WriteRead/Buffer", func(t *testing.T) {

		b := NewBufferSize(1 + 8 + 8*5)

		_, err := WriteAsUint8(b, 7)
		require.NoError(t, err)
		_, err = WriteAsUint64(b, 1.5)
		require.NoError(t, err)
		_, err = WriteUint64Slice(b, []uint64{1, 2, 3, 4, 0xffffffffffffffff})
		require.NoError(t, err)
		require.Equal(t, 0, b.Available())

		_, err = WriteUint8(b, 1)
		require.Error(t, err)

		r := NewBuffer(b.Bytes())

		var small int
		_, err = ReadAsUint8(r, &small)
		require.NoError(t, err)
		require.Equal(t, 7, small)

		var f float64
		_, err = ReadAsUint64(r, &f)
		require.NoError(t, err)
		require.Equal(t, 1.5, f)

		s := make([]uint64, 5)
		_, err = ReadUint64Slice(r, s)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2, 3, 4, 0xffffffffffffffff}, s)

		_, err = ReadUint64(r, &s[0])
		require.Error(t, err)
	})

	t.Run("WriteRead/Bufio", func(t *testing.T) {

		want := make([]uint64, 1000)
		for i := range want {
			want[i] = uint64(i) * 0x9E3779B97F4A7C15
		}

		var b bytes.Buffer
		w := bufio.NewWriterSize(&b, 64)

		n, err := WriteUint64Slice(w, want)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		require.Equal(t, int64(8*len(want)), n)

		have := make([]uint64, len(want))
		n, err = ReadUint64Slice(bufio.NewReaderSize(&b, 64), have)
		require.NoError(t, err)
		require.Equal(t, int64(8*len(want)), n)
		require.Equal(t, want, have)
	})

	t.Run("ReadAsUint8/Zeroes", func(t *testing.T) {
		x := 0x1234
		_, err := ReadAsUint8(NewBuffer([]byte{5}), &x)
		require.NoError(t, err)
		require.Equal(t, 5, x)
	})

	t.Run("Truncated", func(t *testing.T) {
		have := make([]uint64, 2)
		_, err := ReadUint64Slice(NewBuffer(make([]byte, 12)), have)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("EqualAsUint64Slice", func(t *testing.T) {
		require.True(t, EqualAsUint64Slice([]int{1, 2}, []int{1, 2}))
		require.False(t, EqualAsUint64Slice([]int{1, 2}, []int{1, 3}))
		require.False(t, EqualAsUint64Slice([]int{1}, []int{1, 3}))
	})
}
