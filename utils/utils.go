// Package utils implements various helper functions.
package utils

import (
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// BitReverse64 returns the bit-reverse value of the input value, within a context of 2^bitLen.
func BitReverse64[V constraints.Integer](index V, bitLen int) V {
	return V(bits.Reverse64(uint64(index)) >> (64 - bitLen))
}

// BitReverseInPlaceSlice applies an in-place bit-reverse permutation on the input slice.
// The length of the slice must be a power of two.
func BitReverseInPlaceSlice[V any](slice []V, N int) {

	var bit, j int

	for i := 1; i < N; i++ {

		bit = N >> 1

		for j >= bit {
			j -= bit
			bit >>= 1
		}

		j += bit

		if i < j {
			slice[i], slice[j] = slice[j], slice[i]
		}
	}
}

// IsPowerOfTwo returns true if x is a strictly positive power of two.
func IsPowerOfTwo[V constraints.Integer](x V) bool {
	return x > 0 && x&(x-1) == 0
}

// LogCeil returns ceil(log2(x)) for x > 0 and 0 otherwise.
func LogCeil[V constraints.Integer](x V) int {
	if x <= 1 {
		return 0
	}
	return bits.Len64(uint64(x) - 1)
}

// AllDistinct returns true if all elements in s are distinct, and false otherwise.
func AllDistinct[V comparable](s []V) bool {
	m := make(map[V]struct{}, len(s))
	for _, si := range s {
		if _, exists := m[si]; exists {
			return false
		}
		m[si] = struct{}{}
	}
	return true
}

// Alias1D returns true if x and y share the same base array.
// Taken from http://golang.org/src/pkg/math/big/nat.go#L340 .
func Alias1D[V any](x, y []V) bool {
	/* #nosec G103 -- pointer comparison only */
	return cap(x) > 0 && cap(y) > 0 && unsafe.Pointer(&x[0:cap(x)][cap(x)-1]) == unsafe.Pointer(&y[0:cap(y)][cap(y)-1])
}

// Sum returns the sum of the elements of s.
func Sum[V constraints.Integer | constraints.Float](s []V) (sum V) {
	for _, v := range s {
		sum += v
	}
	return
}
