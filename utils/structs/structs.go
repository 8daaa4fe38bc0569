// Package structs implements helpers to generalize vectors of structs, as well as their serialization.
package structs

// Equatable is implemented by types that can be compared for equality.
type Equatable[T any] interface {
	Equal(*T) bool
}

// Cloner is implemented by types that can be deep-copied.
type Cloner[V any] interface {
	Clone() *V
}

// BinarySizer is implemented by types that know their serialized size.
type BinarySizer interface {
	BinarySize() int
}

// MaxVectorSize is the largest number of components a [Vector] will
// allocate when decoding. Larger sizes are treated as corrupted input.
const MaxVectorSize = 1 << 24
