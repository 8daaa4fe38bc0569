package fedavg

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"
)

// DigestSize is the size in bytes of a [FeatureSchema] digest.
const DigestSize = 32

// Digest identifies an ordered list of feature names.
// The zero Digest stands for an unknown schema.
type Digest [DigestSize]byte

// IsZero returns true if the receiver is the digest of an unknown schema.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	if d.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%x", d[:8])
}

// InterceptName is the name of the last entry of a [WeightVector].
const InterceptName = "Intercept"

// FeatureSchema is the ordered list of the names of the values of a
// [WeightVector], the intercept included.
type FeatureSchema struct {
	Names []string
}

// DefaultFeatureSchema returns the schema [f0, ..., f{n-2}, Intercept]
// for a weight vector of n values.
func DefaultFeatureSchema(n int) FeatureSchema {

	if n <= 0 {
		return FeatureSchema{}
	}

	names := make([]string, n)
	for i := range names[:n-1] {
		names[i] = fmt.Sprintf("f%d", i)
	}
	names[n-1] = InterceptName

	return FeatureSchema{Names: names}
}

// Len returns the number of names of the schema.
func (s FeatureSchema) Len() int {
	return len(s.Names)
}

// Equal returns true if both schemas list the same names in the same order.
func (s FeatureSchema) Equal(other *FeatureSchema) bool {
	return slices.Equal(s.Names, other.Names)
}

// Digest returns the BLAKE3 hash of the length-prefixed names of the schema.
// The empty schema has the zero digest.
func (s FeatureSchema) Digest() (d Digest) {

	if s.Len() == 0 {
		return
	}

	h := blake3.New()

	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(len(s.Names)))
	_, _ = h.Write(buf[:])

	for _, name := range s.Names {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(name)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(name))
	}

	copy(d[:], h.Sum(nil))

	return
}

// NamedWeight is a value of a [WeightVector] together with its feature name.
type NamedWeight struct {
	Feature     string
	Coefficient float64
}

// AttachNames pairs each value with the name at the same position in the schema.
// It returns an error wrapping [ErrLengthMismatch] if the schema and values
// do not have the same length.
func (s FeatureSchema) AttachNames(values []float64) (named []NamedWeight, err error) {

	if len(values) != s.Len() {
		return nil, fmt.Errorf("cannot AttachNames: %w: %d names for %d values", ErrLengthMismatch, s.Len(), len(values))
	}

	named = make([]NamedWeight, len(values))
	for i := range values {
		named[i] = NamedWeight{Feature: s.Names[i], Coefficient: values[i]}
	}

	return
}
