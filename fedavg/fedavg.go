// Package fedavg implements the federated averaging of regression weight vectors
// under the approximate homomorphic encryption scheme of the package hefloat.
//
// A key holder generates a key pair for a [Context]. Each party encodes its
// weight vector and encrypts it under the public key into an [Envelope]. An
// [Aggregator] sums or averages the envelopes without decrypting them and the
// key holder decrypts the result back to a [WeightVector].
package fedavg

import (
	"fmt"
	"math"
)

// WeightVector is the ordered list of the coefficients of a regression
// model followed by its intercept.
type WeightVector []float64

// NewWeightVector returns the [WeightVector] [coefficients..., intercept].
func NewWeightVector(coefficients []float64, intercept float64) WeightVector {
	w := make(WeightVector, len(coefficients)+1)
	copy(w, coefficients)
	w[len(coefficients)] = intercept
	return w
}

// Coefficients returns the coefficients of the receiver, that is all values but the last.
func (w WeightVector) Coefficients() []float64 {
	if len(w) == 0 {
		return nil
	}
	return w[:len(w)-1]
}

// Intercept returns the last value of the receiver, or zero if it is empty.
func (w WeightVector) Intercept() float64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1]
}

// Clone returns a deep copy of the receiver.
func (w WeightVector) Clone() WeightVector {
	return append(WeightVector(nil), w...)
}

// Validate returns an error if the receiver holds a value that is not finite.
func (w WeightVector) Validate() error {
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid weight vector: value at index %d is not finite", i)
		}
	}
	return nil
}

// Contribution is the input of a party: its weight vector, the feature
// schema the weights were trained on and the number of samples used for
// training. A zero Count means that the count is unknown.
type Contribution struct {
	Name    string
	Weights WeightVector
	Schema  FeatureSchema
	Count   float64
}

// Validate checks that the weights are finite, that the count is valid and
// that the schema, if any, names every weight.
func (c Contribution) Validate() (err error) {

	if err = c.Weights.Validate(); err != nil {
		return
	}

	if err = checkCount(c.Count, false); err != nil {
		return
	}

	if c.Schema.Len() != 0 && c.Schema.Len() != len(c.Weights) {
		return fmt.Errorf("%w: schema has %d names but the weight vector has %d values", ErrLengthMismatch, c.Schema.Len(), len(c.Weights))
	}

	return
}

// VectorSource supplies the contribution of a party, for example from a CSV file.
type VectorSource interface {
	Load() (Contribution, error)
}

// checkCount returns an error wrapping [ErrInvalidCount] if count is negative or
// not finite, or if it is zero and required is true.
func checkCount(count float64, required bool) error {
	switch {
	case math.IsNaN(count) || math.IsInf(count, 0):
		return fmt.Errorf("%w: count is not finite", ErrInvalidCount)
	case count < 0:
		return fmt.Errorf("%w: count=%v is negative", ErrInvalidCount, count)
	case count == 0 && required:
		return fmt.Errorf("%w: count is missing", ErrInvalidCount)
	}
	return nil
}
