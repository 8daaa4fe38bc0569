package fedavg

import (
	"errors"

	"github.com/Pro7ech/fedavg/rlwe"
)

var (
	// ErrLengthMismatch is returned when two vectors, or a vector and a
	// list of feature names, do not have the same length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrSchemaMismatch is returned when a contribution was produced for
	// a feature schema other than the one of the context.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrInvalidCount is returned when a sample count is negative, not finite,
	// or missing in weighted mode.
	ErrInvalidCount = errors.New("invalid sample count")

	// ErrNoInput is returned when an aggregation is requested on zero contributions.
	ErrNoInput = errors.New("no input")
)

// Errors of the encryption engine surfaced by this package.
var (
	ErrInvalidParameters = rlwe.ErrInvalidParameters
	ErrVectorTooLong     = rlwe.ErrVectorTooLong
	ErrLevelMismatch     = rlwe.ErrLevelMismatch
	ErrScaleMismatch     = rlwe.ErrScaleMismatch
	ErrLevelExhausted    = rlwe.ErrLevelExhausted
	ErrDeserialization   = rlwe.ErrDeserialization
)
