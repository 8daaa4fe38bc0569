package rlwe

import "errors"

var (
	// ErrInvalidParameters is returned when a parameter set cannot be
	// instantiated or does not meet its targeted security level.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrVectorTooLong is returned when a vector has more values than
	// the number of slots of the parameters.
	ErrVectorTooLong = errors.New("vector too long")

	// ErrLevelMismatch is returned when two operands are not at the same level.
	ErrLevelMismatch = errors.New("level mismatch")

	// ErrScaleMismatch is returned when two operands do not share the same scale.
	ErrScaleMismatch = errors.New("scale mismatch")

	// ErrLevelExhausted is returned when an operation requires more levels
	// than the operand has left, or when the level of an operand is out of
	// range for the parameters.
	ErrLevelExhausted = errors.New("level exhausted")

	// ErrDeserialization is returned when an object cannot be decoded.
	ErrDeserialization = errors.New("deserialization failed")
)
