package rlwe

import (
	"fmt"
)

// Security levels (in bits) for which a maximum modulus size is tabulated.
const (
	Security128 = 128
	Security192 = 192
	Security256 = 256
)

// maxLogQ is the maximum log2 of the modulus Q for a ternary secret,
// indexed by LogN and by security level, from the homomorphic encryption
// security standard.
var maxLogQ = map[int]map[int]int{
	12: {Security128: 109, Security192: 75, Security256: 58},
	13: {Security128: 218, Security192: 152, Security256: 118},
	14: {Security128: 438, Security192: 305, Security256: 237},
	15: {Security128: 881, Security192: 611, Security256: 476},
	16: {Security128: 1772, Security192: 1228, Security256: 956},
}

// MaxLogQ returns the maximum log2 of the modulus Q that a ring of degree 2^LogN
// can use while achieving the given security level.
func MaxLogQ(LogN, security int) (int, error) {

	switch security {
	case Security128, Security192, Security256:
	default:
		return 0, fmt.Errorf("%w: security must be %d, %d or %d but is %d", ErrInvalidParameters, Security128, Security192, Security256, security)
	}

	table, ok := maxLogQ[LogN]
	if !ok {
		return 0, fmt.Errorf("%w: LogN must be in [12, 16] but is %d", ErrInvalidParameters, LogN)
	}

	return table[security], nil
}

// CheckSecurity returns an error wrapping [ErrInvalidParameters] if a ring
// of degree 2^LogN with a modulus of LogQ bits does not achieve the given
// security level.
func CheckSecurity(LogN int, LogQ float64, security int) (err error) {

	var bound int
	if bound, err = MaxLogQ(LogN, security); err != nil {
		return
	}

	if LogQ > float64(bound) {
		return fmt.Errorf("%w: LogQ=%.2f exceeds %d bits for LogN=%d at %d-bit security", ErrInvalidParameters, LogQ, bound, LogN, security)
	}

	return
}
