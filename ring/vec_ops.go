package ring

import (
	"fmt"
)

// checkLen panics if the slices do not all have the same length.
func checkLen(ps ...[]uint64) int {
	N := len(ps[0])
	for _, p := range ps[1:] {
		// Sanity check
		if len(p) != N {
			panic(fmt.Errorf("invalid vector lengths: %d != %d", len(p), N))
		}
	}
	return N
}

// AddVec evaluates p3 = p1 + p2 mod modulus.
func AddVec(p1, p2, p3 []uint64, modulus uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = CRed(p1[i]+p2[i], modulus)
	}
}

// SubVec evaluates p3 = p1 - p2 mod modulus.
func SubVec(p1, p2, p3 []uint64, modulus uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = CRed(p1[i]+modulus-p2[i], modulus)
	}
}

// NegVec evaluates p2 = -p1 mod modulus.
func NegVec(p1, p2 []uint64, modulus uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = CRed(modulus-p1[i], modulus)
	}
}

// BarrettReduceVec evaluates p2 = p1 mod modulus.
func BarrettReduceVec(p1, p2 []uint64, modulus uint64, bredconstant [2]uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = BRedAdd(p1[i], modulus, bredconstant)
	}
}

// MulBarrettReduceVec evaluates p3 = p1 * p2 mod modulus.
func MulBarrettReduceVec(p1, p2, p3 []uint64, modulus uint64, bredconstant [2]uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = BRed(p1[i], p2[i], modulus, bredconstant)
	}
}

// MulMontgomeryReduceVec evaluates p3 = p1 * p2 * 2^-64 mod modulus.
func MulMontgomeryReduceVec(p1, p2, p3 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = MRed(p1[i], p2[i], modulus, mredconstant)
	}
}

// MulMontgomeryReduceThenAddVec evaluates p3 = p3 + p1 * p2 * 2^-64 mod modulus.
func MulMontgomeryReduceThenAddVec(p1, p2, p3 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = CRed(p3[i]+MRed(p1[i], p2[i], modulus, mredconstant), modulus)
	}
}

// AddScalarVec evaluates p2 = p1 + scalar mod modulus.
// scalar must be in [0, modulus-1].
func AddScalarVec(p1 []uint64, scalar uint64, p2 []uint64, modulus uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = CRed(p1[i]+scalar, modulus)
	}
}

// SubScalarVec evaluates p2 = p1 - scalar mod modulus.
// scalar must be in [0, modulus-1].
func SubScalarVec(p1 []uint64, scalar uint64, p2 []uint64, modulus uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = CRed(p1[i]+modulus-scalar, modulus)
	}
}

// MulScalarMontgomeryReduceVec evaluates p2 = p1 * scalarMont * 2^-64 mod modulus.
func MulScalarMontgomeryReduceVec(p1 []uint64, scalarMont uint64, p2 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = MRed(p1[i], scalarMont, modulus, mredconstant)
	}
}

// MulScalarMontgomeryReduceThenAddVec evaluates p2 = p2 + p1 * scalarMont * 2^-64 mod modulus.
func MulScalarMontgomeryReduceThenAddVec(p1 []uint64, scalarMont uint64, p2 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = CRed(p2[i]+MRed(p1[i], scalarMont, modulus, mredconstant), modulus)
	}
}

// SubThenMulScalarMontgomeryReduceVec evaluates p3 = (p1 - p2) * scalarMont * 2^-64 mod modulus.
func SubThenMulScalarMontgomeryReduceVec(p1, p2 []uint64, scalarMont uint64, p3 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2, p3)
	for i := range p1 {
		p3[i] = MRed(p1[i]+modulus-p2[i], scalarMont, modulus, mredconstant)
	}
}

// MFormVec evaluates p2 = p1 * 2^64 mod modulus.
func MFormVec(p1, p2 []uint64, modulus uint64, bredconstant [2]uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = MForm(p1[i], modulus, bredconstant)
	}
}

// IMFormVec evaluates p2 = p1 * 2^-64 mod modulus.
func IMFormVec(p1, p2 []uint64, modulus, mredconstant uint64) {
	checkLen(p1, p2)
	for i := range p1 {
		p2[i] = IMForm(p1[i], modulus, mredconstant)
	}
}

// ZeroVec sets all values of p1 to zero.
func ZeroVec(p1 []uint64) {
	for i := range p1 {
		p1[i] = 0
	}
}
