package ring

import (
	"math/big"
)

// RNSScalar represents a scalar value in the RNS domain.
// It is modeled as a slice of uint64, one per modulus of the ring.
type RNSScalar []uint64

// NewRNSScalar creates a new zero [RNSScalar].
func (r RNSRing) NewRNSScalar() RNSScalar {
	return make(RNSScalar, len(r))
}

// NewRNSScalarFromUInt64 creates a new [RNSScalar] initialized with value v.
func (r RNSRing) NewRNSScalarFromUInt64(v uint64) (rns RNSScalar) {
	rns = make(RNSScalar, len(r))
	for i, s := range r {
		rns[i] = BRedAdd(v, s.Modulus, s.BRedConstant)
	}
	return rns
}

// NewRNSScalarFromBigint creates a new [RNSScalar] initialized with value v.
// Negative values are mapped to their positive representative.
func (r RNSRing) NewRNSScalarFromBigint(v *big.Int) (rns RNSScalar) {
	rns = make(RNSScalar, len(r))
	tmp0 := new(big.Int)
	tmp1 := new(big.Int)
	for i, s := range r {
		rns[i] = tmp0.Mod(v, tmp1.SetUint64(s.Modulus)).Uint64()
	}
	return rns
}

// MFormRNSScalar switches an [RNSScalar] to the Montgomery domain.
// s2 = s1<<64 mod Q
func (r RNSRing) MFormRNSScalar(s1, s2 RNSScalar) {
	for i, s := range r {
		s2[i] = MForm(s1[i], s.Modulus, s.BRedConstant)
	}
}
