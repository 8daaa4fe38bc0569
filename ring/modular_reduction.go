package ring

import (
	"math/big"
	"math/bits"
)

// GetBRedConstant computes the constant for the Barrett reduction,
// that is floor(2^128/q) as [hi, lo].
func GetBRedConstant(q uint64) [2]uint64 {
	bigR := new(big.Int).Lsh(big.NewInt(1), 128)
	bigR.Quo(bigR, new(big.Int).SetUint64(q))
	mhi := new(big.Int).Rsh(bigR, 64).Uint64()
	mlo := new(big.Int).And(bigR, new(big.Int).SetUint64(0xFFFFFFFFFFFFFFFF)).Uint64()
	return [2]uint64{mhi, mlo}
}

// GetMRedConstant computes the constant q^-1 mod 2^64
// required for the Montgomery reduction.
// q must be odd.
func GetMRedConstant(q uint64) (qInv uint64) {
	qInv = q
	// Newton iteration: each step doubles the number of correct bits.
	for i := 0; i < 5; i++ {
		qInv *= 2 - q*qInv
	}
	return
}

// MForm returns a*2^64 mod q.
// Assumes a < q.
func MForm(a, q uint64, bredconstant [2]uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, bredconstant[1])
	r = -(a*bredconstant[0] + mhi) * q
	if r >= q {
		r -= q
	}
	return
}

// MFormLazy returns a*2^64 mod q in the range [0, 2q-1].
func MFormLazy(a, q uint64, bredconstant [2]uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, bredconstant[1])
	return -(a*bredconstant[0] + mhi) * q
}

// IMForm returns a*2^-64 mod q.
func IMForm(a, q, mredconstant uint64) (r uint64) {
	r, _ = bits.Mul64(a*mredconstant, q)
	r = q - r
	if r >= q {
		r -= q
	}
	return
}

// MRed computes x * y * 2^-64 mod q.
// Assumes x * y < q * 2^64.
func MRed(x, y, q, mredconstant uint64) (r uint64) {
	r = MRedLazy(x, y, q, mredconstant)
	if r >= q {
		r -= q
	}
	return
}

// MRedLazy computes x * y * 2^-64 mod q in the range [0, 2q-1].
// Assumes x * y < q * 2^64.
func MRedLazy(x, y, q, mredconstant uint64) (r uint64) {
	ahi, alo := bits.Mul64(x, y)
	R := alo * mredconstant
	H, _ := bits.Mul64(R, q)
	return ahi - H + q
}

// BRedAdd reduces a 64-bit integer modulo q.
func BRedAdd(x, q uint64, bredconstant [2]uint64) (r uint64) {
	s0, _ := bits.Mul64(x, bredconstant[0])
	r = x - s0*q
	if r >= q {
		r -= q
	}
	return
}

// BRed computes x * y mod q.
func BRed(x, y, q uint64, bredconstant [2]uint64) (r uint64) {

	var lhi, mhi, mlo, s0, s1, carry uint64

	ahi, alo := bits.Mul64(x, y)

	// (alo*ulo)>>64
	lhi, _ = bits.Mul64(alo, bredconstant[1])

	// ((ahi*ulo + alo*uhi) + (alo*ulo))>>64
	mhi, mlo = bits.Mul64(alo, bredconstant[0])

	s0, carry = bits.Add64(mlo, lhi, 0)

	s1 = mhi + carry

	mhi, mlo = bits.Mul64(ahi, bredconstant[1])

	_, carry = bits.Add64(mlo, s0, 0)

	lhi = mhi + carry

	// (ahi*uhi) + (((ahi*ulo + alo*uhi) + (alo*ulo))>>64)
	s0 = ahi*bredconstant[0] + s1 + lhi

	r = alo - s0*q

	if r >= q {
		r -= q
	}

	return
}

// CRed reduces a value in [0, 2q-1] to [0, q-1].
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}
