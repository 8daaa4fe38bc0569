package ring

import (
	"math/big"

	"github.com/Pro7ech/fedavg/utils/concurrency"
)

// Add evaluates p3 = p1 + p2 coefficient-wise in the ring.
func (r RNSRing) Add(p1, p2, p3 RNSPoly) {
	for i, s := range r {
		s.Add(p1.At(i), p2.At(i), p3.At(i))
	}
}

// Sub evaluates p3 = p1 - p2 coefficient-wise in the ring.
func (r RNSRing) Sub(p1, p2, p3 RNSPoly) {
	for i, s := range r {
		s.Sub(p1.At(i), p2.At(i), p3.At(i))
	}
}

// Neg evaluates p2 = -p1 coefficient-wise in the ring.
func (r RNSRing) Neg(p1, p2 RNSPoly) {
	for i, s := range r {
		s.Neg(p1.At(i), p2.At(i))
	}
}

// Reduce evaluates p2 = p1 coefficient-wise mod modulus in the ring.
func (r RNSRing) Reduce(p1, p2 RNSPoly) {
	for i, s := range r {
		s.Reduce(p1.At(i), p2.At(i))
	}
}

// MulCoeffsBarrett evaluates p3 = p1 * p2 coefficient-wise in the ring.
func (r RNSRing) MulCoeffsBarrett(p1, p2, p3 RNSPoly) {
	for i, s := range r {
		s.MulCoeffsBarrett(p1.At(i), p2.At(i), p3.At(i))
	}
}

// MulCoeffsMontgomery evaluates p3 = p1 * p2 * 2^-64 coefficient-wise in the ring.
func (r RNSRing) MulCoeffsMontgomery(p1, p2, p3 RNSPoly) {
	for i, s := range r {
		s.MulCoeffsMontgomery(p1.At(i), p2.At(i), p3.At(i))
	}
}

// MulCoeffsMontgomeryThenAdd evaluates p3 = p3 + (p1 * p2 * 2^-64) coefficient-wise in the ring.
func (r RNSRing) MulCoeffsMontgomeryThenAdd(p1, p2, p3 RNSPoly) {
	for i, s := range r {
		s.MulCoeffsMontgomeryThenAdd(p1.At(i), p2.At(i), p3.At(i))
	}
}

// AddScalar evaluates p2 = p1 + scalar coefficient-wise in the ring.
func (r RNSRing) AddScalar(p1 RNSPoly, scalar uint64, p2 RNSPoly) {
	for i, s := range r {
		s.AddScalar(p1.At(i), scalar, p2.At(i))
	}
}

// MulScalar evaluates p2 = p1 * scalar coefficient-wise in the ring.
func (r RNSRing) MulScalar(p1 RNSPoly, scalar uint64, p2 RNSPoly) {
	for i, s := range r {
		s.MulScalar(p1.At(i), scalar, p2.At(i))
	}
}

// MulScalarBigint evaluates p2 = p1 * scalar coefficient-wise in the ring.
// The scalar can be negative and larger than any of the moduli.
func (r RNSRing) MulScalarBigint(p1 RNSPoly, scalar *big.Int, p2 RNSPoly) {
	scalarRNS := r.NewRNSScalarFromBigint(scalar)
	r.MFormRNSScalar(scalarRNS, scalarRNS)
	r.MulRNSScalarMontgomery(p1, scalarRNS, p2)
}

// MulRNSScalarMontgomery evaluates p2 = p1 * scalar coefficient-wise in the ring,
// with the scalar in RNS and Montgomery form.
func (r RNSRing) MulRNSScalarMontgomery(p1 RNSPoly, scalar RNSScalar, p2 RNSPoly) {
	for i, s := range r {
		s.MulScalarMontgomery(p1.At(i), scalar[i], p2.At(i))
	}
}

// MForm evaluates p2 = p1 * 2^64 coefficient-wise in the ring.
func (r RNSRing) MForm(p1, p2 RNSPoly) {
	for i, s := range r {
		s.MForm(p1.At(i), p2.At(i))
	}
}

// IMForm evaluates p2 = p1 * 2^-64 coefficient-wise in the ring.
func (r RNSRing) IMForm(p1, p2 RNSPoly) {
	for i, s := range r {
		s.IMForm(p1.At(i), p2.At(i))
	}
}

// NTT evaluates p2 = NTT(p1).
func (r RNSRing) NTT(p1, p2 RNSPoly) {
	for i, s := range r {
		s.NTT(p1.At(i), p2.At(i))
	}
}

// INTT evaluates p2 = INTT(p1).
func (r RNSRing) INTT(p1, p2 RNSPoly) {
	for i, s := range r {
		s.INTT(p1.At(i), p2.At(i))
	}
}

// NTTParallel evaluates p2 = NTT(p1) with the limbs distributed over at most workers goroutines.
func (r RNSRing) NTTParallel(p1, p2 RNSPoly, workers int) {
	// The limbs are disjoint and the transform cannot fail.
	_ = concurrency.ForEach(len(r), workers, func(i int) error {
		r[i].NTT(p1.At(i), p2.At(i))
		return nil
	})
}

// INTTParallel evaluates p2 = INTT(p1) with the limbs distributed over at most workers goroutines.
func (r RNSRing) INTTParallel(p1, p2 RNSPoly, workers int) {
	_ = concurrency.ForEach(len(r), workers, func(i int) error {
		r[i].INTT(p1.At(i), p2.At(i))
		return nil
	})
}

// MulPoly evaluates p3 = p1 * p2 mod (X^N+1) for inputs outside of the NTT domain.
// buff must be an [RNSPoly] of at least the level of the ring.
func (r RNSRing) MulPoly(p1, p2, buff, p3 RNSPoly) {
	r.NTT(p1, buff)
	r.NTT(p2, p3)
	r.MForm(buff, buff)
	r.MulCoeffsMontgomery(buff, p3, p3)
	r.INTT(p3, p3)
}
