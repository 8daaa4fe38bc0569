// Package ring implements RNS-accelerated modular arithmetic operations for polynomials, including:
// RNS rescaling; number theoretic transform (NTT); uniform, Gaussian and ternary sampling.
package ring

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/Pro7ech/fedavg/utils"
	"github.com/Pro7ech/fedavg/utils/bignum"
)

// RNSRing is a struct regrouping a set of [Ring] sharing
// the same degree, one per prime of the moduli chain.
type RNSRing []*Ring

// NewRNSRing creates a new [RNSRing] with degree N and coefficient moduli Moduli.
// N must be a power of two larger than 8. Moduli should be a non-empty []uint64
// with distinct prime elements. All moduli must also be equal to 1 modulo 2*N.
// An error is returned with a nil [RNSRing] in the case of non NTT-enabling parameters.
func NewRNSRing(N int, Moduli []uint64) (r RNSRing, err error) {

	if len(Moduli) == 0 {
		return nil, fmt.Errorf("invalid ModuliChain (must be a non-empty []uint64)")
	}

	if !utils.AllDistinct(Moduli) {
		return nil, fmt.Errorf("invalid ModuliChain (moduli are not distinct)")
	}

	r = make([]*Ring, len(Moduli))

	for i := range r {
		if r[i], err = NewRing(N, Moduli[i]); err != nil {
			return nil, fmt.Errorf("invalid modulus at index %d: %w", i, err)
		}
	}

	return
}

// N returns the ring degree.
func (r RNSRing) N() int {
	return r[0].N
}

// LogN returns log2(ring degree).
func (r RNSRing) LogN() int {
	return bits.Len64(uint64(r.N() - 1))
}

// LogModuli returns the size of the modulus in bits.
func (r RNSRing) LogModuli() (logmod float64) {
	for _, qi := range r.ModuliChain() {
		logmod += math.Log2(float64(qi))
	}
	return
}

// NthRoot returns the multiplicative order of the primitive root.
func (r RNSRing) NthRoot() uint64 {
	return r[0].NthRoot
}

// ModuliChainLength returns the number of primes in the RNS basis of the ring.
func (r RNSRing) ModuliChainLength() int {
	return len(r)
}

// Level returns the level of the current ring.
func (r RNSRing) Level() int {
	return len(r) - 1
}

// AtLevel returns an instance of the target ring that operates at the target level.
// This instance is thread safe and can be use concurrently with the base ring.
func (r RNSRing) AtLevel(level int) RNSRing {

	// Sanity check
	if level < 0 {
		panic("level cannot be negative")
	}

	// Sanity check
	if level > r.Level() {
		panic("level cannot be larger than max level")
	}

	return r[:level+1]
}

// ModuliChain returns the list of primes in the modulus chain.
func (r RNSRing) ModuliChain() (moduli []uint64) {
	moduli = make([]uint64, len(r))
	for i := range r {
		moduli[i] = r[i].Modulus
	}
	return
}

// Modulus returns the full modulus.
// The internal level of the ring is taken into account.
func (r RNSRing) Modulus() (modulus *big.Int) {
	modulus = bignum.NewInt(r[0].Modulus)
	for _, s := range r[1:] {
		modulus.Mul(modulus, bignum.NewInt(s.Modulus))
	}
	return
}

// RescaleConstants returns [q_{level}^{-1}]_{q_i} in Montgomery form for i < level.
func (r RNSRing) RescaleConstants() (out []uint64) {

	qj := r[r.Level()].Modulus

	out = make([]uint64, r.Level())

	for i := 0; i < r.Level(); i++ {
		qi := r[i].Modulus
		out[i] = MForm(ModInverse(BRedAdd(qj, qi, r[i].BRedConstant), qi), qi, r[i].BRedConstant)
	}

	return
}

// NewRNSPoly creates a new [RNSPoly] with all coefficients set to 0.
func (r RNSRing) NewRNSPoly() RNSPoly {
	return NewRNSPoly(r.N(), r.Level())
}

// SetCoefficientsBigint sets the coefficients of p1 from an array of Int variables.
func (r RNSRing) SetCoefficientsBigint(coeffs []big.Int, p1 RNSPoly) {
	for i, s := range r {
		s.SetCoefficientsBigint(coeffs, p1.At(i))
	}
}

// PolyToBigint reconstructs p1 and returns the result in an array of Int.
// gap defines coefficients X^{i*gap} that will be reconstructed.
// For example, if gap = 1, then all coefficients are reconstructed, while
// if gap = 2 then only coefficients X^{2*i} are reconstructed.
func (r RNSRing) PolyToBigint(p1 RNSPoly, gap int, coeffsBigint []big.Int) {

	modulusBigint, crtReconstruction := crtConstants(r.ModuliChain())

	tmp := new(big.Int)

	N := r.N()

	for i, j := 0, 0; j < N; i, j = i+1, j+gap {
		coeffsBigint[i].SetUint64(0)
		for k := 0; k < r.Level()+1; k++ {
			tmp.SetUint64(p1.At(k)[j])
			coeffsBigint[i].Add(&coeffsBigint[i], tmp.Mul(tmp, crtReconstruction[k]))
		}
		coeffsBigint[i].Mod(&coeffsBigint[i], modulusBigint)
	}
}

// PolyToBigintCentered reconstructs p1 and returns the result in an array of Int.
// Coefficients are centered in (-Q/2, Q/2].
// gap defines coefficients X^{i*gap} that will be reconstructed.
func (r RNSRing) PolyToBigintCentered(p1 RNSPoly, gap int, values []big.Int) {

	r.PolyToBigint(p1, gap, values)

	Q := r.Modulus()
	QHalf := new(big.Int).Rsh(Q, 1)

	for i, j := 0, 0; j < r.N(); i, j = i+1, j+gap {
		bignum.Center(&values[i], Q, QHalf)
	}
}

// Equal checks if p1 = p2 in the given Ring.
func (r RNSRing) Equal(p1, p2 RNSPoly) bool {

	for i := 0; i < r.Level()+1; i++ {
		if len(p1.At(i)) != len(p2.At(i)) {
			return false
		}
	}

	p1Cpy := p1.Clone()
	p2Cpy := p2.Clone()

	r.Reduce(*p1Cpy, *p1Cpy)
	r.Reduce(*p2Cpy, *p2Cpy)

	for i := 0; i < r.Level()+1; i++ {
		if !p1Cpy.At(i).Equal(&(*p2Cpy)[i]) {
			return false
		}
	}

	return true
}

// Stats returns base 2 logarithm of the standard deviation
// and the mean of the centered coefficients of the polynomial.
func (r RNSRing) Stats(poly RNSPoly) [2]float64 {
	values := make([]big.Int, r.N())
	r.PolyToBigintCentered(poly, 1, values)
	return bignum.Stats(values, 128)
}
