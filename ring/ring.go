package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/Pro7ech/fedavg/utils"
	"github.com/Pro7ech/fedavg/utils/bignum"
)

const (
	// GaloisGen is an integer of order N/2 modulo M that spans Z_M with the integer -1.
	// The j-th ring automorphism takes the root zeta to zeta^(5j).
	GaloisGen uint64 = 5

	// MinimumRingDegree is the minimum ring degree accepted by [NewRing].
	MinimumRingDegree = 8
)

// Ring is a struct storing precomputation
// for fast modular reduction and NTT for
// a given modulus.
type Ring struct {
	// Polynomial nb.Coefficients
	N int

	Modulus uint64

	// Unique factors of Modulus-1
	Factors []uint64

	// 2^bit_length(Modulus) - 1
	Mask uint64

	// Fast reduction constants
	BRedConstant [2]uint64 // Barrett Reduction
	MRedConstant uint64    // Montgomery Reduction

	*NTTTable // NTT related constants
}

// NewRing creates a new [Ring] of degree N and modulus Modulus and generates its NTT tables.
// An error is returned with a nil *Ring in the case of non NTT-enabling parameters.
func NewRing(N int, Modulus uint64) (r *Ring, err error) {

	// Checks if N is a power of 2
	if N < MinimumRingDegree || !utils.IsPowerOfTwo(N) {
		return nil, fmt.Errorf("invalid ring degree: must be a power of 2 greater or equal to %d", MinimumRingDegree)
	}

	if bits.Len64(Modulus) > MaxModulusBits {
		return nil, fmt.Errorf("invalid Modulus: Modulus > 2^%d", MaxModulusBits)
	}

	if Modulus&1 == 0 {
		return nil, fmt.Errorf("invalid Modulus: %d is even", Modulus)
	}

	r = &Ring{}

	r.N = N
	r.Modulus = Modulus
	r.Mask = (1 << uint64(bits.Len64(Modulus-1))) - 1

	// Computes the fast modular reduction constants for the Ring
	r.BRedConstant = GetBRedConstant(Modulus)
	r.MRedConstant = GetMRedConstant(Modulus)

	r.NTTTable = new(NTTTable)
	r.NthRoot = uint64(N) << 1

	if err = r.GenNTTTable(); err != nil {
		return nil, err
	}

	return
}

// LogN returns log2(N).
func (r Ring) LogN() int {
	return bits.Len64(uint64(r.N) - 1)
}

// NewPoly allocates a new [Poly] of N coefficients.
func (r Ring) NewPoly() Poly {
	return NewPoly(r.N)
}

// Stats returns base 2 logarithm of the standard deviation
// and the mean of the coefficients of the polynomial.
func (r Ring) Stats(poly Poly) [2]float64 {
	values := make([]big.Int, len(poly))
	for i := range values {
		values[i].SetUint64(poly[i])
	}
	return bignum.Stats(values, 128)
}

// GenNTTTable generates the NTT tables for the target Ring.
// The field `Factors` can be set manually to bypass the factorization
// of Modulus-1 and speedup the generation of the constants.
func (r *Ring) GenNTTTable() (err error) {

	if r.N == 0 || r.Modulus == 0 {
		return fmt.Errorf("invalid ring parameters (missing)")
	}

	Modulus := r.Modulus
	NthRoot := r.NthRoot

	// Checks if each qi is prime and equal to 1 mod NthRoot
	if !IsPrime(Modulus) {
		return fmt.Errorf("invalid modulus: %d is not prime", Modulus)
	}

	if Modulus&(NthRoot-1) != 1 {
		return fmt.Errorf("invalid modulus: %d != 1 mod NthRoot=%d", Modulus, NthRoot)
	}

	if r.PrimitiveRoot, r.Factors, err = PrimitiveRoot(Modulus, r.Factors); err != nil {
		return
	}

	logN := bits.Len64(NthRoot>>1) - 1

	// Computes N^(-1) mod Q in Montgomery form
	r.NInv = MForm(ModExp(NthRoot>>1, Modulus-2, Modulus), Modulus, r.BRedConstant)

	// Computes Psi and PsiInv in Montgomery form
	Psi := ModExp(r.PrimitiveRoot, (Modulus-1)/NthRoot, Modulus)

	PsiMont := MForm(Psi, Modulus, r.BRedConstant)

	// Checks that Psi^{N} = -1 mod Modulus
	if IMForm(ModExpMontgomery(PsiMont, NthRoot>>1, Modulus, r.MRedConstant, r.BRedConstant), Modulus, r.MRedConstant) != Modulus-1 {
		return fmt.Errorf("invalid 2Nth primitive root: psi^{N} != -1 mod Modulus")
	}

	PsiInvMont := ModExpMontgomery(PsiMont, Modulus-2, Modulus, r.MRedConstant, r.BRedConstant)

	r.RootsForward = make([]uint64, NthRoot>>1)
	r.RootsBackward = make([]uint64, NthRoot>>1)

	r.RootsForward[0] = MForm(1, Modulus, r.BRedConstant)
	r.RootsBackward[0] = MForm(1, Modulus, r.BRedConstant)

	// Computes RootsForward[j] = RootsForward[j-1]*Psi and RootsBackward[j] = RootsBackward[j-1]*PsiInv
	for j := uint64(1); j < NthRoot>>1; j++ {

		indexReversePrev := utils.BitReverse64(j-1, logN)
		indexReverseNext := utils.BitReverse64(j, logN)

		r.RootsForward[indexReverseNext] = MRed(r.RootsForward[indexReversePrev], PsiMont, Modulus, r.MRedConstant)
		r.RootsBackward[indexReverseNext] = MRed(r.RootsBackward[indexReversePrev], PsiInvMont, Modulus, r.MRedConstant)
	}

	return
}

// PrimitiveRoot computes the smallest primitive root of the given prime q.
// The unique factors of q-1 can be given to speed up the search for the root.
func PrimitiveRoot(q uint64, factors []uint64) (uint64, []uint64, error) {

	if factors != nil {
		if err := CheckFactors(q-1, factors); err != nil {
			return 0, factors, err
		}
	} else {
		factors = Factorize(q - 1)
	}

	for g := uint64(2); g < q; g++ {
		if CheckPrimitiveRoot(g, q, factors) == nil {
			return g, factors, nil
		}
	}

	return 0, factors, fmt.Errorf("no primitive root found for %d", q)
}

// CheckFactors checks that the given list of factors contains
// all the unique primes of m.
func CheckFactors(m uint64, factors []uint64) (err error) {

	for _, factor := range factors {

		if !IsPrime(factor) {
			return fmt.Errorf("composite factor")
		}

		for m%factor == 0 {
			m /= factor
		}
	}

	if m != 1 {
		return fmt.Errorf("incomplete factor list")
	}

	return
}

// CheckPrimitiveRoot checks that g is a valid primitive root mod q,
// given the factors of q-1.
func CheckPrimitiveRoot(g, q uint64, factors []uint64) (err error) {
	for _, factor := range factors {
		// if for any factor of q-1, g^(q-1)/factor = 1 mod q, g is not a primitive root
		if ModExp(g, (q-1)/factor, q) == 1 {
			return fmt.Errorf("invalid primitive root")
		}
	}
	return
}

// SetCoefficientsBigint sets the coefficients of p1 from an array of Int variables.
func (r Ring) SetCoefficientsBigint(coeffs []big.Int, p1 Poly) {
	QiBigint := new(big.Int).SetUint64(r.Modulus)
	coeffTmp := new(big.Int)
	for j := range coeffs {
		p1[j] = coeffTmp.Mod(&coeffs[j], QiBigint).Uint64()
	}
}
