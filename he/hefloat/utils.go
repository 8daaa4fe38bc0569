package hefloat

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils"
)

// GetRootsComplex128 returns the roots e^{2*pi*i/m *j} for 0 <= j <= NthRoot.
func GetRootsComplex128(NthRoot int) (roots []complex128) {
	roots = make([]complex128, NthRoot+1)

	quarm := NthRoot >> 2

	angle := 2 * math.Pi / float64(NthRoot)

	for i := 0; i < quarm; i++ {
		roots[i] = complex(math.Cos(angle*float64(i)), 0)
	}

	for i := 0; i < quarm; i++ {
		roots[quarm-i] += complex(0, real(roots[i]))
	}

	for i := 1; i < quarm+1; i++ {
		roots[i+1*quarm] = complex(-real(roots[quarm-i]), imag(roots[quarm-i]))
		roots[i+2*quarm] = -roots[i]
		roots[i+3*quarm] = complex(real(roots[quarm-i]), -imag(roots[quarm-i]))
	}

	roots[NthRoot] = roots[0]

	return
}

// GetRotationGroup returns the powers 5^{j} mod NthRoot for 0 <= j < NthRoot/4.
func GetRotationGroup(NthRoot int) (rotGroup []int) {
	rotGroup = make([]int, NthRoot>>2)
	fivePows := 1
	for i := range rotGroup {
		rotGroup[i] = fivePows
		fivePows *= int(ring.GaloisGen)
		fivePows &= (NthRoot - 1)
	}
	return
}

// SpecialiFFT evaluates the CKKS special inverse FFT in place on the first N values.
// M is the order of the roots, rotGroup and roots are generated by
// GetRotationGroup(M) and GetRootsComplex128(M).
func SpecialiFFT(values []complex128, N, M int, rotGroup []int, roots []complex128) {

	logN := bits.Len64(uint64(N)) - 1
	logM := bits.Len64(uint64(M)) - 1

	for loglen := logN; loglen > 0; loglen-- {
		len := 1 << loglen
		lenh := len >> 1
		lenq := len << 2
		logGap := logM - 2 - loglen
		mask := lenq - 1
		for i := 0; i < N; i += len {
			for j, k := 0, i; j < lenh; j, k = j+1, k+1 {
				values[k], values[k+lenh] = values[k]+values[k+lenh], (values[k]-values[k+lenh])*roots[(lenq-(rotGroup[j]&mask))<<logGap]
			}
		}
	}

	NC := complex(float64(N), 0)
	for i := 0; i < N; i++ {
		values[i] /= NC
	}

	utils.BitReverseInPlaceSlice(values, N)
}

// SpecialFFT evaluates the CKKS special FFT in place on the first N values.
// It is the inverse of SpecialiFFT.
func SpecialFFT(values []complex128, N, M int, rotGroup []int, roots []complex128) {

	utils.BitReverseInPlaceSlice(values, N)

	logN := bits.Len64(uint64(N)) - 1
	logM := bits.Len64(uint64(M)) - 1

	for loglen := 1; loglen <= logN; loglen++ {
		len := 1 << loglen
		lenh := len >> 1
		lenq := len << 2
		logGap := logM - 2 - loglen
		mask := lenq - 1
		for i := 0; i < N; i += len {
			for j, k := 0, i; j < lenh; j, k = j+1, k+1 {
				values[k+lenh] *= roots[(rotGroup[j]&mask)<<logGap]
				values[k], values[k+lenh] = values[k]+values[k+lenh], values[k]-values[k+lenh]
			}
		}
	}
}

// scaleUp sets out to round(value * scale).
func scaleUp(value float64, scale *big.Float, out *big.Int) {

	x := new(big.Float).SetPrec(rlwe.ScalePrecision).SetFloat64(value)
	x.Mul(x, scale)

	half := new(big.Float).SetPrec(rlwe.ScalePrecision).SetFloat64(0.5)

	if x.Sign() > 0 {
		x.Add(x, half)
	} else {
		x.Sub(x, half)
	}

	x.Int(out)
}

// scaleDown returns coeff / scale as a float64.
func scaleDown(coeff *big.Int, scale *big.Float) (x float64) {
	f := new(big.Float).SetPrec(rlwe.ScalePrecision).SetInt(coeff)
	x, _ = f.Quo(f, scale).Float64()
	return
}
