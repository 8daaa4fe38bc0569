package bignum

import (
	"math"
	"math/big"
)

// Stats returns the base 2 logarithm of the standard deviation
// and the mean of the given values, computed with prec bits of precision.
func Stats(values []big.Int, prec uint) [2]float64 {

	N := len(values)

	if N < 2 {
		return [2]float64{math.Inf(-1), 0}
	}

	mean := NewFloat(0, prec)
	tmp := NewFloat(0, prec)

	for i := range values {
		mean.Add(mean, tmp.SetInt(&values[i]))
	}

	mean.Quo(mean, NewFloat(N, prec))

	variance := NewFloat(0, prec)

	for i := range values {
		tmp.SetInt(&values[i])
		tmp.Sub(tmp, mean)
		tmp.Mul(tmp, tmp)
		variance.Add(variance, tmp)
	}

	variance.Quo(variance, NewFloat(N-1, prec))

	std, _ := variance.Sqrt(variance).Float64()
	meanF64, _ := mean.Float64()

	return [2]float64{math.Log2(std), meanF64}
}
