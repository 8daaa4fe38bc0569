package bignum

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// NewFloat creates a new big.Float element with the given precision.
// Accepted types are: int, int64, uint64, float64, *big.Int and *big.Float.
func NewFloat(x interface{}, prec uint) (y *big.Float) {

	y = new(big.Float).SetPrec(prec)

	switch x := x.(type) {
	case int:
		y.SetInt64(int64(x))
	case int64:
		y.SetInt64(x)
	case uint64:
		y.SetUint64(x)
	case float64:
		y.SetFloat64(x)
	case *big.Int:
		y.SetInt(x)
	case *big.Float:
		y.Set(x)
	default:
		panic(fmt.Errorf("cannot NewFloat: accepted types are int, int64, uint64, float64, *big.Int, *big.Float, but is %T", x))
	}

	return
}

// Log2 returns log2(x) with the precision of x.
// x must be strictly positive.
func Log2(x *big.Float) (y *big.Float) {
	prec := max(x.Prec(), 64)
	ln2 := bigfloat.Log(NewFloat(2, prec))
	y = bigfloat.Log(NewFloat(x, prec))
	return y.Quo(y, ln2)
}

// Log2Int returns log2(x) as a float64 for x > 0.
// The computation is carried in arbitrary precision so that the result
// does not overflow for integers wider than the float64 exponent range.
func Log2Int(x *big.Int) float64 {
	if x.Sign() <= 0 {
		return math.Inf(-1)
	}
	f, _ := Log2(NewFloat(x, uint(max(64, x.BitLen())))).Float64()
	return f
}

// Exp2 returns 2^x with the given precision.
func Exp2(x float64, prec uint) *big.Float {
	return bigfloat.Pow(NewFloat(2, prec), NewFloat(x, prec))
}
