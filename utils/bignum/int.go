// Package bignum implements arbitrary precision arithmetic helpers on top of math/big.
package bignum

import (
	"fmt"
	"math/big"
)

// NewInt allocates a new *big.Int.
// Accepted types are: string, uint, uint64, int64, int, *big.Float or *big.Int.
func NewInt(x interface{}) (y *big.Int) {

	y = new(big.Int)

	switch x := x.(type) {
	case nil:
	case string:
		if _, ok := y.SetString(x, 0); !ok {
			panic(fmt.Errorf("cannot NewInt: invalid string %q", x))
		}
	case uint:
		y.SetUint64(uint64(x))
	case uint64:
		y.SetUint64(x)
	case int64:
		y.SetInt64(x)
	case int:
		y.SetInt64(int64(x))
	case *big.Float:
		x.Int(y)
	case *big.Int:
		y.Set(x)
	default:
		panic(fmt.Errorf("cannot NewInt: accepted types are string, uint, uint64, int, int64, *big.Float, *big.Int, but is %T", x))
	}

	return
}

// DivRound sets i to round(a/b), rounding half away from zero.
func DivRound(a, b, i *big.Int) {

	var q, r big.Int
	q.QuoRem(a, b, &r)

	r.Lsh(&r, 1)

	if r.CmpAbs(b) >= 0 {
		if a.Sign() == b.Sign() {
			q.Add(&q, big.NewInt(1))
		} else {
			q.Sub(&q, big.NewInt(1))
		}
	}

	i.Set(&q)
}

// Center maps x in [0, Q) to its representative in (-Q/2, Q/2].
// QHalf must be equal to floor(Q/2).
func Center(x, Q, QHalf *big.Int) *big.Int {
	if x.Cmp(QHalf) > 0 {
		x.Sub(x, Q)
	}
	return x
}
