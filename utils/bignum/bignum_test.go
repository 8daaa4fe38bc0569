package bignum

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBignum(t *testing.T) {

	t.Run("NewInt", func(t *testing.T) {
		require.Equal(t, int64(-5), NewInt(-5).Int64())
		require.Equal(t, uint64(1<<63), NewInt(uint64(1<<63)).Uint64())
		require.Equal(t, "1267650600228229401496703205376", NewInt("1267650600228229401496703205376").String())
		require.Equal(t, int64(0), NewInt(nil).Int64())
	})

	t.Run("DivRound", func(t *testing.T) {
		for _, tc := range []struct{ a, b, want int64 }{
			{7, 2, 4},
			{-7, 2, -4},
			{5, 3, 2},
			{4, 3, 1},
			{-4, 3, -1},
			{6, 3, 2},
		} {
			have := new(big.Int)
			DivRound(big.NewInt(tc.a), big.NewInt(tc.b), have)
			require.Equal(t, tc.want, have.Int64(), "%d/%d", tc.a, tc.b)
		}
	})

	t.Run("Center", func(t *testing.T) {
		Q := big.NewInt(17)
		QHalf := big.NewInt(8)
		require.Equal(t, int64(7), Center(big.NewInt(7), Q, QHalf).Int64())
		require.Equal(t, int64(8), Center(big.NewInt(8), Q, QHalf).Int64())
		require.Equal(t, int64(-8), Center(big.NewInt(9), Q, QHalf).Int64())
		require.Equal(t, int64(-1), Center(big.NewInt(16), Q, QHalf).Int64())
	})

	t.Run("Log2", func(t *testing.T) {
		x := new(big.Int).Lsh(big.NewInt(1), 1500)
		require.InDelta(t, 1500, Log2Int(x), 1e-9)
		require.InDelta(t, math.Log2(3), Log2Int(big.NewInt(3)), 1e-12)
		require.True(t, math.IsInf(Log2Int(big.NewInt(0)), -1))
	})

	t.Run("Exp2", func(t *testing.T) {
		f, _ := Exp2(40, 128).Float64()
		require.InDelta(t, math.Exp2(40), f, 1e-3)
	})

	t.Run("Stats", func(t *testing.T) {
		values := make([]big.Int, 4)
		for i, v := range []int64{-2, -2, 2, 2} {
			values[i].SetInt64(v)
		}
		stats := Stats(values, 128)
		require.InDelta(t, math.Log2(math.Sqrt(16.0/3)), stats[0], 1e-9)
		require.InDelta(t, 0, stats[1], 1e-12)
	})
}
