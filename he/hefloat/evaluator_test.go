package hefloat_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
)

func testEvaluatorAdd(tc *testContext, t *testing.T) {

	logPrec := tc.params.LogDefaultScale() - 10

	t.Run(GetTestName(tc.params, "Evaluator/AddNew/Ct/Ct"), func(t *testing.T) {

		values0, _, ct0 := newTestVectors(tc, tc.encryptorPk, -1, 1, tc.params.MaxSlots(), tc.params.MaxLevel(), t)
		values1, _, ct1 := newTestVectors(tc, tc.encryptorSk, -1, 1, tc.params.MaxSlots(), tc.params.MaxLevel(), t)

		want := make([]float64, len(values0))
		for i := range want {
			want[i] = values0[i] + values1[i]
		}

		ct0Copy := ct0.Clone()

		ct, err := tc.evaluator.AddNew(ct0, ct1)
		require.NoError(t, err)

		require.True(t, ct0.Equal(ct0Copy))
		require.Equal(t, ct0.Level(), ct.Level())
		require.Zero(t, ct.Scale.Cmp(ct0.Scale))

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, want, ct, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Evaluator/AddNew/Slots"), func(t *testing.T) {

		_, _, ct0 := newTestVectors(tc, tc.encryptorPk, -1, 1, 4, tc.params.MaxLevel(), t)
		_, _, ct1 := newTestVectors(tc, tc.encryptorPk, -1, 1, 16, tc.params.MaxLevel(), t)

		ct, err := tc.evaluator.AddNew(ct0, ct1)
		require.NoError(t, err)
		require.Equal(t, 16, ct.Slots())
	})

	t.Run(GetTestName(tc.params, "Evaluator/AddNew/LevelMismatch"), func(t *testing.T) {

		_, _, ct0 := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel(), t)
		_, _, ct1 := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel()-1, t)

		_, err := tc.evaluator.AddNew(ct0, ct1)
		require.True(t, errors.Is(err, rlwe.ErrLevelMismatch))
	})

	t.Run(GetTestName(tc.params, "Evaluator/AddNew/ScaleMismatch"), func(t *testing.T) {

		_, _, ct0 := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel(), t)

		pt, err := tc.encoder.EncodeNew([]float64{1, 2, 3}, tc.params.MaxLevel(), tc.params.DefaultScale().Mul(rlwe.NewScale(2)))
		require.NoError(t, err)

		ct1, err := tc.encryptorPk.EncryptNew(pt)
		require.NoError(t, err)

		_, err = tc.evaluator.AddNew(ct0, ct1)
		require.True(t, errors.Is(err, rlwe.ErrScaleMismatch))
	})

	t.Run(GetTestName(tc.params, "Evaluator/AddNew/Nil"), func(t *testing.T) {
		_, _, ct0 := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel(), t)
		_, err := tc.evaluator.AddNew(ct0, nil)
		require.Error(t, err)
	})
}

func testEvaluatorMulScalar(tc *testContext, t *testing.T) {

	logPrec := tc.params.LogDefaultScale() - 10

	for _, constant := range []float64{0.5, -1.25, 3, 1.0 / 3.0, 0} {

		t.Run(GetTestName(tc.params, "Evaluator/MulScalarThenRescaleNew"), func(t *testing.T) {

			values, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, tc.params.MaxSlots(), tc.params.MaxLevel(), t)

			want := make([]float64, len(values))
			for i := range want {
				want[i] = values[i] * constant
			}

			ctCopy := ct.Clone()

			res, err := tc.evaluator.MulScalarThenRescaleNew(ct, constant)
			require.NoError(t, err)

			require.True(t, ct.Equal(ctCopy))
			require.Equal(t, ct.Level()-1, res.Level())
			require.Zero(t, res.Scale.Cmp(ct.Scale))
			require.Equal(t, ct.LogSlots, res.LogSlots)

			hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, want, res, logPrec, *printPrecisionStats, t)
		})
	}

	t.Run(GetTestName(tc.params, "Evaluator/MulScalarThenRescaleNew/Chain"), func(t *testing.T) {

		values, _, ct := newTestVectors(tc, tc.encryptorSk, -1, 1, 32, tc.params.MaxLevel(), t)

		want := make([]float64, len(values))
		copy(want, values)

		var err error
		for ct.Level() > 0 {
			ct, err = tc.evaluator.MulScalarThenRescaleNew(ct, 0.75)
			require.NoError(t, err)
			for i := range want {
				want[i] *= 0.75
			}
		}

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, want, ct, logPrec, *printPrecisionStats, t)

		_, err = tc.evaluator.MulScalarThenRescaleNew(ct, 0.5)
		require.True(t, errors.Is(err, rlwe.ErrLevelExhausted))
	})

	t.Run(GetTestName(tc.params, "Evaluator/MulScalarThenRescaleNew/NotFinite"), func(t *testing.T) {

		_, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel(), t)

		_, err := tc.evaluator.MulScalarThenRescaleNew(ct, math.NaN())
		require.Error(t, err)

		_, err = tc.evaluator.MulScalarThenRescaleNew(ct, math.Inf(-1))
		require.Error(t, err)
	})
}

func testEvaluatorRescale(tc *testContext, t *testing.T) {

	logPrec := tc.params.LogDefaultScale() - 10

	t.Run(GetTestName(tc.params, "Evaluator/RescaleNew"), func(t *testing.T) {

		level := tc.params.MaxLevel()

		qL := rlwe.NewScale(tc.params.Q()[level])

		values := make([]float64, tc.params.MaxSlots())
		for i := range values {
			values[i] = tc.source.Float64(-1, 1)
		}

		pt, err := tc.encoder.EncodeNew(values, level, tc.params.DefaultScale().Mul(qL))
		require.NoError(t, err)

		ct, err := tc.encryptorPk.EncryptNew(pt)
		require.NoError(t, err)

		res, err := tc.evaluator.RescaleNew(ct)
		require.NoError(t, err)

		require.Equal(t, level-1, res.Level())
		require.Zero(t, res.Scale.Cmp(tc.params.DefaultScale()))

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, res, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Evaluator/RescaleNew/LevelExhausted"), func(t *testing.T) {

		_, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, 0, t)

		_, err := tc.evaluator.RescaleNew(ct)
		require.True(t, errors.Is(err, rlwe.ErrLevelExhausted))
	})
}

func testEvaluatorDropLevel(tc *testContext, t *testing.T) {

	logPrec := tc.params.LogDefaultScale() - 10

	t.Run(GetTestName(tc.params, "Evaluator/DropLevelNew"), func(t *testing.T) {

		values, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, tc.params.MaxSlots(), tc.params.MaxLevel(), t)

		for levels := 0; levels <= tc.params.MaxLevel(); levels++ {

			res, err := tc.evaluator.DropLevelNew(ct, levels)
			require.NoError(t, err)

			require.Equal(t, ct.Level()-levels, res.Level())
			require.Zero(t, res.Scale.Cmp(ct.Scale))

			hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, res, logPrec, *printPrecisionStats, t)
		}

		require.Equal(t, tc.params.MaxLevel(), ct.Level())
	})

	t.Run(GetTestName(tc.params, "Evaluator/DropLevelNew/Errors"), func(t *testing.T) {

		_, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, 8, tc.params.MaxLevel(), t)

		_, err := tc.evaluator.DropLevelNew(ct, tc.params.MaxLevel()+1)
		require.True(t, errors.Is(err, rlwe.ErrLevelExhausted))

		_, err = tc.evaluator.DropLevelNew(ct, -1)
		require.Error(t, err)
	})
}

// testAveraging checks the averaging of the weight vectors of
// several parties, with uniform and with sample-count weights.
func testAveraging(tc *testContext, t *testing.T) {

	const parties = 5

	logPrec := tc.params.LogDefaultScale() - 10

	slots := 100

	values := make([][]float64, parties)
	cts := make([]*rlwe.Ciphertext, parties)

	for i := range values {
		values[i], _, cts[i] = newTestVectors(tc, tc.encryptorPk, -4, 4, slots, tc.params.MaxLevel(), t)
	}

	t.Run(GetTestName(tc.params, "Averaging/Uniform"), func(t *testing.T) {

		want := make([]float64, slots)
		for i := range values {
			for j := range want {
				want[j] += values[i][j]
			}
		}

		for j := range want {
			want[j] /= parties
		}

		sum := cts[0]
		for i := 1; i < parties; i++ {
			var err error
			sum, err = tc.evaluator.AddNew(sum, cts[i])
			require.NoError(t, err)
		}

		avg, err := tc.evaluator.MulScalarThenRescaleNew(sum, 1.0/parties)
		require.NoError(t, err)

		require.Equal(t, tc.params.MaxLevel()-1, avg.Level())

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, want, avg, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Averaging/Weighted"), func(t *testing.T) {

		counts := []float64{10, 250, 3, 70, 1}

		var total float64
		for _, c := range counts {
			total += c
		}

		want := make([]float64, slots)
		for i := range values {
			for j := range want {
				want[j] += values[i][j] * counts[i] / total
			}
		}

		var avg *rlwe.Ciphertext
		for i := range cts {

			weighted, err := tc.evaluator.MulScalarThenRescaleNew(cts[i], counts[i]/total)
			require.NoError(t, err)

			if avg == nil {
				avg = weighted
			} else if avg, err = tc.evaluator.AddNew(avg, weighted); err != nil {
				t.Fatal(err)
			}
		}

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, want, avg, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Averaging/ShallowCopy"), func(t *testing.T) {

		eval := tc.evaluator.ShallowCopy()

		res0, err := tc.evaluator.AddNew(cts[0], cts[1])
		require.NoError(t, err)

		res1, err := eval.AddNew(cts[0], cts[1])
		require.NoError(t, err)

		require.True(t, res0.Equal(res1))
	})
}
