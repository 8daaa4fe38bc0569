package hefloat_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
)

func testEncoder(tc *testContext, t *testing.T) {

	logPrec := tc.params.LogDefaultScale() - 10

	t.Run(GetTestName(tc.params, "Encoder/LogSlots"), func(t *testing.T) {
		require.Equal(t, 0, hefloat.LogSlots(0))
		require.Equal(t, 0, hefloat.LogSlots(1))
		require.Equal(t, 1, hefloat.LogSlots(2))
		require.Equal(t, 2, hefloat.LogSlots(3))
		require.Equal(t, 10, hefloat.LogSlots(1000))
		require.Equal(t, tc.params.LogMaxSlots(), hefloat.LogSlots(tc.params.MaxSlots()))
	})

	for _, slots := range []int{1, 3, 64, tc.params.MaxSlots()} {

		t.Run(GetTestName(tc.params, "Encoder/Encode/Plaintext"), func(t *testing.T) {
			values, pt, _ := newTestVectors(tc, nil, -1, 1, slots, tc.params.MaxLevel(), t)
			require.Equal(t, hefloat.LogSlots(slots), pt.LogSlots)
			hefloat.VerifyTestVectors(tc.params, tc.encoder, nil, values, pt, logPrec, *printPrecisionStats, t)
		})

		t.Run(GetTestName(tc.params, "Encoder/Encode/Pk"), func(t *testing.T) {
			values, _, ct := newTestVectors(tc, tc.encryptorPk, -1, 1, slots, tc.params.MaxLevel(), t)
			hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, ct, logPrec, *printPrecisionStats, t)
		})

		t.Run(GetTestName(tc.params, "Encoder/Encode/Sk"), func(t *testing.T) {
			values, _, ct := newTestVectors(tc, tc.encryptorSk, -1, 1, slots, tc.params.MaxLevel(), t)
			hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, ct, logPrec, *printPrecisionStats, t)
		})
	}

	t.Run(GetTestName(tc.params, "Encoder/Encode/Complex"), func(t *testing.T) {

		values := make([]complex128, tc.params.MaxSlots())
		for i := range values {
			values[i] = complex(tc.source.Float64(-1, 1), tc.source.Float64(-1, 1))
		}

		pt, err := tc.encoder.EncodeNew(values, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)

		ct, err := tc.encryptorPk.EncryptNew(pt)
		require.NoError(t, err)

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, ct, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Encoder/Encode/Level"), func(t *testing.T) {
		for level := 0; level <= tc.params.MaxLevel(); level++ {
			values, _, ct := newTestVectors(tc, tc.encryptorSk, -1, 1, 16, level, t)
			require.Equal(t, level, ct.Level())
			hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, ct, logPrec, *printPrecisionStats, t)
		}
	})

	t.Run(GetTestName(tc.params, "Encoder/Encode/NotNTT"), func(t *testing.T) {

		values := make([]float64, 32)
		for i := range values {
			values[i] = tc.source.Float64(-1, 1)
		}

		pt := rlwe.NewPlaintext(tc.params, tc.params.MaxLevel())
		pt.IsNTT = false
		require.NoError(t, tc.encoder.Encode(values, pt))

		hefloat.VerifyTestVectors(tc.params, tc.encoder, nil, values, pt, logPrec, *printPrecisionStats, t)

		ct, err := tc.encryptorPk.EncryptNew(pt)
		require.NoError(t, err)
		require.False(t, ct.IsNTT)

		hefloat.VerifyTestVectors(tc.params, tc.encoder, tc.decryptor, values, ct, logPrec, *printPrecisionStats, t)
	})

	t.Run(GetTestName(tc.params, "Encoder/Encode/Empty"), func(t *testing.T) {

		pt, err := tc.encoder.EncodeNew([]float64{}, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)
		require.Equal(t, 0, pt.LogSlots)
		require.Equal(t, 1, pt.Slots())

		have := make([]float64, 4)
		require.NoError(t, tc.encoder.Decode(pt, have))

		for i := range have {
			require.InDelta(t, 0, have[i], 1e-6)
		}
	})

	t.Run(GetTestName(tc.params, "Encoder/Decode/ZeroFill"), func(t *testing.T) {

		values := []float64{0.25, -0.5, 0.75}

		pt, err := tc.encoder.EncodeNew(values, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)
		require.Equal(t, 4, pt.Slots())

		have := make([]float64, 8)
		for i := range have {
			have[i] = 1
		}

		require.NoError(t, tc.encoder.Decode(pt, have))

		for i := range values {
			require.InDelta(t, values[i], have[i], 1e-6)
		}

		// Padding slot
		require.InDelta(t, 0, have[3], 1e-6)

		// Beyond the encoded slots
		for i := 4; i < len(have); i++ {
			require.Equal(t, 0.0, have[i])
		}

		// Decoding on a shorter vector only keeps the first entries.
		short := make([]float64, 2)
		require.NoError(t, tc.encoder.Decode(pt, short))
		require.InDelta(t, values[0], short[0], 1e-6)
		require.InDelta(t, values[1], short[1], 1e-6)
	})

	t.Run(GetTestName(tc.params, "Encoder/Encode/Errors"), func(t *testing.T) {

		_, err := tc.encoder.EncodeNew(make([]float64, tc.params.MaxSlots()+1), tc.params.MaxLevel(), tc.params.DefaultScale())
		require.True(t, errors.Is(err, rlwe.ErrVectorTooLong))

		_, err = tc.encoder.EncodeNew([]float64{1}, tc.params.MaxLevel()+1, tc.params.DefaultScale())
		require.True(t, errors.Is(err, rlwe.ErrLevelExhausted))

		_, err = tc.encoder.EncodeNew([]float64{1, math.NaN()}, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.Error(t, err)

		_, err = tc.encoder.EncodeNew([]float64{math.Inf(1)}, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.Error(t, err)

		_, err = tc.encoder.EncodeNew([]int{1, 2}, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.Error(t, err)

		pt, err := tc.encoder.EncodeNew([]float64{1}, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)
		require.True(t, errors.Is(tc.encoder.Decode(pt, make([]float64, tc.params.MaxSlots()+1)), rlwe.ErrVectorTooLong))
	})

	t.Run(GetTestName(tc.params, "Encoder/FFT"), func(t *testing.T) {

		logSlots := tc.params.LogMaxSlots() - 1

		values := make([]complex128, 1<<logSlots)
		for i := range values {
			values[i] = complex(tc.source.Float64(-1, 1), tc.source.Float64(-1, 1))
		}

		have := make([]complex128, len(values))
		copy(have, values)

		tc.encoder.IFFT(have, logSlots)
		tc.encoder.FFT(have, logSlots)

		for i := range values {
			require.InDelta(t, real(values[i]), real(have[i]), 1e-9)
			require.InDelta(t, imag(values[i]), imag(have[i]), 1e-9)
		}
	})

	t.Run(GetTestName(tc.params, "Encoder/ShallowCopy"), func(t *testing.T) {

		values := make([]float64, 16)
		for i := range values {
			values[i] = tc.source.Float64(-1, 1)
		}

		ecd := tc.encoder.ShallowCopy()

		pt0, err := tc.encoder.EncodeNew(values, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)

		pt1, err := ecd.EncodeNew(values, tc.params.MaxLevel(), tc.params.DefaultScale())
		require.NoError(t, err)

		require.True(t, pt0.Equal(pt1))
	})
}
