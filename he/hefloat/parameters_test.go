package hefloat_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

func testParameters(tc *testContext, t *testing.T) {

	t.Run(GetTestName(tc.params, "Parameters/NewParameters"), func(t *testing.T) {
		params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
			LogN:            4,
			LogQ:            []int{60, 60},
			LogDefaultScale: 0,
		})
		require.NoError(t, err)
		require.True(t, params.Xe().Equal(&rlwe.DefaultXe))
		require.True(t, params.Xs().Equal(&rlwe.DefaultXs))
		require.Equal(t, 0, params.LogDefaultScale())
		require.Equal(t, 0, params.Security())
		require.Equal(t, 8, params.MaxSlots())
		require.Equal(t, 3, params.LogMaxSlots())
	})

	t.Run(GetTestName(tc.params, "Parameters/Accessors"), func(t *testing.T) {
		require.Equal(t, tc.params.N()>>1, tc.params.MaxSlots())
		require.Equal(t, tc.params.MaxLevel(), tc.params.MaxDepth())
		require.Zero(t, tc.params.QBigInt().Cmp(tc.params.QLvl(tc.params.MaxLevel())))
		require.Equal(t, tc.params.QBigInt().BitLen(), tc.params.LogQLvl(tc.params.MaxLevel()))
		require.Equal(t, tc.params.Q()[0], tc.params.QLvl(0).Uint64())
	})

	t.Run(GetTestName(tc.params, "Parameters/InvalidLogDefaultScale"), func(t *testing.T) {
		_, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
			LogN:            4,
			LogQ:            []int{60},
			LogDefaultScale: hefloat.MaxLogDefaultScale + 1,
		})
		require.True(t, errors.Is(err, rlwe.ErrInvalidParameters))
	})

	t.Run(GetTestName(tc.params, "Parameters/Marshaller/Binary"), func(t *testing.T) {
		buffer.RequireSerializerCorrect(t, &tc.params)

		pLit := tc.params.ParametersLiteral()
		buffer.RequireSerializerCorrect(t, &pLit)
	})

	t.Run(GetTestName(tc.params, "Parameters/Marshaller/JSON"), func(t *testing.T) {

		var err error

		data, err := json.Marshal(tc.params)
		require.NoError(t, err)
		var p hefloat.Parameters
		require.NoError(t, json.Unmarshal(data, &p))
		require.True(t, tc.params.Equal(&p))

		// checks that hefloat.Parameters can be unmarshalled with log-moduli definition without error
		dataWithLogModuli := []byte(fmt.Sprintf(`{"LogN":%d,"LogQ":[50,50],"LogDefaultScale":30}`, tc.params.LogN()))
		var paramsWithLogModuli hefloat.Parameters
		err = json.Unmarshal(dataWithLogModuli, &paramsWithLogModuli)
		require.Nil(t, err)
		require.Equal(t, 2, paramsWithLogModuli.QCount())
		require.True(t, paramsWithLogModuli.Xe().Equal(&rlwe.DefaultXe)) // Omitting Xe should result in Default being used
		require.True(t, paramsWithLogModuli.Xs().Equal(&rlwe.DefaultXs)) // Omitting Xs should result in Default being used
		require.Equal(t, 30, paramsWithLogModuli.LogDefaultScale())

		// checks that one can provide custom parameters for the secret-key and error distributions
		dataWithCustomSecrets := []byte(fmt.Sprintf(`{"LogN":%d,"LogQ":[50,50], "Xs": {"Type": "Ternary", "H": 192}, "Xe": {"Type": "DiscreteGaussian", "Sigma": 6.6, "Bound": 39.6}}`, tc.params.LogN()))
		var paramsWithCustomSecrets hefloat.Parameters
		err = json.Unmarshal(dataWithCustomSecrets, &paramsWithCustomSecrets)
		require.Nil(t, err)
		require.True(t, paramsWithCustomSecrets.Xe().Equal(&ring.DiscreteGaussian{Sigma: 6.6, Bound: 39.6}))
		require.True(t, paramsWithCustomSecrets.Xs().Equal(&ring.Ternary{H: 192}))
	})
}

func testSecurityParameters(t *testing.T) {

	t.Run("Parameters/Security/Chain", func(t *testing.T) {

		for _, sl := range []hefloat.SecurityLiteral{
			{LogN: 13, LogScale: 40, Security: rlwe.Security128},
			{LogN: 14, LogScale: 40, Security: rlwe.Security192, Depth: 4},
			{LogN: 15, LogScale: 50, Security: rlwe.Security256},
			{LogN: 12, LogScale: 25, Security: rlwe.Security128},
		} {
			t.Run(fmt.Sprintf("LogN=%d/LogScale=%d/Security=%d", sl.LogN, sl.LogScale, sl.Security), func(t *testing.T) {

				params, err := hefloat.NewParametersFromSecurity(sl)
				require.NoError(t, err)

				depth := sl.Depth
				if depth == 0 {
					depth = hefloat.DefaultDepth
				}

				require.Equal(t, sl.LogN, params.LogN())
				require.Equal(t, depth+1, params.QCount())
				require.Equal(t, sl.LogScale, params.LogDefaultScale())
				require.Equal(t, sl.Security, params.Security())

				maxLogQ, err := rlwe.MaxLogQ(sl.LogN, sl.Security)
				require.NoError(t, err)
				require.LessOrEqual(t, params.LogQ(), float64(maxLogQ))

				q := params.Q()

				require.Equal(t, min(hefloat.MaxLogQ0, sl.LogScale+hefloat.LogQ0Margin), bits.Len64(q[0]))

				// The scale is smaller than every modulus of the chain.
				for _, qi := range q {
					require.Greater(t, qi, uint64(1)<<sl.LogScale)
					require.Equal(t, uint64(1), qi%uint64(2*params.N()))
				}

				// The derivation is deterministic.
				other, err := hefloat.NewParametersFromSecurity(sl)
				require.NoError(t, err)
				require.True(t, params.Equal(&other))

				// The security level is checked again on deserialization.
				buffer.RequireSerializerCorrect(t, &params)
			})
		}
	})

	t.Run("Parameters/Security/Invalid", func(t *testing.T) {
		for name, sl := range map[string]hefloat.SecurityLiteral{
			"LogNTooSmall":     {LogN: 11, LogScale: 30, Security: rlwe.Security128},
			"LogNTooLarge":     {LogN: 17, LogScale: 40, Security: rlwe.Security128},
			"Security80":       {LogN: 15, LogScale: 40, Security: 80},
			"SecurityZero":     {LogN: 15, LogScale: 40},
			"LogScaleZero":     {LogN: 15, Security: rlwe.Security128},
			"LogScaleTooLarge": {LogN: 15, LogScale: 60, Security: rlwe.Security128},
			"NegativeDepth":    {LogN: 15, LogScale: 40, Security: rlwe.Security128, Depth: -1},
			"ModulusTooLarge":  {LogN: 12, LogScale: 40, Security: rlwe.Security128},
			"DepthTooLarge":    {LogN: 13, LogScale: 40, Security: rlwe.Security256, Depth: 3},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := hefloat.NewParametersFromSecurity(sl)
				require.Error(t, err)
				require.True(t, errors.Is(err, rlwe.ErrInvalidParameters))
			})
		}
	})

	t.Run("Parameters/Security/Literal", func(t *testing.T) {

		// 60 + 40 bits fit in 109 bits at 128-bit security
		pl := hefloat.ParametersLiteral{
			LogN:            12,
			LogQ:            []int{60, 40},
			LogDefaultScale: 40,
			Security:        rlwe.Security128,
		}

		_, err := hefloat.NewParametersFromLiteral(pl)
		require.NoError(t, err)

		// but not in 75 bits at 192-bit security
		pl.Security = rlwe.Security192
		_, err = hefloat.NewParametersFromLiteral(pl)
		require.True(t, errors.Is(err, rlwe.ErrInvalidParameters))
	})
}
