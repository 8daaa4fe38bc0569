package hefloat_test

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

var flagParamString = flag.String("params", "", "specify the test cryptographic parameters as a JSON string. Overrides -short and -long.")
var printPrecisionStats = flag.Bool("print-precision", false, "print precision stats")

func GetTestName(params hefloat.Parameters, opname string) string {
	return fmt.Sprintf("%s/logN=%d/logQ=%d/Qi=%d/LogScale=%d",
		opname,
		params.LogN(),
		int(math.Round(params.LogQ())),
		params.QCount(),
		params.LogDefaultScale())
}

type testContext struct {
	params      hefloat.Parameters
	ringQ       ring.RNSRing
	encoder     *hefloat.Encoder
	kgen        *rlwe.KeyGenerator
	sk          *rlwe.SecretKey
	pk          *rlwe.PublicKey
	encryptorPk *rlwe.Encryptor
	encryptorSk *rlwe.Encryptor
	decryptor   *rlwe.Decryptor
	evaluator   *hefloat.Evaluator
	source      *sampling.Source
}

var (

	// testInsecurePrec40 are insecure parameters used for the sole purpose of fast testing.
	testInsecurePrec40 = hefloat.ParametersLiteral{
		LogN:            10,
		LogQ:            []int{55, 40, 40},
		LogDefaultScale: 40,
	}

	// testInsecurePrec30 are insecure parameters used for the sole purpose of fast testing.
	testInsecurePrec30 = hefloat.ParametersLiteral{
		LogN:            11,
		LogQ:            []int{50, 35, 35, 35},
		LogDefaultScale: 30,
	}

	testParametersLiteral = []hefloat.ParametersLiteral{testInsecurePrec40, testInsecurePrec30}
)

func TestHEFloat(t *testing.T) {

	var err error

	var testParams []hefloat.ParametersLiteral
	switch {
	case *flagParamString != "": // the custom test suite reads the parameters from the -params flag
		testParams = append(testParams, hefloat.ParametersLiteral{})
		if err = json.Unmarshal([]byte(*flagParamString), &testParams[0]); err != nil {
			t.Fatal(err)
		}
	default:
		testParams = testParametersLiteral
	}

	for _, paramsLiteral := range testParams {

		var params hefloat.Parameters
		if params, err = hefloat.NewParametersFromLiteral(paramsLiteral); err != nil {
			t.Fatal(err)
		}

		var tc *testContext
		if tc, err = genTestParams(params); err != nil {
			t.Fatal(err)
		}

		for _, testSet := range []func(tc *testContext, t *testing.T){
			testParameters,
			testEncoder,
			testEvaluatorAdd,
			testEvaluatorMulScalar,
			testEvaluatorRescale,
			testEvaluatorDropLevel,
			testAveraging,
		} {
			testSet(tc, t)
			runtime.GC()
		}
	}

	testSecurityParameters(t)
	testScenario(t)
}

func genTestParams(params hefloat.Parameters) (tc *testContext, err error) {

	tc = new(testContext)

	tc.params = params

	tc.source = sampling.NewSource([32]byte{'h', 'e', 'f', 'l', 'o', 'a', 't'})

	tc.kgen = rlwe.NewKeyGenerator(tc.params, tc.source.NewSource())

	tc.sk, tc.pk = tc.kgen.GenKeyPairNew()

	tc.ringQ = params.RingQ()

	tc.encoder = hefloat.NewEncoder(tc.params)

	tc.encryptorPk = rlwe.NewEncryptor(tc.params, tc.pk, tc.source.NewSource())
	tc.encryptorSk = rlwe.NewEncryptor(tc.params, tc.sk, tc.source.NewSource())
	tc.decryptor = rlwe.NewDecryptor(tc.params, tc.sk)
	tc.evaluator = hefloat.NewEvaluator(tc.params)

	return tc, nil
}

// newTestVectors samples slots real values in [a, b], encodes them at the given level and,
// if encryptor is not nil, encrypts them.
func newTestVectors(tc *testContext, encryptor *rlwe.Encryptor, a, b float64, slots, level int, t *testing.T) (values []float64, pt *rlwe.Plaintext, ct *rlwe.Ciphertext) {

	values = make([]float64, slots)

	for i := range values {
		values[i] = tc.source.Float64(a, b)
	}

	var err error
	pt, err = tc.encoder.EncodeNew(values, level, tc.params.DefaultScale())
	require.NoError(t, err)

	if encryptor != nil {
		ct, err = encryptor.EncryptNew(pt)
		require.NoError(t, err)
	}

	return values, pt, ct
}

func decryptAndDecode(tc *testContext, ct *rlwe.Ciphertext, n int, t *testing.T) (values []float64) {
	pt, err := tc.decryptor.DecryptNew(ct)
	require.NoError(t, err)
	values = make([]float64, n)
	require.NoError(t, tc.encoder.Decode(pt, values))
	return
}

// testScenario runs the averaging of two weight vectors with secure
// parameters and a ring degree of 2^15.
func testScenario(t *testing.T) {

	if testing.Short() {
		t.Skip("skipping N=2^15 scenario in short mode")
	}

	params, err := hefloat.NewParametersFromSecurity(hefloat.SecurityLiteral{
		LogN:     15,
		LogScale: 40,
		Security: rlwe.Security128,
	})
	require.NoError(t, err)

	source := sampling.NewSource([32]byte{'s', 'c', 'e', 'n', 'a', 'r', 'i', 'o'})

	kgen := rlwe.NewKeyGenerator(params, source.NewSource())
	sk, pk := kgen.GenKeyPairNew()

	ecd := hefloat.NewEncoder(params)
	enc := rlwe.NewEncryptor(params, pk, source.NewSource())
	dec := rlwe.NewDecryptor(params, sk)
	eval := hefloat.NewEvaluator(params)

	encrypt := func(values []float64) *rlwe.Ciphertext {
		pt, err := ecd.EncodeNew(values, params.MaxLevel(), params.DefaultScale())
		require.NoError(t, err)
		ct, err := enc.EncryptNew(pt)
		require.NoError(t, err)
		return ct
	}

	decrypt := func(dec *rlwe.Decryptor, ct *rlwe.Ciphertext, n int) []float64 {
		pt, err := dec.DecryptNew(ct)
		require.NoError(t, err)
		values := make([]float64, n)
		require.NoError(t, ecd.Decode(pt, values))
		return values
	}

	t.Run(GetTestName(params, "Scenario/RoundTrip"), func(t *testing.T) {

		values := make([]float64, 256)
		for i := range values {
			values[i] = source.Float64(-10, 10)
		}

		have := decrypt(dec, encrypt(values), len(values))

		for i := range values {
			require.InDelta(t, values[i], have[i], 1e-2)
		}
	})

	t.Run(GetTestName(params, "Scenario/Average"), func(t *testing.T) {

		ct0 := encrypt([]float64{1.0, 2.0, 0.5})
		ct1 := encrypt([]float64{3.0, -1.0, 1.5})

		sum, err := eval.AddNew(ct0, ct1)
		require.NoError(t, err)

		avg, err := eval.MulScalarThenRescaleNew(sum, 0.5)
		require.NoError(t, err)
		require.Equal(t, params.MaxLevel()-1, avg.Level())

		have := decrypt(dec, avg, 3)

		for i, want := range []float64{2.0, 0.5, 1.0} {
			require.InDelta(t, want, have[i], 1e-2)
		}
	})

	t.Run(GetTestName(params, "Scenario/KeyIsolation"), func(t *testing.T) {

		values := []float64{1.0, 2.0, 0.5}

		other := rlwe.NewKeyGenerator(params, sampling.NewSource([32]byte{'o', 't', 'h', 'e', 'r'})).GenSecretKeyNew()

		have := decrypt(rlwe.NewDecryptor(params, other), encrypt(values), len(values))

		var maxErr float64
		for i := range values {
			maxErr = math.Max(maxErr, math.Abs(values[i]-have[i]))
		}

		require.Greater(t, maxErr, 1e-2)
	})
}
