package hefloat

import (
	"fmt"
	"math"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/rlwe"
)

// PrecisionStats is a struct storing statistic about the precision of a CKKS plaintext.
// Precisions are given in bits (-log2 of the absolute error) and errors in log2.
type PrecisionStats struct {
	MaxPrec Stats
	MinPrec Stats
	AvgPrec Stats
	MedPrec Stats
	StdPrec Stats

	MaxErr Stats
	MinErr Stats
	AvgErr Stats
	MedErr Stats
	StdErr Stats

	// MaxDelta is the largest absolute error, not in log2.
	MaxDelta Stats
}

// Stats is a struct storing the real, imaginary and L2 norm (modulus)
// about the precision of a complex value.
type Stats struct {
	Real, Imag, L2 float64
}

func (prec PrecisionStats) String() string {
	return fmt.Sprintf(`
┌─────────┬───────┬───────┬───────┐
│    Log2 │ REAL  │ IMAG  │ L2    │
├─────────┼───────┼───────┼───────┤
│MIN Prec │ %5.2f │ %5.2f │ %5.2f │
│MAX Prec │ %5.2f │ %5.2f │ %5.2f │
│AVG Prec │ %5.2f │ %5.2f │ %5.2f │
│MED Prec │ %5.2f │ %5.2f │ %5.2f │
│STD Prec │ %5.2f │ %5.2f │ %5.2f │
├─────────┼───────┼───────┼───────┤
│MIN Err  │ %5.2f │ %5.2f │ %5.2f │
│MAX Err  │ %5.2f │ %5.2f │ %5.2f │
│AVG Err  │ %5.2f │ %5.2f │ %5.2f │
│MED Err  │ %5.2f │ %5.2f │ %5.2f │
│STD Err  │ %5.2f │ %5.2f │ %5.2f │
└─────────┴───────┴───────┴───────┘
`,
		prec.MinPrec.Real, prec.MinPrec.Imag, prec.MinPrec.L2,
		prec.MaxPrec.Real, prec.MaxPrec.Imag, prec.MaxPrec.L2,
		prec.AvgPrec.Real, prec.AvgPrec.Imag, prec.AvgPrec.L2,
		prec.MedPrec.Real, prec.MedPrec.Imag, prec.MedPrec.L2,
		prec.StdPrec.Real, prec.StdPrec.Imag, prec.StdPrec.L2,
		prec.MinErr.Real, prec.MinErr.Imag, prec.MinErr.L2,
		prec.MaxErr.Real, prec.MaxErr.Imag, prec.MaxErr.L2,
		prec.AvgErr.Real, prec.AvgErr.Imag, prec.AvgErr.L2,
		prec.MedErr.Real, prec.MedErr.Imag, prec.MedErr.L2,
		prec.StdErr.Real, prec.StdErr.Imag, prec.StdErr.L2,
	)
}

// GetPrecisionStats generates a PrecisionStats struct from the reference values and the decrypted values.
// want.(type) must be either []complex128 or []float64.
// have.(type) must be either *rlwe.Ciphertext, *rlwe.Plaintext, []complex128 or []float64.
// If have is not an *rlwe.Ciphertext, then decryptor can be nil.
func GetPrecisionStats(params Parameters, encoder *Encoder, decryptor *rlwe.Decryptor, want, have interface{}) (prec PrecisionStats, err error) {

	var valuesWant []complex128
	if valuesWant, err = toComplex128(want); err != nil {
		return prec, fmt.Errorf("cannot GetPrecisionStats: want: %w", err)
	}

	if len(valuesWant) == 0 {
		return prec, fmt.Errorf("cannot GetPrecisionStats: want is empty")
	}

	valuesHave := make([]complex128, len(valuesWant))

	switch have := have.(type) {
	case *rlwe.Ciphertext:

		if decryptor == nil {
			return prec, fmt.Errorf("cannot GetPrecisionStats: decryptor is nil")
		}

		var pt *rlwe.Plaintext
		if pt, err = decryptor.DecryptNew(have); err != nil {
			return prec, fmt.Errorf("cannot GetPrecisionStats: %w", err)
		}

		if err = encoder.Decode(pt, valuesHave); err != nil {
			return prec, fmt.Errorf("cannot GetPrecisionStats: %w", err)
		}

	case *rlwe.Plaintext:
		if err = encoder.Decode(have, valuesHave); err != nil {
			return prec, fmt.Errorf("cannot GetPrecisionStats: %w", err)
		}
	default:
		var values []complex128
		if values, err = toComplex128(have); err != nil {
			return prec, fmt.Errorf("cannot GetPrecisionStats: have: %w", err)
		}

		if len(values) != len(valuesWant) {
			return prec, fmt.Errorf("cannot GetPrecisionStats: len(have)=%d != len(want)=%d", len(values), len(valuesWant))
		}

		copy(valuesHave, values)
	}

	diffReal := make([]float64, len(valuesWant))
	diffImag := make([]float64, len(valuesWant))
	diffL2 := make([]float64, len(valuesWant))

	for i := range valuesWant {
		diffReal[i] = math.Abs(real(valuesHave[i]) - real(valuesWant[i]))
		diffImag[i] = math.Abs(imag(valuesHave[i]) - imag(valuesWant[i]))
		diffL2[i] = math.Sqrt(diffReal[i]*diffReal[i] + diffImag[i]*diffImag[i])
	}

	var maxDelta, minDelta, avgDelta, medDelta, stdDelta Stats

	for _, s := range []struct {
		diff []float64
		max  *float64
		min  *float64
		avg  *float64
		med  *float64
		std  *float64
	}{
		{diffReal, &maxDelta.Real, &minDelta.Real, &avgDelta.Real, &medDelta.Real, &stdDelta.Real},
		{diffImag, &maxDelta.Imag, &minDelta.Imag, &avgDelta.Imag, &medDelta.Imag, &stdDelta.Imag},
		{diffL2, &maxDelta.L2, &minDelta.L2, &avgDelta.L2, &medDelta.L2, &stdDelta.L2},
	} {
		// The inputs are non-empty so the statistics cannot fail.
		*s.max, _ = stats.Max(s.diff)
		*s.min, _ = stats.Min(s.diff)
		*s.avg, _ = stats.Mean(s.diff)
		*s.med, _ = stats.Median(s.diff)
		*s.std, _ = stats.StandardDeviation(s.diff)
	}

	logScale := float64(params.LogDefaultScale())

	prec.MaxDelta = maxDelta
	prec.MinPrec = deltaToPrecision(maxDelta, logScale)
	prec.MaxPrec = deltaToPrecision(minDelta, logScale)
	prec.AvgPrec = deltaToPrecision(avgDelta, logScale)
	prec.MedPrec = deltaToPrecision(medDelta, logScale)
	prec.StdPrec = deltaToPrecision(stdDelta, logScale)

	prec.MinErr = precisionToError(prec.MaxPrec)
	prec.MaxErr = precisionToError(prec.MinPrec)
	prec.AvgErr = precisionToError(prec.AvgPrec)
	prec.MedErr = precisionToError(prec.MedPrec)
	prec.StdErr = precisionToError(prec.StdPrec)

	return prec, nil
}

// VerifyTestVectors checks that the average precision of have with respect to want is at least log2MinPrec bits.
func VerifyTestVectors(params Parameters, encoder *Encoder, decryptor *rlwe.Decryptor, want, have interface{}, log2MinPrec int, printPrecisionStats bool, t *testing.T) {

	precStats, err := GetPrecisionStats(params, encoder, decryptor, want, have)
	require.NoError(t, err)

	if printPrecisionStats {
		t.Log(precStats.String())
	}

	// Z[X]/(X^{N} + 1)
	if log2MinPrec -= params.LogN() + 2; log2MinPrec < 0 {
		log2MinPrec = 0
	}

	require.GreaterOrEqual(t, precStats.AvgPrec.Real, float64(log2MinPrec))
	require.GreaterOrEqual(t, precStats.AvgPrec.Imag, float64(log2MinPrec))
}

func toComplex128(values interface{}) (out []complex128, err error) {
	switch values := values.(type) {
	case []complex128:
		out = make([]complex128, len(values))
		copy(out, values)
	case []float64:
		out = make([]complex128, len(values))
		for i := range values {
			out[i] = complex(values[i], 0)
		}
	default:
		return nil, fmt.Errorf("invalid values.(type): must be []complex128 or []float64 but is %T", values)
	}
	return
}

func deltaToPrecision(c Stats, logScale float64) (s Stats) {

	if c.Real <= 0 {
		c.Real = math.Exp2(-logScale)
	}

	if c.Imag <= 0 {
		c.Imag = math.Exp2(-logScale)
	}

	if c.L2 <= 0 {
		c.L2 = math.Exp2(-logScale)
	}

	return Stats{
		-math.Log2(c.Real),
		-math.Log2(c.Imag),
		-math.Log2(c.L2),
	}
}

func precisionToError(c Stats) (s Stats) {
	return Stats{
		Real: -c.Real,
		Imag: -c.Imag,
		L2:   -c.L2,
	}
}
