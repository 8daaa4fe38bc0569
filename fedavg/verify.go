package fedavg

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Pro7ech/fedavg/he/hefloat"
)

// VerifyReport summarizes the error between a weight vector and its decryption.
type VerifyReport struct {
	Values       int
	MaxAbsErr    float64
	MeanAbsErr   float64
	MedianAbsErr float64
	Precision    hefloat.PrecisionStats
}

func (r VerifyReport) String() string {
	return fmt.Sprintf("values=%d max|err|=%.3e mean|err|=%.3e median|err|=%.3e avg precision=%.2f bits",
		r.Values, r.MaxAbsErr, r.MeanAbsErr, r.MedianAbsErr, r.Precision.AvgPrec.Real)
}

// Within returns true if every decrypted value is within bound of its reference.
func (r VerifyReport) Within(bound float64) bool {
	return r.MaxAbsErr <= bound
}

// Verify decrypts the envelope and compares it to want.
func (k KeyHolder) Verify(want WeightVector, env *Envelope) (r VerifyReport, err error) {

	if len(want) == 0 {
		return r, fmt.Errorf("cannot Verify: %w: reference vector is empty", ErrLengthMismatch)
	}

	var have WeightVector
	if have, err = k.Decrypt(env, len(want)); err != nil {
		return r, fmt.Errorf("cannot Verify: %w", err)
	}

	diff := make([]float64, len(want))
	for i := range want {
		diff[i] = math.Abs(have[i] - want[i])
	}

	r.Values = len(want)

	// diff is not empty
	r.MaxAbsErr, _ = stats.Max(diff)
	r.MeanAbsErr, _ = stats.Mean(diff)
	r.MedianAbsErr, _ = stats.Median(diff)

	if r.Precision, err = hefloat.GetPrecisionStats(k.ctx.Parameters, k.encoder, nil, []float64(want), []float64(have)); err != nil {
		return r, fmt.Errorf("cannot Verify: %w", err)
	}

	return
}
