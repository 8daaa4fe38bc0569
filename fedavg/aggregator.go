package fedavg

import (
	"fmt"
	"strings"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
)

// Mode is an aggregation mode.
type Mode int

const (
	// Average computes (1/n) * sum(ct_i).
	Average = Mode(iota)
	// Sum computes sum(ct_i).
	Sum
	// Weighted computes sum((count_i/total) * ct_i) with total = sum(count_i).
	Weighted
)

func (m Mode) String() string {
	switch m {
	case Average:
		return "average"
	case Sum:
		return "sum"
	case Weighted:
		return "weighted"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the [Mode] named s. It accepts "simple" as an alias of "average".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg", "simple", "":
		return Average, nil
	case "sum":
		return Sum, nil
	case "weighted":
		return Weighted, nil
	default:
		return 0, fmt.Errorf("invalid aggregation mode %q: must be average, sum or weighted", s)
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Mode) UnmarshalText(text []byte) (err error) {
	*m, err = ParseMode(string(text))
	return
}

// Aggregator combines encrypted contributions without decrypting them.
// It holds no key.
//
// An Aggregator is not safe for concurrent use, see ShallowCopy.
type Aggregator struct {
	ctx  Context
	eval *hefloat.Evaluator
}

// NewAggregator returns a new [Aggregator] for the given context.
func NewAggregator(ctx Context) *Aggregator {
	return &Aggregator{ctx: ctx, eval: hefloat.NewEvaluator(ctx.Parameters)}
}

// ShallowCopy returns a copy of the receiver with its own buffers.
func (a Aggregator) ShallowCopy() *Aggregator {
	return &Aggregator{ctx: a.ctx, eval: a.eval.ShallowCopy()}
}

// Aggregate combines the envelopes according to the mode and returns the
// result in a new [Envelope]. The inputs are not modified.
//
// All envelopes must be at the same level, have the same scale and the
// same number of slots, and carry a schema digest compatible with the
// context. In [Weighted] mode every envelope must carry a positive count.
//
// The output is one level below the inputs in [Average] and [Weighted] mode,
// and at the level of the inputs in [Sum] mode. Its count is the total count
// of the inputs, or zero if one of them is unknown.
func (a Aggregator) Aggregate(mode Mode, envs ...*Envelope) (out *Envelope, err error) {

	if len(envs) == 0 {
		return nil, fmt.Errorf("cannot Aggregate: %w", ErrNoInput)
	}

	digest := a.ctx.Schema

	var total float64
	for i, env := range envs {

		if env == nil {
			return nil, fmt.Errorf("cannot Aggregate: envelope %d is nil", i)
		}

		if err = env.CheckLevel(a.ctx); err != nil {
			return nil, fmt.Errorf("cannot Aggregate: envelope %d: %w", i, err)
		}

		if digest.IsZero() {
			digest = env.Schema
		} else if !env.Schema.IsZero() && env.Schema != digest {
			return nil, fmt.Errorf("cannot Aggregate: envelope %d: %w: %s != %s", i, ErrSchemaMismatch, env.Schema, digest)
		}

		if env.Slots() != envs[0].Slots() {
			return nil, fmt.Errorf("cannot Aggregate: envelope %d: %w: %d slots != %d slots", i, ErrLengthMismatch, env.Slots(), envs[0].Slots())
		}

		if err = checkCount(env.Count, mode == Weighted); err != nil {
			return nil, fmt.Errorf("cannot Aggregate: envelope %d: %w", i, err)
		}

		total += env.Count
	}

	var ct *rlwe.Ciphertext

	switch mode {
	case Sum:
		ct, err = a.sum(envs, nil)
	case Average:
		if ct, err = a.sum(envs, nil); err == nil {
			ct, err = a.eval.MulScalarThenRescaleNew(ct, 1/float64(len(envs)))
		}
	case Weighted:
		weights := make([]float64, len(envs))
		for i := range envs {
			weights[i] = envs[i].Count / total
		}
		ct, err = a.sum(envs, weights)
	default:
		return nil, fmt.Errorf("cannot Aggregate: invalid mode %s", mode)
	}

	if err != nil {
		return nil, fmt.Errorf("cannot Aggregate: %s: %w", mode, err)
	}

	for _, env := range envs {
		if env.Count == 0 {
			total = 0
			break
		}
	}

	return &Envelope{Schema: digest, Count: total, Ciphertext: ct}, nil
}

// sum returns sum(weights[i] * envs[i]) if weights is not nil and sum(envs[i]) otherwise.
func (a Aggregator) sum(envs []*Envelope, weights []float64) (acc *rlwe.Ciphertext, err error) {

	for i, env := range envs {

		ct := env.Ciphertext

		if weights != nil {
			if ct, err = a.eval.MulScalarThenRescaleNew(ct, weights[i]); err != nil {
				return nil, fmt.Errorf("envelope %d: %w", i, err)
			}
		}

		if acc == nil {
			if weights == nil {
				acc = ct.Clone()
			} else {
				acc = ct
			}
			continue
		}

		if acc, err = a.eval.AddNew(acc, ct); err != nil {
			return nil, fmt.Errorf("envelope %d: %w", i, err)
		}
	}

	return
}
