package ring

import (
	"fmt"
	"math/bits"

	"github.com/Pro7ech/fedavg/utils/sampling"
)

// TernarySampler keeps the state of a polynomial sampler in the ternary distribution.
type TernarySampler struct {
	Moduli []uint64
	*sampling.Source
	p  float64
	hw int
}

// NewTernarySampler creates a new instance of [TernarySampler] from a [sampling.Source],
// a moduli chain and and a ternary distribution parameters (see type [Ternary]).
func NewTernarySampler(source *sampling.Source, moduli []uint64, X Ternary) (s *TernarySampler, err error) {
	s = new(TernarySampler)
	s.Moduli = moduli
	s.Source = source
	switch {
	case X.P != 0 && X.H == 0:
		if X.P < 0 || X.P > 1 {
			return nil, fmt.Errorf("invalid TernaryDistribution: P=%f must be in (0, 1]", X.P)
		}
		s.p = X.P
	case X.P == 0 && X.H != 0:
		if X.H < 0 {
			return nil, fmt.Errorf("invalid TernaryDistribution: H=%d must be positive", X.H)
		}
		s.hw = X.H
	default:
		return nil, fmt.Errorf("invalid TernaryDistribution: at exactly one of (H, P) should be > 0")
	}

	return
}

// GetSource returns the underlying [sampling.Source] used by the sampler.
func (s TernarySampler) GetSource() *sampling.Source {
	return s.Source
}

// WithSource returns an instance of the underlying sampler with
// a new [sampling.Source].
// It can be used concurrently with the original sampler.
func (s TernarySampler) WithSource(source *sampling.Source) Sampler {
	return &TernarySampler{
		Moduli: s.Moduli,
		Source: source,
		p:      s.p,
		hw:     s.hw,
	}
}

// AtLevel returns an instance of the target TernarySampler to sample at the given level.
// The returned sampler cannot be used concurrently to the original sampler.
func (s TernarySampler) AtLevel(level int) Sampler {
	return &TernarySampler{
		Moduli: s.Moduli[:level+1],
		Source: s.Source,
		p:      s.p,
		hw:     s.hw,
	}
}

// Read samples a polynomial into pol.
func (s *TernarySampler) Read(pol RNSPoly) {
	s.sample(pol, func(a, b, c uint64) uint64 {
		return b
	})
}

// ReadNew allocates and samples a polynomial at the max level.
func (s *TernarySampler) ReadNew(N int) (pol RNSPoly) {
	pol = NewRNSPoly(N, len(s.Moduli)-1)
	s.Read(pol)
	return pol
}

// ReadAndAdd samples a polynomial and adds it on pol.
func (s *TernarySampler) ReadAndAdd(pol RNSPoly) {
	s.sample(pol, func(a, b, c uint64) uint64 {
		return CRed(a+b, c)
	})
}

func (s *TernarySampler) sample(pol RNSPoly, f func(a, b, c uint64) uint64) {
	if s.hw != 0 {
		s.sampleSparse(pol, f)
	} else {
		s.sampleProba(pol, f)
	}
}

// set applies f on the i-th coefficient of every limb with value v in {-1, 0, 1}.
func (s *TernarySampler) set(pol RNSPoly, i, v int, f func(a, b, c uint64) uint64) {
	for j, qi := range s.Moduli {
		var c uint64
		switch v {
		case 1:
			c = 1
		case -1:
			c = qi - 1
		}
		pol[j][i] = f(pol[j][i], c, qi)
	}
}

func (s *TernarySampler) sampleProba(pol RNSPoly, f func(a, b, c uint64) uint64) {

	halfP := s.p / 2

	for i := 0; i < pol.N(); i++ {

		u := s.Source.Float64(0, 1)

		switch {
		case u < halfP:
			s.set(pol, i, -1, f)
		case u < s.p:
			s.set(pol, i, 1, f)
		default:
			s.set(pol, i, 0, f)
		}
	}
}

func (s *TernarySampler) sampleSparse(pol RNSPoly, f func(a, b, c uint64) uint64) {

	N := pol.N()

	hw := min(s.hw, N)

	index := make([]int, N)
	for i := 0; i < N; i++ {
		index[i] = i
	}

	var mask, j uint64

	for i := 0; i < hw; i++ {

		// Rejection sampling of a random variable in [0, len(index))
		mask = (1 << uint64(bits.Len64(uint64(N-i)))) - 1

		j = s.Source.Uint64() & mask
		for j >= uint64(N-i) {
			j = s.Source.Uint64() & mask
		}

		// Random sign
		v := 1 - 2*int(s.Source.Uint64()&1)

		s.set(pol, index[j], v, f)

		// Remove the element in position j of the slice (order not preserved)
		index[j] = index[len(index)-1]
		index = index[:len(index)-1]
	}

	for _, i := range index {
		s.set(pol, i, 0, f)
	}
}
