package ring

import (
	"math"
	"math/rand/v2"

	"github.com/Pro7ech/fedavg/utils/sampling"
)

// GaussianSampler keeps the state of a truncated Gaussian polynomial sampler.
type GaussianSampler struct {
	*sampling.Source
	Xe     DiscreteGaussian
	Moduli []uint64
}

// NewGaussianSampler creates a new instance of [GaussianSampler] from a [sampling.Source],
// a moduli chain and a [DiscreteGaussian] distribution parameter.
func NewGaussianSampler(source *sampling.Source, moduli []uint64, Xe DiscreteGaussian) (g *GaussianSampler) {
	g = new(GaussianSampler)
	g.Source = source
	g.Moduli = moduli
	g.Xe = Xe
	return
}

// GetSource returns the underlying [sampling.Source] used by the sampler.
func (g GaussianSampler) GetSource() *sampling.Source {
	return g.Source
}

// WithSource returns an instance of the underlying sampler with
// a new [sampling.Source].
// It can be used concurrently with the original sampler.
func (g GaussianSampler) WithSource(source *sampling.Source) Sampler {
	return &GaussianSampler{
		Source: source,
		Moduli: g.Moduli,
		Xe:     g.Xe,
	}
}

// AtLevel returns an instance of the target GaussianSampler that operates at the target level.
// This instance is not thread safe and cannot be used concurrently to the base instance.
func (g GaussianSampler) AtLevel(level int) Sampler {
	return &GaussianSampler{
		Moduli: g.Moduli[:level+1],
		Source: g.Source,
		Xe:     g.Xe,
	}
}

// Read samples a truncated Gaussian polynomial on "pol".
func (g *GaussianSampler) Read(pol RNSPoly) {
	g.read(pol, func(a, b, c uint64) uint64 {
		return b
	})
}

// ReadNew samples a new truncated Gaussian polynomial at the maximum level of the sampler.
func (g *GaussianSampler) ReadNew(N int) (pol RNSPoly) {
	pol = NewRNSPoly(N, len(g.Moduli)-1)
	g.Read(pol)
	return pol
}

// ReadAndAdd samples a truncated Gaussian polynomial and adds it on "pol".
func (g *GaussianSampler) ReadAndAdd(pol RNSPoly) {
	g.read(pol, func(a, b, c uint64) uint64 {
		return CRed(a+b, c)
	})
}

func (g *GaussianSampler) read(pol RNSPoly, f func(a, b, c uint64) uint64) {

	bound := g.Xe.Bound
	sigma := g.Xe.Sigma

	moduli := g.Moduli

	/* #nosec G404: Source is cryptographically secure */
	r := rand.New(g.Source)

	var coeff uint64
	var negative bool

	for i := 0; i < pol.N(); i++ {

		for {

			norm := r.NormFloat64()

			if v := math.Abs(norm * sigma); v <= bound {
				coeff = uint64(v + 0.5) // rounding
				negative = norm < 0
				break
			}
		}

		for j, qi := range moduli {
			if negative && coeff != 0 {
				pol[j][i] = f(pol[j][i], qi-coeff, qi)
			} else {
				pol[j][i] = f(pol[j][i], coeff, qi)
			}
		}
	}
}
