package ring

// DivRoundByLastModulusNTT divides (rounded) the polynomial by its last modulus.
// The input must be in the NTT domain and buff must have at least the level of the ring.
// Output poly level must be equal or one less than input level.
func (r RNSRing) DivRoundByLastModulusNTT(p0, buff, p1 RNSPoly) {

	level := r.Level()

	r[level].INTT(p0.At(level), buff.At(level))

	// Center by (p-1)/2
	pHalf := (r[level].Modulus - 1) >> 1

	r[level].AddScalar(buff.At(level), pHalf, buff.At(level))

	RescaleConstants := r.RescaleConstants()

	for i, s := range r[:level] {
		s.Reduce(buff.At(level), buff.At(i))
		s.SubScalar(buff.At(i), pHalf, buff.At(i))
		s.NTT(buff.At(i), buff.At(i))
		// (p0[i] - x[-1]) * q_{level}^{-1}
		s.SubThenMulScalarMontgomery(p0.At(i), buff.At(i), RescaleConstants[i], p1.At(i))
	}
}

// DivRoundByLastModulus divides (rounded) the polynomial by its last modulus.
// The input must not be in the NTT domain and buff must have at least the level of the ring.
// Output poly level must be equal or one less than input level.
func (r RNSRing) DivRoundByLastModulus(p0, buff, p1 RNSPoly) {

	level := r.Level()

	// Center by (p-1)/2
	pHalf := (r[level].Modulus - 1) >> 1

	r[level].AddScalar(p0.At(level), pHalf, buff.At(level))

	RescaleConstants := r.RescaleConstants()

	for i, s := range r[:level] {
		s.Reduce(buff.At(level), buff.At(i))
		s.SubScalar(buff.At(i), pHalf, buff.At(i))
		s.SubThenMulScalarMontgomery(p0.At(i), buff.At(i), RescaleConstants[i], p1.At(i))
	}
}
