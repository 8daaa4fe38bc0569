package rlwe

import (
	"math/big"

	"github.com/Pro7ech/fedavg/utils/bignum"
)

// NoiseCiphertext returns the log2 of the standard deviation of the input ciphertext
// with respect to the given secret-key and parameters.
// Function expects:
// - ct and pt NTT domain to match
// - pt to not be in the Montgomery domain
func NoiseCiphertext(ct *Ciphertext, pt *Plaintext, sk *SecretKey, params Parameters) (noise float64) {

	ct = ct.Clone()

	rQ := params.RingQAtLevel(ct.Level())

	c0, c1 := ct.Value[0], ct.Value[1]

	if !ct.IsNTT {
		rQ.NTT(c1, c1)
		rQ.NTT(c0, c0)
	}

	rQ.MulCoeffsMontgomeryThenAdd(sk.Value, c1, c0)

	if ct.IsMontgomery {
		rQ.IMForm(c0, c0)
	}

	if ct.IsNTT && pt != nil {
		rQ.Sub(c0, pt.Value, c0)
	}

	rQ.INTT(c0, c0)

	if !ct.IsNTT && pt != nil {
		rQ.Sub(c0, pt.Value, c0)
	}

	values := make([]big.Int, ct.N())
	rQ.PolyToBigintCentered(c0, 1, values)

	return bignum.Stats(values, 128)[0]
}

// NoisePublicKey returns the log2 of the standard deviation of the input public-key
// with respect to the given secret-key and parameters.
func NoisePublicKey(pk *PublicKey, sk *SecretKey, params Parameters) (noise float64) {
	return NoiseCiphertext(pk.AsCiphertext(), nil, sk, params)
}
