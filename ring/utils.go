package ring

import (
	"math/big"

	"github.com/Pro7ech/fedavg/utils/bignum"
)

// ModExp return y = x^e mod q,
// q is required to be odd and at most 61 bits.
func ModExp(x, e, q uint64) (y uint64) {

	brc := GetBRedConstant(q)
	mrc := GetMRedConstant(q)

	y = MForm(1, q, brc)
	x = MForm(BRedAdd(x, q, brc), q, brc)

	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			y = MRed(y, x, q, mrc)
		}
		x = MRed(x, x, q, mrc)
	}

	return IMForm(y, q, mrc)
}

// ModExpMontgomery performs the modular exponentiation x^e mod p,
// where x is in Montgomery form, and returns x^e in Montgomery form.
func ModExpMontgomery(x, e, q, mrc uint64, bredconstant [2]uint64) (result uint64) {

	result = MForm(1, q, bredconstant)

	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			result = MRed(result, x, q, mrc)
		}
		x = MRed(x, x, q, mrc)
	}
	return result
}

// ModInverse returns x^-1 mod q for a prime q.
func ModInverse(x, q uint64) uint64 {
	return ModExp(x, q-2, q)
}

// crtConstants returns Q = prod(moduli) and the CRT reconstruction
// constants (Q/qi) * [(Q/qi)^-1]_qi.
func crtConstants(moduli []uint64) (Q *big.Int, crt []*big.Int) {

	Q = bignum.NewInt(1)
	for _, qi := range moduli {
		Q.Mul(Q, bignum.NewInt(qi))
	}

	crt = make([]*big.Int, len(moduli))

	QiB := new(big.Int)
	tmp := new(big.Int)

	for i, qi := range moduli {
		QiB.SetUint64(qi)
		crt[i] = new(big.Int).Quo(Q, QiB)
		tmp.ModInverse(crt[i], QiB)
		tmp.Mod(tmp, QiB)
		crt[i].Mul(crt[i], tmp)
	}

	return
}
