package ring

import (
	"fmt"
	"math/big"
	"math/bits"
)

// MaxModulusBits is the maximum bit-size of an NTT prime.
const MaxModulusBits = 61

// IsPrime applies the Baillie-PSW test, which is exact for numbers below 2^64.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// NextNTTPrime returns the next NthRoot NTT prime after q.
// The input q must be congruent to 1 modulo NthRoot.
func NextNTTPrime(q uint64, NthRoot int) (qNext uint64, err error) {

	qNext = q + uint64(NthRoot)

	for !IsPrime(qNext) {

		qNext += uint64(NthRoot)

		if bits.Len64(qNext) > MaxModulusBits {
			return 0, fmt.Errorf("next NTT prime exceeds the maximum bit-size of %d bits", MaxModulusBits)
		}
	}

	return qNext, nil
}

// PreviousNTTPrime returns the previous NthRoot NTT prime before q.
// The input q must be congruent to 1 modulo NthRoot.
func PreviousNTTPrime(q uint64, NthRoot int) (qPrev uint64, err error) {

	qPrev = q

	for {

		if qPrev <= uint64(NthRoot) {
			return 0, fmt.Errorf("previous NTT prime is smaller than NthRoot")
		}

		qPrev -= uint64(NthRoot)

		if IsPrime(qPrev) {
			return qPrev, nil
		}
	}
}

// NTTPrimeBelow returns the largest NthRoot NTT prime smaller than 2^logQ.
func NTTPrimeBelow(logQ, NthRoot int) (q uint64, err error) {

	if logQ < 2 || logQ > MaxModulusBits {
		return 0, fmt.Errorf("invalid logQ: must be in [2, %d] but is %d", MaxModulusBits, logQ)
	}

	return PreviousNTTPrime((1<<logQ)+1, NthRoot)
}

// NTTPrimesAbove returns the n smallest NthRoot NTT primes larger than 2^logQ.
func NTTPrimesAbove(logQ, NthRoot, n int) (primes []uint64, err error) {

	if logQ < 1 || logQ >= MaxModulusBits {
		return nil, fmt.Errorf("invalid logQ: must be in [1, %d] but is %d", MaxModulusBits-1, logQ)
	}

	primes = make([]uint64, n)

	q := uint64(1)<<logQ + 1

	for i := range primes {

		if i != 0 || !IsPrime(q) {
			if q, err = NextNTTPrime(q, NthRoot); err != nil {
				return nil, err
			}
		}

		primes[i] = q
	}

	return
}

// Factorize returns the unique prime factors of m in increasing order.
func Factorize(m uint64) (factors []uint64) {

	if m < 2 {
		return
	}

	if m&1 == 0 {
		factors = append(factors, 2)
		for m&1 == 0 {
			m >>= 1
		}
	}

	checkPrime := true

	for p := uint64(3); p*p <= m; p += 2 {

		if checkPrime {
			if IsPrime(m) {
				break
			}
			checkPrime = false
		}

		if m%p == 0 {
			factors = append(factors, p)
			for m%p == 0 {
				m /= p
			}
			checkPrime = true
		}
	}

	if m > 1 {
		factors = append(factors, m)
	}

	return
}
