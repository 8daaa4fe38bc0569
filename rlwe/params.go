package rlwe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/bits"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils"
	"github.com/Pro7ech/fedavg/utils/bignum"
)

// MaxLogN is the log2 of the largest supported ring degree.
const MaxLogN = 17

// MinLogN is the log2 of the smallest supported ring degree.
const MinLogN = 3

// MaxModuliCount is the largest supported number of moduli in the RNS representation.
const MaxModuliCount = 64

// Default distributions of the secret and of the error.
var (
	DefaultXs = ring.Ternary{P: 2 / 3.0}
	DefaultXe = ring.DiscreteGaussian{Sigma: 3.2, Bound: 19.2}
)

// ParameterProvider is an interface for types that can provide [Parameters].
type ParameterProvider interface {
	GetRLWEParameters() *Parameters
}

// Parameters represents a set of generic RLWE parameters. Its fields are private and
// immutable. See [ParametersLiteral] for user-specified parameters.
type Parameters struct {
	logN         int
	qi           []uint64
	xs           ring.DistributionParameters
	xe           ring.DistributionParameters
	defaultScale Scale
	security     int
	ringQ        ring.RNSRing
}

// NewParameters returns a new set of generic RLWE parameters from the given ring degree logn,
// moduli q, secret and error distributions, default scale and security level.
// A zero security skips the security check.
// The method returns an error wrapping [ErrInvalidParameters] if the parameters are invalid.
func NewParameters(logn int, q []uint64, xs, xe ring.DistributionParameters, defaultScale Scale, security int) (params Parameters, err error) {

	if err = checkSizeParams(logn, len(q)); err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	switch xs.(type) {
	case *ring.Ternary, *ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("%w: secret distribution type must be *ring.Ternary or *ring.DiscreteGaussian but is %T", ErrInvalidParameters, xs)
	}

	switch xe.(type) {
	case *ring.Ternary, *ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("%w: error distribution type must be *ring.Ternary or *ring.DiscreteGaussian but is %T", ErrInvalidParameters, xe)
	}

	if err = CheckModuli(q); err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	params = Parameters{
		logN:         logn,
		qi:           slices.Clone(q),
		xs:           cloneDistribution(xs),
		xe:           cloneDistribution(xe),
		defaultScale: NewScale(defaultScale),
		security:     security,
	}

	if params.ringQ, err = ring.NewRNSRing(params.N(), params.qi); err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	if security != 0 {
		if err = CheckSecurity(logn, params.LogQ(), security); err != nil {
			return Parameters{}, err
		}
	}

	// Secret samplers are instantiated on demand, so their
	// parameters are validated once here.
	if _, err = ring.NewSampler(nil, params.qi, params.xs); err != nil {
		return Parameters{}, fmt.Errorf("%w: invalid secret distribution: %w", ErrInvalidParameters, err)
	}

	return params, nil
}

// NewParametersFromLiteral instantiate a set of generic RLWE parameters from a [ParametersLiteral] specification.
// It returns the empty parameters Parameters{} and a non-nil error if the specified parameters are invalid.
//
// If the moduli chain is specified through the LogQ field, the method generates a moduli chain matching
// the specified sizes (see [GenModuli]).
//
// If the secret distribution (Xs) or the error distribution (Xe) are unset, they are set to
// [DefaultXs] and [DefaultXe]. If DefaultScale is unset, it is set to 1.
func NewParametersFromLiteral(paramDef ParametersLiteral) (params Parameters, err error) {

	if paramDef.Xs == nil {
		paramDef.Xs = &DefaultXs
	}

	if paramDef.Xe == nil {
		paramDef.Xe = &DefaultXe
	}

	if paramDef.DefaultScale.Value.Sign() == 0 {
		paramDef.DefaultScale = NewScale(1)
	}

	switch {
	case len(paramDef.Q) != 0 && len(paramDef.LogQ) == 0:
		return NewParameters(paramDef.LogN, paramDef.Q, paramDef.Xs, paramDef.Xe, paramDef.DefaultScale, paramDef.Security)
	case len(paramDef.LogQ) != 0 && len(paramDef.Q) == 0:
		var q []uint64
		if q, err = GenModuli(paramDef.LogN, paramDef.LogQ); err != nil {
			return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
		return NewParameters(paramDef.LogN, q, paramDef.Xs, paramDef.Xe, paramDef.DefaultScale, paramDef.Security)
	default:
		return Parameters{}, fmt.Errorf("%w: exactly one of Q or LogQ must be set", ErrInvalidParameters)
	}
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		LogN:         p.logN,
		Q:            slices.Clone(p.qi),
		Xe:           cloneDistribution(p.xe),
		Xs:           cloneDistribution(p.xs),
		DefaultScale: NewScale(p.defaultScale),
		Security:     p.security,
	}
}

// GetRLWEParameters returns a pointer to the underlying RLWE parameters.
func (p Parameters) GetRLWEParameters() *Parameters {
	return &p
}

// N returns the ring degree.
func (p Parameters) N() int {
	return 1 << p.logN
}

// LogN returns the log of the degree of the polynomial ring.
func (p Parameters) LogN() int {
	return p.logN
}

// RingQ returns the ring Q.
func (p Parameters) RingQ() ring.RNSRing {
	return p.ringQ
}

// RingQAtLevel returns ring Q restricted to its first level+1 moduli.
func (p Parameters) RingQAtLevel(level int) ring.RNSRing {
	return p.ringQ.AtLevel(level)
}

// DefaultScale returns the default scaling factor of the plaintext, if any.
func (p Parameters) DefaultScale() Scale {
	return NewScale(p.defaultScale)
}

// Security returns the targeted security level in bits, or zero if the
// parameters were not checked against a security level.
func (p Parameters) Security() int {
	return p.security
}

// Xs returns the [ring.DistributionParameters] of the secret.
func (p Parameters) Xs() ring.DistributionParameters {
	return cloneDistribution(p.xs)
}

// Xe returns [ring.DistributionParameters] of the error.
func (p Parameters) Xe() ring.DistributionParameters {
	return cloneDistribution(p.xe)
}

// NoiseFreshSK returns the standard deviation
// of a fresh encryption with the secret key.
func (p Parameters) NoiseFreshSK() (std float64) {
	switch xe := p.xe.(type) {
	case *ring.DiscreteGaussian:
		return xe.Sigma
	case *ring.Ternary:
		if xe.P != 0 {
			return xe.P
		}
		return float64(xe.H) / float64(p.N())
	default:
		// Sanity check
		panic(fmt.Errorf("invalid error distribution %T", xe))
	}
}

// XsHammingWeight returns the expected number of non-zero coefficients of the secret.
func (p Parameters) XsHammingWeight() int {
	switch xs := p.xs.(type) {
	case *ring.Ternary:
		if xs.H != 0 {
			return xs.H
		}
		return int(math.Ceil(float64(p.N()) * xs.P))
	case *ring.DiscreteGaussian:
		return int(math.Ceil(float64(p.N()) * xs.Sigma * math.Sqrt(2.0/math.Pi)))
	default:
		// Sanity check
		panic(fmt.Errorf("invalid secret distribution %T", xs))
	}
}

// NoiseFreshPK returns the standard deviation
// of a fresh encryption with the public key.
func (p Parameters) NoiseFreshPK() (std float64) {
	sigma := p.NoiseFreshSK()
	return sigma * math.Sqrt(float64(2*p.XsHammingWeight()+1))
}

// MaxLevel returns the maximum level of a ciphertext.
func (p Parameters) MaxLevel() int {
	return p.QCount() - 1
}

// Q returns a new slice with the factors of the ciphertext modulus q.
func (p Parameters) Q() []uint64 {
	return slices.Clone(p.qi)
}

// QCount returns the number of factors of the ciphertext modulus Q.
func (p Parameters) QCount() int {
	return len(p.qi)
}

// QBigInt return the ciphertext-space modulus Q in big.Integer.
func (p Parameters) QBigInt() *big.Int {
	return p.ringQ.Modulus()
}

// LogQ returns the size of the extended modulus Q in bits.
func (p Parameters) LogQ() (logq float64) {
	return bignum.Log2Int(p.QBigInt())
}

// Equal checks two Parameter structs for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return p.logN == other.logN &&
		cmp.Equal(p.qi, other.qi) &&
		p.xs.Equal(other.xs) &&
		p.xe.Equal(other.xe) &&
		p.defaultScale.Equal(&other.defaultScale) &&
		p.security == other.security
}

// BinarySize returns the serialized size of the object in bytes.
func (p Parameters) BinarySize() int {
	return p.ParametersLiteral().BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (p Parameters) WriteTo(w io.Writer) (n int64, err error) {
	return p.ParametersLiteral().WriteTo(w)
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (p *Parameters) ReadFrom(r io.Reader) (n int64, err error) {
	var paramsLit ParametersLiteral
	if n, err = paramsLit.ReadFrom(r); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(paramsLit)
	return
}

// MarshalBinary returns a []byte representation of the parameter set.
func (p Parameters) MarshalBinary() ([]byte, error) {
	return p.ParametersLiteral().MarshalBinary()
}

// UnmarshalBinary decodes a []byte into a parameter set struct.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	var paramsLit ParametersLiteral
	if err = paramsLit.UnmarshalBinary(data); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(paramsLit)
	return
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(params)
	return
}

// CheckModuli checks that the provided q moduli are distinct NTT-friendly primes.
func CheckModuli(q []uint64) error {

	for i, qi := range q {
		if qi == 0 || bits.Len64(qi) > ring.MaxModulusBits {
			return fmt.Errorf("a qi has bit size > %d", ring.MaxModulusBits)
		}
		if !ring.IsPrime(qi) {
			return fmt.Errorf("the provided qi at index %d is not prime", i)
		}
	}

	if !utils.AllDistinct(q) {
		return fmt.Errorf("moduli must be distinct")
	}

	return nil
}

// GenModuli generates a valid moduli chain from the provided moduli sizes.
// Each modulus is the largest NTT-friendly prime of the requested size that
// is not already in the chain.
func GenModuli(LogN int, logQ []int) (q []uint64, err error) {

	if err = checkSizeParams(LogN, len(logQ)); err != nil {
		return
	}

	NthRoot := 2 << LogN

	q = make([]uint64, len(logQ))

	// Largest primes first, then decreasing for moduli of the same size.
	for i, logqi := range logQ {

		if logqi < LogN+2 || logqi > ring.MaxModulusBits {
			return nil, fmt.Errorf("invalid moduli size: %d bits not in [%d, %d]", logqi, LogN+2, ring.MaxModulusBits)
		}

		var qi uint64
		if qi, err = ring.NTTPrimeBelow(logqi, NthRoot); err != nil {
			return nil, err
		}

		for slices.Contains(q[:i], qi) {
			if qi, err = ring.PreviousNTTPrime(qi, NthRoot); err != nil {
				return nil, err
			}
		}

		if bits.Len64(qi) != logqi {
			return nil, fmt.Errorf("cannot generate enough %d-bit NTT primes for LogN=%d", logqi, LogN)
		}

		q[i] = qi
	}

	return
}

func checkSizeParams(logN int, lenQ int) error {
	if logN > MaxLogN {
		return fmt.Errorf("logN=%d is larger than MaxLogN=%d", logN, MaxLogN)
	}
	if logN < MinLogN {
		return fmt.Errorf("logN=%d is smaller than MinLogN=%d", logN, MinLogN)
	}
	if lenQ > MaxModuliCount {
		return fmt.Errorf("#Q=%d is larger than MaxModuliCount=%d", lenQ, MaxModuliCount)
	}
	if lenQ == 0 {
		return fmt.Errorf("#Q is zero")
	}
	return nil
}

func cloneDistribution(X ring.DistributionParameters) ring.DistributionParameters {
	switch X := X.(type) {
	case *ring.DiscreteGaussian:
		x := *X
		return &x
	case *ring.Ternary:
		x := *X
		return &x
	case *ring.Uniform:
		return &ring.Uniform{}
	default:
		return X
	}
}
