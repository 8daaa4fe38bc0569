package hefloat

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/bignum"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

const (
	// MaxLogDefaultScale is the largest supported log2 of the default scale.
	// Plaintext coefficients are decoded from a single RNS reconstruction
	// into float64, which bounds the useful scale well below this value.
	MaxLogDefaultScale = 120

	// DefaultDepth is the number of scaling primes generated by
	// NewParametersFromSecurity when SecurityLiteral.Depth is zero.
	DefaultDepth = 2

	// MinSecureLogN and MaxSecureLogN bound the ring degrees for which
	// a security level can be checked.
	MinSecureLogN = 12
	MaxSecureLogN = 16

	// MaxLogQ0 is the size in bits of the largest first modulus
	// generated by NewParametersFromSecurity.
	MaxLogQ0 = 60

	// LogQ0Margin is the number of bits by which the first modulus
	// exceeds the scale, which bounds the magnitude of decrypted values.
	LogQ0Margin = 20
)

// Parameters represents a parameter set for the CKKS cryptosystem. Its fields are private and
// immutable. See ParametersLiteral for user-specified parameters.
type Parameters struct {
	rlwe.Parameters
}

// NewParametersFromLiteral instantiate a set of CKKS parameters from a ParametersLiteral specification.
// It returns the empty parameters Parameters{} and a non-nil error wrapping rlwe.ErrInvalidParameters
// if the specified parameters are invalid.
//
// The security level is only checked if the Security field is set.
// See `rlwe.NewParametersFromLiteral` for default values of the other optional fields.
func NewParametersFromLiteral(pl ParametersLiteral) (Parameters, error) {

	if pl.LogDefaultScale < 0 || pl.LogDefaultScale > MaxLogDefaultScale {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: %w: LogDefaultScale=%d not in [0, %d]", rlwe.ErrInvalidParameters, pl.LogDefaultScale, MaxLogDefaultScale)
	}

	rlweParams, err := rlwe.NewParametersFromLiteral(pl.GetRLWEParametersLiteral())
	if err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
	}

	return Parameters{rlweParams}, nil
}

// NewParametersFromSecurity derives a complete parameter set from a SecurityLiteral.
//
// The moduli chain is generated deterministically: the first modulus is the largest NTT
// prime below 2^{min(60, LogScale+20)} and it is followed by Depth NTT primes larger than
// 2^{LogScale}, so that the scale is smaller than every modulus of the chain. The size of
// the resulting modulus is then checked against the homomorphic encryption security
// standard for the ring degree 2^{LogN} and the requested security level.
//
// The method returns an error wrapping rlwe.ErrInvalidParameters if LogN is not in [12, 16],
// if Security is not 128, 192 or 256 or if the modulus is too large for the security level.
func NewParametersFromSecurity(sl SecurityLiteral) (params Parameters, err error) {

	if sl.LogN < MinSecureLogN || sl.LogN > MaxSecureLogN {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: LogN=%d not in [%d, %d]", rlwe.ErrInvalidParameters, sl.LogN, MinSecureLogN, MaxSecureLogN)
	}

	if _, err = rlwe.MaxLogQ(sl.LogN, sl.Security); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w", err)
	}

	if sl.LogScale < 1 || sl.LogScale >= MaxLogQ0 {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: LogScale=%d not in [1, %d]", rlwe.ErrInvalidParameters, sl.LogScale, MaxLogQ0-1)
	}

	depth := sl.Depth
	if depth == 0 {
		depth = DefaultDepth
	}

	if depth < 0 || depth >= rlwe.MaxModuliCount {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: Depth=%d not in [0, %d]", rlwe.ErrInvalidParameters, sl.Depth, rlwe.MaxModuliCount-1)
	}

	NthRoot := 2 << sl.LogN

	q0, err := ring.NTTPrimeBelow(min(MaxLogQ0, sl.LogScale+LogQ0Margin), NthRoot)
	if err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: %w", rlwe.ErrInvalidParameters, err)
	}

	if q0>>sl.LogScale == 0 {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: first modulus %d is smaller than 2^%d", rlwe.ErrInvalidParameters, q0, sl.LogScale)
	}

	qi, err := ring.NTTPrimesAbove(sl.LogScale, NthRoot, depth)
	if err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w: %w", rlwe.ErrInvalidParameters, err)
	}

	if params, err = NewParametersFromLiteral(ParametersLiteral{
		LogN:            sl.LogN,
		Q:               append([]uint64{q0}, qi...),
		LogDefaultScale: sl.LogScale,
		Security:        sl.Security,
	}); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromSecurity: %w", err)
	}

	return
}

// ParametersLiteral returns the ParametersLiteral of the target Parameters.
func (p Parameters) ParametersLiteral() (pLit ParametersLiteral) {
	return ParametersLiteral{
		LogN:            p.LogN(),
		Q:               p.Q(),
		Xe:              p.Xe(),
		Xs:              p.Xs(),
		LogDefaultScale: p.LogDefaultScale(),
		Security:        p.Security(),
	}
}

// GetRLWEParameters returns a pointer to the underlying RLWE parameters.
func (p Parameters) GetRLWEParameters() *rlwe.Parameters {
	return &p.Parameters
}

// MaxSlots returns the number of real or complex values that a plaintext can store.
func (p Parameters) MaxSlots() int {
	return p.N() >> 1
}

// LogMaxSlots returns the log2 of MaxSlots.
func (p Parameters) LogMaxSlots() int {
	return p.LogN() - 1
}

// LogDefaultScale returns the log2 of the default plaintext
// scaling factor (rounded to the nearest integer).
func (p Parameters) LogDefaultScale() int {
	return int(math.Round(p.DefaultScale().Log2()))
}

// MaxDepth returns the number of rescalings enabled by the parameters.
func (p Parameters) MaxDepth() int {
	return p.MaxLevel()
}

// LogQLvl returns the size of the modulus Q in bits at a specific level.
func (p Parameters) LogQLvl(level int) int {
	return p.QLvl(level).BitLen()
}

// QLvl returns the product of the moduli at the given level as a big.Int.
func (p Parameters) QLvl(level int) *big.Int {
	tmp := bignum.NewInt(1)
	for _, qi := range p.Q()[:level+1] {
		tmp.Mul(tmp, bignum.NewInt(qi))
	}
	return tmp
}

// Equal compares two sets of parameters for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return p.Parameters.Equal(&other.Parameters)
}

// BinarySize returns the serialized size of the object in bytes.
func (p Parameters) BinarySize() int {
	return p.ParametersLiteral().BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// Unless w implements the buffer.Writer interface (see utils/buffer/writer.go),
// it will be wrapped into a bufio.Writer. Since this requires allocations, it
// is preferable to pass a buffer.Writer directly:
//
//   - When writing multiple times to a io.Writer, it is preferable to first wrap the
//     io.Writer in a pre-allocated bufio.Writer.
//   - When writing to a pre-allocated var b []byte, it is preferable to pass
//     buffer.NewBuffer(b) as w (see utils/buffer/buffer.go).
func (p Parameters) WriteTo(w io.Writer) (n int64, err error) {
	return p.ParametersLiteral().WriteTo(w)
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. The decoded literal goes through
// NewParametersFromLiteral, hence the security level is checked again.
func (p *Parameters) ReadFrom(r io.Reader) (n int64, err error) {
	var paramsLit ParametersLiteral
	if n, err = paramsLit.ReadFrom(r); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(paramsLit)
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p Parameters) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err = p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

// MarshalJSON returns a JSON representation of this parameter set. See `Marshal` from the `encoding/json` package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See `Unmarshal` from the `encoding/json` package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(params)
	return
}
