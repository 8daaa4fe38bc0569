package rlwe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/Pro7ech/fedavg/utils/bignum"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

// ScalePrecision is the precision of the scale.
const ScalePrecision = uint(128)

// Scale is a struct used to track the scaling factor
// of [Plaintext] and [Ciphertext] structs.
// The scale is managed as an 128-bit precision real.
type Scale struct {
	Value big.Float
}

// NewScale instantiates a new [Scale].
// Accepted types are int, int64, uint64, float64, *big.Int, *big.Float and Scale.
// The method panics if the type is not accepted or the value is negative.
func NewScale(s interface{}) Scale {
	return Scale{Value: *scaleToBigFloat(s)}
}

// Float64 returns the underlying scale as a float64 value.
func (s Scale) Float64() float64 {
	f64, _ := s.Value.Float64()
	return f64
}

// Uint64 returns the underlying scale as an uint64 value.
func (s Scale) Uint64() uint64 {
	u64, _ := s.Value.Uint64()
	return u64
}

// BigInt returns the underlying scale rounded to the nearest integer.
func (s Scale) BigInt() (b *big.Int) {
	half := new(big.Float).SetPrec(ScalePrecision).SetFloat64(0.5)
	b, _ = new(big.Float).SetPrec(ScalePrecision).Add(&s.Value, half).Int(nil)
	return
}

// Log2 returns the base two logarithm of the scale.
func (s Scale) Log2() float64 {
	if s.Value.Sign() == 0 {
		return math.Inf(-1)
	}
	f64, _ := bignum.Log2(&s.Value).Float64()
	return f64
}

// Mul returns s * s1.
func (s Scale) Mul(s1 Scale) Scale {
	res := new(big.Float).SetPrec(ScalePrecision)
	res.Mul(&s.Value, &s1.Value)
	return Scale{Value: *res}
}

// Div returns s / s1.
func (s Scale) Div(s1 Scale) Scale {
	res := new(big.Float).SetPrec(ScalePrecision)
	res.Quo(&s.Value, &s1.Value)
	return Scale{Value: *res}
}

// Cmp compares the receiver with s1 and returns
// -1 if s < s1, 0 if s == s1 and 1 if s > s1.
func (s Scale) Cmp(s1 Scale) (cmp int) {
	return s.Value.Cmp(&s1.Value)
}

// Equal returns true if both scales hold the same value.
func (s Scale) Equal(s1 *Scale) bool {
	return s.Cmp(*s1) == 0
}

// BinarySize returns the serialized size of the object in bytes.
func (s Scale) BinarySize() int {
	data, err := s.Value.GobEncode()
	if err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
	return 1 + len(data)
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (s Scale) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var data []byte
		if data, err = s.Value.GobEncode(); err != nil {
			return
		}

		var inc int64
		if inc, err = buffer.WriteAsUint8(w, len(data)); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.Write(w, data); err != nil {
			return n + inc, err
		}

		return n + inc, w.Flush()

	default:
		return s.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (s *Scale) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var size uint8
		var inc int64
		if inc, err = buffer.ReadUint8(r, &size); err != nil {
			return n + inc, err
		}

		n += inc

		data := make([]byte, size)
		if inc, err = buffer.Read(r, data); err != nil {
			return n + inc, err
		}

		n += inc

		v := new(big.Float)
		if err = v.GobDecode(data); err != nil {
			return n, fmt.Errorf("big.Float.GobDecode: %w", err)
		}

		if v.Sign() < 0 {
			return n, fmt.Errorf("invalid scale: cannot be negative")
		}

		s.Value = *v

		return n, nil

	default:
		return s.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (s Scale) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(s.BinarySize())
	_, err = s.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (s *Scale) UnmarshalBinary(p []byte) (err error) {
	_, err = s.ReadFrom(buffer.NewBuffer(p))
	return
}

// MarshalJSON encodes the scale as a decimal string.
func (s Scale) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value.Text('g', -1))
}

// UnmarshalJSON decodes a scale encoded by MarshalJSON.
func (s *Scale) UnmarshalJSON(p []byte) (err error) {
	var str string
	if err = json.Unmarshal(p, &str); err != nil {
		return fmt.Errorf("invalid scale: %w", err)
	}
	v, ok := new(big.Float).SetPrec(ScalePrecision).SetString(str)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid scale: %s", str)
	}
	s.Value = *v
	return
}

func scaleToBigFloat(scale interface{}) (s *big.Float) {

	s = new(big.Float).SetPrec(ScalePrecision)

	switch scale := scale.(type) {
	case float64:
		s.SetFloat64(scale)
	case *big.Float:
		s.Set(scale)
	case *big.Int:
		s.SetInt(scale)
	case int:
		s.SetInt64(int64(scale))
	case int64:
		s.SetInt64(scale)
	case uint64:
		s.SetUint64(scale)
	case Scale:
		s.Set(&scale.Value)
	default:
		// Sanity check
		panic(fmt.Errorf("invalid scale.(type): must be int, int64, uint64, float64, *big.Int, *big.Float or Scale but is %T", scale))
	}

	if s.Sign() < 0 {
		// Sanity check
		panic(fmt.Errorf("scale cannot be negative but is %v", s))
	}

	return
}
