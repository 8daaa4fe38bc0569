package hefloat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/bignum"
	"github.com/Pro7ech/fedavg/utils/buffer"
	"github.com/Pro7ech/fedavg/utils/structs"
)

// ParametersLiteral is a literal representation of CKKS parameters. It has public
// fields and is used to express unchecked user-defined parameters literally into
// Go programs. The NewParametersFromLiteral function is used to generate the actual
// checked parameters from the literal representation.
//
// Users must set the polynomial degree (in log_2, LogN) and the coefficient modulus, by either setting
// the Q field to the desired moduli chain, or by setting the LogQ field to the desired moduli sizes
// (in log_2). Users must also specify a default initial scale for the plaintexts.
//
// Optionally, users may specify the error distribution (Xe), the secret distribution (Xs) and
// the targeted security level (Security). If left unset, standard default values for these
// fields are substituted at parameter creation (see NewParametersFromLiteral).
type ParametersLiteral struct {
	LogN            int
	Q               structs.Vector[uint64]      `json:",omitempty"`
	LogQ            structs.Vector[int]         `json:",omitempty"`
	Xe              ring.DistributionParameters `json:",omitempty"`
	Xs              ring.DistributionParameters `json:",omitempty"`
	LogDefaultScale int                         `json:",omitempty"`
	Security        int                         `json:",omitempty"`
}

// SecurityLiteral is the high level description of a CKKS parameter set:
// the ring degree, the size of the scaling factor, the targeted security
// level in bits and the number of scalar multiplications (Depth) the
// parameters must support. See NewParametersFromSecurity.
type SecurityLiteral struct {
	LogN     int
	LogScale int
	Security int
	Depth    int `json:",omitempty"`
}

// GetRLWEParametersLiteral returns the rlwe.ParametersLiteral from the target hefloat.ParametersLiteral.
func (p ParametersLiteral) GetRLWEParametersLiteral() rlwe.ParametersLiteral {
	return rlwe.ParametersLiteral{
		LogN:         p.LogN,
		Q:            p.Q,
		LogQ:         p.LogQ,
		Xe:           p.Xe,
		Xs:           p.Xs,
		DefaultScale: rlwe.NewScale(bignum.Exp2(float64(p.LogDefaultScale), rlwe.ScalePrecision)),
		Security:     p.Security,
	}
}

// BinarySize returns the serialized size of the object in bytes.
func (p ParametersLiteral) BinarySize() (size int) {
	size++ // LogN
	size += p.Q.BinarySize()
	size += p.LogQ.BinarySize()
	size++ // Xe flag
	if p.Xe != nil {
		size += p.Xe.BinarySize()
	}
	size++ // Xs flag
	if p.Xs != nil {
		size += p.Xs.BinarySize()
	}
	size++    // LogDefaultScale
	size += 8 // Security
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (p ParametersLiteral) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteAsUint8(w, p.LogN); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = p.Q.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = p.LogQ.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		for _, X := range []ring.DistributionParameters{p.Xe, p.Xs} {

			if inc, err = buffer.WriteAsUint8(w, X != nil); err != nil {
				return n + inc, err
			}

			n += inc

			if X != nil {
				if inc, err = X.WriteTo(w); err != nil {
					return n + inc, err
				}

				n += inc
			}
		}

		if inc, err = buffer.WriteAsUint8(w, p.LogDefaultScale); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.WriteAsUint64(w, p.Security); err != nil {
			return n + inc, err
		}

		n += inc

		return n, w.Flush()
	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (p *ParametersLiteral) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if inc, err = buffer.ReadAsUint8(r, &p.LogN); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = p.Q.ReadFrom(r); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = p.LogQ.ReadFrom(r); err != nil {
			return n + inc, err
		}

		n += inc

		for _, X := range []*ring.DistributionParameters{&p.Xe, &p.Xs} {

			var hasX uint8
			if inc, err = buffer.ReadUint8(r, &hasX); err != nil {
				return n + inc, err
			}

			n += inc

			switch hasX {
			case 0:
				*X = nil
			case 1:
				if *X, inc, err = ring.DistributionParametersFromReader(r); err != nil {
					return n + inc, err
				}
				n += inc
			default:
				return n, fmt.Errorf("invalid distribution flag: %d", hasX)
			}
		}

		if inc, err = buffer.ReadAsUint8(r, &p.LogDefaultScale); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.ReadAsUint64(r, &p.Security); err != nil {
			return n + inc, err
		}

		n += inc

		return
	default:
		return p.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p ParametersLiteral) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err = p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (p *ParametersLiteral) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

func (p *ParametersLiteral) UnmarshalJSON(b []byte) (err error) {
	var pl struct {
		LogN            int
		Q               []uint64
		LogQ            []int
		Xe              map[string]interface{}
		Xs              map[string]interface{}
		LogDefaultScale int
		Security        int
	}

	if err = json.Unmarshal(b, &pl); err != nil {
		return err
	}

	p.LogN = pl.LogN
	p.Q, p.LogQ = pl.Q, pl.LogQ

	if pl.Xs != nil {
		if p.Xs, err = ring.DistributionParametersFromMap(pl.Xs); err != nil {
			return err
		}
	}

	if pl.Xe != nil {
		if p.Xe, err = ring.DistributionParametersFromMap(pl.Xe); err != nil {
			return err
		}
	}

	p.LogDefaultScale = pl.LogDefaultScale
	p.Security = pl.Security

	return
}
