package rlwe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/buffer"
	"github.com/Pro7ech/fedavg/utils/structs"
)

// ParametersLiteral is a literal representation of RLWE parameters. It has public fields and
// is used to express unchecked user-defined parameters literally into Go programs.
// The [NewParametersFromLiteral] function is used to generate the actual checked parameters
// from the literal representation.
//
// Users must set the polynomial degree (LogN) and the coefficient modulus, by either setting
// the Q field to the desired moduli chain, or by setting the LogQ field to the desired moduli
// sizes.
//
// Optionally, users may specify the error distribution (Xe), the secret distribution (Xs),
// the default scale and the targeted security level. If left unset, default values are
// substituted at parameter creation (see [NewParametersFromLiteral]). A zero Security
// disables the security check.
type ParametersLiteral struct {
	LogN         int
	Q            structs.Vector[uint64]      `json:",omitempty"`
	LogQ         structs.Vector[int]         `json:",omitempty"`
	Xe           ring.DistributionParameters `json:",omitempty"`
	Xs           ring.DistributionParameters `json:",omitempty"`
	DefaultScale Scale
	Security     int `json:",omitempty"`
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
	size += p.DefaultScale.BinarySize()
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

		if inc, err = p.DefaultScale.WriteTo(w); err != nil {
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

		if inc, err = p.DefaultScale.ReadFrom(r); err != nil {
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

// UnmarshalJSON reads a JSON representation of a parameter set literal into the receiver.
func (p *ParametersLiteral) UnmarshalJSON(b []byte) (err error) {
	var pl struct {
		LogN         int
		Q            []uint64
		LogQ         []int
		Xe           map[string]interface{}
		Xs           map[string]interface{}
		DefaultScale Scale
		Security     int
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

	p.DefaultScale = pl.DefaultScale
	p.Security = pl.Security

	return
}
