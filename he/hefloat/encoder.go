package hefloat

import (
	"fmt"
	"math"
	"math/big"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils"
)

// Encoder is a type that implements the encoding and decoding interface for the CKKS scheme.
// It embeds vectors of up to N/2 real or complex values on the coefficients of a plaintext
// polynomial through the canonical embedding, which preserves the coefficient-wise addition
// and multiplication of the values.
//
// The values are encoded in the slots of the plaintext: a vector of n values uses
// 2^{ceil(log2(n))} slots and the remaining slots are set to zero.
type Encoder struct {
	parameters Parameters

	m        int
	rotGroup []int
	roots    []complex128

	buffCmplx    []complex128
	bigintCoeffs []big.Int
	buff         ring.RNSPoly
}

// NewEncoder creates a new Encoder from the target parameters.
func NewEncoder(parameters Parameters) (ecd *Encoder) {

	m := 2 * parameters.N()

	return &Encoder{
		parameters:   parameters,
		m:            m,
		rotGroup:     GetRotationGroup(m),
		roots:        GetRootsComplex128(m),
		buffCmplx:    make([]complex128, parameters.MaxSlots()),
		bigintCoeffs: make([]big.Int, parameters.N()),
		buff:         parameters.RingQ().NewRNSPoly(),
	}
}

// GetParameters returns the underlying parameters of the receiver.
func (ecd Encoder) GetParameters() Parameters {
	return ecd.parameters
}

// GetRLWEParameters returns the underlying rlwe.Parameters of the receiver.
func (ecd Encoder) GetRLWEParameters() *rlwe.Parameters {
	return &ecd.parameters.Parameters
}

// LogSlots returns the log2 of the number of slots used to encode a vector of n values.
func LogSlots(n int) int {
	return utils.LogCeil(n)
}

// EncodeNew encodes a set of values on a new plaintext at the given level and with the given scale.
// See Encode for the accepted types of values.
func (ecd Encoder) EncodeNew(values interface{}, level int, scale rlwe.Scale) (pt *rlwe.Plaintext, err error) {

	if level < 0 || level > ecd.parameters.MaxLevel() {
		return nil, fmt.Errorf("cannot EncodeNew: %w: level=%d not in [0, %d]", rlwe.ErrLevelExhausted, level, ecd.parameters.MaxLevel())
	}

	pt = rlwe.NewPlaintext(ecd.parameters, level)
	pt.Scale = scale

	if err = ecd.Encode(values, pt); err != nil {
		return nil, err
	}

	return
}

// Encode encodes a set of values on the target plaintext.
// Encoding is done at the level and scale of the plaintext.
// Encoding domain is done according to the metadata of the plaintext.
// User must ensure that len(values) <= N/2, otherwise an error wrapping
// rlwe.ErrVectorTooLong is returned. An empty vector is valid and is
// encoded on a single slot.
//
// Accepted values.(type) are []float64 and []complex128.
// The field pt.LogSlots is set by the method.
func (ecd Encoder) Encode(values interface{}, pt *rlwe.Plaintext) (err error) {

	var n int
	switch values := values.(type) {
	case []float64:
		n = len(values)
	case []complex128:
		n = len(values)
	default:
		return fmt.Errorf("cannot Encode: values.(type) must be []float64 or []complex128 but is %T", values)
	}

	if n > ecd.parameters.MaxSlots() {
		return fmt.Errorf("cannot Encode: %w: #values=%d > MaxSlots=%d", rlwe.ErrVectorTooLong, n, ecd.parameters.MaxSlots())
	}

	if pt.N() != ecd.parameters.N() {
		return fmt.Errorf("cannot Encode: %w: plaintext ring degree %d does not match parameters ring degree %d", rlwe.ErrInvalidParameters, pt.N(), ecd.parameters.N())
	}

	logSlots := LogSlots(n)
	slots := 1 << logSlots

	buffCmplx := ecd.buffCmplx[:slots]

	switch values := values.(type) {
	case []float64:
		for i, v := range values {
			buffCmplx[i] = complex(v, 0)
		}
	case []complex128:
		copy(buffCmplx, values)
	}

	for i := n; i < slots; i++ {
		buffCmplx[i] = 0
	}

	for i := range buffCmplx {
		if v := buffCmplx[i]; math.IsNaN(real(v)) || math.IsInf(real(v), 0) || math.IsNaN(imag(v)) || math.IsInf(imag(v), 0) {
			return fmt.Errorf("cannot Encode: value at index %d is not finite", i)
		}
	}

	SpecialiFFT(buffCmplx, slots, ecd.m, ecd.rotGroup, ecd.roots)

	// The slots are embedded on X^{gap}, so that the vector
	// [real(v), imag(v)] is spread over the N coefficients.
	N := ecd.parameters.N()
	gap := (N >> 1) / slots

	coeffs := ecd.bigintCoeffs
	for i := range coeffs {
		coeffs[i].SetUint64(0)
	}

	scale := &pt.Scale.Value
	for i, j := 0, 0; i < slots; i, j = i+1, j+gap {
		scaleUp(real(buffCmplx[i]), scale, &coeffs[j])
		scaleUp(imag(buffCmplx[i]), scale, &coeffs[j+(N>>1)])
	}

	rQ := ecd.parameters.RingQ().AtLevel(pt.Level())

	rQ.SetCoefficientsBigint(coeffs, pt.Value)

	if pt.IsNTT {
		rQ.NTT(pt.Value, pt.Value)
	}

	if pt.IsMontgomery {
		rQ.MForm(pt.Value, pt.Value)
	}

	pt.LogSlots = logSlots

	return
}

// Decode decodes the input plaintext on values.
// Accepted values.(type) are []float64 and []complex128.
// The first min(len(values), pt.Slots()) entries of values are
// set to the decoded slots and the remaining entries are set to zero.
func (ecd Encoder) Decode(pt *rlwe.Plaintext, values interface{}) (err error) {

	var n int
	switch values := values.(type) {
	case []float64:
		n = len(values)
	case []complex128:
		n = len(values)
	default:
		return fmt.Errorf("cannot Decode: values.(type) must be []float64 or []complex128 but is %T", values)
	}

	if n > ecd.parameters.MaxSlots() {
		return fmt.Errorf("cannot Decode: %w: #values=%d > MaxSlots=%d", rlwe.ErrVectorTooLong, n, ecd.parameters.MaxSlots())
	}

	if pt.N() != ecd.parameters.N() {
		return fmt.Errorf("cannot Decode: %w: plaintext ring degree %d does not match parameters ring degree %d", rlwe.ErrInvalidParameters, pt.N(), ecd.parameters.N())
	}

	if level := pt.Level(); level < 0 || level > ecd.parameters.MaxLevel() {
		return fmt.Errorf("cannot Decode: %w: level=%d not in [0, %d]", rlwe.ErrLevelExhausted, level, ecd.parameters.MaxLevel())
	}

	if pt.LogSlots < 0 || pt.LogSlots > ecd.parameters.LogMaxSlots() {
		return fmt.Errorf("cannot Decode: LogSlots=%d not in [0, %d]", pt.LogSlots, ecd.parameters.LogMaxSlots())
	}

	rQ := ecd.parameters.RingQ().AtLevel(pt.Level())

	buff := ecd.buff

	if pt.IsNTT {
		rQ.INTT(pt.Value, buff)
	} else {
		buff.CopyLvl(pt.Level(), &pt.Value)
	}

	if pt.IsMontgomery {
		rQ.IMForm(buff, buff)
	}

	slots := pt.Slots()
	gap := (ecd.parameters.N() >> 1) / slots

	// Reconstructs the coefficients X^{i*gap}: the first slots
	// coefficients carry the real part and the next slots the
	// imaginary part.
	rQ.PolyToBigintCentered(buff, gap, ecd.bigintCoeffs)

	buffCmplx := ecd.buffCmplx[:slots]

	scale := &pt.Scale.Value
	for i := range buffCmplx {
		buffCmplx[i] = complex(scaleDown(&ecd.bigintCoeffs[i], scale), scaleDown(&ecd.bigintCoeffs[i+slots], scale))
	}

	SpecialFFT(buffCmplx, slots, ecd.m, ecd.rotGroup, ecd.roots)

	switch values := values.(type) {
	case []float64:
		for i := range values {
			if i < slots {
				values[i] = real(buffCmplx[i])
			} else {
				values[i] = 0
			}
		}
	case []complex128:
		for i := range values {
			if i < slots {
				values[i] = buffCmplx[i]
			} else {
				values[i] = 0
			}
		}
	}

	return
}

// FFT evaluates the special 2^{LogN}-th encoding discrete Fourier transform on values.
func (ecd Encoder) FFT(values []complex128, logN int) {
	SpecialFFT(values, 1<<logN, ecd.m, ecd.rotGroup, ecd.roots)
}

// IFFT evaluates the special 2^{LogN}-th decoding discrete Fourier transform on values.
func (ecd Encoder) IFFT(values []complex128, logN int) {
	SpecialiFFT(values, 1<<logN, ecd.m, ecd.rotGroup, ecd.roots)
}

// ShallowCopy returns a lightweight copy of the target object
// that can be used concurrently with the original object.
func (ecd Encoder) ShallowCopy() *Encoder {
	return &Encoder{
		parameters:   ecd.parameters,
		m:            ecd.m,
		rotGroup:     ecd.rotGroup,
		roots:        ecd.roots,
		buffCmplx:    make([]complex128, ecd.parameters.MaxSlots()),
		bigintCoeffs: make([]big.Int, ecd.parameters.N()),
		buff:         ecd.parameters.RingQ().NewRNSPoly(),
	}
}
