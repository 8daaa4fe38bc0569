package rlwe

import (
	"fmt"

	"github.com/Pro7ech/fedavg/ring"
)

// Decryptor is a structure used to decrypt [Ciphertext].
// It stores the secret-key.
type Decryptor struct {
	params Parameters
	buff   ring.RNSPoly
	sk     *SecretKey
}

// NewDecryptor instantiates a new [Decryptor].
func NewDecryptor(params ParameterProvider, sk *SecretKey) *Decryptor {

	p := params.GetRLWEParameters()

	// Sanity check
	if sk != nil && sk.N() != p.N() {
		panic(fmt.Errorf("secret_key ring degree does not match parameters ring degree"))
	}

	return &Decryptor{
		params: *p,
		buff:   p.RingQ().NewRNSPoly(),
		sk:     sk,
	}
}

// GetRLWEParameters returns the underlying [Parameters] of the receiver.
func (d Decryptor) GetRLWEParameters() *Parameters {
	return &d.params
}

// DecryptNew decrypts a [Ciphertext] and returns the result in a new [Plaintext].
// Output plaintext [MetaData] will match the input ciphertext [MetaData].
func (d Decryptor) DecryptNew(ct *Ciphertext) (pt *Plaintext, err error) {

	if err = ct.CheckLevel(d.params); err != nil {
		return nil, fmt.Errorf("cannot DecryptNew: %w", err)
	}

	pt = NewPlaintext(d.params, ct.Level())

	if err = d.Decrypt(ct, pt); err != nil {
		return nil, err
	}

	return
}

// Decrypt decrypts a [Ciphertext] and writes the result on a [Plaintext].
// The level of the output plaintext is min(ct.Level(), pt.Level()).
// Output plaintext [MetaData] will match the input ciphertext [MetaData].
//
// The method returns an error wrapping [ErrLevelExhausted] if the level
// of the ciphertext is out of range for the parameters.
func (d Decryptor) Decrypt(ct *Ciphertext, pt *Plaintext) (err error) {

	// Sanity check
	if d.sk == nil {
		panic(fmt.Errorf("decryption key is nil"))
	}

	if err = ct.CheckLevel(d.params); err != nil {
		return fmt.Errorf("cannot Decrypt: %w", err)
	}

	level := min(ct.Level(), pt.Level())

	pt.Value.Resize(level)

	*pt.MetaData = *ct.MetaData.Clone()

	rQ := d.params.RingQAtLevel(level)

	degree := ct.Degree()

	if ct.IsNTT {
		pt.Value.CopyLvl(level, &ct.Value[degree])
	} else {
		rQ.NTT(ct.Value[degree], pt.Value)
	}

	// Horner evaluation of sum c_i * s^i.
	for i := degree; i > 0; i-- {

		rQ.MulCoeffsMontgomery(pt.Value, d.sk.Value, pt.Value)

		if !ct.IsNTT {
			rQ.NTT(ct.Value[i-1], d.buff)
			rQ.Add(pt.Value, d.buff, pt.Value)
		} else {
			rQ.Add(pt.Value, ct.Value[i-1], pt.Value)
		}
	}

	if !ct.IsNTT {
		rQ.INTT(pt.Value, pt.Value)
	}

	return
}

// ShallowCopy creates a shallow copy of the receiver in which all the read-only data-
// structures are shared with the receiver and the temporary buffers are reallocated.
// The receiver and the returned object can be used concurrently.
func (d Decryptor) ShallowCopy() *Decryptor {
	return &Decryptor{
		params: d.params,
		buff:   d.params.RingQ().NewRNSPoly(),
		sk:     d.sk,
	}
}

// WithKey returns an instance of the receiver with a new decryption key.
// The returned object cannot be used concurrently with the receiver.
func (d Decryptor) WithKey(sk *SecretKey) *Decryptor {

	// Sanity check
	if sk == nil {
		panic(fmt.Errorf("key is nil"))
	}

	// Sanity check
	if sk.N() != d.params.N() {
		panic(fmt.Errorf("key ring degree does not match parameters ring degree"))
	}

	return &Decryptor{
		params: d.params,
		buff:   d.buff,
		sk:     sk,
	}
}
