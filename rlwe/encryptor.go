package rlwe

import (
	"fmt"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

// EncryptionKey is an interface for encryption keys.
// Valid encryption keys are [SecretKey] and [PublicKey] types.
type EncryptionKey interface {
	isEncryptionKey()
}

// Encryptor is a struct dedicated to encrypting [Plaintext] into [Ciphertext].
//
// An Encryptor is not safe for concurrent use: use [Encryptor.ShallowCopy]
// to obtain an instance per goroutine.
type Encryptor struct {
	params Parameters
	*EncryptorBuffers

	encKey EncryptionKey
	source *sampling.Source

	xeSampler ring.Sampler
	xuSampler ring.Sampler
	xaSampler ring.Sampler
}

// EncryptorBuffers is a struct storing the read and write buffers
// of an encryptor.
type EncryptorBuffers struct {
	BuffQ [2]ring.RNSPoly
}

func newEncryptorBuffers(params Parameters) *EncryptorBuffers {
	rQ := params.RingQ()
	return &EncryptorBuffers{
		BuffQ: [2]ring.RNSPoly{rQ.NewRNSPoly(), rQ.NewRNSPoly()},
	}
}

// NewEncryptor creates a new [Encryptor] from an [EncryptionKey] and a [sampling.Source].
// The samplers of the encryptor are seeded with independent child sources of source.
// If source is nil, a source is seeded from crypto/rand.
// The key can be nil, in which case a key must be provided later with [Encryptor.WithKey].
func NewEncryptor(params ParameterProvider, key EncryptionKey, source *sampling.Source) *Encryptor {

	p := *params.GetRLWEParameters()

	if source == nil {
		source = sampling.NewSource(sampling.NewSeed())
	}

	enc := newEncryptor(p, source)

	switch key := key.(type) {
	case *PublicKey:
		if key == nil {
			return enc
		}
		if err := enc.checkPk(key); err != nil {
			// Sanity check
			panic(fmt.Errorf("cannot NewEncryptor: %w", err))
		}
	case *SecretKey:
		if key == nil {
			return enc
		}
		if err := enc.checkSk(key); err != nil {
			// Sanity check
			panic(fmt.Errorf("cannot NewEncryptor: %w", err))
		}
	case nil:
		return enc
	default:
		// Sanity check
		panic(fmt.Errorf("key must be either *rlwe.PublicKey, *rlwe.SecretKey or nil but have %T", key))
	}

	enc.encKey = key
	return enc
}

func newEncryptor(params Parameters, source *sampling.Source) *Encryptor {

	moduli := params.RingQ().ModuliChain()

	xeSampler, err := ring.NewSampler(source.NewSource(), moduli, params.Xe())

	// Sanity check, this error should not happen.
	if err != nil {
		panic(fmt.Errorf("newEncryptor: %w", err))
	}

	xuSampler, err := ring.NewSampler(source.NewSource(), moduli, params.Xs())

	// Sanity check, this error should not happen.
	if err != nil {
		panic(fmt.Errorf("newEncryptor: %w", err))
	}

	return &Encryptor{
		params:           params,
		EncryptorBuffers: newEncryptorBuffers(params),
		source:           source,
		xeSampler:        xeSampler,
		xuSampler:        xuSampler,
		xaSampler:        ring.NewUniformSampler(source.NewSource(), moduli),
	}
}

// GetRLWEParameters returns the underlying [Parameters] of the receiver.
func (enc Encryptor) GetRLWEParameters() *Parameters {
	return &enc.params
}

// EncryptNew encrypts the input [Plaintext] using the stored encryption key
// and returns the result on a new [Ciphertext] at the level of the plaintext.
// If pt is nil, the method returns a fresh encryption of zero at the maximum level.
func (enc Encryptor) EncryptNew(pt *Plaintext) (ct *Ciphertext, err error) {

	level := enc.params.MaxLevel()
	if pt != nil {
		if level = pt.Level(); level < 0 || level > enc.params.MaxLevel() {
			return nil, fmt.Errorf("cannot EncryptNew: %w: plaintext level %d not in [0, %d]", ErrLevelExhausted, level, enc.params.MaxLevel())
		}
	}

	ct = NewCiphertext(enc.params, 1, level)

	if err = enc.Encrypt(pt, ct); err != nil {
		return nil, err
	}

	return
}

// Encrypt encrypts the input [Plaintext] using the stored encryption key and writes the result on ct.
//
// - If no plaintext is given (nil pointer), the method will produce an encryption of zero.
// - If a plaintext is given, then the output ciphertext [MetaData] will match the plaintext [MetaData]
// and the level of the ciphertext is set to min(pt.Level(), ct.Level()).
//
// The encryption procedure masks the plaintext by adding a fresh encryption of zero.
//
// The method returns an error if no encryption key is stored or if the
// ciphertext is not of degree 1.
func (enc Encryptor) Encrypt(pt *Plaintext, ct *Ciphertext) (err error) {

	if pt == nil {
		return enc.EncryptZero(ct)
	}

	if pt.N() != enc.params.N() {
		return fmt.Errorf("cannot Encrypt: %w: plaintext ring degree %d does not match parameters ring degree %d", ErrInvalidParameters, pt.N(), enc.params.N())
	}

	level := min(pt.Level(), ct.Level())

	ct.Resize(level)
	*ct.MetaData = *pt.MetaData.Clone()
	ct.IsMontgomery = false

	if err = enc.EncryptZero(ct); err != nil {
		return
	}

	enc.addPtToCt(level, pt, ct)

	return
}

// EncryptZero generates an encryption of zero under the stored encryption key and writes the result on ct.
// The method returns an error if no encryption key is stored in the Encryptor or if the ciphertext
// is not of degree 1.
//
// The zero encryption is generated according to the given ciphertext [MetaData].
func (enc Encryptor) EncryptZero(ct *Ciphertext) (err error) {

	if ct.Degree() != 1 {
		return fmt.Errorf("cannot EncryptZero: ciphertext degree must be 1 but is %d", ct.Degree())
	}

	if ct.Level() > enc.params.MaxLevel() {
		return fmt.Errorf("cannot EncryptZero: %w: ciphertext level %d > %d", ErrLevelExhausted, ct.Level(), enc.params.MaxLevel())
	}

	switch enc.encKey.(type) {
	case *SecretKey:
		enc.encryptZeroSk(ct)
	case *PublicKey:
		enc.encryptZeroPk(ct)
	default:
		return fmt.Errorf("cannot EncryptZero: encryption key is nil")
	}

	return
}

// encryptZeroPk samples (u*pk0 + e0, u*pk1 + e1).
func (enc Encryptor) encryptZeroPk(ct *Ciphertext) {

	pk := enc.encKey.(*PublicKey)

	level := ct.Level()

	rQ := enc.params.RingQAtLevel(level)

	u := enc.BuffQ[0]
	e := enc.BuffQ[1]

	enc.xuSampler.AtLevel(level).Read(u)
	rQ.NTT(u, u)

	// pk is in the Montgomery domain so the outputs are not.
	rQ.MulCoeffsMontgomery(u, pk.Value[0], ct.Value[0])
	rQ.MulCoeffsMontgomery(u, pk.Value[1], ct.Value[1])

	xe := enc.xeSampler.AtLevel(level)

	for i := range ct.Value {
		xe.Read(e)
		rQ.NTT(e, e)
		rQ.Add(ct.Value[i], e, ct.Value[i])
	}

	enc.setDomain(rQ, ct)
}

// encryptZeroSk samples (-a*sk + e, a).
func (enc Encryptor) encryptZeroSk(ct *Ciphertext) {

	sk := enc.encKey.(*SecretKey)

	level := ct.Level()

	rQ := enc.params.RingQAtLevel(level)

	c0, c1 := ct.Value[0], ct.Value[1]

	// c1 = a, sampled directly in the NTT domain.
	enc.xaSampler.AtLevel(level).Read(c1)

	// c0 = e
	enc.xeSampler.AtLevel(level).Read(c0)
	rQ.NTT(c0, c0)

	if ct.IsMontgomery {
		// c0 = e*2^64 - a*sk = (e - (a*2^-64)*sk) * 2^64
		rQ.MForm(c0, c0)
	}

	// c0 = e - a*sk
	rQ.MulCoeffsMontgomery(c1, sk.Value, enc.BuffQ[0])
	rQ.Sub(c0, enc.BuffQ[0], c0)

	if !ct.IsNTT {
		rQ.INTT(c0, c0)
		rQ.INTT(c1, c1)
	}
}

// setDomain maps a ciphertext sampled in the NTT domain
// to the domain required by its metadata.
func (enc Encryptor) setDomain(rQ ring.RNSRing, ct *Ciphertext) {
	for i := range ct.Value {
		if ct.IsMontgomery {
			rQ.MForm(ct.Value[i], ct.Value[i])
		}
		if !ct.IsNTT {
			rQ.INTT(ct.Value[i], ct.Value[i])
		}
	}
}

func (enc Encryptor) addPtToCt(level int, pt *Plaintext, ct *Ciphertext) {

	rQ := enc.params.RingQAtLevel(level)

	var buff ring.RNSPoly
	switch {
	case pt.IsNTT == ct.IsNTT:
		buff = pt.Value
	case ct.IsNTT:
		buff = enc.BuffQ[0]
		rQ.NTT(pt.Value, buff)
	default:
		buff = enc.BuffQ[0]
		rQ.INTT(pt.Value, buff)
	}

	rQ.Add(ct.Value[0], buff, ct.Value[0])
}

// ShallowCopy creates a shallow copy of the receiver in which all the read-only data-structures are
// shared with the receiver and the temporary buffers are reallocated. The samplers of the copy are
// seeded from independent child sources of the receiver's source. The receiver and the returned
// object can be used concurrently.
func (enc Encryptor) ShallowCopy() *Encryptor {
	return NewEncryptor(enc.params, enc.encKey, enc.source.NewSource())
}

// WithKey returns an instance of the receiver with a new [EncryptionKey].
// The returned object cannot be used concurrently with the receiver.
func (enc Encryptor) WithKey(key EncryptionKey) *Encryptor {
	switch key := key.(type) {
	case *SecretKey:
		if err := enc.checkSk(key); err != nil {
			// Sanity check
			panic(fmt.Errorf("cannot WithKey: %w", err))
		}
	case *PublicKey:
		if err := enc.checkPk(key); err != nil {
			// Sanity check
			panic(fmt.Errorf("cannot WithKey: %w", err))
		}
	case nil:
		return &enc
	default:
		// Sanity check
		panic(fmt.Errorf("invalid key type, want *rlwe.SecretKey, *rlwe.PublicKey or nil but have %T", key))
	}
	enc.encKey = key
	return &enc
}

// checkPk checks that a given pk is correct for the parameters.
func (enc Encryptor) checkPk(pk *PublicKey) (err error) {
	if pk.N() != enc.params.N() {
		return fmt.Errorf("pk ring degree does not match params ring degree")
	}
	if pk.Level() != enc.params.MaxLevel() {
		return fmt.Errorf("pk level does not match params max level")
	}
	return
}

// checkSk checks that a given sk is correct for the parameters.
func (enc Encryptor) checkSk(sk *SecretKey) (err error) {
	if sk.N() != enc.params.N() {
		return fmt.Errorf("sk ring degree does not match params ring degree")
	}
	if sk.Level() != enc.params.MaxLevel() {
		return fmt.Errorf("sk level does not match params max level")
	}
	return
}
