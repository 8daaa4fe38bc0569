package rlwe

import (
	"fmt"

	"github.com/Pro7ech/fedavg/ring"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

// KeyGenerator is a structure that stores the elements required to create new keys,
// as well as a memory buffer for intermediate values.
type KeyGenerator struct {
	*Encryptor
	xsSampler ring.Sampler
}

// NewKeyGenerator creates a new [KeyGenerator], from which secret and public keys are generated.
// The secret and the public key samplers are seeded with independent child sources of source,
// so that a source is never consumed by two key generations.
// If source is nil, a source is seeded from crypto/rand.
func NewKeyGenerator(params ParameterProvider, source *sampling.Source) *KeyGenerator {

	p := params.GetRLWEParameters()

	if source == nil {
		source = sampling.NewSource(sampling.NewSeed())
	}

	xsSampler, err := ring.NewSampler(source.NewSource(), p.RingQ().ModuliChain(), p.Xs())

	// Sanity check, this error should not happen.
	if err != nil {
		panic(fmt.Errorf("cannot NewKeyGenerator: %w", err))
	}

	return &KeyGenerator{
		Encryptor: NewEncryptor(params, nil, source.NewSource()),
		xsSampler: xsSampler,
	}
}

// GenSecretKeyNew generates a new [SecretKey].
// Distribution is set according to [Parameters.Xs].
func (kgen KeyGenerator) GenSecretKeyNew() (sk *SecretKey) {
	sk = NewSecretKey(kgen.params)
	kgen.GenSecretKey(sk)
	return
}

// GenSecretKey generates a [SecretKey].
// Distribution is set according to [Parameters.Xs].
func (kgen KeyGenerator) GenSecretKey(sk *SecretKey) {
	kgen.GenSecretKeyFromSampler(kgen.xsSampler, sk)
}

// GenSecretKeyFromSampler generates a [SecretKey] from the given sampler.
// The key is stored in the NTT and Montgomery domain.
func (kgen KeyGenerator) GenSecretKeyFromSampler(sampler ring.Sampler, sk *SecretKey) {

	level := sk.Level()

	rQ := kgen.params.RingQAtLevel(level)

	sampler.AtLevel(level).Read(sk.Value)

	rQ.NTT(sk.Value, sk.Value)
	rQ.MForm(sk.Value, sk.Value)
}

// GenPublicKeyNew generates a new [PublicKey] from the provided [SecretKey].
func (kgen KeyGenerator) GenPublicKeyNew(sk *SecretKey) (pk *PublicKey) {
	pk = NewPublicKey(kgen.params)
	kgen.GenPublicKey(sk, pk)
	return
}

// GenPublicKey generates a [PublicKey] from the provided [SecretKey].
func (kgen KeyGenerator) GenPublicKey(sk *SecretKey, pk *PublicKey) {
	if err := kgen.WithKey(sk).EncryptZero(pk.AsCiphertext()); err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
}

// GenKeyPairNew generates a new [SecretKey] and a corresponding [PublicKey].
func (kgen KeyGenerator) GenKeyPairNew() (sk *SecretKey, pk *PublicKey) {
	sk = kgen.GenSecretKeyNew()
	pk = kgen.GenPublicKeyNew(sk)
	return
}
