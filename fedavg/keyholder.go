package fedavg

import (
	"fmt"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

// Purposes for which seeds are derived from a master secret, see [NewSource].
const (
	PurposeKeyGen  = "fedavg/keygen"
	PurposeEncrypt = "fedavg/encrypt"
)

// NewSource returns a [sampling.Source] dedicated to the given purpose.
// If master is empty, the source is seeded from crypto/rand. Otherwise its
// seed is derived from master with HKDF, which makes the output reproducible:
// a master secret must then never be used for two distinct setups.
func NewSource(master []byte, purpose string) (*sampling.Source, error) {

	if len(master) == 0 {
		return sampling.NewSource(sampling.NewSeed()), nil
	}

	seed, err := sampling.DeriveSeed(master, nil, purpose)
	if err != nil {
		return nil, fmt.Errorf("cannot NewSource: %w", err)
	}

	return sampling.NewSource(seed), nil
}

// KeyHolder owns the secret key of a [Context]. It generates the public key
// handed to the parties and decrypts the aggregates.
//
// A KeyHolder is not safe for concurrent use.
type KeyHolder struct {
	ctx       Context
	sk        *rlwe.SecretKey
	pk        *rlwe.PublicKey
	encoder   *hefloat.Encoder
	decryptor *rlwe.Decryptor
}

// GenerateKeyHolder samples a new key pair for the context from source and
// returns the corresponding [KeyHolder]. If source is nil, it is seeded from
// crypto/rand.
func GenerateKeyHolder(ctx Context, source *sampling.Source) *KeyHolder {

	if source == nil {
		source = sampling.NewSource(sampling.NewSeed())
	}

	sk, pk := rlwe.NewKeyGenerator(ctx, source).GenKeyPairNew()

	return newKeyHolder(ctx, sk, pk)
}

// NewKeyHolder returns a [KeyHolder] from an existing key pair. The method
// returns an error wrapping [ErrInvalidParameters] if a key does not match
// the parameters of the context.
func NewKeyHolder(ctx Context, sk *rlwe.SecretKey, pk *rlwe.PublicKey) (*KeyHolder, error) {

	if err := ctx.CheckSecretKey(sk); err != nil {
		return nil, fmt.Errorf("cannot NewKeyHolder: %w", err)
	}

	if err := ctx.CheckPublicKey(pk); err != nil {
		return nil, fmt.Errorf("cannot NewKeyHolder: %w", err)
	}

	return newKeyHolder(ctx, sk, pk), nil
}

func newKeyHolder(ctx Context, sk *rlwe.SecretKey, pk *rlwe.PublicKey) *KeyHolder {
	return &KeyHolder{
		ctx:       ctx,
		sk:        sk,
		pk:        pk,
		encoder:   hefloat.NewEncoder(ctx.Parameters),
		decryptor: rlwe.NewDecryptor(ctx, sk),
	}
}

// Context returns the context of the receiver.
func (k KeyHolder) Context() Context {
	return k.ctx
}

// SecretKey returns the secret key of the receiver.
func (k KeyHolder) SecretKey() *rlwe.SecretKey {
	return k.sk
}

// PublicKey returns the public key of the receiver.
func (k KeyHolder) PublicKey() *rlwe.PublicKey {
	return k.pk
}

// Decrypt decrypts the envelope and returns the first n decoded values.
//
// The method returns an error wrapping [ErrLengthMismatch] if n is larger
// than the number of slots of the envelope and [ErrSchemaMismatch] if the
// envelope was produced for another schema than the one of the context.
func (k KeyHolder) Decrypt(env *Envelope, n int) (w WeightVector, err error) {

	if env == nil {
		return nil, fmt.Errorf("cannot Decrypt: envelope is nil")
	}

	if err = env.CheckLevel(k.ctx); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	if err = k.ctx.CheckSchema(env.Schema); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	if n < 0 || n > env.Slots() {
		return nil, fmt.Errorf("cannot Decrypt: %w: requested %d values from an envelope of %d slots", ErrLengthMismatch, n, env.Slots())
	}

	var pt *rlwe.Plaintext
	if pt, err = k.decryptor.DecryptNew(env.Ciphertext); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	w = make(WeightVector, n)
	if err = k.encoder.Decode(pt, []float64(w)); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	return
}
