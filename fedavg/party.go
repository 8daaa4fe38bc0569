package fedavg

import (
	"fmt"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/concurrency"
	"github.com/Pro7ech/fedavg/utils/sampling"
)

// Party encrypts weight vectors under the public key of a [Context].
//
// A Party is not safe for concurrent use, see ShallowCopy and EncryptMany.
type Party struct {
	ctx       Context
	encoder   *hefloat.Encoder
	encryptor *rlwe.Encryptor
}

// NewParty returns a new [Party] encrypting under pk.
// If source is nil, the randomness of the encryptions is seeded from crypto/rand.
// The method returns an error wrapping [ErrInvalidParameters] if pk does not
// match the parameters of the context.
func NewParty(ctx Context, pk *rlwe.PublicKey, source *sampling.Source) (*Party, error) {

	if err := ctx.CheckPublicKey(pk); err != nil {
		return nil, fmt.Errorf("cannot NewParty: %w", err)
	}

	return &Party{
		ctx:       ctx,
		encoder:   hefloat.NewEncoder(ctx.Parameters),
		encryptor: rlwe.NewEncryptor(ctx, pk, source),
	}, nil
}

// ShallowCopy returns a copy of the receiver with its own buffers and an
// independent stream of randomness. The copy and the receiver can be used
// concurrently.
func (p Party) ShallowCopy() *Party {
	return &Party{
		ctx:       p.ctx,
		encoder:   p.encoder.ShallowCopy(),
		encryptor: p.encryptor.ShallowCopy(),
	}
}

// Encrypt encodes the weights of the contribution at the default scale of the
// context and at its maximum level, and encrypts them into a new [Envelope].
//
// The method returns an error wrapping [ErrLengthMismatch] if the schema of the
// contribution does not name every weight, [ErrSchemaMismatch] if the schema
// differs from the one of the context and [ErrVectorTooLong] if the weights do
// not fit in the slots of the parameters.
func (p Party) Encrypt(c Contribution) (env *Envelope, err error) {

	if err = c.Validate(); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	digest := c.Schema.Digest()

	if err = p.ctx.CheckSchema(digest); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if digest.IsZero() {
		digest = p.ctx.Schema
	}

	var pt *rlwe.Plaintext
	if pt, err = p.encoder.EncodeNew([]float64(c.Weights), p.ctx.MaxLevel(), p.ctx.DefaultScale()); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	var ct *rlwe.Ciphertext
	if ct, err = p.encryptor.EncryptNew(pt); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	return &Envelope{Schema: digest, Count: c.Count, Ciphertext: ct}, nil
}

// EncryptMany encrypts the contributions on at most workers goroutines, each
// owning a shallow copy of the receiver. The i-th envelope is the encryption
// of the i-th contribution.
func (p Party) EncryptMany(contributions []Contribution, workers int) (envs []*Envelope, err error) {

	envs = make([]*Envelope, len(contributions))

	if workers < 1 {
		workers = 1
	}

	parties := make([]*Party, min(workers, max(len(contributions), 1)))
	parties[0] = &p
	for i := 1; i < len(parties); i++ {
		parties[i] = p.ShallowCopy()
	}

	rm := concurrency.NewResourceManager(parties)

	for i := range contributions {
		rm.Run(func(party *Party) (err error) {
			if envs[i], err = party.Encrypt(contributions[i]); err != nil {
				return fmt.Errorf("contribution %d (%s): %w", i, contributions[i].Name, err)
			}
			return
		})
	}

	if err = rm.Wait(); err != nil {
		return nil, fmt.Errorf("cannot EncryptMany: %w", err)
	}

	return
}
