package fedavg

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
	"github.com/Pro7ech/fedavg/utils/buffer"
)

// Context is the public setup shared by the key holder, the parties and the
// aggregator: the scheme parameters and the digest of the feature schema the
// contributions must follow.
type Context struct {
	hefloat.Parameters
	Schema Digest
}

// NewContext returns a new [Context] for the given parameters and schema.
// An empty schema disables the schema check of the aggregation.
func NewContext(params hefloat.Parameters, schema FeatureSchema) Context {
	return Context{Parameters: params, Schema: schema.Digest()}
}

// NewContextFromSecurity derives the parameters from the security literal,
// see [hefloat.NewParametersFromSecurity], and returns a new [Context].
func NewContextFromSecurity(sl hefloat.SecurityLiteral, schema FeatureSchema) (ctx Context, err error) {

	var params hefloat.Parameters
	if params, err = hefloat.NewParametersFromSecurity(sl); err != nil {
		return ctx, fmt.Errorf("cannot NewContextFromSecurity: %w", err)
	}

	return NewContext(params, schema), nil
}

// Equal returns true if both contexts have the same parameters and schema.
func (ctx Context) Equal(other *Context) bool {
	return ctx.Parameters.Equal(&other.Parameters) && ctx.Schema == other.Schema
}

// CheckSchema returns an error wrapping [ErrSchemaMismatch] if the context
// and d are both known schemas and differ.
func (ctx Context) CheckSchema(d Digest) error {
	if !ctx.Schema.IsZero() && !d.IsZero() && ctx.Schema != d {
		return fmt.Errorf("%w: context schema %s != %s", ErrSchemaMismatch, ctx.Schema, d)
	}
	return nil
}

// CheckPublicKey returns an error wrapping [ErrInvalidParameters] if the public
// key was not generated for the parameters of the receiver.
func (ctx Context) CheckPublicKey(pk *rlwe.PublicKey) error {

	if pk == nil || len(pk.Value[0]) == 0 || len(pk.Value[1]) == 0 {
		return fmt.Errorf("%w: public key is empty", ErrInvalidParameters)
	}

	if pk.N() != ctx.N() || pk.Level() != ctx.MaxLevel() {
		return fmt.Errorf("%w: public key of degree %d and level %d does not match parameters of degree %d and level %d", ErrInvalidParameters, pk.N(), pk.Level(), ctx.N(), ctx.MaxLevel())
	}

	return nil
}

// CheckSecretKey returns an error wrapping [ErrInvalidParameters] if the secret
// key was not generated for the parameters of the receiver.
func (ctx Context) CheckSecretKey(sk *rlwe.SecretKey) error {

	if sk == nil || len(sk.Value) == 0 {
		return fmt.Errorf("%w: secret key is empty", ErrInvalidParameters)
	}

	if sk.N() != ctx.N() || sk.Level() != ctx.MaxLevel() {
		return fmt.Errorf("%w: secret key of degree %d and level %d does not match parameters of degree %d and level %d", ErrInvalidParameters, sk.N(), sk.Level(), ctx.N(), ctx.MaxLevel())
	}

	return nil
}

// BinarySize returns the serialized size of the object in bytes.
func (ctx Context) BinarySize() int {
	return ctx.Parameters.BinarySize() + DigestSize
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (ctx Context) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = ctx.Parameters.WriteTo(w); err != nil {
			return n + inc, err
		}

		n += inc

		if inc, err = buffer.Write(w, ctx.Schema[:]); err != nil {
			return n + inc, err
		}

		n += inc

		return n, w.Flush()

	default:
		return ctx.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Decoding failures, including parameters
// that fail their security check, are wrapped into [ErrDeserialization].
func (ctx *Context) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if inc, err = ctx.Parameters.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}

		n += inc

		if inc, err = buffer.Read(r, ctx.Schema[:]); err != nil {
			return n + inc, fmt.Errorf("%w: schema digest: %w", ErrDeserialization, err)
		}

		return n + inc, nil

	default:
		return ctx.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (ctx Context) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(ctx.BinarySize())
	_, err = ctx.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (ctx *Context) UnmarshalBinary(p []byte) (err error) {
	_, err = ctx.ReadFrom(buffer.NewBuffer(p))
	return
}
