package fedavg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Pro7ech/fedavg/rlwe"
)

// Pipeline runs the steps of a federated averaging on the files of a
// [Config]: key generation, encryption of the contributions, aggregation
// and decryption.
type Pipeline struct {
	cfg    Config
	master []byte
	log    *slog.Logger
}

// NewPipeline returns a new [Pipeline]. If logger is nil, nothing is logged.
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cannot NewPipeline: %w", err)
	}

	master, err := cfg.MasterSeed()
	if err != nil {
		return nil, fmt.Errorf("cannot NewPipeline: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{cfg: cfg, master: master, log: logger}, nil
}

// Config returns the configuration of the receiver.
func (p Pipeline) Config() Config {
	return p.cfg
}

// EncryptResult is the outcome of the encryption of a contribution.
type EncryptResult struct {
	Name   string
	Path   string
	Report *VerifyReport
}

// Result is the outcome of the decryption of an aggregate.
type Result struct {
	Weights          WeightVector
	Named            []NamedWeight
	WeightsPath      string
	NamedWeightsPath string
}

// KeyGen generates a new context for the schema and a new key pair, and writes
// them in the key directory, overwriting existing files.
func (p Pipeline) KeyGen(schema FeatureSchema) (kh *KeyHolder, err error) {

	params, err := p.cfg.NewParameters()
	if err != nil {
		return nil, fmt.Errorf("cannot KeyGen: %w", err)
	}

	source, err := NewSource(p.master, PurposeKeyGen)
	if err != nil {
		return nil, fmt.Errorf("cannot KeyGen: %w", err)
	}

	ctx := NewContext(params, schema)

	kh = GenerateKeyHolder(ctx, source)

	if err = SaveContext(p.cfg.ContextPath(), ctx); err != nil {
		return nil, fmt.Errorf("cannot KeyGen: %w", err)
	}

	if err = SavePublicKey(p.cfg.PublicKeyPath(), kh.PublicKey()); err != nil {
		return nil, fmt.Errorf("cannot KeyGen: %w", err)
	}

	if err = SaveSecretKey(p.cfg.SecretKeyPath(), kh.SecretKey()); err != nil {
		return nil, fmt.Errorf("cannot KeyGen: %w", err)
	}

	p.log.Info("generated keys",
		"dir", p.cfg.KeyDir(),
		"logN", params.LogN(),
		"logQ", params.LogQ(),
		"levels", params.MaxLevel(),
		"logScale", params.LogDefaultScale(),
		"security", params.Security(),
		"schema", ctx.Schema)

	return
}

// LoadKeyHolder reads the context and the key pair from the key directory.
func (p Pipeline) LoadKeyHolder() (kh *KeyHolder, err error) {

	var ctx Context
	if ctx, err = LoadContext(p.cfg.ContextPath()); err != nil {
		return
	}

	var sk *rlwe.SecretKey
	if sk, err = LoadSecretKey(p.cfg.SecretKeyPath(), ctx); err != nil {
		return
	}

	var pk *rlwe.PublicKey
	if pk, err = LoadPublicKey(p.cfg.PublicKeyPath(), ctx); err != nil {
		return
	}

	return NewKeyHolder(ctx, sk, pk)
}

// Setup reads the context and the key pair from the key directory if they all
// exist, and generates them with [Pipeline.KeyGen] otherwise. The method returns
// an error wrapping [ErrSchemaMismatch] if the existing context was generated
// for another schema.
func (p Pipeline) Setup(schema FeatureSchema) (kh *KeyHolder, err error) {

	for _, path := range []string{p.cfg.ContextPath(), p.cfg.PublicKeyPath(), p.cfg.SecretKeyPath()} {
		if _, err = os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				p.log.Debug("key material missing", "path", path)
				return p.KeyGen(schema)
			}
			return nil, fmt.Errorf("cannot Setup: %w", err)
		}
	}

	if kh, err = p.LoadKeyHolder(); err != nil {
		return nil, fmt.Errorf("cannot Setup: %w", err)
	}

	if err = kh.Context().CheckSchema(schema.Digest()); err != nil {
		return nil, fmt.Errorf("cannot Setup: %w", err)
	}

	p.log.Info("loaded keys", "dir", p.cfg.KeyDir(), "schema", kh.Context().Schema)

	return
}

// Encrypt loads the contributions of the sources, encrypts them under the
// public key of the key directory and writes the envelopes in the ciphertext
// directory. If the configuration enables Verify, each envelope is decrypted
// with the secret key of the key directory and compared to its contribution.
func (p Pipeline) Encrypt(sources ...VectorSource) (res []EncryptResult, err error) {

	contributions, err := loadAll(sources)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	var ctx Context
	if ctx, err = LoadContext(p.cfg.ContextPath()); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	var pk *rlwe.PublicKey
	if pk, err = LoadPublicKey(p.cfg.PublicKeyPath(), ctx); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	var kh *KeyHolder
	if p.cfg.Verify {
		if kh, err = p.LoadKeyHolder(); err != nil {
			return nil, fmt.Errorf("cannot Encrypt: verify: %w", err)
		}
	}

	return p.encrypt(ctx, pk, kh, contributions)
}

func (p Pipeline) encrypt(ctx Context, pk *rlwe.PublicKey, kh *KeyHolder, contributions []Contribution) (res []EncryptResult, err error) {

	source, err := NewSource(p.master, PurposeEncrypt)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	party, err := NewParty(ctx, pk, source)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	envs, err := party.EncryptMany(contributions, p.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	res = make([]EncryptResult, len(envs))

	for i, env := range envs {

		c := contributions[i]

		res[i] = EncryptResult{Name: c.Name, Path: p.cfg.CiphertextPath(c.Name)}

		if err = SaveEnvelope(res[i].Path, env); err != nil {
			return nil, fmt.Errorf("cannot Encrypt: %w", err)
		}

		p.log.Info("encrypted contribution",
			"party", c.Name,
			"values", len(c.Weights),
			"slots", env.Slots(),
			"count", c.Count,
			"path", res[i].Path)

		if kh == nil {
			continue
		}

		var report VerifyReport
		if report, err = kh.Verify(c.Weights, env); err != nil {
			return nil, fmt.Errorf("cannot Encrypt: verify %s: %w", c.Name, err)
		}

		res[i].Report = &report

		if report.Within(p.cfg.VerifyBound) {
			p.log.Info("verified contribution", "party", c.Name, "maxAbsErr", report.MaxAbsErr, "avgPrec", report.Precision.AvgPrec.Real)
		} else {
			p.log.Warn("contribution exceeds the error bound", "party", c.Name, "maxAbsErr", report.MaxAbsErr, "bound", p.cfg.VerifyBound)
		}

		p.log.Debug("precision", "party", c.Name, "stats", report.Precision.String())
	}

	return
}

// Aggregate reads the envelopes at the given paths, combines them according to
// the mode of the configuration and writes the result at the aggregate path.
func (p Pipeline) Aggregate(paths ...string) (path string, err error) {

	var ctx Context
	if ctx, err = LoadContext(p.cfg.ContextPath()); err != nil {
		return "", fmt.Errorf("cannot Aggregate: %w", err)
	}

	envs := make([]*Envelope, len(paths))
	for i := range paths {
		if envs[i], err = LoadEnvelope(paths[i], ctx); err != nil {
			return "", fmt.Errorf("cannot Aggregate: %w", err)
		}
	}

	var out *Envelope
	if out, err = NewAggregator(ctx).Aggregate(p.cfg.Mode, envs...); err != nil {
		return "", fmt.Errorf("cannot Aggregate: %w", err)
	}

	path = p.cfg.AggregatePath()

	if err = SaveEnvelope(path, out); err != nil {
		return "", fmt.Errorf("cannot Aggregate: %w", err)
	}

	p.log.Info("aggregated contributions", "mode", p.cfg.Mode, "inputs", len(paths), "level", out.Level(), "path", path)

	return
}

// Decrypt decrypts the envelope at path with the key pair of the key directory
// and writes the Index,Value table. If the schema is not empty, it also writes
// the Feature,Coefficient table, and returns an error wrapping
// [ErrLengthMismatch] if its length differs from the number of decrypted
// values. An empty schema decrypts all the slots of the envelope.
func (p Pipeline) Decrypt(path string, schema FeatureSchema) (res Result, err error) {

	var kh *KeyHolder
	if kh, err = p.LoadKeyHolder(); err != nil {
		return res, fmt.Errorf("cannot Decrypt: %w", err)
	}

	var env *Envelope
	if env, err = LoadEnvelope(path, kh.Context()); err != nil {
		return res, fmt.Errorf("cannot Decrypt: %w", err)
	}

	return p.decrypt(kh, env, schema, schema.Len())
}

func (p Pipeline) decrypt(kh *KeyHolder, env *Envelope, schema FeatureSchema, n int) (res Result, err error) {

	if n == 0 {
		n = env.Slots()
	}

	if schema.Len() != 0 && !env.Schema.IsZero() && schema.Digest() != env.Schema {
		return res, fmt.Errorf("cannot Decrypt: %w: feature names do not match the aggregated schema", ErrSchemaMismatch)
	}

	if res.Weights, err = kh.Decrypt(env, n); err != nil {
		return res, err
	}

	res.WeightsPath = p.cfg.WeightsPath()

	if err = SaveWeightsCSV(res.WeightsPath, res.Weights); err != nil {
		return res, fmt.Errorf("cannot Decrypt: %w", err)
	}

	p.log.Info("decrypted aggregate", "values", len(res.Weights), "path", res.WeightsPath)

	if schema.Len() == 0 {
		return
	}

	if res.Named, err = schema.AttachNames(res.Weights); err != nil {
		return res, fmt.Errorf("cannot Decrypt: %w", err)
	}

	res.NamedWeightsPath = p.cfg.NamedWeightsPath()

	if err = SaveNamedWeightsCSV(res.NamedWeightsPath, res.Named); err != nil {
		return res, fmt.Errorf("cannot Decrypt: %w", err)
	}

	p.log.Info("wrote named weights", "path", res.NamedWeightsPath)

	return
}

// Run performs the whole protocol on the sources: it sets up the keys for the
// schema of the first contribution, encrypts every contribution, aggregates
// the envelopes and decrypts the result.
//
// The method returns an error wrapping [ErrLengthMismatch] if the weight
// vectors do not all have the same length.
func (p Pipeline) Run(sources ...VectorSource) (res Result, err error) {

	if len(sources) == 0 {
		return res, fmt.Errorf("cannot Run: %w", ErrNoInput)
	}

	contributions, err := loadAll(sources)
	if err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	n := len(contributions[0].Weights)

	for _, c := range contributions[1:] {
		if len(c.Weights) != n {
			return res, fmt.Errorf("cannot Run: %w: %s has %d values but %s has %d", ErrLengthMismatch, c.Name, len(c.Weights), contributions[0].Name, n)
		}
	}

	schema := contributions[0].Schema

	var kh *KeyHolder
	if kh, err = p.Setup(schema); err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	var verifier *KeyHolder
	if p.cfg.Verify {
		verifier = kh
	}

	var encrypted []EncryptResult
	if encrypted, err = p.encrypt(kh.Context(), kh.PublicKey(), verifier, contributions); err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	paths := make([]string, len(encrypted))
	for i := range encrypted {
		paths[i] = encrypted[i].Path
	}

	var path string
	if path, err = p.Aggregate(paths...); err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	var env *Envelope
	if env, err = LoadEnvelope(path, kh.Context()); err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	if res, err = p.decrypt(kh, env, schema, n); err != nil {
		return res, fmt.Errorf("cannot Run: %w", err)
	}

	return
}

func loadAll(sources []VectorSource) (contributions []Contribution, err error) {

	contributions = make([]Contribution, len(sources))
	names := map[string]int{}

	for i, src := range sources {

		if contributions[i], err = src.Load(); err != nil {
			return nil, err
		}

		if contributions[i].Name == "" {
			contributions[i].Name = fmt.Sprintf("party%d", i)
		}

		if j, ok := names[contributions[i].Name]; ok {
			return nil, fmt.Errorf("contributions %d and %d share the name %q", j, i, contributions[i].Name)
		}

		names[contributions[i].Name] = i
	}

	return
}
