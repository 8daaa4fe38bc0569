package fedavg

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Pro7ech/fedavg/he/hefloat"
	"github.com/Pro7ech/fedavg/rlwe"
)

// Config is the configuration of a [Pipeline]. Relative file names are
// resolved against the sub-directories of WorkDir.
type Config struct {
	// WorkDir is the root of the keys/, ciphertexts/ and global/ directories.
	WorkDir string

	ContextFile      string
	PublicKeyFile    string
	SecretKeyFile    string
	AggregateFile    string
	WeightsFile      string
	NamedWeightsFile string

	// Security is used to derive the parameters when no context exists.
	Security hefloat.SecurityLiteral

	// Parameters, if set, replaces Security. Such parameters are not checked
	// against a security level unless their Security field is set.
	Parameters *hefloat.ParametersLiteral `json:",omitempty"`

	Mode    Mode
	Verify  bool
	Workers int

	// VerifyBound is the largest absolute error accepted by Verify.
	VerifyBound float64

	// Seed, if set, is a hex encoded master secret from which the randomness
	// of the key generation and of the encryptions is derived. It makes runs
	// reproducible and must not be set outside of tests and demonstrations.
	Seed string `json:",omitempty"`
}

// DefaultConfig returns the default configuration: 128-bit secure
// parameters with a ring degree of 2^15, a scale of 2^40 and the
// averaging mode.
func DefaultConfig() Config {
	return Config{
		WorkDir:          ".",
		ContextFile:      "context.bin",
		PublicKeyFile:    "public.key",
		SecretKeyFile:    "secret.key",
		AggregateFile:    "aggregate.ct",
		WeightsFile:      "global_weights.csv",
		NamedWeightsFile: "global_weights_named.csv",
		Security: hefloat.SecurityLiteral{
			LogN:     15,
			LogScale: 40,
			Security: rlwe.Security128,
		},
		Mode:        Average,
		Workers:     runtime.NumCPU(),
		VerifyBound: 1e-2,
	}
}

// ReadConfig decodes a JSON configuration from r on top of [DefaultConfig].
func ReadConfig(r io.Reader) (cfg Config, err error) {

	cfg = DefaultConfig()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err = dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("cannot ReadConfig: %w", err)
	}

	return cfg, cfg.Validate()
}

// LoadConfig reads a JSON configuration from the file at path, see [ReadConfig].
func LoadConfig(path string) (cfg Config, err error) {

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot LoadConfig: %w", err)
	}
	defer f.Close()

	return ReadConfig(f)
}

// Validate checks the configuration.
func (c Config) Validate() error {

	for name, file := range map[string]string{
		"ContextFile":      c.ContextFile,
		"PublicKeyFile":    c.PublicKeyFile,
		"SecretKeyFile":    c.SecretKeyFile,
		"AggregateFile":    c.AggregateFile,
		"WeightsFile":      c.WeightsFile,
		"NamedWeightsFile": c.NamedWeightsFile,
	} {
		if file == "" {
			return fmt.Errorf("invalid configuration: %s is empty", name)
		}
	}

	switch c.Mode {
	case Average, Sum, Weighted:
	default:
		return fmt.Errorf("invalid configuration: invalid mode %s", c.Mode)
	}

	if c.Workers < 0 {
		return fmt.Errorf("invalid configuration: Workers=%d is negative", c.Workers)
	}

	if c.VerifyBound < 0 {
		return fmt.Errorf("invalid configuration: VerifyBound=%v is negative", c.VerifyBound)
	}

	if _, err := c.MasterSeed(); err != nil {
		return err
	}

	return nil
}

// MasterSeed returns the decoded Seed, or nil if it is not set.
func (c Config) MasterSeed() ([]byte, error) {

	if c.Seed == "" {
		return nil, nil
	}

	seed, err := hex.DecodeString(c.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: Seed: %w", err)
	}

	return seed, nil
}

// NewParameters instantiates the scheme parameters of the configuration.
func (c Config) NewParameters() (hefloat.Parameters, error) {
	if c.Parameters != nil {
		return hefloat.NewParametersFromLiteral(*c.Parameters)
	}
	return hefloat.NewParametersFromSecurity(c.Security)
}

// KeyDir returns the directory of the context and keys.
func (c Config) KeyDir() string {
	return filepath.Join(c.WorkDir, "keys")
}

// CiphertextDir returns the directory of the encrypted contributions.
func (c Config) CiphertextDir() string {
	return filepath.Join(c.WorkDir, "ciphertexts")
}

// GlobalDir returns the directory of the aggregate and decrypted outputs.
func (c Config) GlobalDir() string {
	return filepath.Join(c.WorkDir, "global")
}

// ContextPath returns the path of the context file.
func (c Config) ContextPath() string {
	return resolve(c.KeyDir(), c.ContextFile)
}

// PublicKeyPath returns the path of the public key file.
func (c Config) PublicKeyPath() string {
	return resolve(c.KeyDir(), c.PublicKeyFile)
}

// SecretKeyPath returns the path of the secret key file.
func (c Config) SecretKeyPath() string {
	return resolve(c.KeyDir(), c.SecretKeyFile)
}

// CiphertextPath returns the path of the envelope of the given party.
func (c Config) CiphertextPath(party string) string {
	return filepath.Join(c.CiphertextDir(), party+".ct")
}

// AggregatePath returns the path of the aggregated envelope.
func (c Config) AggregatePath() string {
	return resolve(c.GlobalDir(), c.AggregateFile)
}

// WeightsPath returns the path of the Index,Value output.
func (c Config) WeightsPath() string {
	return resolve(c.GlobalDir(), c.WeightsFile)
}

// NamedWeightsPath returns the path of the Feature,Coefficient output.
func (c Config) NamedWeightsPath() string {
	return resolve(c.GlobalDir(), c.NamedWeightsFile)
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}
