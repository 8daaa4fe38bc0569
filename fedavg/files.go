package fedavg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Pro7ech/fedavg/rlwe"
)

// File permissions of the written files.
const (
	PublicFileMode = 0o644
	SecretFileMode = 0o600
)

// CountSuffix is appended to the path of an envelope to obtain the path of
// the file storing its sample count.
const CountSuffix = ".count.txt"

// writeFile writes obj on the file at path with the given permissions,
// creating the parent directory if needed. The permissions of an existing
// file are reset to perm.
func writeFile(path string, perm os.FileMode, obj io.WriterTo) (err error) {

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	var f *os.File
	if f, err = os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm); err != nil {
		return
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err = f.Chmod(perm); err != nil {
		return
	}

	w := bufio.NewWriter(f)

	if _, err = obj.WriteTo(w); err != nil {
		return
	}

	return w.Flush()
}

// readFile reads obj from the file at path. Decoding failures are wrapped
// into [ErrDeserialization], errors opening the file are returned as is.
func readFile(path string, obj io.ReaderFrom) (err error) {

	var f *os.File
	if f, err = os.Open(path); err != nil {
		return
	}
	defer f.Close()

	r := bufio.NewReader(f)

	if _, err = obj.ReadFrom(r); err != nil {
		if !errors.Is(err, ErrDeserialization) {
			err = fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
		return
	}

	if _, err = r.Peek(1); err != io.EOF {
		return fmt.Errorf("%w: trailing bytes after the encoded object", ErrDeserialization)
	}

	return nil
}

// SaveContext writes the context on the file at path.
func SaveContext(path string, ctx Context) error {
	if err := writeFile(path, PublicFileMode, ctx); err != nil {
		return fmt.Errorf("cannot SaveContext: %w", err)
	}
	return nil
}

// LoadContext reads a context from the file at path.
func LoadContext(path string) (ctx Context, err error) {
	if err = readFile(path, &ctx); err != nil {
		return ctx, fmt.Errorf("cannot LoadContext %s: %w", path, err)
	}
	return
}

// SavePublicKey writes the public key on the file at path.
func SavePublicKey(path string, pk *rlwe.PublicKey) error {
	if err := writeFile(path, PublicFileMode, pk); err != nil {
		return fmt.Errorf("cannot SavePublicKey: %w", err)
	}
	return nil
}

// LoadPublicKey reads a public key from the file at path and checks that
// it matches the parameters of the context.
func LoadPublicKey(path string, ctx Context) (pk *rlwe.PublicKey, err error) {

	pk = new(rlwe.PublicKey)

	if err = readFile(path, pk); err != nil {
		return nil, fmt.Errorf("cannot LoadPublicKey %s: %w", path, err)
	}

	if err = ctx.CheckPublicKey(pk); err != nil {
		return nil, fmt.Errorf("cannot LoadPublicKey %s: %w", path, err)
	}

	return
}

// SaveSecretKey writes the secret key on the file at path, readable by its owner only.
func SaveSecretKey(path string, sk *rlwe.SecretKey) error {
	if err := writeFile(path, SecretFileMode, sk); err != nil {
		return fmt.Errorf("cannot SaveSecretKey: %w", err)
	}
	return nil
}

// LoadSecretKey reads a secret key from the file at path and checks that
// it matches the parameters of the context.
func LoadSecretKey(path string, ctx Context) (sk *rlwe.SecretKey, err error) {

	sk = new(rlwe.SecretKey)

	if err = readFile(path, sk); err != nil {
		return nil, fmt.Errorf("cannot LoadSecretKey %s: %w", path, err)
	}

	if err = ctx.CheckSecretKey(sk); err != nil {
		return nil, fmt.Errorf("cannot LoadSecretKey %s: %w", path, err)
	}

	return
}

// SaveEnvelope writes the envelope on the file at path and, if its count is
// known, the count on the file at path + [CountSuffix].
func SaveEnvelope(path string, env *Envelope) (err error) {

	if err = writeFile(path, PublicFileMode, env); err != nil {
		return fmt.Errorf("cannot SaveEnvelope: %w", err)
	}

	if env.Count != 0 {
		if err = SaveCount(path+CountSuffix, env.Count); err != nil {
			return fmt.Errorf("cannot SaveEnvelope: %w", err)
		}
	}

	return
}

// LoadEnvelope reads an envelope from the file at path and checks that its
// ciphertext matches the parameters of the context. If the envelope carries
// no count and the file path + [CountSuffix] exists, the count is read from it.
func LoadEnvelope(path string, ctx Context) (env *Envelope, err error) {

	env = new(Envelope)

	if err = readFile(path, env); err != nil {
		return nil, fmt.Errorf("cannot LoadEnvelope %s: %w", path, err)
	}

	if err = env.CheckLevel(ctx); err != nil {
		return nil, fmt.Errorf("cannot LoadEnvelope %s: %w", path, err)
	}

	if env.Count == 0 {
		if env.Count, err = LoadCount(path + CountSuffix); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("cannot LoadEnvelope %s: %w", path, err)
			}
			env.Count, err = 0, nil
		}
	}

	return
}

// SaveCount writes a sample count as text on the file at path.
func SaveCount(path string, count float64) (err error) {

	if err = checkCount(count, true); err != nil {
		return fmt.Errorf("cannot SaveCount: %w", err)
	}

	if err = os.WriteFile(path, []byte(formatValue(count)+"\n"), PublicFileMode); err != nil {
		return fmt.Errorf("cannot SaveCount: %w", err)
	}

	return
}

// LoadCount reads a positive sample count from the text file at path.
func LoadCount(path string) (count float64, err error) {

	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return 0, fmt.Errorf("cannot LoadCount: %w", err)
	}

	if count, err = strconv.ParseFloat(strings.TrimSpace(string(data)), 64); err != nil {
		return 0, fmt.Errorf("cannot LoadCount %s: %w: %w", path, ErrInvalidCount, err)
	}

	if err = checkCount(count, true); err != nil {
		return 0, fmt.Errorf("cannot LoadCount %s: %w", path, err)
	}

	return
}

// SaveWeightsCSV writes the values on the file at path, see [WriteWeightsCSV].
func SaveWeightsCSV(path string, values []float64) error {
	return saveCSV(path, func(w io.Writer) error { return WriteWeightsCSV(w, values) })
}

// SaveNamedWeightsCSV writes the named values on the file at path, see [WriteNamedWeightsCSV].
func SaveNamedWeightsCSV(path string, named []NamedWeight) error {
	return saveCSV(path, func(w io.Writer) error { return WriteNamedWeightsCSV(w, named) })
}

func saveCSV(path string, write func(w io.Writer) error) (err error) {

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	var f *os.File
	if f, err = os.Create(path); err != nil {
		return
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return write(f)
}
