// Package sampling implements secure and reproducible sampling of bytes and integers.
package sampling

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// SeedSize is the size in bytes of the seed of a [Source].
const SeedSize = 32

// NewSeed returns a fresh seed read from crypto/rand.
func NewSeed() (seed [SeedSize]byte) {
	if _, err := rand.Read(seed[:]); err != nil {
		// Sanity check, this error should not happen.
		panic(fmt.Errorf("crypto/rand: %w", err))
	}
	return
}

// DeriveSeed derives a seed from the master secret for the given purpose.
// Two calls with the same master, salt and info return the same seed,
// and seeds derived for distinct info strings are independent.
func DeriveSeed(master, salt []byte, info string) (seed [SeedSize]byte, err error) {
	if _, err = io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(info)), seed[:]); err != nil {
		return seed, fmt.Errorf("cannot DeriveSeed: %w", err)
	}
	return
}

// Source is a deterministic stream of pseudo-random bytes keyed by a seed.
// It is instantiated with the blake2b XOF and implements [io.Reader] and
// the [math/rand/v2.Source] interface.
//
// A Source is safe for concurrent use, but the stream it produces is then
// interleaved between the callers. Use [Source.NewSource] to obtain an
// independent stream per goroutine.
type Source struct {
	mu   sync.Mutex
	seed [SeedSize]byte
	xof  blake2b.XOF
	buf  [8]byte
}

// NewSource instantiates a new [Source] from the given seed.
func NewSource(seed [SeedSize]byte) *Source {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, seed[:])
	if err != nil {
		// Sanity check, this error should not happen.
		panic(fmt.Errorf("blake2b.NewXOF: %w", err))
	}
	return &Source{seed: seed, xof: xof}
}

// Seed returns the seed of the receiver.
func (s *Source) Seed() [SeedSize]byte {
	return s.seed
}

// NewSource returns a new [Source] seeded from the stream of the receiver.
func (s *Source) NewSource() *Source {
	var seed [SeedSize]byte
	if _, err := s.Read(seed[:]); err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
	return NewSource(seed)
}

// Reset rewinds the stream to its initial state.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xof.Reset()
}

// Read fills p with pseudo-random bytes.
func (s *Source) Read(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xof.Read(p)
}

// Uint64 returns a pseudo-random uint64.
func (s *Source) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.xof.Read(s.buf[:]); err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
	return binary.LittleEndian.Uint64(s.buf[:])
}

// Float64 returns a pseudo-random float64 in [min, max).
func (s *Source) Float64(min, max float64) float64 {
	return min + float64(s.Uint64()>>11)*math.Exp2(-53)*(max-min)
}
