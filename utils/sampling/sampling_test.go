package sampling

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {

	seed := [SeedSize]byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07}

	t.Run("Deterministic", func(t *testing.T) {

		Ha := NewSource(seed)
		Hb := NewSource(seed)

		sum0 := make([]byte, 512)
		sum1 := make([]byte, 512)

		for range 16 {
			_, err := Hb.Read(sum1)
			require.NoError(t, err)
		}

		Hb.Reset()

		_, err := Ha.Read(sum0)
		require.NoError(t, err)
		_, err = Hb.Read(sum1)
		require.NoError(t, err)

		require.Equal(t, sum0, sum1)
		require.Equal(t, seed, Ha.Seed())
	})

	t.Run("NewSource", func(t *testing.T) {
		parent := NewSource(seed)
		c0 := parent.NewSource()
		c1 := parent.NewSource()
		require.NotEqual(t, c0.Seed(), c1.Seed())
		require.NotEqual(t, c0.Uint64(), c1.Uint64())
	})

	t.Run("Float64", func(t *testing.T) {
		s := NewSource(seed)
		for range 1024 {
			f := s.Float64(-10, 10)
			require.GreaterOrEqual(t, f, -10.0)
			require.Less(t, f, 10.0)
		}
	})

	t.Run("DeriveSeed", func(t *testing.T) {
		master := []byte("master secret")
		s0, err := DeriveSeed(master, nil, "keygen")
		require.NoError(t, err)
		s1, err := DeriveSeed(master, nil, "keygen")
		require.NoError(t, err)
		s2, err := DeriveSeed(master, nil, "encryption")
		require.NoError(t, err)
		require.Equal(t, s0, s1)
		require.NotEqual(t, s0, s2)
	})

	t.Run("NewSeed", func(t *testing.T) {
		require.NotEqual(t, NewSeed(), NewSeed())
	})
}
