package concurrency

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConcurrency(t *testing.T) {

	t.Run("ResourceManager/NoError", func(t *testing.T) {

		acc := make([]int, 8)

		rm := NewResourceManager(make([]bool, 4))

		for i := range acc {
			rm.Run(func(bool) (err error) {
				acc[i]++
				return
			})
		}

		require.NoError(t, rm.Wait())

		for i := range acc {
			require.Equal(t, 1, acc[i])
		}
	})

	t.Run("ResourceManager/WithError", func(t *testing.T) {

		rm := NewResourceManager(make([]bool, 4))

		for i := range 8 {
			rm.Run(func(bool) (err error) {
				if i == 2 {
					return fmt.Errorf("something bad happened")
				}
				return
			})
		}

		require.Error(t, rm.Wait())
	})

	t.Run("ResourceManager/ExclusiveOwnership", func(t *testing.T) {

		type worker struct{ busy atomic.Bool }

		pool := []*worker{{}, {}}

		rm := NewResourceManager(pool)

		var collisions atomic.Int32

		for range 64 {
			rm.Run(func(w *worker) (err error) {
				if !w.busy.CompareAndSwap(false, true) {
					collisions.Add(1)
				}
				w.busy.Store(false)
				return
			})
		}

		require.NoError(t, rm.Wait())
		require.Zero(t, collisions.Load())
	})

	t.Run("ForEach", func(t *testing.T) {

		for _, workers := range []int{1, 3, 16} {
			acc := make([]int, 10)
			require.NoError(t, ForEach(len(acc), workers, func(i int) (err error) {
				acc[i] = i * i
				return
			}))
			for i := range acc {
				require.Equal(t, i*i, acc[i])
			}
		}

		require.Error(t, ForEach(10, 4, func(i int) (err error) {
			if i == 7 {
				return fmt.Errorf("limb %d failed", i)
			}
			return
		}))
	})
}
