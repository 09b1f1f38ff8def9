package concurrency

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConcurrency(t *testing.T) {

	t.Run("NoError", func(t *testing.T) {

		acc := make([]int, 8)

		resources := make([]bool, 4)

		rm := NewResourceManager(resources)

		for i := range acc {
			rm.Run(func(r bool) (err error) {
				acc[i]++
				return
			})
		}

		require.NoError(t, rm.Wait())

		for i := range acc {
			require.Equal(t, acc[i], 1)
		}

		require.Len(t, rm.Resources, len(resources))
	})

	t.Run("WithError", func(t *testing.T) {

		acc := make([]int, 8)

		resources := make([]bool, 4)

		rm := NewResourceManager(resources)

		for i := range acc {
			rm.Run(func(r bool) (err error) {
				acc[i]++
				if i == 2 {
					return fmt.Errorf("something bad happened")
				}

				return
			})
		}

		require.EqualError(t, rm.Wait(), "something bad happened")

		for i := range acc {
			require.LessOrEqual(t, acc[i], 1)
		}

		require.Len(t, rm.Resources, len(resources))
	})

	t.Run("ExclusiveResources", func(t *testing.T) {

		type resource struct {
			inUse atomic.Bool
		}

		resources := []*resource{{}, {}}

		rm := NewResourceManager(resources)

		var violations atomic.Int32

		for i := 0; i < 64; i++ {
			rm.Run(func(r *resource) (err error) {
				if !r.inUse.CompareAndSwap(false, true) {
					violations.Add(1)
				}
				r.inUse.Store(false)
				return
			})
		}

		require.NoError(t, rm.Wait())
		require.Zero(t, violations.Load())
	})
}
