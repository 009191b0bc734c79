package lockstripe

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestNewRoundsToPowerOfTwo(t *testing.T) {
	require.Equal(t, 1, New(0).Len())
	require.Equal(t, 1, New(1).Len())
	require.Equal(t, 4, New(3).Len())
	require.Equal(t, 8, New(8).Len())
}

func TestSortDedup(t *testing.T) {
	in := []int{5, 1, 3, 1, 5, 2}
	got := SortDedup(in)
	require.Equal(t, []int{1, 2, 3, 5}, got)
}

func TestLockMutualExclusion(t *testing.T) {
	tbl := New(4)
	const iterations = 20000
	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				tbl.Lock(0)
				counter++
				tbl.Unlock(0)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 8*iterations, counter)
}

func TestIsLockedReflectsState(t *testing.T) {
	tbl := New(2)
	require.False(t, tbl.IsLocked(0))
	tbl.Lock(0)
	require.True(t, tbl.IsLocked(0))
	tbl.Unlock(0)
	require.False(t, tbl.IsLocked(0))
}

func TestIndexOfWithinRange(t *testing.T) {
	tbl := New(16)
	var x int
	for i := 0; i < 1000; i++ {
		idx := tbl.IndexOf(unsafe.Pointer(&x))
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, tbl.Len())
	}
}
