package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSlab(t *testing.T, blockSize uint32) (*Slab, *Heap) {
	t.Helper()
	ps := NewPageSource(DefaultChunkSize, 4)
	h := NewHeap(ps, DefaultMaxPoolRescueChecks)
	chunk, err := ps.FetchChunk()
	require.NoError(t, err)
	s := newSlab(h, chunk, chunkHeaderBytes, blockSize)
	return s, h
}

func TestSlabAllocateBumpThenLocalFree(t *testing.T) {
	s, _ := newTestSlab(t, 32)
	a, ok := s.Allocate()
	require.True(t, ok)
	b, ok := s.Allocate()
	require.True(t, ok)
	require.NotEqual(t, a, b)

	empty := s.FreeLocal(a)
	require.False(t, empty)
	c, ok := s.Allocate()
	require.True(t, ok)
	require.Equal(t, a, c, "freed block should be reused before bumping further")
}

func TestSlabExhaustion(t *testing.T) {
	s, _ := newTestSlab(t, uint32(DefaultChunkSize-chunkHeaderBytes)) // exactly one block
	_, ok := s.Allocate()
	require.True(t, ok)
	_, ok = s.Allocate()
	require.False(t, ok)
}

func TestSlabRemoteFreeThenDrain(t *testing.T) {
	s, _ := newTestSlab(t, 32)
	var addrs []uintptr
	for i := 0; i < 10; i++ {
		a, ok := s.Allocate()
		require.True(t, ok)
		addrs = append(addrs, a)
	}

	var wg sync.WaitGroup
	for _, a := range addrs {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.FreeRemote(a)
		}()
	}
	wg.Wait()

	require.Equal(t, 10, s.allocatedCountUnsafe())
	drained := s.DrainRemote()
	require.Equal(t, 10, drained)
	require.Equal(t, 0, s.allocatedCountUnsafe())
}

func (s *Slab) allocatedCountUnsafe() int {
	return int(s.allocatedCount)
}

func TestSlabRemoteFreeIsConcurrencySafe(t *testing.T) {
	s, _ := newTestSlab(t, 16)
	const n = 5000
	addrs := make([]uintptr, n)
	for i := range addrs {
		a, ok := s.Allocate()
		require.True(t, ok)
		addrs[i] = a
	}

	var wg sync.WaitGroup
	for _, a := range addrs {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.FreeRemote(a)
		}()
	}
	wg.Wait()

	total := s.DrainRemote()
	require.Equal(t, n, total)
}
