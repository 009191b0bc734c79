package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestFetchChunkIsAligned(t *testing.T) {
	ps := NewPageSource(DefaultChunkSize, 4)
	m, err := ps.FetchChunk()
	require.NoError(t, err)
	require.Equal(t, uintptr(0), m.base%uintptr(DefaultChunkSize))
}

func TestLookupRecoversHeaderFromPayloadPointer(t *testing.T) {
	ps := NewPageSource(DefaultChunkSize, 4)
	m, err := ps.FetchChunk()
	require.NoError(t, err)

	payload := unsafe.Pointer(m.base + 128)
	found, ok := ps.lookup(payload)
	require.True(t, ok)
	require.Same(t, m, found)
}

func TestReturnChunkRecyclesUpToCacheBound(t *testing.T) {
	ps := NewPageSource(DefaultChunkSize, 2)
	chunks := make([]*chunkMeta, 4)
	for i := range chunks {
		c, err := ps.FetchChunk()
		require.NoError(t, err)
		chunks[i] = c
	}
	for _, c := range chunks {
		ps.ReturnChunk(c)
	}
	require.LessOrEqual(t, len(ps.cache), 2)
}

func TestFetchLargeRoundsUpToChunkMultiple(t *testing.T) {
	ps := NewPageSource(DefaultChunkSize, 2)
	m, ptr, err := ps.FetchLarge(DefaultChunkSize + 1)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Equal(t, kindLarge, m.kind)
	found, ok := ps.lookup(ptr)
	require.True(t, ok)
	require.Same(t, m, found)
}
