package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestDeallocateUnknownPointerDoesNotPanicByDefault documents the non-debug
// behavior spec.md §7 calls "undefined": deallocating a pointer this heap
// never handed out is logged and ignored rather than checked, unless the
// binary is built with -tags debug.
func TestDeallocateUnknownPointerDoesNotPanicByDefault(t *testing.T) {
	h := newTestHeap(t)
	var x int
	require.NotPanics(t, func() {
		h.Deallocate(unsafe.Pointer(&x))
	})
}
