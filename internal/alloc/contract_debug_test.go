//go:build debug

package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestDeallocateUnknownPointerPanicsUnderDebugTag(t *testing.T) {
	h := newTestHeap(t)
	var x int
	require.PanicsWithError(t, "deallocate of unknown pointer: "+ErrContractViolation.Error(), func() {
		h.Deallocate(unsafe.Pointer(&x))
	})
}
