package alloc

import "unsafe"

// ptrAt reinterprets a raw address as an unsafe.Pointer. Every address it
// is called with points inside a chunk's backing []byte, which chunkMeta
// keeps alive for exactly as long as the chunk is registered, so this
// never outlives its backing allocation.
func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet
}
