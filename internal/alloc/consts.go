// Package alloc implements the thread-caching slab allocator behind the
// transaction-scoped stm.Alloc[U] path: a page source with a bounded chunk
// cache, a pure size-class map, slabs with bump/local-free/remote-free
// regions, and per-heap pools that front them.
//
// This package allocates raw, untyped memory: a Heap hands back
// unsafe.Pointer, and Go's garbage collector never scans the []byte chunks
// that memory comes from for pointers (see chunk.go). That makes it a safe
// home only for values with no live Go pointers of their own to trace, the
// same "trivially copyable" contract stm.Alloc's doc comment states for its
// U. The STM engine's own internal objects don't meet that contract: a
// VersionNode[T]'s Payload is exactly as unconstrained as any Cell[T]'s T
// (which the S4 BST scenario instantiates as a pointer type), its prev
// field is a live Go pointer, a WW WriteRecord[T] holds a *txlog.Descriptor,
// and a Descriptor itself holds closures and slices. None of those can move
// into slab memory without the GC silently failing to trace a reachable
// object through it, so version nodes, write records, and descriptors stay
// ordinary Go-GC'd allocations; see DESIGN.md's reclamation note for the
// full reasoning.
//
// Go gives goroutines no stable OS-thread identity, so "thread-affine" in
// spec terms becomes "owned by whichever *Heap the caller holds": a Heap is
// meant to be used from one goroutine (or one pinned OS thread) at a time,
// for allocation and for freeing its own blocks. Another goroutine frees
// such a block by calling Deallocate on its own Heap over the same
// PageSource, which pushes the block onto the owning slab's remote free
// stack, like the reference allocator's cross-thread free path.
package alloc

const (
	// DefaultChunkSize is CHUNK: the size of one page-source chunk, must be
	// a power of two.
	DefaultChunkSize = 2 << 20 // 2 MiB

	// DefaultMaxCentralCache bounds the central chunk cache (MAX_CENTRAL_CACHE).
	DefaultMaxCentralCache = 64

	// DefaultMaxPoolRescueChecks bounds full-list remote-free rescue
	// attempts per allocate (MAX_POOL_RESCUE_CHECKS).
	DefaultMaxPoolRescueChecks = 4

	// largeThreshold is the largest request routed through a slab; requests
	// above this size take the large-object path directly against the
	// chunk cache.
	largeThreshold = 256 << 10 // 256 KiB

	// minAlignment is the minimum alignment guaranteed to every returned
	// pointer.
	minAlignment = 16
)
