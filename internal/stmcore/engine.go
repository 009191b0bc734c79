package stmcore

import "github.com/Pam-La/castm/internal/txlog"

// Engine is the variant-specific half of spec.md §4.7's "common
// operations": begin/commit/abort. Each of occstm.Engine, wwstm.Engine,
// and mvccstm.Engine implements this so the public stm package can drive
// any of them through the same retry loop.
//
// alloc() and the read/write-set bookkeeping are not part of this
// interface: they live on the Cell[T] values a transaction touches, which
// is why Engine itself only needs to know how to open, land, and unwind a
// descriptor.
type Engine interface {
	// Begin returns a fresh ACTIVE descriptor with StartTS set to the
	// engine's clock reading at this instant.
	Begin() *txlog.Descriptor

	// Commit attempts to linearize tx. Returns true iff it committed; a
	// false return means the caller must Begin a new attempt. Commit
	// never returns an error: spec.md's Retry/CommitAborted are both
	// internal control flow represented here as "return false", not as Go
	// errors, since neither is ever user-visible (see errors.go).
	Commit(tx *txlog.Descriptor) bool

	// Abort unwinds tx: aborters run in reverse order, then the allocation
	// set is freed. The descriptor itself is not retired through EBR; it is
	// ordinary garbage-collected memory.
	Abort(tx *txlog.Descriptor)

	// TryAdvanceEpoch drains any EBR retire bin that is now two full
	// epochs stale, if every active registered thread has observed the current
	// epoch. Returns true iff it advanced. Cheap to call on every commit:
	// a no-op when some thread is still lagging, so this is how the
	// reclamation scheme described in spec.md §4.4 actually gets driven
	// in normal operation rather than only from a test or a dedicated
	// maintenance goroutine.
	TryAdvanceEpoch() bool
}
