package stm

import (
	"unsafe"

	"github.com/Pam-La/castm/internal/txlog"
	"github.com/pkg/errors"
)

// Tx is the per-attempt handle a transactional closure receives. It wraps
// the engine-agnostic descriptor plus a reference to the allocator the
// closure's Alloc calls draw from.
type Tx struct {
	desc *txlog.Descriptor
	rt   *Runtime
}

// allocFailure is the panic payload Alloc raises when the thread heap is
// out of memory — a genuine user-visible error per spec.md §7, not an
// internal retry signal, so Atomically/AtomicallyValue report it as an
// error instead of looping.
type allocFailure struct{ err error }

// Alloc allocates a transaction-scoped copy of initial, auto-freed if tx
// aborts and simply kept if tx commits (spec.md §4.7's alloc<T>). U must be
// a trivially copyable type: Alloc does not invoke destructors or deep-copy
// hooks, per spec.md §9's trivial-relocation design note.
func Alloc[U any](tx *Tx, initial U) *U {
	checkSafePoint(tx)
	size := int(unsafe.Sizeof(initial))
	p, err := tx.rt.heap.Allocate(size)
	if err != nil {
		panic(allocFailure{err: errors.Wrapf(err, "stm: alloc %d bytes", size)})
	}
	u := (*U)(p)
	*u = initial
	tx.desc.RecordAlloc(p, func() { tx.rt.heap.Deallocate(p) })
	return u
}
