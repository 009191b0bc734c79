// Package stm is the public, ergonomic front door the rest of this module
// builds toward: Var[T] wraps whichever variant's Cell[T] it was
// constructed over (occstm, wwstm, or mvccstm), and Atomically/
// AtomicallyValue drive the begin/execute/commit/retry loop of spec.md §6,
// styled after anacrolix/stm's AtomicGet/VoidOperation split — the closest
// published analog in the retrieval pack to this spec's atomically(f).
package stm

import (
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
)

// Var is a transactionally managed location holding a value of type T. It
// is backed by whichever variant's Cell[T] it was constructed over; the
// variant is a property of the Var, not of the transaction, so a single
// Runtime/Tx pairing must only ever touch Vars built from its own variant.
type Var[T any] struct {
	cell stmcore.Cell[T]
}

// NewVar wraps an existing variant cell (occstm.NewCell, wwstm.NewCell, or
// mvccstm.NewCell) as a Var[T].
func NewVar[T any](cell stmcore.Cell[T]) *Var[T] {
	return &Var[T]{cell: cell}
}

// retrySignal is the panic payload Load/Store raise to unwind out of a
// user closure when the transaction can no longer proceed: either a read
// found no visible version (stmcore.Retry) or a safe-point check noticed
// this transaction was wounded or otherwise aborted
// (stmcore.CommitAborted). Atomically recovers it and starts a fresh
// attempt; it never escapes to a caller.
type retrySignal struct{ err error }

// checkSafePoint panics with retrySignal if tx's descriptor is no longer
// ACTIVE, implementing spec.md §7's "Wound-Wait abort is signalled only
// through the atomic status and is observed at the next safe point."
func checkSafePoint(tx *Tx) {
	if tx.desc.LoadStatus() != txlog.StatusActive {
		panic(retrySignal{err: stmcore.CommitAborted()})
	}
}

// Load returns a copy of the value v currently holds, as visible to tx.
func (v *Var[T]) Load(tx *Tx) T {
	checkSafePoint(tx)
	val, err := v.cell.ReadUnder(tx.desc)
	if err != nil {
		panic(retrySignal{err: err})
	}
	return val
}

// Store stages value for commit by tx.
func (v *Var[T]) Store(tx *Tx, value T) {
	checkSafePoint(tx)
	v.cell.InstallWrite(tx.desc, value)
	checkSafePoint(tx)
}

// historyTrimmer is implemented by the variants that retain a version
// chain (occstm.Cell, mvccstm.Cell); wwstm.Cell does not, since it only
// ever holds a published version plus one in-flight draft.
type historyTrimmer interface {
	TrimHistory(tx *txlog.Descriptor, maxHistory int)
}

// TrimHistory bounds v's retained version chain to maxHistory entries,
// the background step spec.md §4.6 calls for, routed through tx's EBR
// hook. A no-op for a variant whose Cell doesn't retain a chain at all.
func (v *Var[T]) TrimHistory(tx *Tx, maxHistory int) {
	if trimmer, ok := v.cell.(historyTrimmer); ok {
		trimmer.TrimHistory(tx.desc, maxHistory)
	}
}
