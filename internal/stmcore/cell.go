package stmcore

import "github.com/Pam-La/castm/internal/txlog"

// Validator, Committer, and Aborter name the three callback shapes
// spec.md §4.6 assigns to the read/write set entries a Cell installs into
// a transaction descriptor. They share their underlying type with
// txlog.ReadEntry.Validate / txlog.WriteEntry.Commit / .Abort, so a cell
// method can be passed directly where txlog wants a closure.
type (
	Validator func(readVersion uint64) bool
	Committer func(commitTS uint64)
	Aborter   func()
)

// Cell is the interface every variant's generic cell type (occstm.Cell[T],
// wwstm.Cell[T], mvccstm.Cell[T]) implements. It is deliberately the only
// vocabulary the public stm package needs: stm.Var[T] holds one of these
// and never looks at which variant produced it.
//
// ReadUnder returns the payload visible to tx, recording whatever read-set
// entry the variant needs to validate that visibility at commit time.
// InstallWrite stages value for commit by tx, recording a write-set entry.
// Both methods mutate tx (via Descriptor.RecordRead/RecordWrite) and must
// only ever be called by the goroutine that owns tx.
type Cell[T any] interface {
	Addr() uintptr
	ReadUnder(tx *txlog.Descriptor) (T, error)
	InstallWrite(tx *txlog.Descriptor, value T)
}
