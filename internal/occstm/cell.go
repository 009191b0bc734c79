// Package occstm implements the OCC/TL2 transaction engine: striped-lock
// commit windows, a monotonic write-version clock, and a single-head
// version chain per cell (spec.md §4.6-§4.7, TL2 variant).
package occstm

import (
	"sync/atomic"
	"unsafe"

	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Cell is the OCC/TL2 realization of stmcore.Cell[T]: a single atomic head
// pointer into a version chain. TL2 validation only ever inspects head, so
// cells never need to lock anything to read.
type Cell[T any] struct {
	head atomic.Pointer[stmcore.VersionNode[T]]
}

var _ stmcore.Cell[int] = (*Cell[int])(nil)

// NewCell returns a cell holding initial at write timestamp 0.
func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.head.Store(stmcore.NewVersionNode(uint64(0), initial, nil))
	return c
}

// Addr identifies this cell for stripe hashing and write-set dedup.
func (c *Cell[T]) Addr() uintptr {
	return uintptr(unsafe.Pointer(c))
}

// ReadUnder implements spec.md §4.6's OCC read_under: read-your-own-writes
// first, then walk the chain for a version at or before tx's read
// snapshot, recording a validator closure for commit-time revalidation.
func (c *Cell[T]) ReadUnder(tx *txlog.Descriptor) (T, error) {
	var zero T
	if w, ok := tx.FindWrite(c.Addr()); ok {
		return w.Staged.(T), nil
	}

	head := c.head.Load()
	visible, ok := stmcore.VisibleUnder(head, tx.StartTS)
	if !ok {
		return zero, stmcore.Retry()
	}

	tx.RecordRead(c.Addr(), func(readVersion uint64) bool {
		return c.head.Load().WriteTS <= readVersion
	})
	return visible.Payload, nil
}

// TrimHistory bounds this cell's retained version chain to maxHistory
// entries, routing each detached node through tx's EBR hook rather than
// dropping it on the spot, matching spec.md §4.6's "a background step
// retires versions older than the MAX_HISTORY-th entry." Callers run this
// periodically, not on every commit (see stm.Var.TrimHistory and its
// call sites in internal/bench).
func (c *Cell[T]) TrimHistory(tx *txlog.Descriptor, maxHistory int) {
	stmcore.TrimHistory(c.head.Load(), maxHistory, func(n *stmcore.VersionNode[T]) {
		tx.Retire(func() {
			log.Debug("occstm: version node reclaimed", zap.Uint64("writeTS", n.WriteTS))
		})
	})
}

// InstallWrite stages value, recording a committer that publishes a new
// head at the transaction's eventual commit timestamp and an aborter that
// does nothing: an uncommitted write never touched the published chain.
func (c *Cell[T]) InstallWrite(tx *txlog.Descriptor, value T) {
	tx.RecordWrite(c.Addr(), value,
		func(commitTS uint64) {
			node := stmcore.NewVersionNode(commitTS, value, c.head.Load())
			c.head.Store(node)
		},
		func() {},
	)
}
