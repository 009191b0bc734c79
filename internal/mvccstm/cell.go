// Package mvccstm implements the lazy-snapshot MVCC transaction engine:
// commit structure identical to OCC/TL2, but validation walks the whole
// retained version chain instead of only checking the current head
// (spec.md §4.6-§4.7, lazy-snapshot variant).
package mvccstm

import (
	"sync/atomic"
	"unsafe"

	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Cell is the MVCC realization of stmcore.Cell[T]: an atomic head into a
// version chain retained up to maxHistory deep, trimmed by a background
// step rather than on every commit.
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

// Addr identifies this cell for write-set dedup.
func (c *Cell[T]) Addr() uintptr {
	return uintptr(unsafe.Pointer(c))
}

// ReadUnder walks the chain for a version at or before tx's read snapshot,
// raising Retry if the chain has already been trimmed past it.
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
		_, reachable := stmcore.VisibleUnder(c.head.Load(), readVersion)
		return reachable
	})
	return visible.Payload, nil
}

// InstallWrite stages value for commit, exactly as occstm.Cell does.
func (c *Cell[T]) InstallWrite(tx *txlog.Descriptor, value T) {
	tx.RecordWrite(c.Addr(), value,
		func(commitTS uint64) {
			node := stmcore.NewVersionNode(commitTS, value, c.head.Load())
			c.head.Store(node)
		},
		func() {},
	)
}

// TrimHistory bounds this cell's retained version chain to maxHistory
// entries, matching spec.md §4.6's "background step retires versions older
// than the MAX_HISTORY-th entry." Run this periodically, not inline on
// every commit — a long-running snapshot reader may still need a version
// deeper than maxHistory, in which case its next read raises Retry.
func (c *Cell[T]) TrimHistory(tx *txlog.Descriptor, maxHistory int) {
	stmcore.TrimHistory(c.head.Load(), maxHistory, func(n *stmcore.VersionNode[T]) {
		tx.Retire(func() {
			log.Debug("mvccstm: version node reclaimed", zap.Uint64("writeTS", n.WriteTS))
		})
	})
}
