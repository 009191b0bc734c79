// Package wwstm implements the object-based Wound-Wait transaction engine:
// a single-writer "record" slot per cell, tagged by transaction ownership,
// with conflict resolution that always lets the older transaction win
// (spec.md §4.6-§4.7, WW variant).
package wwstm

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// WriteRecord is a cell's in-flight draft write: owner is the transaction
// staging it, oldNode is the version a reader falls back to if owner
// aborts, newNode is the version a reader sees once owner commits.
type WriteRecord[T any] struct {
	owner   *txlog.Descriptor
	oldNode *stmcore.VersionNode[T]
	newNode *stmcore.VersionNode[T]
}

// Cell is the WW realization of stmcore.Cell[T]: a published version plus
// at most one in-flight record naming whoever is trying to replace it.
type Cell[T any] struct {
	data   atomic.Pointer[stmcore.VersionNode[T]]
	record atomic.Pointer[WriteRecord[T]]
}

var _ stmcore.Cell[int] = (*Cell[int])(nil)

// NewCell returns a cell holding initial with no in-flight record.
func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.data.Store(stmcore.NewVersionNode(uint64(0), initial, nil))
	return c
}

// Addr identifies this cell for write-set dedup.
func (c *Cell[T]) Addr() uintptr {
	return uintptr(unsafe.Pointer(c))
}

// visibleNow returns the version any third-party reader would currently
// see: the record's new_node if its owner committed, its old_node
// otherwise, or data directly if there is no in-flight record.
func (c *Cell[T]) visibleNow() *stmcore.VersionNode[T] {
	rec := c.record.Load()
	if rec == nil {
		return c.data.Load()
	}
	if rec.owner.LoadStatus() == txlog.StatusCommitted {
		return rec.newNode
	}
	return rec.oldNode
}

// ReadUnder implements spec.md §4.6's WW read_under.
func (c *Cell[T]) ReadUnder(tx *txlog.Descriptor) (T, error) {
	if w, ok := tx.FindWrite(c.Addr()); ok {
		return w.Staged.(T), nil
	}

	rec := c.record.Load()
	if rec == nil {
		node := c.data.Load()
		observedTS := node.WriteTS
		tx.RecordRead(c.Addr(), func(uint64) bool {
			if _, ok := tx.FindWrite(c.Addr()); ok {
				return true
			}
			return c.visibleNow().WriteTS == observedTS
		})
		return node.Payload, nil
	}
	if rec.owner == tx {
		return rec.newNode.Payload, nil
	}

	var node *stmcore.VersionNode[T]
	if rec.owner.LoadStatus() == txlog.StatusCommitted {
		node = rec.newNode
	} else {
		node = rec.oldNode
	}
	observedTS := node.WriteTS
	tx.RecordRead(c.Addr(), func(uint64) bool {
		if _, ok := tx.FindWrite(c.Addr()); ok {
			return true
		}
		return c.visibleNow().WriteTS == observedTS
	})
	return node.Payload, nil
}

// InstallWrite implements spec.md §4.6's try_write plus its Wound-Wait
// conflict resolution. It never returns an error: a loss is signalled by
// flipping tx's own status to ABORTED, observed by the caller at the next
// safe point (spec.md §7), exactly as a foreign wound would be.
func (c *Cell[T]) InstallWrite(tx *txlog.Descriptor, value T) {
	for {
		if tx.LoadStatus() != txlog.StatusActive {
			return // already wounded; nothing left to stage
		}

		cur := c.record.Load()
		data := c.data.Load()

		if cur != nil && cur.owner == tx {
			discarded := cur.newNode
			newDraft := stmcore.NewVersionNode(tx.StartTS, value, nil)
			replacement := &WriteRecord[T]{owner: tx, oldNode: cur.oldNode, newNode: newDraft}
			c.record.Store(replacement)
			tx.Retire(func() {
				log.Debug("wwstm: superseded draft reclaimed", zap.Uint64("writeTS", discarded.WriteTS))
			})
			c.installWriteEntry(tx, value, replacement)
			return
		}

		if cur != nil {
			switch cur.owner.LoadStatus() {
			case txlog.StatusActive:
				if olderWins(tx, cur.owner) {
					cur.owner.TryWound()
					continue
				}
				tx.TrySelfAbort()
				return
			case txlog.StatusCommitted:
				runtime.Gosched()
				continue
			}
			// ABORTED: cur's owner gave up the cell; fall through to the
			// same CAS-in attempt a nil record takes.
		}

		candidate := &WriteRecord[T]{
			owner:   tx,
			oldNode: data,
			newNode: stmcore.NewVersionNode(tx.StartTS, value, nil),
		}
		if !c.record.CompareAndSwap(cur, candidate) {
			continue
		}
		if c.data.Load() != data {
			c.record.CompareAndSwap(candidate, nil)
			continue
		}
		c.installWriteEntry(tx, value, candidate)
		return
	}
}

// installWriteEntry records the commit/abort closures implementing
// spec.md §4.6's "WW commit/abort per cell." rec is the exact record this
// InstallWrite call published to c.record, so abort's CAS targets it
// specifically rather than whatever happens to be in the slot now.
func (c *Cell[T]) installWriteEntry(tx *txlog.Descriptor, value T, rec *WriteRecord[T]) {
	tx.RecordWrite(c.Addr(), value,
		func(commitTS uint64) {
			newNode := stmcore.NewVersionNode(commitTS, value, nil)
			c.data.Store(newNode)
			c.record.Store(nil)
			tx.Retire(func() {
				log.Debug("wwstm: write record reclaimed on commit",
					zap.Uint64("ownerStartTS", rec.owner.StartTS))
			})
		},
		func() {
			if c.record.CompareAndSwap(rec, nil) {
				tx.Retire(func() {
					log.Debug("wwstm: write record reclaimed on abort",
						zap.Uint64("ownerStartTS", rec.owner.StartTS))
				})
			}
		},
	)
}

// olderWins applies spec.md §4.7's Wound-Wait tie-break: the transaction
// with the lexicographically smaller (start_ts, descriptor address) is
// older and wins the conflict.
func olderWins(tx, enemy *txlog.Descriptor) bool {
	mine := uintptr(unsafe.Pointer(tx))
	theirs := uintptr(unsafe.Pointer(enemy))
	return tx.StartTS < enemy.StartTS || (tx.StartTS == enemy.StartTS && mine < theirs)
}
