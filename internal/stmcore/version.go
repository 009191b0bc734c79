// Package stmcore holds the vocabulary shared by all three transaction
// engines (occstm, wwstm, mvccstm): the version-node chain, the Cell
// interface a generic Var[T] closes over, the variant-agnostic Engine
// interface, and the internal control-flow sentinels (Retry,
// CommitAborted) that never escape past stm.Atomically.
package stmcore

import "sync/atomic"

// VersionNode is one immutable value together with the commit timestamp at
// which it became visible. prev chains to the next-older version in the
// OCC/MVCC variants; the WW variant never links more than the current node
// plus an in-flight draft, so its cells never set prev.
//
// prev is an atomic pointer, not a plain field: the background history-trim
// step (TrimHistory) severs it to bound chain length while a concurrent
// reader may still be mid-walk through the same node, so both sides must
// use atomic load/store rather than relying on EBR timing alone to avoid a
// data race on the field itself.
type VersionNode[T any] struct {
	WriteTS uint64
	Payload T
	prev    atomic.Pointer[VersionNode[T]]
}

// NewVersionNode returns a node with prev already installed.
func NewVersionNode[T any](writeTS uint64, payload T, prev *VersionNode[T]) *VersionNode[T] {
	n := &VersionNode[T]{WriteTS: writeTS, Payload: payload}
	if prev != nil {
		n.prev.Store(prev)
	}
	return n
}

// Prev returns the next-older version, or nil at the chain's root.
func (v *VersionNode[T]) Prev() *VersionNode[T] {
	return v.prev.Load()
}

// Depth returns how many nodes v.Prev() can reach, including v itself.
func (v *VersionNode[T]) Depth() int {
	n := 0
	for cur := v; cur != nil; cur = cur.Prev() {
		n++
	}
	return n
}

// VisibleUnder walks the chain rooted at head looking for the newest node
// with WriteTS <= readVersion. It returns (nil, false) if no such version
// is reachable, which callers turn into Retry per spec.md §4.6.
func VisibleUnder[T any](head *VersionNode[T], readVersion uint64) (*VersionNode[T], bool) {
	for n := head; n != nil; n = n.Prev() {
		if n.WriteTS <= readVersion {
			return n, true
		}
	}
	return nil, false
}

// TrimHistory detaches every version older than the maxHistory-th node
// reachable from head and invokes retire on each detached node, oldest
// last. maxHistory <= 0 is treated as "unbounded" (a no-op). retire runs
// through the transaction's EBR hook, so it only fires once no thread can
// still be walking the detached tail; the atomic Store below is itself
// safe to run immediately since it only ever replaces a pointer a
// concurrent reader loads atomically, never invalidates memory a reader
// already holds. A detached node is plain Go-GC'd memory (see
// alloc/consts.go), so by the time retire runs there is nothing left to
// free by hand — the detached tail is already unreachable from any live
// root, and the GC reclaims it on its own schedule.
func TrimHistory[T any](head *VersionNode[T], maxHistory int, retire func(*VersionNode[T])) {
	if maxHistory <= 0 || head == nil {
		return
	}
	n := head
	depth := 1
	for n.Prev() != nil && depth < maxHistory {
		n = n.Prev()
		depth++
	}
	tail := n.prev.Swap(nil)
	for tail != nil {
		next := tail.Prev()
		retire(tail)
		tail = next
	}
}
