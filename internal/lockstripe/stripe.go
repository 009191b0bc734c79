// Package lockstripe implements the fixed-size array of spinlocks the OCC
// variant uses to serialize commit windows. Cells are mapped to a stripe by
// hashing their address; callers are responsible for sorting and
// deduplicating the stripe indices they intend to hold before acquiring any
// of them (see SortDedup), which is what makes the table deadlock-free.
package lockstripe

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// paddedSpinlock is a single test-then-test-and-set bit lock, cache-line
// padded on both sides so independent stripes never false-share.
type paddedSpinlock struct {
	_    cpu.CacheLinePad
	bit  atomic.Uint32
	_    cpu.CacheLinePad
}

// Table is a fixed array of 2^k padded spinlocks.
type Table struct {
	locks []paddedSpinlock
	mask  uintptr
}

// New builds a table with count stripes, rounded up to the next power of
// two (minimum 1).
func New(count int) *Table {
	n := 1
	for n < count {
		n <<= 1
	}
	return &Table{
		locks: make([]paddedSpinlock, n),
		mask:  uintptr(n - 1),
	}
}

// Len returns the number of stripes in the table.
func (t *Table) Len() int {
	return len(t.locks)
}

// IndexOf hashes addr to a stripe index in [0, Len()).
func (t *Table) IndexOf(addr unsafe.Pointer) int {
	h := uintptr(addr)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return int(h & t.mask)
}

// Lock acquires the stripe at index, spinning with a pause hint then
// yielding under contention.
func (t *Table) Lock(index int) {
	l := &t.locks[index]
	spins := 0
	for {
		if l.bit.Load() == 0 && l.bit.CompareAndSwap(0, 1) {
			return
		}
		spins++
		if spins < 32 {
			procPause()
		} else {
			runtime.Gosched()
		}
	}
}

// TryLock attempts to acquire the stripe without blocking.
func (t *Table) TryLock(index int) bool {
	l := &t.locks[index]
	return l.bit.Load() == 0 && l.bit.CompareAndSwap(0, 1)
}

// Unlock releases the stripe at index. The caller must hold it.
func (t *Table) Unlock(index int) {
	t.locks[index].bit.Store(0)
}

// IsLocked reports whether the stripe at index is currently held by anyone.
// Used by stmcore.ValidateReads (occstm, mvccstm) to detect "locked by a
// stripe absent from my lock set" without acquiring it.
func (t *Table) IsLocked(index int) bool {
	return t.locks[index].bit.Load() != 0
}

// SortDedup sorts stripe indices ascending and removes duplicates in
// place, returning the shortened slice. This is the acquisition discipline
// that makes Table deadlock-free: every transaction that locks more than
// one stripe must call this before acquiring any of them.
func SortDedup(indices []int) []int {
	if len(indices) < 2 {
		return indices
	}
	insertionSort(indices)
	out := indices[:1]
	for _, v := range indices[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func insertionSort(a []int) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
