package alloc

import "sync/atomic"

const sentinelIndex = ^uint32(0)

// Slab is one chunk divided into equal-size blocks of one size class. Its
// owner thread (a single *Heap, by convention) drives bump allocation and
// the local free list; any other caller that ends up deallocating a block
// from this slab goes through the lock-free remote free stack instead.
//
// Invariants (spec.md §3): allocatedCount <= blockCount always; a block
// never appears on a free list while it is also in the user's hands; a
// slab with allocatedCount == 0 may be reclaimed by its owner.
type Slab struct {
	owner     *Heap
	chunk     *chunkMeta
	base      uintptr
	blockSize uint32
	blockCount uint32

	// Owner-only fields: no concurrent access ever touches these except
	// through drainRemote, which is also owner-only.
	bumpIndex      uint32
	localFreeHead  uint32
	allocatedCount uint32

	// remoteHead packs a 32-bit block index and a 32-bit ABA-guard tag.
	// Pushed to by any foreign goroutine; drained only by the owner.
	remoteHead atomic.Uint64

	listNode          // current/partial/full list linkage, owner-only
	state    listState // which of pool.{current,partial,full} holds this slab
}

// listNode lets Slab sit directly in the intrusive current/partial/full
// lists a Pool maintains, avoiding a second allocation per slab.
type listNode struct {
	next, prev *Slab
}

func newSlab(owner *Heap, chunk *chunkMeta, headerBytes int, blockSize uint32) *Slab {
	base := chunk.base + uintptr(headerBytes)
	usable := uint32(owner.pageSource.chunkSize-headerBytes) / blockSize
	s := &Slab{
		owner:      owner,
		chunk:      chunk,
		base:       base,
		blockSize:  blockSize,
		blockCount: usable,
	}
	s.localFreeHead = sentinelIndex
	s.remoteHead.Store(encodeRemote(sentinelIndex, 0))
	return s
}

func encodeRemote(idx, tag uint32) uint64 {
	return uint64(tag)<<32 | uint64(idx)
}

func decodeRemote(w uint64) (idx, tag uint32) {
	return uint32(w), uint32(w >> 32)
}

func (s *Slab) blockPtrForIndex(idx uint32) uintptr {
	return s.base + uintptr(idx)*uintptr(s.blockSize)
}

func (s *Slab) blockIndexOf(addr uintptr) uint32 {
	return uint32((addr - s.base) / uintptr(s.blockSize))
}

func (s *Slab) readNext(idx uint32) uint32 {
	return *(*uint32)(ptrAt(s.blockPtrForIndex(idx)))
}

func (s *Slab) writeNext(idx, next uint32) {
	*(*uint32)(ptrAt(s.blockPtrForIndex(idx))) = next
}

// HasRoom reports whether Allocate could succeed without draining the
// remote free list.
func (s *Slab) HasRoom() bool {
	return s.localFreeHead != sentinelIndex || s.bumpIndex < s.blockCount
}

// IsFull reports the opposite of HasRoom; used by the pool to decide
// whether to move a slab onto the full list after an allocate.
func (s *Slab) IsFull() bool {
	return !s.HasRoom()
}

// IsEmpty reports whether no blocks in this slab are currently allocated.
func (s *Slab) IsEmpty() bool {
	return s.allocatedCount == 0
}

// Allocate implements spec.md §4.2: pop local free list, else bump, else
// drain remote frees and retry once, else fail. Owner-only.
func (s *Slab) Allocate() (uintptr, bool) {
	if idx, ok := s.popLocal(); ok {
		s.allocatedCount++
		return s.blockPtrForIndex(idx), true
	}
	if s.bumpIndex < s.blockCount {
		idx := s.bumpIndex
		s.bumpIndex++
		s.allocatedCount++
		return s.blockPtrForIndex(idx), true
	}
	s.DrainRemote()
	if idx, ok := s.popLocal(); ok {
		s.allocatedCount++
		return s.blockPtrForIndex(idx), true
	}
	if s.bumpIndex < s.blockCount {
		idx := s.bumpIndex
		s.bumpIndex++
		s.allocatedCount++
		return s.blockPtrForIndex(idx), true
	}
	return 0, false
}

func (s *Slab) popLocal() (uint32, bool) {
	if s.localFreeHead == sentinelIndex {
		return 0, false
	}
	idx := s.localFreeHead
	s.localFreeHead = s.readNext(idx)
	return idx, true
}

// FreeLocal returns a block freed by the owner thread. Returns true if the
// slab is now completely empty.
func (s *Slab) FreeLocal(addr uintptr) bool {
	idx := s.blockIndexOf(addr)
	s.writeNext(idx, s.localFreeHead)
	s.localFreeHead = idx
	s.allocatedCount--
	return s.allocatedCount == 0
}

// FreeRemote pushes a block freed by a foreign goroutine onto the
// lock-free MPSC remote stack. It never touches allocatedCount: only the
// owner thread, via DrainRemote, does that.
func (s *Slab) FreeRemote(addr uintptr) {
	idx := s.blockIndexOf(addr)
	for {
		old := s.remoteHead.Load()
		oldIdx, oldTag := decodeRemote(old)
		s.writeNext(idx, oldIdx)
		next := encodeRemote(idx, oldTag+1)
		if s.remoteHead.CompareAndSwap(old, next) {
			return
		}
	}
}

// DrainRemote atomically swaps the remote stack head to empty, splices
// the drained chain onto the local free list, and decreases
// allocatedCount by the number of blocks drained. Owner-only. Returns the
// number of blocks drained.
func (s *Slab) DrainRemote() int {
	var head uint32
	for {
		old := s.remoteHead.Load()
		oldIdx, oldTag := decodeRemote(old)
		if oldIdx == sentinelIndex {
			return 0
		}
		next := encodeRemote(sentinelIndex, oldTag+1)
		if s.remoteHead.CompareAndSwap(old, next) {
			head = oldIdx
			break
		}
	}

	count := 0
	cur := head
	tail := head
	for cur != sentinelIndex {
		count++
		tail = cur
		cur = s.readNext(cur)
	}
	s.writeNext(tail, s.localFreeHead)
	s.localFreeHead = head
	s.allocatedCount -= uint32(count)
	return count
}
