package alloc

import (
	"unsafe"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const chunkHeaderBytes = 64 // cache-line aligned region reserved at a slab chunk's base

type listState uint8

const (
	stateNone listState = iota
	stateCurrent
	statePartial
	stateFull
)

// slabList is an intrusive doubly linked list of slabs, threaded through
// Slab.listNode. It performs no locking: every pool it backs is owner-only.
type slabList struct {
	head, tail *Slab
}

func (l *slabList) pushFront(s *Slab) {
	s.prev = nil
	s.next = l.head
	if l.head != nil {
		l.head.prev = s
	}
	l.head = s
	if l.tail == nil {
		l.tail = s
	}
}

func (l *slabList) pushBack(s *Slab) {
	s.next = nil
	s.prev = l.tail
	if l.tail != nil {
		l.tail.next = s
	}
	l.tail = s
	if l.head == nil {
		l.head = s
	}
}

func (l *slabList) remove(s *Slab) {
	if s.prev != nil {
		s.prev.next = s.next
	} else if l.head == s {
		l.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else if l.tail == s {
		l.tail = s.prev
	}
	s.next, s.prev = nil, nil
}

func (l *slabList) popFront() (*Slab, bool) {
	s := l.head
	if s == nil {
		return nil, false
	}
	l.remove(s)
	return s, true
}

// pool holds every slab of one size class owned by a single Heap.
type pool struct {
	heap       *Heap
	classID    int
	blockSize  uint32
	current    *Slab
	partial    slabList
	full       slabList
	maxRescue  int
}

func newPool(h *Heap, classID int, blockSize uint32, maxRescue int) *pool {
	return &pool{heap: h, classID: classID, blockSize: blockSize, maxRescue: maxRescue}
}

// allocate implements the pool algorithm from spec.md §4.3.
func (p *pool) allocate() (uintptr, error) {
	if p.current != nil {
		if addr, ok := p.current.Allocate(); ok {
			if p.current.IsFull() {
				full := p.current
				full.state = stateFull
				p.full.pushFront(full)
				p.current = nil
			}
			return addr, nil
		}
		// current reported no room on a stale check (race with remote
		// frees is handled inside Allocate's own drain); treat as full.
		full := p.current
		full.state = stateFull
		p.full.pushFront(full)
		p.current = nil
	}

	if s, ok := p.partial.popFront(); ok {
		s.state = stateCurrent
		p.current = s
		addr, ok := s.Allocate()
		if ok {
			if s.IsFull() {
				s.state = stateFull
				p.full.remove(s)
				p.full.pushFront(s)
				p.current = nil
			}
			return addr, nil
		}
	}

	if s := p.rescueFromFull(); s != nil {
		s.state = stateCurrent
		p.current = s
		addr, ok := s.Allocate()
		if ok {
			return addr, nil
		}
	}

	chunk, err := p.heap.pageSource.FetchChunk()
	if err != nil {
		return 0, err
	}
	s := newSlab(p.heap, chunk, chunkHeaderBytes, p.blockSize)
	chunk.slab = s
	s.state = stateCurrent
	p.current = s
	addr, ok := s.Allocate()
	if !ok {
		return 0, ErrOutOfMemory
	}
	return addr, nil
}

// rescueFromFull drains remote frees from up to maxRescue slabs on the
// full list, rotating head to tail on failure, looking for one with room.
func (p *pool) rescueFromFull() *Slab {
	attempts := 0
	for attempts < p.maxRescue {
		s, ok := p.full.popFront()
		if !ok {
			return nil
		}
		attempts++
		s.DrainRemote()
		if s.HasRoom() {
			return s
		}
		s.state = stateFull
		p.full.pushBack(s)
	}
	return nil
}

// deallocate implements spec.md §4.3's pool deallocate algorithm.
func (p *pool) deallocate(s *Slab, addr uintptr) {
	wasFull := s.IsFull()
	nowEmpty := s.FreeLocal(addr)

	if nowEmpty {
		s.DrainRemote()
		if s.IsEmpty() && s != p.current {
			switch s.state {
			case statePartial:
				p.partial.remove(s)
			case stateFull:
				p.full.remove(s)
			}
			s.state = stateNone
			p.heap.pageSource.ReturnChunk(s.chunk)
			return
		}
	}

	if wasFull && s != p.current {
		p.full.remove(s)
		s.state = statePartial
		p.partial.pushFront(s)
	}
}

// Heap is a thread-caching front door: one pool per size class, a large
// path straight to the page source, and a deallocate path that recovers
// ownership from the chunk header to decide local vs. remote free.
//
// Allocate is meant to be called from a single goroutine (or one pinned OS
// thread) at a time — that goroutine "owns" every slab this heap creates.
// Deallocate takes the same owner-only local path for a pointer from one of
// this heap's own slabs. A goroutine freeing a pointer another Heap
// allocated calls Deallocate on its own Heap, built over the same
// PageSource: the block then goes onto the owning slab's lock-free remote
// free stack, which is the cross-thread free path spec.md §4.3 calls out as
// the crux of allocator safety.
type Heap struct {
	pageSource *PageSource
	pools      []*pool
	maxRescue  int
}

// NewHeap builds a heap backed by the given page source.
func NewHeap(ps *PageSource, maxRescue int) *Heap {
	h := &Heap{pageSource: ps, maxRescue: maxRescue}
	h.pools = make([]*pool, NumClasses())
	for i := 0; i < NumClasses(); i++ {
		h.pools[i] = newPool(h, i, ClassToSize(i), maxRescue)
	}
	return h
}

// Allocate returns a pointer to nbytes of storage aligned to at least 16
// bytes. Requests above 256 KiB take the large path directly against the
// page source; everything else is routed to its size class's pool.
func (h *Heap) Allocate(nbytes int) (unsafe.Pointer, error) {
	if nbytes <= 0 {
		nbytes = 1
	}
	class := SizeToClass(uint32(nbytes))
	if class == LargeClass {
		_, ptr, err := h.pageSource.FetchLarge(nbytes)
		if err != nil {
			return nil, err
		}
		return ptr, nil
	}
	addr, err := h.pools[class].allocate()
	if err != nil {
		return nil, err
	}
	return ptrAt(addr), nil
}

// Deallocate recovers the owning chunk from p by masking, then frees
// locally if this heap owns the slab, or pushes onto its remote free
// stack otherwise. p must have been returned by some Heap's Allocate and
// not already freed.
func (h *Heap) Deallocate(p unsafe.Pointer) {
	m, ok := h.pageSource.lookup(p)
	if !ok {
		assertContract(false, "deallocate of unknown pointer")
		log.Warn("alloc: deallocate of unknown pointer", zap.Uintptr("addr", uintptr(p)))
		return
	}
	if m.kind == kindLarge {
		h.pageSource.ReturnLarge(m)
		return
	}
	s := m.slab
	addr := uintptr(p)
	if s.owner == h {
		s.owner.pools[classForBlockSize(s.blockSize)].deallocate(s, addr)
		return
	}
	s.FreeRemote(addr)
}

func classForBlockSize(blockSize uint32) int {
	// blockSize is always exactly ClassToSize(class) for some class, since
	// newSlab is only ever called with a pool's own blockSize.
	return SizeToClass(blockSize)
}
