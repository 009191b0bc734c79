// Package ebr implements epoch-based reclamation: the safe-memory-reclamation
// scheme the STM engine uses to free version nodes, write records, and
// transaction descriptors that a concurrent reader might still be
// traversing.
//
// The design generalizes an epoch-ring warm pool plus an active-readers
// handshake into a standalone reclamation scheme: a bounded number of
// generations are kept live at once, and a generation is only recycled
// once every thread has moved past it by two full steps.
package ebr

import (
	"sync"
	"sync/atomic"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const numBins = 3

type retiree struct {
	cleanup func()
}

type retireList struct {
	mu    sync.Mutex
	items []retiree
}

func (l *retireList) append(cleanup func()) {
	l.mu.Lock()
	l.items = append(l.items, retiree{cleanup: cleanup})
	l.mu.Unlock()
}

// drain runs and clears every pending cleanup. Called only once no active
// thread can still be observing objects retired into this bin.
func (l *retireList) drain() int {
	l.mu.Lock()
	items := l.items
	l.items = nil
	l.mu.Unlock()
	for i := range items {
		items[i].cleanup()
	}
	return len(items)
}

// ThreadRecord is a single thread's entry/exit state, plus its three
// retire bins indexed by epoch mod 3.
type ThreadRecord struct {
	active     atomic.Bool
	localEpoch atomic.Uint64
	bins       [numBins]retireList
}

// Enter marks the calling thread active in the current global epoch. Must
// be paired with Leave. No object retired while the thread is active may be
// freed before it calls Leave and the epoch advances twice more.
func (r *ThreadRecord) Enter(m *Manager) {
	r.localEpoch.Store(m.epoch.Load())
	r.active.Store(true)
}

// Leave marks the calling thread inactive.
func (r *ThreadRecord) Leave() {
	r.active.Store(false)
}

// Retire schedules cleanup to run once no thread can still be observing the
// object it guards. The thread calling Retire must currently be active
// (between Enter and Leave).
func (r *ThreadRecord) Retire(cleanup func()) {
	bin := r.localEpoch.Load() % numBins
	r.bins[bin].append(cleanup)
}

// Manager owns the global epoch and the set of registered thread records.
type Manager struct {
	epoch   atomic.Uint64
	mu      sync.Mutex
	records []*ThreadRecord
}

// NewManager returns a fresh manager with epoch 0 and no registered threads.
func NewManager() *Manager {
	return &Manager{}
}

// Register creates a new thread record and adds it to the manager's
// reclamation scan. The returned record is owned by the calling thread;
// no other thread should call Enter/Leave/Retire on it.
func (m *Manager) Register() *ThreadRecord {
	r := &ThreadRecord{}
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
	return r
}

// Unregister removes a thread record from the scan, e.g. on thread exit.
// Any objects still in its retire bins are dropped without being freed if
// they could still be observed; callers must ensure the thread has no
// in-flight retirements before calling this, or accept the safe-leak
// tradeoff documented in internal/alloc for the analogous pool-teardown
// path.
func (m *Manager) Unregister(r *ThreadRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.records {
		if rec == r {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return
		}
	}
}

// Epoch returns the current global epoch.
func (m *Manager) Epoch() uint64 {
	return m.epoch.Load()
}

// TryAdvance advances the global epoch by one if every registered, active
// thread has observed the current epoch, then frees the bin that is now
// two epochs stale across all threads. Returns true if it advanced.
//
// This is best-effort: if any active thread is stalled at an older epoch,
// TryAdvance is a no-op and retire lists simply keep growing. There is no
// forward-progress guarantee beyond "advances when threads cooperate."
func (m *Manager) TryAdvance() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.epoch.Load()
	for _, r := range m.records {
		if r.active.Load() && r.localEpoch.Load() != current {
			return false
		}
	}

	next := current + 1
	m.epoch.Store(next)

	staleBin := (next + numBins - 2) % numBins
	freed := 0
	for _, r := range m.records {
		freed += r.bins[staleBin].drain()
	}
	log.Debug("ebr epoch advanced", zap.Uint64("epoch", next), zap.Int("freed", freed))
	return true
}
