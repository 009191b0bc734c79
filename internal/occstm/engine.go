package occstm

import (
	"unsafe"

	"github.com/Pam-La/castm/internal/clock"
	"github.com/Pam-La/castm/internal/ebr"
	"github.com/Pam-La/castm/internal/lockstripe"
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
)

// Engine is the OCC/TL2 variant's shared, cross-goroutine state: the
// global write-version clock and the striped lock table every commit
// window acquires against. Safe for concurrent use by many Sessions.
type Engine struct {
	clk     *clock.Clock
	stripes *lockstripe.Table
	ebrMgr  *ebr.Manager
}

// NewEngine builds an engine with a fresh clock and a stripe table of
// stripeCount slots (rounded up to a power of two).
func NewEngine(stripeCount int) *Engine {
	return &Engine{clk: clock.New(), stripes: lockstripe.New(stripeCount), ebrMgr: ebr.NewManager()}
}

// TryAdvanceEpoch drains any retire bin that is now two full epochs stale.
// Callers run this periodically (e.g. between batches), the way the
// reference implementation's reclaimer runs as a best-effort background
// step rather than inline on every commit.
func (e *Engine) TryAdvanceEpoch() bool {
	return e.ebrMgr.TryAdvance()
}

// NewSession registers a new per-goroutine transaction handle. Go has no
// stable goroutine-local storage, so unlike the reference implementation's
// implicit thread-local transaction state, callers must obtain one Session
// per goroutine that will run transactions and keep using it — exactly the
// same ownership discipline internal/alloc.Heap uses for thread-affine
// allocation. Sessions must not be shared across goroutines.
func (e *Engine) NewSession() *Session {
	return &Session{eng: e, rec: e.ebrMgr.Register()}
}

// Session is the per-goroutine handle that implements stmcore.Engine.
type Session struct {
	eng *Engine
	rec *ebr.ThreadRecord
}

var _ stmcore.Engine = (*Session)(nil)

// TryAdvanceEpoch forwards to the shared Engine's reclamation manager.
func (s *Session) TryAdvanceEpoch() bool {
	return s.eng.TryAdvanceEpoch()
}

// Begin implements spec.md §4.7's begin(): a fresh ACTIVE descriptor
// stamped with the engine clock's current reading, entered into this
// session's EBR epoch so no version a read observes can be retired out
// from under it before Commit or Abort calls Leave.
func (s *Session) Begin() *txlog.Descriptor {
	s.rec.Enter(s.eng.ebrMgr)
	tx := txlog.New(s.eng.clk.Now())
	tx.Retire = s.rec.Retire
	return tx
}

// Commit implements the OCC/TL2 commit algorithm of spec.md §4.7.
func (s *Session) Commit(tx *txlog.Descriptor) bool {
	defer s.rec.Leave()

	if len(tx.Writes) == 0 {
		return tx.TryCommit()
	}

	indices := make([]int, len(tx.Writes))
	for i, w := range tx.Writes {
		indices[i] = s.eng.stripes.IndexOf(unsafe.Pointer(w.CellAddr))
	}
	tx.LockSet = lockstripe.SortDedup(append(tx.LockSet[:0], indices...))
	for _, idx := range tx.LockSet {
		s.eng.stripes.Lock(idx)
	}

	wv := s.eng.clk.Tick()

	ok := stmcore.ValidateReads(tx, tx.StartTS, s.eng.stripes)
	if !ok {
		unlockAll(s.eng.stripes, tx.LockSet)
		tx.TrySelfAbort()
		return false
	}

	if !tx.TryCommit() {
		unlockAll(s.eng.stripes, tx.LockSet)
		return false
	}

	for _, w := range tx.Writes {
		w.Commit(wv)
	}
	unlockAll(s.eng.stripes, tx.LockSet)
	return true
}

func unlockAll(t *lockstripe.Table, indices []int) {
	for i := len(indices) - 1; i >= 0; i-- {
		t.Unlock(indices[i])
	}
}

// Abort implements spec.md §4.7's abort(): aborters run in reverse order,
// then every transaction-scoped allocation is freed.
func (s *Session) Abort(tx *txlog.Descriptor) {
	defer s.rec.Leave()
	tx.RunAborters()
}
