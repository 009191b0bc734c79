package mvccstm

import (
	"unsafe"

	"github.com/Pam-La/castm/internal/clock"
	"github.com/Pam-La/castm/internal/ebr"
	"github.com/Pam-La/castm/internal/lockstripe"
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
)

// Engine is the MVCC variant's shared, cross-goroutine state: commit
// structure is identical to occstm.Engine (spec.md §4.7 says so
// explicitly), so this is the same striped-lock commit window; only the
// cell-level validator (chain walk vs. head check) differs.
type Engine struct {
	clk     *clock.Clock
	stripes *lockstripe.Table
	ebrMgr  *ebr.Manager
}

// NewEngine builds an engine with a fresh clock and a stripe table of
// stripeCount slots.
func NewEngine(stripeCount int) *Engine {
	return &Engine{clk: clock.New(), stripes: lockstripe.New(stripeCount), ebrMgr: ebr.NewManager()}
}

// TryAdvanceEpoch drains any retire bin that is now two full epochs stale.
func (e *Engine) TryAdvanceEpoch() bool {
	return e.ebrMgr.TryAdvance()
}

// NewSession registers a new per-goroutine transaction handle.
func (e *Engine) NewSession() *Session {
	return &Session{eng: e, rec: e.ebrMgr.Register()}
}

// Session is the per-goroutine handle implementing stmcore.Engine.
type Session struct {
	eng *Engine
	rec *ebr.ThreadRecord
}

var _ stmcore.Engine = (*Session)(nil)

// TryAdvanceEpoch forwards to the shared Engine's reclamation manager.
func (s *Session) TryAdvanceEpoch() bool {
	return s.eng.TryAdvanceEpoch()
}

// Begin implements spec.md §4.7's begin().
func (s *Session) Begin() *txlog.Descriptor {
	s.rec.Enter(s.eng.ebrMgr)
	tx := txlog.New(s.eng.clk.Now())
	tx.Retire = s.rec.Retire
	return tx
}

// Commit implements the same commit structure as occstm.Session.Commit.
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

	if !stmcore.ValidateReads(tx, tx.StartTS, s.eng.stripes) {
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

// Abort implements spec.md §4.7's abort().
func (s *Session) Abort(tx *txlog.Descriptor) {
	defer s.rec.Leave()
	tx.RunAborters()
}
