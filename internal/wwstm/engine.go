package wwstm

import (
	"github.com/Pam-La/castm/internal/clock"
	"github.com/Pam-La/castm/internal/ebr"
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/txlog"
)

// Engine is the Wound-Wait variant's shared, cross-goroutine state.
type Engine struct {
	clk    *clock.Clock
	ebrMgr *ebr.Manager
}

// NewEngine builds a fresh WW engine.
func NewEngine() *Engine {
	return &Engine{clk: clock.New(), ebrMgr: ebr.NewManager()}
}

// TryAdvanceEpoch drains any retire bin that is now two full epochs stale.
func (e *Engine) TryAdvanceEpoch() bool {
	return e.ebrMgr.TryAdvance()
}

// NewSession registers a new per-goroutine transaction handle. See
// occstm.Engine.NewSession for why Go needs this explicit handle where the
// reference implementation relied on implicit thread-local state.
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

// Begin implements spec.md §4.7's begin(), binding the descriptor's
// read_version/start_ts to the same field (the WW variant uses it purely
// as the age marker Wound-Wait compares).
func (s *Session) Begin() *txlog.Descriptor {
	s.rec.Enter(s.eng.ebrMgr)
	tx := txlog.New(s.eng.clk.Now())
	tx.Retire = s.rec.Retire
	return tx
}

// Commit implements the WW commit algorithm of spec.md §4.7.
func (s *Session) Commit(tx *txlog.Descriptor) bool {
	defer s.rec.Leave()

	if len(tx.Writes) == 0 {
		return tx.TryCommit()
	}

	if !stmcore.ValidateReads(tx, 0, nil) {
		tx.TrySelfAbort()
		return false
	}

	if !tx.TryCommit() {
		return false
	}

	commitTS := s.eng.clk.Tick()
	for _, w := range tx.Writes {
		w.Commit(commitTS)
	}
	return true
}

// Abort implements spec.md §4.7's abort().
func (s *Session) Abort(tx *txlog.Descriptor) {
	defer s.rec.Leave()
	tx.RunAborters()
}
