package stm

import (
	"runtime"

	"github.com/Pam-La/castm/internal/alloc"
	"github.com/Pam-La/castm/internal/stmcore"
)

// Runtime pairs one transaction engine (occstm, wwstm, or mvccstm,
// whichever satisfies stmcore.Engine) with the thread heap its Tx.Alloc
// calls draw from.
type Runtime struct {
	engine stmcore.Engine
	heap   *alloc.Heap
}

// NewRuntime builds a Runtime over engine and heap. Every Var a closure run
// through this Runtime touches must have been built from the same variant
// package as engine.
func NewRuntime(engine stmcore.Engine, heap *alloc.Heap) *Runtime {
	return &Runtime{engine: engine, heap: heap}
}

// Atomically implements spec.md §6's atomically(f): it loops begin/
// execute/commit, catching the internal Retry and commit-false signals and
// yielding between attempts, and rethrows any other panic from f after
// rolling the attempt back. A non-nil return is only ever an allocator
// OutOfMemory surfaced through Alloc.
func Atomically(rt *Runtime, f func(tx *Tx)) error {
	_, err := AtomicallyValue(rt, func(tx *Tx) struct{} {
		f(tx)
		return struct{}{}
	})
	return err
}

// AtomicallyValue is the value-producing form of Atomically, mirroring
// anacrolix/stm's AtomicGet alongside the void VoidOperation form above.
func AtomicallyValue[T any](rt *Runtime, f func(tx *Tx) T) (T, error) {
	var zero T
	for {
		desc := rt.engine.Begin()
		tx := &Tx{desc: desc, rt: rt}

		result, committed, err, retry := runAttempt(rt, tx, f)
		if err != nil {
			return zero, err
		}
		if committed {
			// Best-effort EBR maintenance driven off the commit path
			// itself rather than a dedicated goroutine: cheap when no
			// advance is due, and this is what actually reclaims the
			// version nodes and write records retired during the
			// transaction that just landed.
			rt.engine.TryAdvanceEpoch()
			return result, nil
		}
		if retry {
			runtime.Gosched()
			continue
		}
		// commit() returned false with no explicit retry signal: begin a
		// fresh attempt per spec.md §6.
	}
}

func runAttempt[T any](rt *Runtime, tx *Tx, f func(tx *Tx) T) (result T, committed bool, err error, retry bool) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if rs, ok := r.(retrySignal); ok {
			rt.engine.Abort(tx.desc)
			_ = rs
			retry = true
			return
		} else if af, ok := r.(allocFailure); ok {
			rt.engine.Abort(tx.desc)
			err = af.err
			return
		} else {
			rt.engine.Abort(tx.desc)
			panic(r)
		}
	}()

	result = f(tx)
	if rt.engine.Commit(tx.desc) {
		committed = true
		return
	}
	rt.engine.Abort(tx.desc)
	retry = true
	return
}
