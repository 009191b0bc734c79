package bench

import (
	"fmt"
	"time"

	"github.com/Pam-La/castm/stm"
)

// RunRollback is spec.md's S3: `atomically { store(s, "Dirty"); throw
// "Boom" }` against a cell initialized to "Clean" must propagate the
// panic to the caller while leaving the cell's committed value
// untouched - the write staged before the panic never reaches commit.
func RunRollback(v Variant) (result Result) {
	start := time.Now()
	heap := newScratchHeap()
	s := stm.NewVar[string](NewCell(v, "Clean"))
	rt := stm.NewRuntime(v.NewSession(), heap)

	propagated := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				if msg, ok := r.(string); ok && msg == "Boom" {
					propagated = true
				}
			}
		}()
		_ = stm.Atomically(rt, func(tx *stm.Tx) {
			s.Store(tx, "Dirty")
			panic("Boom")
		})
	}()

	got, err := stm.AtomicallyValue(rt, func(tx *stm.Tx) string {
		return s.Load(tx)
	})
	if err != nil {
		return Result{Scenario: "S3 Exception rollback", Variant: v.Name(), Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	passed := propagated && got == "Clean"
	return Result{
		Scenario: "S3 Exception rollback",
		Variant:  v.Name(),
		Passed:   passed,
		Elapsed:  time.Since(start),
		Detail:   fmt.Sprintf("propagated=%v got=%q", propagated, got),
	}
}
