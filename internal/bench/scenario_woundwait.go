package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/Pam-La/castm/internal/txlog"
	"github.com/Pam-La/castm/internal/wwstm"
)

const (
	woundWaitContenders = 2
	woundWaitRounds     = 100000
)

// RunWoundWait is spec.md's S5: two threads contend for one cell. Under
// Wound-Wait, a transaction is only ever aborted by an older rival - it
// never starves behind a younger one retrying in a loop - so across many
// rounds every contender's individual commit count sums to the total
// number of successful rounds, and the cell's final value always agrees
// with that sum. This is the object-based Wound-Wait variant specifically
// (spec.md's conflict-ordering guarantee does not apply to the optimistic
// occ/mvcc variants), so it runs directly against wwstm rather than
// through the generic Variant abstraction the other scenarios share.
func RunWoundWait(rounds int) Result {
	start := time.Now()
	eng := wwstm.NewEngine()
	c := wwstm.NewCell(0)

	var wg sync.WaitGroup
	wg.Add(woundWaitContenders)
	commits := make([]int, woundWaitContenders)
	for i := 0; i < woundWaitContenders; i++ {
		i := i
		go func() {
			defer wg.Done()
			sess := eng.NewSession()
			done := 0
			for done < rounds/woundWaitContenders {
				tx := sess.Begin()
				x, err := c.ReadUnder(tx)
				if err != nil {
					sess.Abort(tx)
					continue
				}
				c.InstallWrite(tx, x+1)
				if tx.LoadStatus() != txlog.StatusActive {
					sess.Abort(tx)
					continue
				}
				if sess.Commit(tx) {
					commits[i]++
					done++
				} else {
					sess.Abort(tx)
				}
			}
		}()
	}
	wg.Wait()

	sess := eng.NewSession()
	tx := sess.Begin()
	final, err := c.ReadUnder(tx)
	if err != nil {
		return Result{Scenario: "S5 Wound-Wait progress", Variant: "ww", Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	total := commits[0] + commits[1]
	passed := final == total && total == (rounds/woundWaitContenders)*woundWaitContenders
	return Result{
		Scenario: "S5 Wound-Wait progress",
		Variant:  "ww",
		Passed:   passed,
		Elapsed:  time.Since(start),
		Detail:   fmt.Sprintf("commits=%v final=%d", commits, final),
	}
}

// RunWoundWaitDefault runs RunWoundWait at spec.md's full 10^5-round scale.
func RunWoundWaitDefault() Result {
	return RunWoundWait(woundWaitRounds)
}
