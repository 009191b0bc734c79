package bench

import (
	"fmt"
	"time"

	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/stm"
	"golang.org/x/sync/errgroup"
)

const (
	counterThreads   = 8
	counterIters     = 1000
	counterTrimEvery = 256
)

// RunCounter is spec.md's S1: T threads each run `x <- load(c); store(c,
// x+1)` N times against a cell initialized to zero. The final value must
// equal threads*iters exactly - any lost update fails the scenario.
func RunCounter(v Variant) Result {
	start := time.Now()
	heap := newScratchHeap()
	cell := NewCell(v, 0)
	counter := stm.NewVar[int](cell)

	maxHistory := stmcore.DefaultOptions().MaxHistory
	var g errgroup.Group
	for i := 0; i < counterThreads; i++ {
		rt := stm.NewRuntime(v.NewSession(), heap)
		g.Go(func() error {
			for n := 0; n < counterIters; n++ {
				if err := stm.Atomically(rt, func(tx *stm.Tx) {
					counter.Store(tx, counter.Load(tx)+1)
					if n%counterTrimEvery == 0 {
						counter.TrimHistory(tx, maxHistory)
					}
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{Scenario: "S1 Counter", Variant: v.Name(), Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	rt := stm.NewRuntime(v.NewSession(), heap)
	final, err := stm.AtomicallyValue(rt, func(tx *stm.Tx) int {
		return counter.Load(tx)
	})
	if err != nil {
		return Result{Scenario: "S1 Counter", Variant: v.Name(), Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	want := counterThreads * counterIters
	return Result{
		Scenario: "S1 Counter",
		Variant:  v.Name(),
		Passed:   final == want,
		Elapsed:  time.Since(start),
		Detail:   fmt.Sprintf("got %d, want %d", final, want),
	}
}
