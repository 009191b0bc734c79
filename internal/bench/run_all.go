package bench

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// RunAll runs S1-S4 against every engine variant, plus the variant-specific
// S5 and the allocator-only S6, logging each scenario's outcome at Debug
// and any failure at Warn.
func RunAll() []Result {
	var results []Result

	for _, v := range AllVariants() {
		for _, run := range []func(Variant) Result{RunCounter, RunTransfer, RunRollback, RunBST} {
			r := run(v)
			logResult(r)
			results = append(results, r)
		}
	}

	wwResult := RunWoundWaitDefault()
	logResult(wwResult)
	results = append(results, wwResult)

	crossFreeResult := RunCrossThreadFree()
	logResult(crossFreeResult)
	results = append(results, crossFreeResult)

	return results
}

func logResult(r Result) {
	fields := []zap.Field{
		zap.String("scenario", r.Scenario),
		zap.String("variant", r.Variant),
		zap.Bool("passed", r.Passed),
		zap.Duration("elapsed", r.Elapsed),
		zap.String("detail", r.Detail),
	}
	if r.Passed {
		log.Debug("bench: scenario finished", fields...)
		return
	}
	log.Warn("bench: scenario failed", fields...)
}
