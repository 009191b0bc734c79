// Package bench implements the S1-S6 end-to-end scenarios: each one drives
// a runtime built from one of the three engine variants through a
// concurrent workload and checks the invariant the scenario exists to
// probe. cmd/castmbench runs all of them and reports pass/fail/timing;
// the package's own _test.go files run the same scenarios as ordinary
// Go tests.
package bench

import "time"

// Result is what a scenario reports: whether its invariant held, how long
// the workload took, and a short human-readable detail line for the CLI.
type Result struct {
	Scenario string
	Variant  string
	Passed   bool
	Elapsed  time.Duration
	Detail   string
}
