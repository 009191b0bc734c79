//go:build debug

package alloc

import "github.com/pkg/errors"

// assertContract panics with ErrContractViolation when cond is false. A
// debug-only build carries checks too expensive, or too layout-sensitive,
// to run unconditionally.
func assertContract(cond bool, msg string) {
	if !cond {
		panic(errors.Wrap(ErrContractViolation, msg))
	}
}
