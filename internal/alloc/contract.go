package alloc

import "github.com/pkg/errors"

// ErrContractViolation is the sentinel behind spec.md §7's
// ContractViolation class: freeing an unknown pointer, deallocating
// through a torn-down heap, or otherwise breaking a caller contract the
// non-debug build leaves undefined rather than checking on every call.
var ErrContractViolation = errors.New("alloc: contract violation")
