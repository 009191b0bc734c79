package stmcore

import (
	"unsafe"

	"github.com/Pam-La/castm/internal/lockstripe"
	"github.com/Pam-La/castm/internal/txlog"
)

// ValidateReads re-checks every read-set entry, implementing spec.md
// §4.7's validate_read_set (OCC/MVCC) and read-set revalidation (WW)
// steps. Each variant's Cell[T].ReadUnder decides what rv means to its
// own validator closures: occstm/mvccstm compare against the
// transaction's fixed read version, wwstm's closures ignore rv entirely
// and instead compare the cell's current visible timestamp against the
// one observed at read time.
//
// stripes is the commit-window lock table a stripe-locking variant
// (occstm, mvccstm) acquired tx.LockSet against before calling this; pass
// nil for a variant with no such table (wwstm, whose conflict resolution
// is per-cell rather than per-stripe). When non-nil, a read-set cell
// whose stripe is held by anyone outside tx.LockSet fails validation
// outright, before its own validator closure even runs. This closes the
// classic TL2 hazard: a foreign writer can hold its stripe lock and have
// already ticked the clock for its own write timestamp while the cell's
// published head is still the old version. The validator closure alone
// only compares against the published head, so without this check it
// would wrongly see no conflict and pass.
func ValidateReads(tx *txlog.Descriptor, rv uint64, stripes *lockstripe.Table) bool {
	for _, r := range tx.Reads {
		if stripes != nil {
			idx := stripes.IndexOf(unsafe.Pointer(r.CellAddr))
			if stripes.IsLocked(idx) && !inLockSet(tx.LockSet, idx) {
				return false
			}
		}
		if !r.Validate(rv) {
			return false
		}
	}
	return true
}

func inLockSet(lockSet []int, idx int) bool {
	for _, held := range lockSet {
		if held == idx {
			return true
		}
	}
	return false
}
