package stmcore

import (
	"testing"
	"unsafe"

	"github.com/Pam-La/castm/internal/lockstripe"
	"github.com/Pam-La/castm/internal/txlog"
	"github.com/stretchr/testify/require"
)

func TestValidateReadsPassesWhenValidatorTrueAndNoForeignLock(t *testing.T) {
	tx := txlog.New(1)
	var x int
	tx.RecordRead(uintptr(unsafe.Pointer(&x)), func(uint64) bool { return true })

	require.True(t, ValidateReads(tx, tx.StartTS, lockstripe.New(4)))
}

func TestValidateReadsFailsWhenValidatorFalse(t *testing.T) {
	tx := txlog.New(1)
	var x int
	tx.RecordRead(uintptr(unsafe.Pointer(&x)), func(uint64) bool { return false })

	require.False(t, ValidateReads(tx, tx.StartTS, lockstripe.New(4)))
}

// TestValidateReadsFailsOnForeignStripeLockEvenIfValidatorPasses covers the
// TL2 hazard: a foreign writer has already taken the stripe lock (and, in
// practice, ticked its own write timestamp) but has not yet published a
// new head, so the validator closure alone sees no conflict.
func TestValidateReadsFailsOnForeignStripeLockEvenIfValidatorPasses(t *testing.T) {
	stripes := lockstripe.New(4)
	tx := txlog.New(1)
	var x int
	addr := uintptr(unsafe.Pointer(&x))
	tx.RecordRead(addr, func(uint64) bool { return true })

	idx := stripes.IndexOf(unsafe.Pointer(&x))
	stripes.Lock(idx)
	defer stripes.Unlock(idx)

	require.False(t, ValidateReads(tx, tx.StartTS, stripes))
}

func TestValidateReadsPassesWhenStripeIsInOwnLockSet(t *testing.T) {
	stripes := lockstripe.New(4)
	tx := txlog.New(1)
	var x int
	addr := uintptr(unsafe.Pointer(&x))
	tx.RecordRead(addr, func(uint64) bool { return true })

	idx := stripes.IndexOf(unsafe.Pointer(&x))
	stripes.Lock(idx)
	defer stripes.Unlock(idx)
	tx.LockSet = []int{idx}

	require.True(t, ValidateReads(tx, tx.StartTS, stripes))
}

func TestValidateReadsSkipsLockCheckWhenStripesNil(t *testing.T) {
	tx := txlog.New(1)
	var x int
	tx.RecordRead(uintptr(unsafe.Pointer(&x)), func(uint64) bool { return true })

	require.True(t, ValidateReads(tx, tx.StartTS, nil))
}
