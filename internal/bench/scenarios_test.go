package bench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterAllVariants(t *testing.T) {
	for _, v := range AllVariants() {
		v := v
		t.Run(v.Name(), func(t *testing.T) {
			t.Parallel()
			r := RunCounter(v)
			require.True(t, r.Passed, r.Detail)
		})
	}
}

func TestTransferAllVariants(t *testing.T) {
	for _, v := range AllVariants() {
		v := v
		t.Run(v.Name(), func(t *testing.T) {
			t.Parallel()
			r := RunTransfer(v)
			require.True(t, r.Passed, r.Detail)
		})
	}
}

func TestRollbackAllVariants(t *testing.T) {
	for _, v := range AllVariants() {
		v := v
		t.Run(v.Name(), func(t *testing.T) {
			t.Parallel()
			r := RunRollback(v)
			require.True(t, r.Passed, r.Detail)
		})
	}
}

func TestBSTAllVariants(t *testing.T) {
	for _, v := range AllVariants() {
		v := v
		t.Run(v.Name(), func(t *testing.T) {
			t.Parallel()
			r := RunBST(v)
			require.True(t, r.Passed, r.Detail)
		})
	}
}

func TestWoundWaitProgress(t *testing.T) {
	t.Parallel()
	r := RunWoundWait(2000)
	require.True(t, r.Passed, r.Detail)
}

func TestCrossThreadFree(t *testing.T) {
	t.Parallel()
	r := RunCrossThreadFree()
	require.True(t, r.Passed, r.Detail)
}
