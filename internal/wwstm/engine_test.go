package wwstm

import (
	"sync"
	"testing"

	"github.com/Pam-La/castm/internal/txlog"
	"github.com/stretchr/testify/require"
)

func TestReadYourOwnWrites(t *testing.T) {
	eng := NewEngine()
	sess := eng.NewSession()
	c := NewCell(10)

	tx := sess.Begin()
	c.InstallWrite(tx, 20)
	v, err := c.ReadUnder(tx)
	require.NoError(t, err)
	require.Equal(t, 20, v)
}

func TestReentrantWriteReplacesDraft(t *testing.T) {
	eng := NewEngine()
	sess := eng.NewSession()
	c := NewCell(1)

	tx := sess.Begin()
	c.InstallWrite(tx, 2)
	c.InstallWrite(tx, 3)
	require.Len(t, tx.Writes, 1, "a second write to the same cell must replace, not duplicate, the write-set entry")

	require.True(t, sess.Commit(tx))

	tx2 := sess.Begin()
	v, err := c.ReadUnder(tx2)
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestCommitPublishesAndClearsRecord(t *testing.T) {
	eng := NewEngine()
	sess := eng.NewSession()
	c := NewCell(1)

	tx := sess.Begin()
	c.InstallWrite(tx, 9)
	require.True(t, sess.Commit(tx))
	require.Nil(t, c.record.Load())
	require.Equal(t, 9, c.data.Load().Payload)
}

func TestTryAdvanceEpochForwardsToSharedEngine(t *testing.T) {
	eng := NewEngine()
	sess := eng.NewSession()
	require.True(t, sess.TryAdvanceEpoch(), "with no thread currently active, the epoch must be free to advance")
}

func TestAbortClearsRecordAndLeavesOldDataVisible(t *testing.T) {
	eng := NewEngine()
	sess := eng.NewSession()
	c := NewCell(1)

	tx := sess.Begin()
	c.InstallWrite(tx, 99)
	sess.Abort(tx)
	require.Nil(t, c.record.Load())

	tx2 := sess.Begin()
	v, err := c.ReadUnder(tx2)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestYoungerTransactionAbortsOnConflictWithOlder(t *testing.T) {
	eng := NewEngine()
	older := eng.NewSession()
	younger := eng.NewSession()
	c := NewCell(0)

	oldTx := older.Begin()
	c.InstallWrite(oldTx, 1)

	eng.clk.Tick() // force a strictly later start_ts for the younger transaction
	youngTx := younger.Begin()
	require.Greater(t, youngTx.StartTS, oldTx.StartTS, "younger must start after older for this test to be meaningful")
	c.InstallWrite(youngTx, 2)

	require.Equal(t, txlog.StatusAborted, youngTx.LoadStatus(), "younger loses the conflict and aborts itself")
	require.Equal(t, txlog.StatusActive, oldTx.LoadStatus())

	require.True(t, older.Commit(oldTx))
	require.False(t, younger.Commit(youngTx))
}

func TestWoundWaitProgressUnderContention(t *testing.T) {
	eng := NewEngine()
	c := NewCell(0)
	const rounds = 2000
	const contenders = 2

	var wg sync.WaitGroup
	wg.Add(contenders)
	commits := make([]int, contenders)
	for i := 0; i < contenders; i++ {
		i := i
		go func() {
			defer wg.Done()
			sess := eng.NewSession()
			done := 0
			for done < rounds/contenders {
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
	require.NoError(t, err)
	require.Equal(t, commits[0]+commits[1], final)
}
