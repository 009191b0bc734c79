package ebr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetireNotFreedWhileActive(t *testing.T) {
	m := NewManager()
	r := m.Register()
	r.Enter(m)

	freed := false
	r.Retire(func() { freed = true })

	require.True(t, m.TryAdvance(), "a thread active at the current epoch does not block one advance")
	require.False(t, freed)

	r.Leave()
}

func TestRetireFreedAfterTwoAdvances(t *testing.T) {
	m := NewManager()
	r := m.Register()

	r.Enter(m)
	freed := false
	r.Retire(func() { freed = true })
	r.Leave()

	// Epoch 0 -> 1: bin (1-2) mod 3 = 2 is freed; our retiree is in bin 0.
	require.True(t, m.TryAdvance())
	require.False(t, freed)

	// r re-enters at epoch 1, so it does not hold back the next advance.
	// Epoch 1 -> 2: bin (2-2) mod 3 = 0 is freed.
	r.Enter(m)
	require.True(t, m.TryAdvance())
	require.True(t, freed, "bin 0 frees on the advance to epoch 2")

	r.Enter(m)
	require.True(t, m.TryAdvance())
	require.True(t, freed)
	r.Leave()
}

func TestTryAdvanceBlockedByStalledThread(t *testing.T) {
	m := NewManager()
	stalled := m.Register()
	stalled.Enter(m)
	// stalled has observed epoch 0, so this advance goes through and leaves
	// it one epoch behind.
	require.True(t, m.TryAdvance())

	mover := m.Register()
	mover.Enter(m)
	mover.Leave()

	require.False(t, m.TryAdvance())
	stalled.Leave()
}

func TestConcurrentRetireAndAdvance(t *testing.T) {
	m := NewManager()
	const workers = 8
	const perWorker = 500

	var freedCount int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			r := m.Register()
			for i := 0; i < perWorker; i++ {
				r.Enter(m)
				r.Retire(func() {
					mu.Lock()
					freedCount++
					mu.Unlock()
				})
				r.Leave()
				m.TryAdvance()
			}
		}()
	}
	wg.Wait()

	for i := 0; i < numBins+1; i++ {
		m.TryAdvance()
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, int32(workers*perWorker), freedCount)
}
