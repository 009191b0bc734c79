package bench

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/Pam-La/castm/internal/alloc"
	"github.com/Pam-La/castm/internal/async"
)

const (
	crossFreeBlocks     = 100000
	crossFreeQueueDepth = 4096
)

var crossFreeSizes = []int{16, 64, 256, 1024, 4096}

// RunCrossThreadFree is a producer/consumer scenario: thread A allocates
// many blocks of varying sizes, thread B deallocates every one of them.
// The handoff runs through internal/async.RingBuffer, a lock-free MPMC
// queue, here carrying allocated pointers. Without an external address
// sanitizer this scenario can only check that every allocation found
// exactly one deallocation and neither side errored; it does not itself
// detect use-after-free or double-free.
func RunCrossThreadFree() Result {
	start := time.Now()
	opts := alloc.DefaultOptions()
	ps := alloc.NewPageSourceFromOptions(opts)
	heap := alloc.NewHeap(ps, opts.MaxPoolRescueChecks)
	// The consumer frees through its own Heap over the same page source, so
	// every free takes the remote path into the producer's slabs.
	consumer := alloc.NewHeap(ps, opts.MaxPoolRescueChecks)
	queue, err := async.NewRingBuffer[unsafe.Pointer](crossFreeQueueDepth)
	if err != nil {
		return Result{Scenario: "S6 Cross-thread free", Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	var produceErr error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < crossFreeBlocks; i++ {
			size := crossFreeSizes[i%len(crossFreeSizes)]
			p, allocErr := heap.Allocate(size)
			if allocErr != nil {
				produceErr = allocErr
				return
			}
			for !queue.Enqueue(p) {
				runtime.Gosched()
			}
		}
	}()

	freed := 0
	go func() {
		defer wg.Done()
		for i := 0; i < crossFreeBlocks; i++ {
			var p unsafe.Pointer
			var ok bool
			for {
				p, ok = queue.Dequeue()
				if ok {
					break
				}
				runtime.Gosched()
			}
			consumer.Deallocate(p)
			freed++
		}
	}()

	wg.Wait()

	passed := produceErr == nil && freed == crossFreeBlocks
	detail := fmt.Sprintf("freed %d/%d", freed, crossFreeBlocks)
	if produceErr != nil {
		detail = produceErr.Error()
	}
	return Result{
		Scenario: "S6 Cross-thread free",
		Passed:   passed,
		Elapsed:  time.Since(start),
		Detail:   detail,
	}
}
