package sync

import (
	gosync "sync"
	"sync/atomic"
	"testing"
)

// =====================================================
// Document Queue Tests
// =====================================================

// TestDocQueue_order verifies tasks run in enqueue order.
func TestDocQueue_order(t *testing.T) {
	q := newDocQueue()

	var mu gosync.Mutex
	var ran []int
	for i := 0; i < 100; i++ {
		i := i
		q.Enqueue(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}
	q.Wait()

	if len(ran) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(ran))
	}
	for i, got := range ran {
		if got != i {
			t.Fatalf("task %d ran at position %d", got, i)
		}
	}
}

// TestDocQueue_noOverlap verifies no two tasks ever run at once, even
// with concurrent enqueuers.
func TestDocQueue_noOverlap(t *testing.T) {
	q := newDocQueue()

	var running int32
	var wg gosync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				q.Enqueue(func() {
					if atomic.AddInt32(&running, 1) != 1 {
						t.Error("two tasks running at once")
					}
					atomic.AddInt32(&running, -1)
				})
			}
		}()
	}
	wg.Wait()
	q.Wait()
}

// TestDocQueue_waitOnIdle verifies Wait returns immediately when
// nothing was ever enqueued.
func TestDocQueue_waitOnIdle(t *testing.T) {
	q := newDocQueue()
	q.Wait()
}

// TestDocQueue_enqueueFromTask verifies a task may chain a follow-up
// onto its own queue without deadlocking.
func TestDocQueue_enqueueFromTask(t *testing.T) {
	q := newDocQueue()

	done := false
	q.Enqueue(func() {
		q.Enqueue(func() { done = true })
	})
	q.Wait()

	if !done {
		t.Error("chained task never ran")
	}
}
