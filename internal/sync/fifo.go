package sync

import "sync"

// docQueue serializes all operations against one remote document
// into a single FIFO chain. If task A is enqueued before task B, A
// runs to completion (or failure) before B starts, so a hydrate's
// read-merge-write can never interleave with a concurrent push and
// clobber it with a stale snapshot.
type docQueue struct {
	mu     sync.Mutex
	idle   *sync.Cond
	tasks  []func()
	active bool
}

func newDocQueue() *docQueue {
	q := &docQueue{}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a task and starts the worker if none is running.
func (q *docQueue) Enqueue(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	if !q.active {
		q.active = true
		go q.run()
	}
	q.mu.Unlock()
}

// run drains the queue one task at a time.
func (q *docQueue) run() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.active = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
	}
}

// Wait blocks until every task enqueued so far has finished.
func (q *docQueue) Wait() {
	q.mu.Lock()
	for q.active || len(q.tasks) > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}
