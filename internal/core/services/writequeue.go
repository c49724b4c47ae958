package services

import (
	"context"
	"sync"
)

// writeQueue serializes asynchronous persistence work in strict call
// order through a single worker. Mutations enqueue their snapshot
// writes and return immediately; because the worker is single and
// FIFO, a later mutation's write can never be clobbered by an earlier
// one landing after it.
type writeQueue struct {
	mu     sync.Mutex
	jobs   chan func()
	closed bool
	done   chan struct{}
}

// writeQueueBuffer bounds outstanding persistence work. Enqueue blocks
// once the buffer fills, which backpressures a runaway caller instead
// of growing without limit.
const writeQueueBuffer = 256

func newWriteQueue() *writeQueue {
	q := &writeQueue{
		jobs: make(chan func(), writeQueueBuffer),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	defer close(q.done)
	for job := range q.jobs {
		job()
	}
}

// Enqueue schedules a job after all previously enqueued jobs. Jobs
// enqueued after Close are dropped.
func (q *writeQueue) Enqueue(job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.jobs <- job
}

// Flush blocks until every job enqueued before the call has run, or
// the context is cancelled.
func (q *writeQueue) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.jobs <- func() { close(drained) }
	q.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. Safe to call once.
func (q *writeQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}
