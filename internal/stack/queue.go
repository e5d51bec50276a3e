// SPDX-License-Identifier: Apache-2.0

package stack

import "sync"

// Dispatcher runs completion callbacks
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to a Dispatcher
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// serialQueue runs submitted jobs one at a time in submission order.
// A worker goroutine is started on demand and exits when the queue is empty.
type serialQueue struct {
	mu      sync.Mutex
	jobs    []func()
	running bool
	closed  bool
	pending sync.WaitGroup
}

func newSerialQueue() *serialQueue {
	return &serialQueue{}
}

// Submit queues job. It returns false once the queue is closed.
func (q *serialQueue) Submit(job func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, job)
	q.pending.Add(1)
	if !q.running {
		q.running = true
		go q.run()
	}
	return true
}

// Dispatch queues fn, or runs it on a new goroutine once the queue is closed
func (q *serialQueue) Dispatch(fn func()) {
	if !q.Submit(fn) {
		go fn()
	}
}

func (q *serialQueue) run() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		job()
		q.pending.Done()
	}
}

// Stop stops accepting jobs. Queued jobs still run.
func (q *serialQueue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Close stops accepting jobs and waits for the queued ones to finish.
// It must not be called from a job of q.
func (q *serialQueue) Close() {
	q.Stop()
	q.pending.Wait()
}
