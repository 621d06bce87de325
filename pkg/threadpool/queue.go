package threadpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/threadsmith/gothreadpool/pkg/types"
)

// popResult describes how a pop call ended
type popResult int

const (
	// popTask means a task was dequeued
	popTask popResult = iota
	// popTimeout means the wait window elapsed with the queue still empty
	popTimeout
	// popClosed means the queue is closed and fully drained
	popClosed
)

// taskQueue is a bounded FIFO guarded by a single mutex. Producers park
// on notFull and consumers on notEmpty; a signal closes the current
// channel and installs a fresh one, so every parked waiter of that
// generation wakes and re-checks its predicate under the lock.
type taskQueue struct {
	mu      sync.Mutex
	tasks   []func()
	size    int
	maxSize int
	closed  bool

	// advisory depth, readable without the lock; trails size during
	// handoffs. Exact depth comes from length().
	pending int32

	notEmpty     chan struct{}
	notFull      chan struct{}
	emptyWaiters int
	fullWaiters  int

	clock types.Clock
}

func newTaskQueue(maxSize int, clock types.Clock) *taskQueue {
	return &taskQueue{
		maxSize:  maxSize,
		notEmpty: make(chan struct{}),
		notFull:  make(chan struct{}),
		clock:    clock,
	}
}

// push appends fn to the tail, waiting up to wait for a slot when the
// queue is full. It returns types.ErrQueueFull if no slot opened within
// the window and types.ErrPoolStopped if the queue closed first.
func (q *taskQueue) push(fn func(), wait time.Duration) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return types.ErrPoolStopped
	}

	if q.size >= q.maxSize {
		deadline := q.clock.Now().Add(wait)
		for q.size >= q.maxSize && !q.closed {
			remaining := deadline.Sub(q.clock.Now())
			if remaining <= 0 {
				q.mu.Unlock()
				return types.ErrQueueFull
			}
			timedOut := q.waitNotFull(remaining)
			if timedOut && q.size >= q.maxSize && !q.closed {
				q.mu.Unlock()
				return types.ErrQueueFull
			}
		}
		if q.closed {
			q.mu.Unlock()
			return types.ErrPoolStopped
		}
	}

	q.tasks = append(q.tasks, fn)
	q.size++
	atomic.AddInt32(&q.pending, 1)
	q.signalNotEmpty()
	q.mu.Unlock()
	return nil
}

// pop removes the head task, waiting up to timeout for one to arrive.
// A timeout of zero or less waits indefinitely. Tasks win over
// timeouts: a wait that expires while the queue is non-empty still
// dequeues. After close the remaining tasks stay poppable so workers
// can drain them; popClosed is only returned once the queue is empty.
func (q *taskQueue) pop(timeout time.Duration) (func(), popResult) {
	q.mu.Lock()

	for q.size == 0 {
		if q.closed {
			q.mu.Unlock()
			return nil, popClosed
		}
		if timeout > 0 {
			timedOut := q.waitNotEmpty(timeout)
			if timedOut && q.size == 0 {
				if q.closed {
					q.mu.Unlock()
					return nil, popClosed
				}
				q.mu.Unlock()
				return nil, popTimeout
			}
		} else {
			q.waitNotEmpty(0)
		}
	}

	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.size--
	atomic.AddInt32(&q.pending, -1)
	q.signalNotFull()
	if q.size > 0 {
		// hand the wake on while tasks remain
		q.signalNotEmpty()
	}
	q.mu.Unlock()
	return fn, popTask
}

// close marks the queue closed and wakes every waiter, current and
// future. Queued tasks are kept; pop drains them before reporting
// popClosed. Idempotent.
func (q *taskQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.notEmpty)
	close(q.notFull)
	q.mu.Unlock()
}

// waitNotEmpty parks the caller until the not-empty signal fires or d
// elapses; d of zero or less means no deadline. Reports whether the
// wait ended by timeout. The lock is released while parked and held
// again on return, so callers must re-check their predicate.
func (q *taskQueue) waitNotEmpty(d time.Duration) bool {
	ch := q.notEmpty
	q.emptyWaiters++
	q.mu.Unlock()

	timedOut := q.park(ch, d)

	q.mu.Lock()
	q.emptyWaiters--
	return timedOut
}

// waitNotFull is the producer-side counterpart of waitNotEmpty
func (q *taskQueue) waitNotFull(d time.Duration) bool {
	ch := q.notFull
	q.fullWaiters++
	q.mu.Unlock()

	timedOut := q.park(ch, d)

	q.mu.Lock()
	q.fullWaiters--
	return timedOut
}

// park blocks on ch with an optional deadline driven by the pool clock
func (q *taskQueue) park(ch <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		<-ch
		return false
	}

	timer := q.clock.NewTimer(d)
	select {
	case <-ch:
		timer.Stop()
		return false
	case <-timer.C():
		return true
	}
}

// signalNotEmpty wakes the parked consumers. Callers must hold mu.
// After close the channel is already closed and stays that way.
func (q *taskQueue) signalNotEmpty() {
	if q.closed || q.emptyWaiters == 0 {
		return
	}
	close(q.notEmpty)
	q.notEmpty = make(chan struct{})
}

// signalNotFull wakes the parked producers. Callers must hold mu.
func (q *taskQueue) signalNotFull() {
	if q.closed || q.fullWaiters == 0 {
		return
	}
	close(q.notFull)
	q.notFull = make(chan struct{})
}

// depth returns the advisory queue depth from the atomic counter,
// without taking the lock
func (q *taskQueue) depth() int {
	return int(atomic.LoadInt32(&q.pending))
}

// length returns the exact queue depth
func (q *taskQueue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// capacity returns the queue bound
func (q *taskQueue) capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxSize
}

// setCapacity changes the queue bound; meant for configuration before
// any producer or consumer is running
func (q *taskQueue) setCapacity(n int) {
	q.mu.Lock()
	q.maxSize = n
	q.mu.Unlock()
}
