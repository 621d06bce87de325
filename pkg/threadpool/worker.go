package threadpool

import (
	"sync/atomic"
	"time"

	"github.com/threadsmith/gothreadpool/pkg/types"
)

// workerState defines the state of a worker
type workerState int32

const (
	// workerWaiting represents a worker blocked on the queue
	workerWaiting workerState = iota
	// workerExecuting represents a worker running a task
	workerExecuting
	// workerExited represents a worker that has left the pool
	workerExited
)

// String returns the string representation of workerState
func (ws workerState) String() string {
	switch ws {
	case workerWaiting:
		return "waiting"
	case workerExecuting:
		return "executing"
	case workerExited:
		return "exited"
	default:
		return "unknown"
	}
}

// idlePollInterval is how often a cached worker wakes from an empty
// queue to re-check its idle time against the retirement threshold.
const idlePollInterval = time.Second

// worker is a single pool goroutine. lastIdle is read and written only
// by the worker's own goroutine and needs no lock.
type worker struct {
	id    int
	pool  *Pool
	state int32 // atomic workerState

	lastIdle time.Time
}

func newWorker(id int, pool *Pool) *worker {
	return &worker{
		id:    id,
		pool:  pool,
		state: int32(workerWaiting),
	}
}

// State returns the current worker state
func (w *worker) State() workerState {
	return workerState(atomic.LoadInt32(&w.state))
}

func (w *worker) setState(s workerState) {
	atomic.StoreInt32(&w.state, int32(s))
}

// run is the worker loop: block on the queue, execute, repeat. The
// advisory idle count is decremented exactly once per departure from
// the waiting state, whether that departure is a task, retirement or
// shutdown. Fixed-mode workers wait without a deadline; cached workers
// poll so idle time gets re-checked between tasks.
func (w *worker) run() {
	defer w.pool.wg.Done()

	w.lastIdle = w.pool.clock.Now()
	w.pool.markIdle(1)

	for {
		var timeout time.Duration
		if w.pool.mode == types.ModeCached {
			timeout = idlePollInterval
		}

		fn, res := w.pool.queue.pop(timeout)
		switch res {
		case popTask:
			w.pool.markIdle(-1)
			w.setState(workerExecuting)
			fn()
			w.setState(workerWaiting)
			w.lastIdle = w.pool.clock.Now()
			w.pool.markIdle(1)

		case popTimeout:
			if w.pool.clock.Since(w.lastIdle) < w.pool.maxIdleTime {
				continue
			}
			// retirement is decided by the pool so the start count
			// stays a hard floor
			if w.pool.tryRetire(w.id) {
				w.pool.markIdle(-1)
				w.setState(workerExited)
				return
			}

		case popClosed:
			w.pool.removeWorker(w.id)
			w.pool.markIdle(-1)
			w.setState(workerExited)
			return
		}
	}
}
