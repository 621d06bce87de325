package threadpool

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/threadsmith/gothreadpool/pkg/types"
)

// Default configuration values applied by New
const (
	// DefaultMaxWorkers caps cached-mode growth
	DefaultMaxWorkers = 1024

	// DefaultMaxIdleTime is how long a cached worker may sit idle
	// before it becomes eligible for retirement
	DefaultMaxIdleTime = 60 * time.Second

	// DefaultMaxQueueSize is the queue bound; effectively unbounded
	DefaultMaxQueueSize = math.MaxInt32

	// DefaultSubmitWait is how long Submit blocks on a full queue
	// before rejecting the task
	DefaultSubmitWait = time.Second
)

// Pool states
const (
	poolStateCreated int32 = iota // configurable, not yet accepting tasks
	poolStateRunning              // accepting and executing tasks
	poolStateStopped              // draining or drained; submissions rejected
)

// Pool is a bounded-queue worker pool with two sizing modes. Fixed mode
// keeps the worker count from Start for the pool's whole life. Cached
// mode grows by at most one worker per submission while demand outruns
// the idle set, up to the configured ceiling, and retires workers that
// sit idle past the threshold, never dropping below the start count.
//
// Configuration setters apply only before Start; afterwards they are
// silently ignored. The configuration fields are therefore frozen while
// workers run and are read without a lock.
type Pool struct {
	// configuration; written before Start, read-only afterwards
	mode        types.PoolMode
	initWorkers int
	maxWorkers  int
	maxIdleTime time.Duration
	submitWait  time.Duration

	clock types.Clock
	queue *taskQueue

	metrics      *Metrics
	errorHandler types.ErrorHandler

	// state management
	state     int32 // atomic: created, running, stopped
	closeOnce sync.Once

	// worker management
	mu           sync.Mutex
	workers      map[int]*worker
	nextWorkerID int // monotone; ids are never reused
	wg           sync.WaitGroup

	// advisory idle count, read without the lock by the growth
	// decision. The exact number lives in the worker states.
	idleWorkers int32

	// cumulative statistics
	submitted int64
	rejected  int64
	completed int64
	failed    int64
}

// compile-time interface conformance check
var _ types.Pool = (*Pool)(nil)

// New creates an unstarted pool with default configuration
func New() *Pool {
	return NewWithClock(types.NewRealClock())
}

// NewWithClock creates an unstarted pool that uses clock for every
// timed wait, letting tests drive submit backpressure and cached-mode
// idle retirement from a mock clock
func NewWithClock(clock types.Clock) *Pool {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Pool{
		mode:        types.ModeFixed,
		maxWorkers:  DefaultMaxWorkers,
		maxIdleTime: DefaultMaxIdleTime,
		submitWait:  DefaultSubmitWait,
		clock:       clock,
		queue:       newTaskQueue(DefaultMaxQueueSize, clock),
		workers:     make(map[int]*worker),
	}
}

// SetMode selects fixed or cached sizing. Ignored once the pool has
// started or for an unknown mode.
func (p *Pool) SetMode(mode types.PoolMode) {
	if atomic.LoadInt32(&p.state) != poolStateCreated {
		return
	}
	if mode != types.ModeFixed && mode != types.ModeCached {
		return
	}
	p.mode = mode
}

// SetMaxWorkerCount caps cached-mode growth. Ignored once started or
// for n < 1.
func (p *Pool) SetMaxWorkerCount(n int) {
	if atomic.LoadInt32(&p.state) != poolStateCreated || n < 1 {
		return
	}
	p.maxWorkers = n
}

// SetMaxIdleTime sets how long a cached worker may sit idle before
// retiring. Ignored once started or for d <= 0.
func (p *Pool) SetMaxIdleTime(d time.Duration) {
	if atomic.LoadInt32(&p.state) != poolStateCreated || d <= 0 {
		return
	}
	p.maxIdleTime = d
}

// SetMaxQueueSize bounds the task queue. Ignored once started or for
// n < 1.
func (p *Pool) SetMaxQueueSize(n int) {
	if atomic.LoadInt32(&p.state) != poolStateCreated || n < 1 {
		return
	}
	p.queue.setCapacity(n)
}

// SetSubmitWait sets how long Submit blocks on a full queue before
// rejecting. Zero makes a full queue reject immediately. Ignored once
// started or for d < 0.
func (p *Pool) SetSubmitWait(d time.Duration) {
	if atomic.LoadInt32(&p.state) != poolStateCreated || d < 0 {
		return
	}
	p.submitWait = d
}

// SetMetrics attaches Prometheus instrumentation. Ignored once started.
func (p *Pool) SetMetrics(m *Metrics) {
	if atomic.LoadInt32(&p.state) != poolStateCreated {
		return
	}
	p.metrics = m
}

// SetErrorHandler registers a callback invoked with every task error,
// including recovered panics. Ignored once started.
func (p *Pool) SetErrorHandler(handler types.ErrorHandler) {
	if atomic.LoadInt32(&p.state) != poolStateCreated {
		return
	}
	p.errorHandler = handler
}

// Start launches the initial worker set and begins accepting tasks.
// A count of zero or less defaults to runtime.NumCPU(). In cached mode
// the count must not exceed the worker ceiling; the count also becomes
// the floor below which retirement never shrinks the pool.
func (p *Pool) Start(count int) error {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	if p.mode == types.ModeCached && count > p.maxWorkers {
		return fmt.Errorf("initial workers (%d) must be <= max workers (%d): %w",
			count, p.maxWorkers, types.ErrInvalidWorkerCount)
	}

	if !atomic.CompareAndSwapInt32(&p.state, poolStateCreated, poolStateRunning) {
		if atomic.LoadInt32(&p.state) == poolStateRunning {
			return types.ErrPoolRunning
		}
		return types.ErrPoolStopped
	}

	p.initWorkers = count

	p.mu.Lock()
	if atomic.LoadInt32(&p.state) == poolStateRunning {
		for i := 0; i < count; i++ {
			p.spawnWorkerLocked()
		}
	}
	p.mu.Unlock()

	return nil
}

// Shutdown stops admissions, lets the workers drain every queued task
// and blocks until the last worker has exited. Every caller waits for
// the full drain, so concurrent and repeated calls all return after
// the pool is quiescent. Shutdown of a never-started pool succeeds and
// pins the pool stopped.
func (p *Pool) Shutdown() error {
	p.closeOnce.Do(func() {
		// the state flips under mu so a concurrent growth decision
		// cannot add workers once the drain has begun
		p.mu.Lock()
		atomic.StoreInt32(&p.state, poolStateStopped)
		p.mu.Unlock()

		p.queue.close()
	})

	p.wg.Wait()
	return nil
}

// enqueue pushes a wrapped task through the admission checks
func (p *Pool) enqueue(fn func()) error {
	switch atomic.LoadInt32(&p.state) {
	case poolStateCreated:
		return types.ErrPoolNotRunning
	case poolStateStopped:
		return types.ErrPoolStopped
	}

	if err := p.queue.push(fn, p.submitWait); err != nil {
		return err
	}

	p.maybeGrow()
	return nil
}

// spawnWorkerLocked creates and launches one worker. Callers must hold mu.
func (p *Pool) spawnWorkerLocked() {
	id := p.nextWorkerID
	p.nextWorkerID++

	w := newWorker(id, p)
	p.workers[id] = w

	p.wg.Add(1)
	go w.run()

	if p.metrics != nil {
		p.metrics.Workers.Inc()
	}
}

// maybeGrow adds at most one cached worker when queued demand outruns
// the idle set. Both reads are advisory, so growth may be off by one
// under contention; retirement corrects any excess.
func (p *Pool) maybeGrow() {
	if p.mode != types.ModeCached {
		return
	}
	if p.queue.depth() <= int(atomic.LoadInt32(&p.idleWorkers)) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if atomic.LoadInt32(&p.state) != poolStateRunning {
		return
	}
	if len(p.workers) >= p.maxWorkers {
		return
	}
	p.spawnWorkerLocked()
}

// tryRetire removes an idle cached worker from the pool unless that
// would drop the worker count below the start floor. Reports whether
// the worker may exit.
func (p *Pool) tryRetire(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.workers) <= p.initWorkers {
		return false
	}
	if _, ok := p.workers[id]; !ok {
		return false
	}
	delete(p.workers, id)

	if p.metrics != nil {
		p.metrics.Workers.Dec()
	}
	return true
}

// removeWorker takes id out of the worker map when a worker exits on
// shutdown drain
func (p *Pool) removeWorker(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workers[id]; !ok {
		return
	}
	delete(p.workers, id)

	if p.metrics != nil {
		p.metrics.Workers.Dec()
	}
}

// markIdle adjusts the advisory idle-worker count
func (p *Pool) markIdle(delta int32) {
	atomic.AddInt32(&p.idleWorkers, delta)
	if p.metrics != nil {
		p.metrics.IdleWorkers.Add(float64(delta))
	}
}

// taskSubmitted records an accepted submission
func (p *Pool) taskSubmitted() {
	atomic.AddInt64(&p.submitted, 1)
	if p.metrics != nil {
		p.metrics.TasksSubmitted.Inc()
		p.metrics.QueueDepth.Inc()
	}
}

// taskRejected records a refused submission
func (p *Pool) taskRejected() {
	atomic.AddInt64(&p.rejected, 1)
	if p.metrics != nil {
		p.metrics.TasksRejected.Inc()
	}
}

// taskStarted records a task leaving the queue for a worker
func (p *Pool) taskStarted() {
	if p.metrics != nil {
		p.metrics.QueueDepth.Dec()
	}
}

// taskDone records one finished task
func (p *Pool) taskDone(elapsed time.Duration, err error) {
	if p.metrics != nil {
		p.metrics.TaskDuration.Observe(elapsed.Seconds())
	}

	if err != nil {
		atomic.AddInt64(&p.failed, 1)
		if p.metrics != nil {
			p.metrics.TasksFailed.Inc()
		}
		p.handleError(err)
		return
	}

	atomic.AddInt64(&p.completed, 1)
	if p.metrics != nil {
		p.metrics.TasksCompleted.Inc()
	}
}

// handleError forwards a task error to the registered handler
func (p *Pool) handleError(err error) {
	if p.errorHandler == nil {
		return
	}
	_ = p.errorHandler(err)
}

// Mode returns the worker-count policy
func (p *Pool) Mode() types.PoolMode {
	return p.mode
}

// IsRunning checks if the pool is running
func (p *Pool) IsRunning() bool {
	return atomic.LoadInt32(&p.state) == poolStateRunning
}

// WorkerCount returns the exact number of live workers
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IdleWorkers returns the advisory idle-worker count. It may trail the
// exact worker states during handoffs.
func (p *Pool) IdleWorkers() int {
	return int(atomic.LoadInt32(&p.idleWorkers))
}

// MaxWorkers returns the cached-mode worker ceiling
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}

// MaxIdleTime returns the cached-mode idle retirement threshold
func (p *Pool) MaxIdleTime() time.Duration {
	return p.maxIdleTime
}

// SubmitWait returns how long Submit blocks on a full queue
func (p *Pool) SubmitWait() time.Duration {
	return p.submitWait
}

// QueueCapacity returns the queue bound
func (p *Pool) QueueCapacity() int {
	return p.queue.capacity()
}

// PendingTasks returns the exact number of queued tasks
func (p *Pool) PendingTasks() int {
	return p.queue.length()
}

// Stats returns a point-in-time statistics snapshot. Worker and queue
// counts are exact; the idle count comes from the advisory atomic
// counter and may trail during handoffs.
func (p *Pool) Stats() types.PoolStats {
	return types.PoolStats{
		Workers:       p.WorkerCount(),
		IdleWorkers:   p.IdleWorkers(),
		PendingTasks:  p.queue.length(),
		QueueCapacity: p.queue.capacity(),
		Submitted:     atomic.LoadInt64(&p.submitted),
		Rejected:      atomic.LoadInt64(&p.rejected),
		Completed:     atomic.LoadInt64(&p.completed),
		Failed:        atomic.LoadInt64(&p.failed),
	}
}
