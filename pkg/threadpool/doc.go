/*
Package threadpool provides a bounded-queue worker pool with fixed and
cached sizing modes, generic result futures and Prometheus metrics.

# Overview

A Pool owns a bounded FIFO task queue and a set of worker goroutines
draining it. Two sizing modes are supported:

  - Fixed: the worker count given to Start stays constant for the life
    of the pool
  - Cached: the pool grows by at most one worker per submission while
    queued demand outruns the idle set, up to a ceiling, and retires
    workers that sit idle past a threshold, never below the start count

# Submission and Futures

Submit is generic over the task's result type and returns a Future:

	fut, err := threadpool.Submit(pool, func() (int, error) {
		return compute(), nil
	})
	if err != nil {
		// rejected: queue full after the wait window, or pool not running
	}
	v, err := fut.Await(ctx)

When the queue is full, Submit blocks for a configurable window
(default one second) waiting for a slot, then rejects. A rejected
submission reports its error both through Submit's error return and
through the already-failed Future, so neither calling style can miss
it.

# Backpressure and Draining

The queue bound plus the submit wait give natural backpressure:
producers slow to the pace of the workers instead of growing memory
without limit. Shutdown closes admissions, drains every previously
accepted task and waits for all workers to exit, so no accepted task
is ever dropped.

# Configuration

A pool is configured between New and Start:

	pool := threadpool.New()
	pool.SetMode(types.ModeCached)
	pool.SetMaxWorkerCount(64)
	pool.SetMaxIdleTime(30 * time.Second)
	pool.SetMaxQueueSize(1024)
	if err := pool.Start(8); err != nil {
		log.Fatal(err)
	}
	defer pool.Shutdown()

Setters called after Start are silently ignored; the running
configuration is frozen. Start with a count of zero or less uses
runtime.NumCPU().

# Error Handling

Task errors and recovered panics surface through the Future. A panic
inside a task never kills its worker; it is captured with its stack as
a *types.PanicError. An optional ErrorHandler registered before Start
observes every task failure centrally.

# Observability

NewMetrics registers counters for submissions, rejections, completions
and failures, gauges for workers, idle workers and queue depth, and a
task-duration histogram. Stats returns a point-in-time snapshot; its
worker and queue counts are exact while the idle count is advisory.

# Time

Every timed wait goes through a clock interface. NewWithClock accepts
a mock so tests can drive submit timeouts and idle retirement without
real sleeps.
*/
package threadpool
