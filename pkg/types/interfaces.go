// Package types defines core interfaces and types for the thread pool library
package types

import (
	"fmt"
	"strings"
)

// PoolMode selects the worker-count policy of a pool.
type PoolMode int32

const (
	// ModeFixed keeps the worker count at the value given to Start
	ModeFixed PoolMode = iota
	// ModeCached grows the worker count under load up to a ceiling and
	// retires workers idle beyond a timeout, never below the start count
	ModeCached
)

// String returns the string representation of PoolMode
func (m PoolMode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeCached:
		return "cached"
	default:
		return "unknown"
	}
}

// ParsePoolMode parses a mode name, case-insensitively
func ParsePoolMode(s string) (PoolMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return ModeFixed, nil
	case "cached":
		return ModeCached, nil
	default:
		return ModeFixed, fmt.Errorf("unknown pool mode %q", s)
	}
}

// Pool defines the lifecycle surface of a worker pool
type Pool interface {
	// Start creates and launches the initial worker set
	Start(workers int) error

	// Shutdown drains accepted tasks and waits for every worker to exit
	Shutdown() error

	// IsRunning checks if the pool is running
	IsRunning() bool

	// Mode returns the worker-count policy
	Mode() PoolMode

	// Stats returns pool statistics
	Stats() PoolStats
}

// ErrorHandler defines an error handling function invoked for task failures
type ErrorHandler func(error) error

// PoolStats defines a point-in-time statistics snapshot for a pool.
// Workers and QueueCapacity are exact; IdleWorkers and PendingTasks come
// from advisory atomic counters and may trail the locked queue state.
type PoolStats struct {
	// Workers is the current number of live workers
	Workers int

	// IdleWorkers is the number of workers currently waiting for a task
	IdleWorkers int

	// PendingTasks is the current number of queued tasks
	PendingTasks int

	// QueueCapacity is the maximum queue length
	QueueCapacity int

	// Submitted is the cumulative count of accepted submissions
	Submitted int64

	// Rejected is the cumulative count of rejected submissions
	Rejected int64

	// Completed is the cumulative count of tasks that finished without error
	Completed int64

	// Failed is the cumulative count of tasks that returned an error or panicked
	Failed int64
}

// SuccessRate gets the fraction of finished tasks that completed without error
func (s PoolStats) SuccessRate() float64 {
	total := s.Completed + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total)
}

// Busy gets the number of workers currently executing a task
func (s PoolStats) Busy() int {
	busy := s.Workers - s.IdleWorkers
	if busy < 0 {
		return 0
	}
	return busy
}
