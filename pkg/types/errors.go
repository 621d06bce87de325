// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrPoolRunning indicates the pool has already been started
	ErrPoolRunning = errors.New("pool is already running")

	// ErrPoolNotRunning indicates the pool has not been started yet
	ErrPoolNotRunning = errors.New("pool is not running")

	// ErrPoolStopped indicates the pool has been shut down
	ErrPoolStopped = errors.New("pool is stopped")

	// ErrQueueFull indicates the task queue stayed full for the whole submit wait
	ErrQueueFull = errors.New("task queue is full")

	// ErrInvalidWorkerCount indicates a worker count outside the configured bounds
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrNilTask indicates a nil task function was submitted
	ErrNilTask = errors.New("task function is nil")
)

// PoolError represents an error in pool processing
type PoolError struct {
	// Op is the name of the operation where the error occurred
	Op string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PoolError) Error() string {
	return fmt.Sprintf("pool error in operation %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error
func (e *PoolError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *PoolError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewPoolError creates a new pool error
func NewPoolError(op string, cause error) *PoolError {
	return &PoolError{
		Op:      op,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *PoolError) WithContext(key string, value interface{}) *PoolError {
	e.Context[key] = value
	return e
}

// PanicError captures a panic raised inside a task body. The panic never
// reaches the worker loop; it resolves the task's own future instead.
type PanicError struct {
	// Value is the value the task panicked with
	Value interface{}

	// Stack is the goroutine stack captured at recovery time
	Stack []byte
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicError creates a new panic error
func NewPanicError(value interface{}, stack []byte) *PanicError {
	return &PanicError{
		Value: value,
		Stack: stack,
	}
}
