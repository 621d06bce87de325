package threadpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/threadsmith/gothreadpool/pkg/types"
)

// Future is the one-shot result cell for a submitted task. It resolves
// exactly once; later resolution attempts are ignored. A rejected
// submission returns a future already failed with the rejection error.
type Future[R any] struct {
	done chan struct{}
	once sync.Once

	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// complete resolves the future with a value
func (f *Future[R]) complete(v R) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

// fail resolves the future with an error, leaving the zero value in place
func (f *Future[R]) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await blocks until the future resolves or ctx is done. On
// cancellation it returns the zero value and ctx.Err(); the task keeps
// running and the future may still resolve for other waiters.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the future resolves
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Completed reports whether the future has resolved, without blocking
func (f *Future[R]) Completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Submit hands fn to the pool and returns a Future for its eventual
// result. Rejections are reported twice over so neither calling style
// misses them: the error return is non-nil and the future comes back
// already failed with the same error.
//
// fn runs on a pool worker. A panic inside fn is recovered and
// surfaces as a *types.PanicError through the future.
func Submit[R any](p *Pool, fn func() (R, error)) (*Future[R], error) {
	fut := newFuture[R]()

	if fn == nil {
		err := types.NewPoolError("submit", types.ErrNilTask)
		p.taskRejected()
		fut.fail(err)
		return fut, err
	}

	task := func() {
		p.taskStarted()
		start := p.clock.Now()
		v, err := runTask(fn)
		// statistics settle before the future resolves, so a waiter
		// that observes completion sees its task counted
		p.taskDone(p.clock.Since(start), err)
		if err != nil {
			fut.fail(err)
			return
		}
		fut.complete(v)
	}

	if err := p.enqueue(task); err != nil {
		poolErr := types.NewPoolError("submit", err)
		p.taskRejected()
		fut.fail(poolErr)
		return fut, poolErr
	}

	p.taskSubmitted()
	return fut, nil
}

// runTask executes fn with panic recovery
func runTask[R any](fn func() (R, error)) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			err = types.NewPanicError(r, buf[:n])
		}
	}()

	return fn()
}
