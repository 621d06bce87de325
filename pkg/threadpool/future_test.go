package threadpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_CompleteOnce(t *testing.T) {
	fut := newFuture[int]()
	assert.False(t, fut.Completed())

	fut.complete(42)
	require.True(t, fut.Completed())

	// later resolutions are ignored
	fut.complete(99)
	fut.fail(errors.New("too late"))

	v, err := fut.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFuture_FailKeepsZeroValue(t *testing.T) {
	fut := newFuture[string]()
	failure := errors.New("task failed")

	fut.fail(failure)
	fut.complete("ignored")

	v, err := fut.Await(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, "", v)
}

func TestFuture_AwaitContextCancel(t *testing.T) {
	fut := newFuture[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := fut.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, v)

	// the future itself is untouched by an abandoned wait
	assert.False(t, fut.Completed())
	fut.complete(7)

	v, err = fut.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFuture_DoneChannel(t *testing.T) {
	fut := newFuture[int]()

	select {
	case <-fut.Done():
		t.Fatal("done channel closed before resolution")
	default:
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		fut.complete(1)
	}()

	select {
	case <-fut.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel never closed")
	}
	assert.True(t, fut.Completed())
}

func TestFuture_ManyWaiters(t *testing.T) {
	fut := newFuture[int]()

	results := make(chan int, 10)
	for i := 0; i < 10; i++ {
		go func() {
			v, err := fut.Await(context.Background())
			if err == nil {
				results <- v
			}
		}()
	}

	fut.complete(5)

	for i := 0; i < 10; i++ {
		select {
		case v := <-results:
			assert.Equal(t, 5, v)
		case <-time.After(time.Second):
			t.Fatal("waiter did not observe resolution")
		}
	}
}
