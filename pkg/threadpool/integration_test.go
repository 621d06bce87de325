package threadpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadsmith/gothreadpool/pkg/types"
)

func TestIntegration_FutureComposition(t *testing.T) {
	pool := New()
	require.NoError(t, pool.Start(2))
	defer pool.Shutdown()

	ctx := context.Background()

	sum, err := Submit(pool, func() (int, error) { return 1 + 2, nil })
	require.NoError(t, err)

	v, err := sum.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	// feed the first result into a second task
	total, err := Submit(pool, func() (int, error) { return v + 3, nil })
	require.NoError(t, err)

	v, err = total.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestIntegration_ParallelExecution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-sensitive test in short mode")
	}

	pool := New()
	require.NoError(t, pool.Start(2))
	defer pool.Shutdown()

	const d = 200 * time.Millisecond

	start := time.Now()
	var futs []*Future[int]
	for i := 1; i <= 3; i++ {
		i := i
		fut, err := Submit(pool, func() (int, error) {
			time.Sleep(d)
			return i, nil
		})
		require.NoError(t, err)
		futs = append(futs, fut)
	}

	sum := 0
	for _, fut := range futs {
		v, err := fut.Await(context.Background())
		require.NoError(t, err)
		sum += v
	}
	elapsed := time.Since(start)

	assert.Equal(t, 6, sum)

	// three tasks on two workers take two batches, not three
	assert.GreaterOrEqual(t, elapsed, 2*d-10*time.Millisecond)
	assert.Less(t, elapsed, 3*d-20*time.Millisecond)
}

func TestIntegration_CachedLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow test in short mode")
	}

	pool := New()
	pool.SetMode(types.ModeCached)
	pool.SetMaxWorkerCount(8)
	pool.SetMaxIdleTime(10 * time.Millisecond)
	require.NoError(t, pool.Start(1))

	require.Eventually(t, func() bool {
		return pool.IdleWorkers() == 1
	}, time.Second, time.Millisecond)

	// load the pool hard enough to grow it
	release := make(chan struct{})
	var futs []*Future[int]
	for i := 0; i < 4; i++ {
		fut, err := Submit(pool, func() (int, error) {
			<-release
			return 1, nil
		})
		require.NoError(t, err)
		futs = append(futs, fut)

		require.Eventually(t, func() bool {
			return pool.IdleWorkers() == 0 && pool.PendingTasks() == 0
		}, time.Second, time.Millisecond)
	}
	require.Equal(t, 4, pool.WorkerCount())

	close(release)
	for _, fut := range futs {
		_, err := fut.Await(context.Background())
		require.NoError(t, err)
	}

	// idle workers retire at their next poll, back down to the floor
	require.Eventually(t, func() bool {
		return pool.WorkerCount() == 1
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, pool.Shutdown())
	assert.Equal(t, 0, pool.WorkerCount())
}

func TestIntegration_HighThroughput(t *testing.T) {
	pool := New()
	require.NoError(t, pool.Start(8))
	defer pool.Shutdown()

	const taskCount = 500
	var executed int64
	var futs []*Future[int]

	for i := 0; i < taskCount; i++ {
		fut, err := Submit(pool, func() (int, error) {
			atomic.AddInt64(&executed, 1)
			return 1, nil
		})
		require.NoError(t, err)
		futs = append(futs, fut)
	}

	for _, fut := range futs {
		_, err := fut.Await(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int64(taskCount), atomic.LoadInt64(&executed))

	stats := pool.Stats()
	assert.Equal(t, int64(taskCount), stats.Submitted)
	assert.Equal(t, int64(taskCount), stats.Completed)
	assert.Equal(t, 0, stats.PendingTasks)
	assert.Equal(t, float64(1), stats.SuccessRate())
}

func TestIntegration_ShutdownUnderLoad(t *testing.T) {
	pool := New()
	require.NoError(t, pool.Start(4))

	const producers = 4

	var mu sync.Mutex
	var accepted []*Future[int]

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				fut, err := Submit(pool, func() (int, error) {
					return 1, nil
				})
				if err != nil {
					// the pool stopped; every later attempt fails too
					assert.ErrorIs(t, err, types.ErrPoolStopped)
					return
				}
				mu.Lock()
				accepted = append(accepted, fut)
				mu.Unlock()
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, pool.Shutdown())
	wg.Wait()

	// everything accepted before the stop ran to completion
	for _, fut := range accepted {
		require.True(t, fut.Completed())
		_, err := fut.Await(context.Background())
		require.NoError(t, err)
	}

	stats := pool.Stats()
	assert.Equal(t, int64(len(accepted)), stats.Submitted)
	assert.Equal(t, int64(len(accepted)), stats.Completed)
	assert.Equal(t, 0, pool.WorkerCount())
}
