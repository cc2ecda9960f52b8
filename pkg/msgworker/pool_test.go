package msgworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, workers, queue int) *Pool {
	t.Helper()
	pool := NewPool(workers, queue, time.Second)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	return pool
}

func TestPool_DispatchDoesNotBlock(t *testing.T) {
	pool := startPool(t, 2, 10)
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	ok := pool.TryDispatch(Job{PhoneNumberID: "100", Contact: "5511999", Handler: func(ctx context.Context) error {
		<-release
		return nil
	}})

	assert.True(t, ok)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPool_SameContactRunsInOrder(t *testing.T) {
	pool := startPool(t, 4, 100)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		val := i
		wg.Add(1)
		require.True(t, pool.TryDispatch(Job{PhoneNumberID: "100", Contact: "5511999", Handler: func(ctx context.Context) error {
			defer wg.Done()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			got = append(got, val)
			mu.Unlock()
			return nil
		}}))
	}
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestPool_NeverExceedsWorkers(t *testing.T) {
	const workers = 3
	pool := startPool(t, workers, 100)

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		pool.TryDispatch(Job{PhoneNumberID: "100", Contact: fmt.Sprintf("55119%04d", i), Handler: func(ctx context.Context) error {
			defer wg.Done()
			cur := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if cur <= m || atomic.CompareAndSwapInt32(&maxActive, m, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		}})
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxActive), int32(workers))
}

func TestPool_StopDrainsQueuedJobs(t *testing.T) {
	pool := NewPool(2, 10, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	var completed int32
	for i := 0; i < 6; i++ {
		pool.TryDispatch(Job{PhoneNumberID: "100", Contact: fmt.Sprint(i), Handler: func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			atomic.AddInt32(&completed, 1)
			return nil
		}})
	}

	cancel()
	pool.Stop()

	assert.Equal(t, int32(6), atomic.LoadInt32(&completed), "queued jobs finish with a live context")
	assert.False(t, pool.TryDispatch(Job{Handler: func(ctx context.Context) error { return nil }}))
	assert.Equal(t, int64(1), pool.Stats().TotalDropped)
}

func TestPool_QueueFullDrops(t *testing.T) {
	pool := startPool(t, 1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	block := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	require.True(t, pool.TryDispatch(Job{Contact: "a", Handler: block}))
	<-started
	require.True(t, pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error { return nil }}))

	assert.False(t, pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error { return nil }}))
	close(release)

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.TotalDispatched)
	assert.Equal(t, int64(1), stats.TotalDropped)
}

func TestPool_ErrorsAndPanicsAreCounted(t *testing.T) {
	pool := startPool(t, 1, 10)

	done := make(chan struct{})
	pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error { return errors.New("boom") }})
	pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error { panic("bad handler") }})
	pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}

	assert.Eventually(t, func() bool { return pool.Stats().TotalProcessed == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), pool.Stats().TotalErrors)
}

func TestPool_JobTimeout(t *testing.T) {
	pool := NewPool(1, 1, 20*time.Millisecond)
	pool.Start(context.Background())
	defer pool.Stop()

	errCh := make(chan error, 1)
	pool.TryDispatch(Job{Contact: "a", Handler: func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}})

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job context never expired")
	}
}

func TestPool_ShardingIsStable(t *testing.T) {
	pool := NewPool(4, 10, 0)

	key := Job{PhoneNumberID: "100", Contact: "5511999"}.key()
	first := pool.shardFor(key)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, pool.shardFor(key))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 4)

	counts := make(map[int]int)
	for i := 0; i < 400; i++ {
		counts[pool.shardFor(fmt.Sprintf("100|55119%05d", i))]++
	}
	for shard, n := range counts {
		assert.Greater(t, n, 40, "shard %d", shard)
		assert.Less(t, n, 160, "shard %d", shard)
	}
}

func TestPool_Defaults(t *testing.T) {
	pool := NewPool(0, 0, 0)
	stats := pool.Stats()
	assert.Equal(t, DefaultWorkers, stats.NumWorkers)
	assert.Equal(t, DefaultQueueSize, stats.QueueSize)
	assert.Empty(t, stats.Uptime)
	assert.Len(t, stats.WorkerStats, DefaultWorkers)
}
