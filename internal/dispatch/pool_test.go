package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitSerializesPerKey(t *testing.T) {
	pool, err := NewPool(4, 16, nil)
	require.NoError(t, err)

	ctx := context.Background()
	var mu sync.Mutex
	order := []int{}

	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, pool.Submit(ctx, "order-1001", func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	pool.Close()

	require.Len(t, order, 20)
	for i, got := range order {
		assert.Equal(t, i, got, "same-key tasks must run in submission order")
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	pool, err := NewPool(2, 4, nil)
	require.NoError(t, err)
	pool.Close()

	err = pool.Submit(context.Background(), "order-1", func(context.Context) {})
	require.Error(t, err)
}

func TestSubmitHonorsContextWhenQueueFull(t *testing.T) {
	pool, err := NewPool(1, 1, nil)
	require.NoError(t, err)
	defer pool.Close()

	block := make(chan struct{})
	ctx := context.Background()

	// Occupy the single worker, then fill its queue.
	require.NoError(t, pool.Submit(ctx, "k", func(context.Context) { <-block }))
	require.NoError(t, pool.Submit(ctx, "k", func(context.Context) {}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = pool.Submit(cancelled, "k", func(context.Context) {})
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
}

func TestCloseWaitsForBlockedSubmit(t *testing.T) {
	pool, err := NewPool(1, 1, nil)
	require.NoError(t, err)

	gate := make(chan struct{})
	var ran atomic.Bool
	ctx := context.Background()

	// Occupy the single worker, then fill its queue.
	require.NoError(t, pool.Submit(ctx, "k", func(context.Context) { <-gate }))
	require.NoError(t, pool.Submit(ctx, "k", func(context.Context) {}))

	submitDone := make(chan error, 1)
	go func() {
		submitDone <- pool.Submit(ctx, "k", func(context.Context) { ran.Store(true) })
	}()
	time.Sleep(50 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		pool.Close()
		close(closeDone)
	}()
	time.Sleep(50 * time.Millisecond)

	close(gate)

	require.NoError(t, <-submitDone)
	<-closeDone
	assert.True(t, ran.Load(), "task queued before Close must still run")
}

func TestKeyedRoutingIsStable(t *testing.T) {
	pool, err := NewPool(8, 4, nil)
	require.NoError(t, err)
	defer pool.Close()

	first := pool.workerIndex("order-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, pool.workerIndex("order-42"))
	}
}

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool(0, 4, nil)
	require.Error(t, err)
	_, err = NewPool(4, 0, nil)
	require.Error(t, err)
}
