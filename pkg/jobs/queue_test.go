package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int64
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	defer func() {
		cancel()
		queue.Stop()
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, queue.Enqueue(Job{ID: "job", Type: "noop"}))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 5
	}, time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int64
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	defer func() {
		cancel()
		queue.Stop()
	}()

	require.NoError(t, queue.Enqueue(Job{ID: "job", Type: "flaky"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestQueueDropsJobAfterMaxRetries(t *testing.T) {
	var attempts int64
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&attempts, 1)
		return errors.New("permanent")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	defer func() {
		cancel()
		queue.Stop()
	}()

	require.NoError(t, queue.Enqueue(Job{ID: "job", Type: "broken"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 3
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := queue.Enqueue(Job{ID: "job"})
	require.Error(t, err)
}
