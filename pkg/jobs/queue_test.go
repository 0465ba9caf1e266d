package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{}, 2)

	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "a", Type: "work"}))
	require.NoError(t, queue.Enqueue(Job{ID: "b", Type: "work"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen["a"])
	assert.Equal(t, 1, seen["b"])
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	queue := NewQueue("retry", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		current := attempts
		mu.Unlock()
		if current < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "flaky", Type: "work"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to success")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := queue.Enqueue(Job{ID: "early"})
	require.Error(t, err)
}

func TestQueueStopDrainsWorkers(t *testing.T) {
	queue := NewQueue("stop", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{Workers: 3})

	queue.Start(context.Background())
	queue.Stop()

	// Enqueue after stop fails rather than blocking forever.
	err := queue.Enqueue(Job{ID: "late"})
	require.Error(t, err)
}
