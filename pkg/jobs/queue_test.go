package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	attempts map[string]int
	done     chan string
}

func newRecorder() *recorder {
	return &recorder{attempts: make(map[string]int), done: make(chan string, 16)}
}

func (r *recorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[id]
}

func TestQueueProcessesJobs(t *testing.T) {
	rec := newRecorder()
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		rec.mu.Lock()
		rec.attempts[job.ID]++
		rec.mu.Unlock()
		rec.done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "a", Type: "test"}))
	require.NoError(t, queue.Enqueue(Job{ID: "b", Type: "test"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-rec.done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	require.True(t, seen["a"])
	require.True(t, seen["b"])
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	rec := newRecorder()
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		rec.mu.Lock()
		rec.attempts[job.ID]++
		attempts := rec.attempts[job.ID]
		rec.mu.Unlock()
		if attempts < 2 {
			return errors.New("transient failure")
		}
		rec.done <- job.ID
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "flaky", Type: "test"}))

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("retry never succeeded")
	}
	require.Equal(t, 2, rec.count("flaky"))
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := queue.Enqueue(Job{ID: "early"})
	require.Error(t, err)
}

func TestQueueStopDrainsWorkers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	queue := NewQueue("test", func(ctx context.Context, job Job) error {
		close(started)
		<-release
		return nil
	}, QueueConfig{Workers: 1})

	queue.Start(context.Background())
	require.NoError(t, queue.Enqueue(Job{ID: "slow"}))
	<-started

	stopped := make(chan struct{})
	go func() {
		queue.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("queue stopped before the in-flight job finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("queue never stopped")
	}
}
