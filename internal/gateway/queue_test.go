package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/types"
)

func TestQueueConcurrency(t *testing.T) {
	queue := NewQueue(2)
	ctx := context.Background()
	queue.Start(ctx)
	defer queue.Stop()

	var running int32
	var maxSeen int32

	queue.processor = func(job *Job) error {
		current := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if current <= old || atomic.CompareAndSwapInt32(&maxSeen, old, current) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}

	var jobs []*Job
	for i := 0; i < 5; i++ {
		job := NewJob(types.SessionID(fmt.Sprintf("session-%d", i)), nil)
		if err := queue.Enqueue(job); err != nil {
			t.Fatal(err)
		}
		jobs = append(jobs, job)
	}

	for _, job := range jobs {
		select {
		case <-job.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("job did not finish")
		}
		if job.Status != JobStatusComplete {
			t.Errorf("expected complete, got %s", job.Status)
		}
	}

	if m := atomic.LoadInt32(&maxSeen); m > 2 {
		t.Errorf("expected max 2 concurrent, saw %d", m)
	}
}

func TestQueueFIFOWithinSession(t *testing.T) {
	queue := NewQueue(4)
	queue.Start(context.Background())
	defer queue.Stop()

	var order []int
	queue.SetProcessor(func(job *Job) error {
		return job.Fn(nil)
	})

	var last *Job
	for i := 0; i < 10; i++ {
		i := i
		last = NewJob("same", func(*session.Session) error {
			order = append(order, i)
			return nil
		})
		if err := queue.Enqueue(last); err != nil {
			t.Fatal(err)
		}
	}
	<-last.Done()

	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestQueueFailedJob(t *testing.T) {
	queue := NewQueue(1)
	queue.Start(context.Background())
	defer queue.Stop()

	boom := errors.New("boom")
	queue.SetProcessor(func(*Job) error { return boom })

	job := NewJob("s", nil)
	if err := queue.Enqueue(job); err != nil {
		t.Fatal(err)
	}
	<-job.Done()
	if job.Status != JobStatusFailed || !errors.Is(job.Error, boom) {
		t.Errorf("expected failed job with boom, got %s %v", job.Status, job.Error)
	}
	if !queue.WaitIdle(time.Second) {
		t.Error("expected queue to become idle")
	}
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	queue := NewQueue(1)
	queue.Start(context.Background())
	queue.Stop()

	if err := queue.Enqueue(NewJob("s", nil)); !errors.Is(err, ErrQueueStopped) {
		t.Errorf("expected ErrQueueStopped, got %v", err)
	}
}
