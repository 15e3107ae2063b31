package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/spikeclust/internal/types"
)

// ErrQueueStopped is reported for jobs that were queued when the queue stopped.
var ErrQueueStopped = errors.New("queue stopped")

// Queue manages per-session lanes with a global concurrency semaphore.
// Each session gets its own FIFO channel (lane) so that jobs within a
// session are processed sequentially, while the semaphore limits the
// total number of concurrent job processors across all sessions.
type Queue struct {
	lanes     map[types.SessionID]chan *Job
	semaphore *semaphore.Weighted
	processor func(*Job) error
	active    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// NewQueue creates a Queue that allows up to maxConcurrent jobs to execute
// simultaneously across all session lanes.
func NewQueue(maxConcurrent int64) *Queue {
	return &Queue{
		lanes:     make(map[types.SessionID]chan *Job),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for in-flight
// processors to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	for id, lane := range q.lanes {
		close(lane)
		delete(q.lanes, id)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue adds a Job to the session's lane, creating the lane (and its
// goroutine) on first use. Returns an error if the lane's buffer is full.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx == nil || q.ctx.Err() != nil {
		return ErrQueueStopped
	}

	lane, exists := q.lanes[job.SessionID]
	if !exists {
		lane = make(chan *Job, 100)
		q.lanes[job.SessionID] = lane
		q.wg.Add(1)
		go q.processLane(job.SessionID, lane)
	}

	select {
	case lane <- job:
		return nil
	default:
		return fmt.Errorf("queue full for session %s", job.SessionID)
	}
}

// Remove closes the lane of a session. Jobs already queued still run.
func (q *Queue) Remove(sessionID types.SessionID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if lane, ok := q.lanes[sessionID]; ok {
		close(lane)
		delete(q.lanes, sessionID)
	}
}

// processLane drains a single session lane, acquiring a semaphore slot
// before running the processor synchronously. This ensures strict FIFO
// ordering within a session while the semaphore limits cross-session
// parallelism.
func (q *Queue) processLane(sessionID types.SessionID, lane chan *Job) {
	defer q.wg.Done()
	for {
		select {
		case job, ok := <-lane:
			if !ok {
				return
			}
			if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
				job.finish(ErrQueueStopped)
				drain(lane)
				return
			}
			q.active.Add(1)
			job.Status = JobStatusRunning
			var err error
			if q.processor != nil {
				err = q.processor(job)
			}
			if err != nil {
				slog.Debug("job failed", "session_id", string(sessionID), "error", err)
			}
			job.finish(err)
			q.active.Add(-1)
			q.semaphore.Release(1)
		case <-q.ctx.Done():
			drain(lane)
			return
		}
	}
}

// drain abandons the jobs left in a lane without blocking on it.
func drain(lane chan *Job) {
	for {
		select {
		case job, ok := <-lane:
			if !ok {
				return
			}
			job.finish(ErrQueueStopped)
		default:
			return
		}
	}
}

// WaitIdle blocks until no jobs are actively being processed, or the timeout
// expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// SetProcessor sets the function invoked for each dequeued Job.
func (q *Queue) SetProcessor(fn func(*Job) error) {
	q.processor = fn
}
