package gateway

import (
	"time"

	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/types"
)

// JobStatus represents the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Job is one unit of work against a hosted session.
type Job struct {
	SessionID types.SessionID
	Session   *session.Session
	Fn        func(*session.Session) error
	Status    JobStatus
	CreatedAt time.Time
	Error     error

	done chan struct{}
}

// NewJob creates a Job in the Queued state.
func NewJob(sessionID types.SessionID, fn func(*session.Session) error) *Job {
	return &Job{
		SessionID: sessionID,
		Fn:        fn,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Done is closed once the job has run or been abandoned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) finish(err error) {
	j.Error = err
	if err != nil {
		j.Status = JobStatusFailed
	} else {
		j.Status = JobStatusComplete
	}
	close(j.done)
}
