// Package batch runs one independent report job per input workbook for the
// cleaner command, a bounded number at a time.
package batch

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one input file processed as one independent report run.
type Job struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Input       string     `json:"input"`
	Status      JobStatus  `json:"status"`
	RunID       string     `json:"run_id,omitempty"`
	Outputs     []string   `json:"outputs,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newJob(kind, input string) *Job {
	return &Job{
		ID:     uuid.NewString(),
		Kind:   kind,
		Input:  input,
		Status: JobStatusPending,
	}
}

func (j *Job) start(at time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &at
}

func (j *Job) finish(at time.Time, err error) {
	j.CompletedAt = &at
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusCompleted
}

// Duration is the wall time of a finished job.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
