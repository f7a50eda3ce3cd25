package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job status values.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Job is an async operation (bulk system deletion) whose progress is
// streamed to the console.
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"` // "systems-delete"
	Subject    string     `json:"subject"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Total      int        `json:"total"`
	Done       int        `json:"done"`
	Output     []string   `json:"output"`
	mu         sync.Mutex
	cancel     context.CancelFunc
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// Advance records n more finished items.
func (j *Job) Advance(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Done += n
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status != JobRunning
}

// Snapshot returns a copy safe to encode while the job is running.
func (j *Job) Snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := &Job{
		ID:         j.ID,
		Type:       j.Type,
		Subject:    j.Subject,
		Status:     j.Status,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Error:      j.Error,
		Total:      j.Total,
		Done:       j.Done,
		Output:     make([]string, len(j.Output)),
	}
	copy(out.Output, j.Output)
	return out
}

// Context derives the context the job's work runs under; Cancel stops it.
func (j *Job) Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()
	return ctx
}

// Cancel stops a running job. It reports false when the job had already
// finished.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobRunning {
		return false
	}
	if j.cancel != nil {
		j.cancel()
	}
	j.Status = JobCancelled
	now := time.Now()
	j.FinishedAt = &now
	return true
}

// Complete marks the job as completed. A cancelled job keeps its status.
func (j *Job) Complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status == JobCancelled {
		return
	}
	j.Status = JobCompleted
	now := time.Now()
	j.FinishedAt = &now
}

// Fail marks the job as failed with an error message.
func (j *Job) Fail(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status == JobCancelled {
		return
	}
	j.Status = JobFailed
	j.Error = err
	now := time.Now()
	j.FinishedAt = &now
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new running job, assigning it a UUID.
func (s *JobStore) Create(jobType, subject string, total int) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Subject:   subject,
		Status:    JobRunning,
		StartedAt: time.Now(),
		Total:     total,
		Output:    []string{},
	}
	s.jobs[j.ID] = j
	return j
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].StartedAt.After(result[b].StartedAt)
	})
	return result
}
