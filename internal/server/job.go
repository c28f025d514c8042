package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icefall/anneal/internal/config"
)

// JobState is the lifecycle state of an annealing job.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Job is one annealing run tracked by the server.
type Job struct {
	ID            string           `json:"id"`
	State         JobState         `json:"state"`
	Config        config.RunConfig `json:"config"`
	BestVector    []float64        `json:"bestVector,omitempty"`
	BestEnergy    float64          `json:"bestEnergy"`
	InitialEnergy float64          `json:"initialEnergy"`
	Iteration     int              `json:"iteration"`
	Accepted      int              `json:"accepted"`
	Reason        string           `json:"reason,omitempty"`
	StartTime     time.Time        `json:"startTime"`
	EndTime       *time.Time       `json:"endTime,omitempty"`
	Error         string           `json:"error,omitempty"`

	// resumeVector, when set, seeds the run from a checkpointed best state
	// instead of a random initial state.
	resumeVector []float64
}

// JobManager tracks jobs and fans progress out to SSE subscribers.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job. With resumeVector set the worker seeds
// the run from that encoded state.
func (jm *JobManager) CreateJob(cfg config.RunConfig, resumeVector []float64) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:           uuid.New().String(),
		State:        StatePending,
		Config:       cfg,
		StartTime:    time.Now(),
		resumeVector: resumeVector,
	}
	jm.jobs[job.ID] = job
	return job
}

// GetJob returns a snapshot of the job, safe to read without further locking.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, ok := jm.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all known jobs.
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// UpdateJob applies fn to the job under the manager lock.
func (jm *JobManager) UpdateJob(id string, fn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, ok := jm.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	fn(job)
	return nil
}
