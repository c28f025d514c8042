// Package store persists annealing run state: JSON checkpoints that resume
// can restart from, and JSONL traces of per-iteration progress.
package store

// Store is the checkpoint persistence interface. Implementations must be
// safe for concurrent use.
//
// Conventions: Load and Delete return ErrNotFound for missing checkpoints;
// I/O and serialization failures are wrapped with context via %w.
type Store interface {
	// SaveCheckpoint atomically saves a checkpoint, overwriting any previous
	// one for the same job.
	SaveCheckpoint(jobID string, checkpoint *Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for the given job.
	LoadCheckpoint(jobID string) (*Checkpoint, error)

	// ListCheckpoints returns metadata for all available checkpoints.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint and all associated artifacts
	// (checkpoint.json and trace.jsonl) for the given job.
	DeleteCheckpoint(jobID string) error
}

// ErrNotFound is matched by errors.Is for any missing-checkpoint error.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports a missing checkpoint.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "checkpoint not found: " + e.JobID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
