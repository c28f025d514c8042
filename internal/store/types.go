package store

import (
	"fmt"
	"time"

	"github.com/icefall/anneal/internal/config"
)

// Checkpoint is a resumable snapshot of an annealing job.
//
// What is saved is the encoded best state vector plus enough configuration to
// rebuild the same problem instance. The engine's live loop state (current
// state, generator position) is deliberately not saved: resuming constructs a
// fresh annealer seeded from the best vector, so a resumed run diverges from
// an uninterrupted one but its best energy can never regress. Saving the
// generator position would tie the format to engine internals for little
// gain.
type Checkpoint struct {
	// JobID identifies the job this snapshot belongs to.
	JobID string `json:"jobId"`

	// BestVector is the problem-encoded best state found so far.
	BestVector []float64 `json:"bestVector"`

	// BestEnergy is the energy achieved by BestVector.
	BestEnergy float64 `json:"bestEnergy"`

	// InitialEnergy is the starting energy, kept for improvement tracking.
	InitialEnergy float64 `json:"initialEnergy"`

	// Iteration is the loop index at snapshot time.
	Iteration int `json:"iteration"`

	// Timestamp records when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`

	// Config is the job configuration. Problem, size and seed together name
	// the exact instance, so resume validates against them.
	Config config.RunConfig `json:"config"`
}

// CheckpointInfo is checkpoint metadata without the state vector, for
// efficient listings.
type CheckpointInfo struct {
	JobID      string    `json:"jobId"`
	BestEnergy float64   `json:"bestEnergy"`
	Iteration  int       `json:"iteration"`
	Timestamp  time.Time `json:"timestamp"`
	Problem    string    `json:"problem"`
	Size       int       `json:"size"`
}

// NewCheckpoint converts runtime job state to a persistable snapshot.
func NewCheckpoint(jobID string, bestVector []float64, bestEnergy, initialEnergy float64, iteration int, cfg config.RunConfig) *Checkpoint {
	return &Checkpoint{
		JobID:         jobID,
		BestVector:    bestVector,
		BestEnergy:    bestEnergy,
		InitialEnergy: initialEnergy,
		Iteration:     iteration,
		Timestamp:     time.Now(),
		Config:        cfg,
	}
}

// ToInfo strips the checkpoint down to listing metadata.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:      c.JobID,
		BestEnergy: c.BestEnergy,
		Iteration:  c.Iteration,
		Timestamp:  c.Timestamp,
		Problem:    c.Config.Problem,
		Size:       c.Config.Size,
	}
}

// Validate checks that the checkpoint holds a usable snapshot.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestVector) == 0 {
		return &ValidationError{Field: "BestVector", Reason: "cannot be empty"}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if c.Config.Size <= 0 {
		return &ValidationError{Field: "Config.Size", Reason: "must be positive"}
	}
	if c.Config.MaxIters < 0 {
		return &ValidationError{Field: "Config.MaxIters", Reason: "cannot be negative"}
	}
	return nil
}

// IsCompatible reports whether this checkpoint can seed a run with the given
// config. Problem, size and seed must match because they determine the
// instance the best vector encodes a state of.
func (c *Checkpoint) IsCompatible(cfg config.RunConfig) error {
	if c.Config.Problem != cfg.Problem {
		return &CompatibilityError{Field: "Problem", Expected: c.Config.Problem, Actual: cfg.Problem}
	}
	if c.Config.Size != cfg.Size {
		return &CompatibilityError{
			Field:    "Size",
			Expected: fmt.Sprintf("%d", c.Config.Size),
			Actual:   fmt.Sprintf("%d", cfg.Size),
		}
	}
	if c.Config.Seed != cfg.Seed {
		return &CompatibilityError{
			Field:    "Seed",
			Expected: fmt.Sprintf("%d", c.Config.Seed),
			Actual:   fmt.Sprintf("%d", cfg.Seed),
		}
	}
	return nil
}

// ValidationError reports an invalid checkpoint field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// CompatibilityError reports a config mismatch between a checkpoint and a
// resume request.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
