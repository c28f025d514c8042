// Package config defines the run configuration shared by the CLI, the job
// server and the checkpoint store, with YAML loading for config files and
// JSON tags for the HTTP API and checkpoints.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/icefall/anneal"
)

// ScheduleConfig names a built-in cooling schedule and its parameters.
type ScheduleConfig struct {
	Kind  string  `yaml:"kind" json:"kind"` // geometric, linear, logarithmic
	T0    float64 `yaml:"t0" json:"t0"`
	Alpha float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Beta  float64 `yaml:"beta,omitempty" json:"beta,omitempty"`
}

// Build constructs the schedule, validating its parameters eagerly.
func (c ScheduleConfig) Build() (anneal.Schedule, error) {
	switch c.Kind {
	case "geometric":
		s, err := anneal.NewGeometric(c.T0, c.Alpha)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "linear":
		s, err := anneal.NewLinear(c.T0, c.Beta)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "logarithmic":
		s, err := anneal.NewLogarithmic(c.T0)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown schedule kind %q", anneal.ErrInvalidConfig, c.Kind)
	}
}

// RunConfig is the full configuration of one annealing run.
type RunConfig struct {
	Problem  string         `yaml:"problem" json:"problem"`
	Size     int            `yaml:"size" json:"size"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`
	Seed     int64          `yaml:"seed" json:"seed"`
	MaxIters int            `yaml:"maxIters" json:"maxIters"`

	// Optional early-stop thresholds.
	Floor  *float64 `yaml:"floor,omitempty" json:"floor,omitempty"`
	Target *float64 `yaml:"target,omitempty" json:"target,omitempty"`

	// CheckpointInterval is how often the server snapshots a running job, in
	// seconds. Zero disables checkpointing.
	CheckpointInterval int `yaml:"checkpointInterval,omitempty" json:"checkpointInterval,omitempty"`
}

// Default returns the configuration used when a field is left unset.
func Default() RunConfig {
	return RunConfig{
		Problem:  "quadratic",
		Size:     3,
		Schedule: ScheduleConfig{Kind: "geometric", T0: 10, Alpha: 0.999},
		Seed:     42,
		MaxIters: 10000,
	}
}

// ApplyDefaults fills unset fields from Default. The zero seed is left alone;
// the rng package maps it to its own fixed default.
func (c *RunConfig) ApplyDefaults() {
	d := Default()
	if c.Problem == "" {
		c.Problem = d.Problem
	}
	if c.Size <= 0 {
		c.Size = d.Size
	}
	if c.Schedule.Kind == "" {
		c.Schedule = d.Schedule
	}
	if c.MaxIters <= 0 {
		c.MaxIters = d.MaxIters
	}
}

// Validate checks the configuration eagerly, before any iteration executes.
func (c RunConfig) Validate() error {
	if c.Problem == "" {
		return fmt.Errorf("%w: problem is required", anneal.ErrInvalidConfig)
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", anneal.ErrInvalidConfig, c.Size)
	}
	if c.MaxIters < 0 {
		return fmt.Errorf("%w: maxIters must be >= 0, got %d", anneal.ErrInvalidConfig, c.MaxIters)
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("%w: checkpointInterval must be >= 0, got %d", anneal.ErrInvalidConfig, c.CheckpointInterval)
	}
	if _, err := c.Schedule.Build(); err != nil {
		return err
	}
	return nil
}

// Load reads a YAML run configuration from path, applies defaults and
// validates it.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var c RunConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return RunConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return RunConfig{}, err
	}
	return c, nil
}
