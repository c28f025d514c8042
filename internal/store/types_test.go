package store

import (
	"testing"
	"time"

	"github.com/icefall/anneal/internal/config"
)

func testConfig() config.RunConfig {
	return config.RunConfig{
		Problem:  "quadratic",
		Size:     3,
		Schedule: config.ScheduleConfig{Kind: "geometric", T0: 10, Alpha: 0.999},
		Seed:     42,
		MaxIters: 10000,
	}
}

func TestNewCheckpoint(t *testing.T) {
	cfg := testConfig()
	c := NewCheckpoint("job-1", []float64{1, 2, 3}, 0.5, 12.0, 800, cfg)

	if c.JobID != "job-1" {
		t.Errorf("JobID = %q, want job-1", c.JobID)
	}
	if c.BestEnergy != 0.5 || c.InitialEnergy != 12.0 {
		t.Errorf("energies = (%v, %v), want (0.5, 12)", c.BestEnergy, c.InitialEnergy)
	}
	if c.Iteration != 800 {
		t.Errorf("Iteration = %d, want 800", c.Iteration)
	}
	if c.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestCheckpointValidate(t *testing.T) {
	base := func() *Checkpoint {
		return NewCheckpoint("job-1", []float64{1}, 0, 1, 10, testConfig())
	}

	cases := []struct {
		name   string
		mutate func(*Checkpoint)
	}{
		{"empty jobID", func(c *Checkpoint) { c.JobID = "" }},
		{"empty vector", func(c *Checkpoint) { c.BestVector = nil }},
		{"negative iteration", func(c *Checkpoint) { c.Iteration = -1 }},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }},
		{"empty problem", func(c *Checkpoint) { c.Config.Problem = "" }},
		{"zero size", func(c *Checkpoint) { c.Config.Size = 0 }},
		{"negative maxIters", func(c *Checkpoint) { c.Config.MaxIters = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	c := NewCheckpoint("job-1", []float64{1, 2, 3}, 0, 1, 10, testConfig())

	same := testConfig()
	// Schedule and budget may differ between the runs; only the instance
	// identity is pinned.
	same.MaxIters = 99999
	same.Schedule = config.ScheduleConfig{Kind: "linear", T0: 5, Beta: 0.1}
	if err := c.IsCompatible(same); err != nil {
		t.Errorf("compatible config rejected: %v", err)
	}

	other := testConfig()
	other.Problem = "tsp"
	if err := c.IsCompatible(other); err == nil {
		t.Error("problem mismatch accepted")
	}

	other = testConfig()
	other.Size = 4
	if err := c.IsCompatible(other); err == nil {
		t.Error("size mismatch accepted")
	}

	other = testConfig()
	other.Seed = 7
	if err := c.IsCompatible(other); err == nil {
		t.Error("seed mismatch accepted")
	}
}

func TestToInfo(t *testing.T) {
	c := NewCheckpoint("job-1", []float64{1, 2, 3}, 0.25, 9, 500, testConfig())
	info := c.ToInfo()

	if info.JobID != "job-1" || info.BestEnergy != 0.25 || info.Iteration != 500 {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Problem != "quadratic" || info.Size != 3 {
		t.Errorf("info did not carry problem identity: %+v", info)
	}
}
