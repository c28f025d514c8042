package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icefall/anneal"
)

func TestScheduleConfigBuild(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ScheduleConfig
		wantErr bool
	}{
		{"geometric", ScheduleConfig{Kind: "geometric", T0: 10, Alpha: 0.9}, false},
		{"linear", ScheduleConfig{Kind: "linear", T0: 10, Beta: 0.1}, false},
		{"logarithmic", ScheduleConfig{Kind: "logarithmic", T0: 10}, false},
		{"unknown kind", ScheduleConfig{Kind: "exponential", T0: 10}, true},
		{"bad alpha", ScheduleConfig{Kind: "geometric", T0: 10, Alpha: 1.5}, true},
		{"bad t0", ScheduleConfig{Kind: "linear", T0: 0, Beta: 0.1}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := c.cfg.Build()
			if c.wantErr {
				assert.ErrorIs(t, err, anneal.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Greater(t, s.Temperature(0), 0.0)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var c RunConfig
	c.ApplyDefaults()

	d := Default()
	assert.Equal(t, d.Problem, c.Problem)
	assert.Equal(t, d.Size, c.Size)
	assert.Equal(t, d.Schedule, c.Schedule)
	assert.Equal(t, d.MaxIters, c.MaxIters)
	// Seed stays zero; the rng package owns the zero-seed policy.
	assert.Equal(t, int64(0), c.Seed)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := RunConfig{
		Problem:  "tsp",
		Size:     30,
		Schedule: ScheduleConfig{Kind: "linear", T0: 5, Beta: 0.01},
		MaxIters: 77,
	}
	c.ApplyDefaults()

	assert.Equal(t, "tsp", c.Problem)
	assert.Equal(t, 30, c.Size)
	assert.Equal(t, "linear", c.Schedule.Kind)
	assert.Equal(t, 77, c.MaxIters)
}

func TestValidate(t *testing.T) {
	good := Default()
	require.NoError(t, good.Validate())

	bad := Default()
	bad.Problem = ""
	assert.ErrorIs(t, bad.Validate(), anneal.ErrInvalidConfig)

	bad = Default()
	bad.Size = 0
	assert.ErrorIs(t, bad.Validate(), anneal.ErrInvalidConfig)

	bad = Default()
	bad.MaxIters = -1
	assert.ErrorIs(t, bad.Validate(), anneal.ErrInvalidConfig)

	bad = Default()
	bad.CheckpointInterval = -5
	assert.ErrorIs(t, bad.Validate(), anneal.ErrInvalidConfig)

	bad = Default()
	bad.Schedule.Alpha = 2
	assert.ErrorIs(t, bad.Validate(), anneal.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	doc := `
problem: tsp
size: 25
schedule:
  kind: geometric
  t0: 50
  alpha: 0.995
seed: 7
maxIters: 20000
target: 100.5
checkpointInterval: 30
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tsp", c.Problem)
	assert.Equal(t, 25, c.Size)
	assert.Equal(t, "geometric", c.Schedule.Kind)
	assert.Equal(t, 50.0, c.Schedule.T0)
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 20000, c.MaxIters)
	require.NotNil(t, c.Target)
	assert.Equal(t, 100.5, *c.Target)
	assert.Nil(t, c.Floor)
	assert.Equal(t, 30, c.CheckpointInterval)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 3\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Problem, c.Problem)
	assert.Equal(t, int64(3), c.Seed)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/run.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("problem: [unclosed"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("schedule:\n  kind: geometric\n  t0: -1\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, anneal.ErrInvalidConfig)
}
