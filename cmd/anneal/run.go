package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/internal/config"
	"github.com/icefall/anneal/internal/problems"
	"github.com/icefall/anneal/internal/store"
)

var (
	runConfigPath string
	runProblem    string
	runSize       int
	runSchedule   string
	runT0         float64
	runAlpha      float64
	runBeta       float64
	runSeed       int64
	runIters      int
	runFloor      float64
	runTarget     float64
	runDataDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single annealing optimization",
	Long: `Runs one annealing optimization to completion and prints the result.
Configuration comes from a YAML file via --config, from flags, or both;
flags override the file. With --data-dir the final state is checkpointed
and a progress trace is written, so the run can later be resumed.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "YAML run configuration file")
	runCmd.Flags().StringVar(&runProblem, "problem", "quadratic", "Problem: quadratic, rastrigin, tsp, knapsack")
	runCmd.Flags().IntVar(&runSize, "size", 3, "Problem size (dimensions, cities or items)")
	runCmd.Flags().StringVar(&runSchedule, "schedule", "geometric", "Cooling schedule: geometric, linear, logarithmic")
	runCmd.Flags().Float64Var(&runT0, "t0", 10, "Initial temperature")
	runCmd.Flags().Float64Var(&runAlpha, "alpha", 0.999, "Geometric cooling factor")
	runCmd.Flags().Float64Var(&runBeta, "beta", 0.001, "Linear cooling decrement")
	runCmd.Flags().Int64Var(&runSeed, "seed", 42, "Random seed")
	runCmd.Flags().IntVar(&runIters, "iters", 10000, "Max iterations")
	runCmd.Flags().Float64Var(&runFloor, "floor", 0, "Stop when temperature falls to this value")
	runCmd.Flags().Float64Var(&runTarget, "target", 0, "Stop when best energy reaches this value")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Persist checkpoint and trace under this directory")
	rootCmd.AddCommand(runCmd)
}

// buildRunConfig merges the config file, defaults and explicitly set flags.
func buildRunConfig(cmd *cobra.Command) (config.RunConfig, error) {
	var cfg config.RunConfig
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("problem") {
		cfg.Problem = runProblem
	}
	if flags.Changed("size") {
		cfg.Size = runSize
	}
	if flags.Changed("schedule") {
		cfg.Schedule.Kind = runSchedule
	}
	if flags.Changed("t0") {
		cfg.Schedule.T0 = runT0
	}
	if flags.Changed("alpha") {
		cfg.Schedule.Alpha = runAlpha
	}
	if flags.Changed("beta") {
		cfg.Schedule.Beta = runBeta
	}
	if flags.Changed("seed") {
		cfg.Seed = runSeed
	}
	if flags.Changed("iters") {
		cfg.MaxIters = runIters
	}
	if flags.Changed("floor") {
		floor := runFloor
		cfg.Floor = &floor
	}
	if flags.Changed("target") {
		target := runTarget
		cfg.Target = &target
	}

	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, err
	}
	return cfg, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}
	return executeRun(cfg, nil, "", 0)
}

// executeRun performs one local annealing run, optionally seeded from an
// encoded state, and persists the outcome when --data-dir is set. jobID and
// baseIter are carried over on resume so checkpoint and trace continue the
// original run.
func executeRun(cfg config.RunConfig, initial []float64, jobID string, baseIter int) error {
	schedule, err := cfg.Schedule.Build()
	if err != nil {
		return err
	}
	problem, err := problems.New(cfg.Problem, cfg.Size, cfg.Seed)
	if err != nil {
		return err
	}

	var trace *store.TraceWriter
	if runDataDir != "" {
		if jobID == "" {
			jobID = uuid.New().String()
		}
		trace, err = store.NewTraceWriter(runDataDir, jobID, initial != nil)
		if err != nil {
			return err
		}
		defer trace.Close()
	}

	slog.Info("starting optimization",
		"problem", cfg.Problem,
		"size", cfg.Size,
		"schedule", cfg.Schedule.Kind,
		"seed", cfg.Seed,
		"max_iters", cfg.MaxIters,
	)

	observer := func(step anneal.Step) {
		if (step.Iteration+1)%1000 != 0 {
			return
		}
		slog.Debug("progress",
			"iteration", step.Iteration+1,
			"temperature", step.Temperature,
			"best_energy", step.BestEnergy,
		)
		if trace != nil {
			trace.Write(store.TraceEntry{
				Iteration:     step.Iteration + 1,
				Temperature:   step.Temperature,
				CurrentEnergy: step.CurrentEnergy,
				BestEnergy:    step.BestEnergy,
				Timestamp:     time.Now(),
			})
		}
	}

	start := time.Now()
	out, err := problem.Run(problems.Settings{
		Schedule: schedule,
		Seed:     cfg.Seed,
		MaxIters: cfg.MaxIters,
		Floor:    cfg.Floor,
		Target:   cfg.Target,
		Initial:  initial,
		Observer: observer,
		Logger:   slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	slog.Info("optimization complete",
		"elapsed", elapsed,
		"initial_energy", out.InitialEnergy,
		"best_energy", out.BestEnergy,
		"iterations", out.Iterations,
		"accepted", out.Accepted,
		"reason", out.Reason,
	)

	if runDataDir != "" {
		st, err := store.NewFSStore(runDataDir)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		checkpoint := store.NewCheckpoint(jobID, out.BestVector, out.BestEnergy, out.InitialEnergy, baseIter+out.Iterations, cfg)
		if err := st.SaveCheckpoint(jobID, checkpoint); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		fmt.Printf("Checkpoint saved as job %s\n", jobID)
	}

	fmt.Printf("%s (n=%d): energy %.6f -> %.6f in %d iterations (%s)\n",
		cfg.Problem, cfg.Size, out.InitialEnergy, out.BestEnergy, out.Iterations, out.Reason)
	fmt.Printf("Best state: %s\n", formatVector(out.BestVector))
	return nil
}

// formatVector renders an encoded state compactly, eliding long vectors.
func formatVector(v []float64) string {
	const maxShown = 8
	s := "["
	for i, x := range v {
		if i == maxShown {
			return s + fmt.Sprintf("... %d more]", len(v)-maxShown)
		}
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4g", x)
	}
	return s + "]"
}
