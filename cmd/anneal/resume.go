package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icefall/anneal/internal/store"
)

var (
	resumeDataDir string
	resumeIters   int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume an optimization from its checkpoint",
	Long: `Loads the checkpoint saved for the given job and continues annealing
from its best state. The problem instance is rebuilt from the stored
configuration, so the checkpointed vector stays valid; the best energy can
only improve. The checkpoint is updated when the continued run finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Iteration budget for the continued run (0 = stored budget)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	st, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	checkpoint, err := st.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("unusable checkpoint: %w", err)
	}

	cfg := checkpoint.Config
	if resumeIters > 0 {
		cfg.MaxIters = resumeIters
	}

	fmt.Printf("Resuming job %s at iteration %d (best energy %.6f)\n",
		jobID, checkpoint.Iteration, checkpoint.BestEnergy)

	runDataDir = resumeDataDir
	return executeRun(cfg, checkpoint.BestVector, jobID, checkpoint.Iteration)
}
