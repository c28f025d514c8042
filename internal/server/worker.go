package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/internal/problems"
	"github.com/icefall/anneal/internal/store"
)

// progressSampleEvery is how many iterations pass between job updates, trace
// entries and SSE broadcasts. The loop itself runs unthrottled.
const progressSampleEvery = 250

// runJob executes one annealing job to completion. With a store and a
// positive checkpoint interval, a background loop snapshots the best state
// periodically; a final checkpoint is always written on success when a store
// is present.
func runJob(ctx context.Context, jm *JobManager, st store.Store, dataDir, jobID string) error {
	job, ok := jm.GetJob(jobID)
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	cfg := job.Config

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	metricRunningJobs.Inc()
	defer metricRunningJobs.Dec()

	slog.Info("starting job", "job_id", jobID, "problem", cfg.Problem, "size", cfg.Size, "seed", cfg.Seed)

	schedule, err := cfg.Schedule.Build()
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	problem, err := problems.New(cfg.Problem, cfg.Size, cfg.Seed)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	var trace *store.TraceWriter
	if dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, jobID, job.resumeVector != nil)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		defer trace.Close()
	}

	// Latest best snapshot, shared with the checkpoint loop.
	var bestMu sync.Mutex
	var bestVector []float64
	var bestEnergy, initialEnergy float64

	onImprove := func(vector []float64, energy float64) {
		bestMu.Lock()
		if bestVector == nil {
			initialEnergy = energy
			jm.UpdateJob(jobID, func(j *Job) { j.InitialEnergy = energy })
		}
		bestVector = vector
		bestEnergy = energy
		bestMu.Unlock()
	}

	var accepted, lastSampledIter, lastSampledAccepted int
	observer := func(step anneal.Step) {
		if step.Accepted {
			accepted++
		}
		if (step.Iteration+1)%progressSampleEvery != 0 {
			return
		}

		metricIterations.Add(float64(step.Iteration + 1 - lastSampledIter))
		metricAccepted.Add(float64(accepted - lastSampledAccepted))
		metricBestEnergy.WithLabelValues(cfg.Problem).Set(step.BestEnergy)
		lastSampledIter = step.Iteration + 1
		lastSampledAccepted = accepted

		jm.UpdateJob(jobID, func(j *Job) {
			j.Iteration = step.Iteration + 1
			j.BestEnergy = step.BestEnergy
			j.Accepted = accepted
		})
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:         jobID,
			State:         StateRunning,
			Iteration:     step.Iteration + 1,
			Temperature:   step.Temperature,
			BestEnergy:    step.BestEnergy,
			CurrentEnergy: step.CurrentEnergy,
			Accepted:      accepted,
			Timestamp:     time.Now(),
		})
		if trace != nil {
			trace.Write(store.TraceEntry{
				Iteration:     step.Iteration + 1,
				Temperature:   step.Temperature,
				CurrentEnergy: step.CurrentEnergy,
				BestEnergy:    step.BestEnergy,
				Accepted:      accepted,
				Timestamp:     time.Now(),
			})
		}
	}

	snapshot := func() *store.Checkpoint {
		bestMu.Lock()
		defer bestMu.Unlock()
		if bestVector == nil {
			return nil
		}
		job, _ := jm.GetJob(jobID)
		return store.NewCheckpoint(jobID, bestVector, bestEnergy, initialEnergy, job.Iteration, cfg)
	}

	checkpointDone := make(chan struct{})
	if st != nil && cfg.CheckpointInterval > 0 {
		go checkpointLoop(ctx, st, jobID, time.Duration(cfg.CheckpointInterval)*time.Second, snapshot, checkpointDone)
	} else {
		close(checkpointDone)
	}

	start := time.Now()
	out, runErr := problem.Run(problems.Settings{
		Schedule:  schedule,
		Seed:      cfg.Seed,
		MaxIters:  cfg.MaxIters,
		Floor:     cfg.Floor,
		Target:    cfg.Target,
		Initial:   job.resumeVector,
		Observer:  observer,
		OnImprove: onImprove,
	})
	if st != nil && cfg.CheckpointInterval > 0 {
		close(checkpointDone)
	}

	if runErr != nil {
		markJobFailed(jm, jobID, runErr)
		return runErr
	}

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestVector = out.BestVector
		j.BestEnergy = out.BestEnergy
		j.InitialEnergy = out.InitialEnergy
		j.Iteration = out.Iterations
		j.Accepted = out.Accepted
		j.Reason = string(out.Reason)
		j.EndTime = &endTime
	})
	metricJobsTotal.WithLabelValues(string(StateCompleted)).Inc()

	if st != nil {
		final := store.NewCheckpoint(jobID, out.BestVector, out.BestEnergy, out.InitialEnergy, out.Iterations, cfg)
		if err := st.SaveCheckpoint(jobID, final); err != nil {
			slog.Error("failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}
	if trace != nil {
		trace.Flush()
	}

	slog.Info("job completed",
		"job_id", jobID,
		"elapsed", endTime.Sub(start),
		"initial_energy", out.InitialEnergy,
		"best_energy", out.BestEnergy,
		"iterations", out.Iterations,
		"reason", out.Reason,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Iteration:  out.Iterations,
		BestEnergy: out.BestEnergy,
		Accepted:   out.Accepted,
		Timestamp:  time.Now(),
	})
	return nil
}

// checkpointLoop periodically persists the latest best snapshot, plus one
// last snapshot when the run signals completion via done.
func checkpointLoop(ctx context.Context, st store.Store, jobID string, interval time.Duration, snapshot func() *store.Checkpoint, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	save := func() {
		checkpoint := snapshot()
		if checkpoint == nil {
			return
		}
		if err := st.SaveCheckpoint(jobID, checkpoint); err != nil {
			slog.Error("failed to save checkpoint", "job_id", jobID, "error", err)
			return
		}
		metricCheckpoints.Inc()
	}

	for {
		select {
		case <-done:
			save()
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			save()
		}
	}
}

func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	metricJobsTotal.WithLabelValues(string(StateFailed)).Inc()
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateFailed, Timestamp: endTime})
	slog.Error("job failed", "job_id", jobID, "error", err)
}

func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	metricJobsTotal.WithLabelValues(string(StateCancelled)).Inc()
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateCancelled, Timestamp: endTime})
	slog.Info("job cancelled", "job_id", jobID)
}
