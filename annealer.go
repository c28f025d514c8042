// Package anneal implements a generic simulated annealing engine: callers
// supply the state space (State), the objective (Energy) and a cooling
// schedule (Schedule); the engine supplies the proposal loop, the Metropolis
// acceptance test, best-so-far tracking and deterministic reproducibility via
// seeded randomness.
package anneal

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

// Reason explains why a run terminated.
type Reason string

const (
	// ReasonMaxIterations: the iteration budget was exhausted.
	ReasonMaxIterations Reason = "max_iterations"
	// ReasonTemperatureFloor: the configured temperature floor was reached.
	ReasonTemperatureFloor Reason = "temperature_floor"
	// ReasonTargetEnergy: the best energy reached the configured target.
	ReasonTargetEnergy Reason = "target_energy"
	// ReasonEnergyError: an energy evaluation produced a non-finite value.
	ReasonEnergyError Reason = "energy_error"
)

// Step is the per-iteration trace record handed to an Observer. Purely
// observational; dropping or ignoring steps has no effect on the run result.
type Step struct {
	Iteration       int
	Temperature     float64
	CandidateEnergy float64
	Accepted        bool
	CurrentEnergy   float64
	BestEnergy      float64
}

// Observer receives one Step per iteration, after that iteration's
// bookkeeping has completed.
type Observer func(Step)

// Result is the outcome of a single annealing run.
type Result[S State[S]] struct {
	BestState   S
	BestEnergy  float64
	FinalState  S
	FinalEnergy float64
	Iterations  int
	Accepted    int
	Rejected    int
	InitialTemp float64
	FinalTemp   float64
	Reason      Reason
}

// Annealer orchestrates one simulated annealing run. It owns the current and
// best state, applies the acceptance criterion and enforces the termination
// policy. An Annealer is constructed once and consumed by a single Run; it is
// strictly sequential and must not be shared across goroutines. Independent
// concurrent runs each need their own Annealer and their own generator.
type Annealer[S State[S]] struct {
	state    S
	energy   Energy[S]
	schedule Schedule
	r        *rand.Rand
	maxIters int

	initialEnergy float64

	hasFloor  bool
	floor     float64
	hasTarget bool
	target    float64

	observer Observer
	improved func(S, float64)
	logger   *slog.Logger

	done bool
}

// Option configures optional annealer behavior.
type Option[S State[S]] func(*Annealer[S])

// WithTemperatureFloor stops the run once the schedule temperature falls to
// floor or below. Off by default.
func WithTemperatureFloor[S State[S]](floor float64) Option[S] {
	return func(a *Annealer[S]) {
		a.hasFloor = true
		a.floor = floor
	}
}

// WithTargetEnergy stops the run once the best energy reaches target or
// below. Off by default.
func WithTargetEnergy[S State[S]](target float64) Option[S] {
	return func(a *Annealer[S]) {
		a.hasTarget = true
		a.target = target
	}
}

// WithObserver installs a per-iteration trace hook.
func WithObserver[S State[S]](obs Observer) Option[S] {
	return func(a *Annealer[S]) {
		a.observer = obs
	}
}

// WithImprovement installs a hook invoked synchronously each time the best
// state improves, with the new best and its energy. The hook must not retain
// mutable references into the state.
func WithImprovement[S State[S]](fn func(best S, energy float64)) Option[S] {
	return func(a *Annealer[S]) {
		a.improved = fn
	}
}

// WithLogger installs a logger for run-level diagnostics.
func WithLogger[S State[S]](l *slog.Logger) Option[S] {
	return func(a *Annealer[S]) {
		a.logger = l
	}
}

// New builds an annealer from an initial state, an energy evaluator, a
// cooling schedule, a seeded generator and an iteration budget. Configuration
// is validated eagerly, before any iteration executes; the initial state's
// energy is evaluated once here and must be finite. maxIters == 0 is legal
// and makes Run return the initial snapshot without any loop evaluations.
func New[S State[S]](initial S, energy Energy[S], schedule Schedule, r *rand.Rand, maxIters int, opts ...Option[S]) (*Annealer[S], error) {
	if energy == nil {
		return nil, fmt.Errorf("%w: energy evaluator is nil", ErrInvalidConfig)
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: schedule is nil", ErrInvalidConfig)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: random generator is nil", ErrInvalidConfig)
	}
	if maxIters < 0 {
		return nil, fmt.Errorf("%w: max iterations must be >= 0, got %d", ErrInvalidConfig, maxIters)
	}

	e := energy.Cost(initial)
	if !isFinite(e) {
		return nil, &NonFiniteEnergyError{Iteration: -1, Value: e}
	}

	a := &Annealer[S]{
		state:         initial,
		energy:        energy,
		schedule:      schedule,
		r:             r,
		maxIters:      maxIters,
		initialEnergy: e,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run executes the annealing loop to termination and returns the best state
// found with its energy. Invoking Run on an already-terminated annealer
// returns ErrAlreadyRun.
//
// On a NonFiniteEnergyError the returned Result still carries the last
// known-good best, so the caller chooses between salvaging it and treating
// the run as failed.
//
// Acceptance draw discipline, identical across runs for reproducibility:
// delta <= 0 accepts without consuming a draw; at temperature zero a
// worsening move rejects without consuming a draw; otherwise exactly one
// uniform draw is consumed.
func (a *Annealer[S]) Run() (Result[S], error) {
	if a.done {
		return Result[S]{}, ErrAlreadyRun
	}
	a.done = true

	cur := a.state
	curE := a.initialEnergy
	best := cur
	bestE := curE

	res := Result[S]{
		InitialTemp: a.schedule.Temperature(0),
		Reason:      ReasonMaxIterations,
	}
	finalTemp := res.InitialTemp

	if a.logger != nil {
		a.logger.Info("annealing started",
			"max_iters", a.maxIters,
			"initial_energy", curE,
			"initial_temp", res.InitialTemp,
		)
	}

	for k := 0; k < a.maxIters; k++ {
		temp := a.schedule.Temperature(k)
		finalTemp = temp

		cand := cur.Neighbor(a.r)
		candE := a.energy.Cost(cand)
		if !isFinite(candE) {
			err := &NonFiniteEnergyError{Iteration: k, Value: candE}
			if a.logger != nil {
				a.logger.Error("annealing aborted", "iteration", k, "error", err)
			}
			res.BestState = best
			res.BestEnergy = bestE
			res.FinalState = cur
			res.FinalEnergy = curE
			res.FinalTemp = temp
			res.Reason = ReasonEnergyError
			return res, err
		}

		delta := candE - curE
		accepted := delta <= 0
		if !accepted && temp > 0 {
			accepted = Accepts(delta, temp, a.r.Float64())
		}

		if accepted {
			cur = cand
			curE = candE
			res.Accepted++
			if curE < bestE {
				best = cur
				bestE = curE
				if a.improved != nil {
					a.improved(best, bestE)
				}
			}
		} else {
			res.Rejected++
		}
		res.Iterations = k + 1

		if a.observer != nil {
			a.observer(Step{
				Iteration:       k,
				Temperature:     temp,
				CandidateEnergy: candE,
				Accepted:        accepted,
				CurrentEnergy:   curE,
				BestEnergy:      bestE,
			})
		}

		// Early-stop triggers fire after the iteration's bookkeeping, so the
		// recorded best is always consistent with the reported counts.
		if a.hasTarget && bestE <= a.target {
			res.Reason = ReasonTargetEnergy
			break
		}
		if a.hasFloor && temp <= a.floor {
			res.Reason = ReasonTemperatureFloor
			break
		}
	}

	res.BestState = best
	res.BestEnergy = bestE
	res.FinalState = cur
	res.FinalEnergy = curE
	res.FinalTemp = finalTemp

	if a.logger != nil {
		a.logger.Info("annealing finished",
			"iterations", res.Iterations,
			"best_energy", res.BestEnergy,
			"accepted", res.Accepted,
			"rejected", res.Rejected,
			"reason", res.Reason,
		)
	}
	return res, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
