// Package problems ships the demo workloads driven by the CLI and the job
// server: quadratic bowl, Rastrigin, random TSP instances and 0/1 knapsack.
// The engine itself stays problem-agnostic; this package erases the engine's
// state type parameter behind a small Problem interface whose outcomes carry
// a []float64 encoding of the best state, which is what checkpointing and
// resume ride on.
package problems

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/rng"
)

// Instance data is derived from the run seed through a separate stream, so
// the same (problem, size, seed) triple always names the same instance while
// the run itself draws from the unmixed seed.
const instanceStream = 0x5eed

// Settings configures one annealing run of a problem.
type Settings struct {
	Schedule anneal.Schedule
	Seed     int64
	MaxIters int

	// Optional early-stop thresholds; nil leaves them off.
	Floor  *float64
	Target *float64

	// Initial, when non-nil, seeds the starting state from an encoded vector
	// (resume path) instead of drawing a random start.
	Initial []float64

	Observer anneal.Observer

	// OnImprove, when non-nil, receives the encoded best vector: once with the
	// initial state before the loop starts, then on every improvement. The
	// checkpoint loop snapshots from it.
	OnImprove func(vector []float64, energy float64)

	Logger *slog.Logger
}

// Outcome is the type-erased result of a run.
type Outcome struct {
	BestVector    []float64
	BestEnergy    float64
	FinalEnergy   float64
	InitialEnergy float64
	Iterations    int
	Accepted      int
	Rejected      int
	Reason        anneal.Reason
}

// Problem is a named, sized optimization workload that can run itself on the
// annealing engine and encode its states as float vectors.
type Problem interface {
	// Name returns the registry name of the problem.
	Name() string
	// Size returns the instance size (dimensions, cities or items).
	Size() int
	// Run executes one annealing run with the given settings.
	Run(s Settings) (Outcome, error)
}

// Names lists the registered problem names.
var Names = []string{"quadratic", "rastrigin", "tsp", "knapsack"}

// New builds a problem instance by name. The instance is fully determined by
// (name, size, seed).
func New(name string, size int, seed int64) (Problem, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: problem size must be positive, got %d", anneal.ErrInvalidConfig, size)
	}
	instRNG := rng.New(rng.DeriveSeed(seed, instanceStream))
	switch name {
	case "quadratic":
		return newQuadratic(size), nil
	case "rastrigin":
		return newRastrigin(size), nil
	case "tsp":
		return newRandomTSP(size, instRNG), nil
	case "knapsack":
		return newRandomKnapsack(size, instRNG), nil
	default:
		return nil, fmt.Errorf("%w: unknown problem %q", anneal.ErrInvalidConfig, name)
	}
}

// options converts shared settings to engine options for a concrete state
// type.
func options[S anneal.State[S]](s Settings) []anneal.Option[S] {
	var opts []anneal.Option[S]
	if s.Floor != nil {
		opts = append(opts, anneal.WithTemperatureFloor[S](*s.Floor))
	}
	if s.Target != nil {
		opts = append(opts, anneal.WithTargetEnergy[S](*s.Target))
	}
	if s.Observer != nil {
		opts = append(opts, anneal.WithObserver[S](s.Observer))
	}
	if s.Logger != nil {
		opts = append(opts, anneal.WithLogger[S](s.Logger))
	}
	return opts
}

// run wires a typed initial state and energy into the engine and erases the
// result through encode.
func run[S anneal.State[S]](s Settings, initial S, initialEnergy float64, energy anneal.Energy[S], r *rand.Rand, encode func(S) []float64) (Outcome, error) {
	opts := options[S](s)
	if s.OnImprove != nil {
		onImprove := s.OnImprove
		opts = append(opts, anneal.WithImprovement[S](func(best S, energy float64) {
			onImprove(encode(best), energy)
		}))
	}
	a, err := anneal.New(initial, energy, s.Schedule, r, s.MaxIters, opts...)
	if err != nil {
		return Outcome{}, err
	}
	if s.OnImprove != nil {
		s.OnImprove(encode(initial), initialEnergy)
	}
	res, runErr := a.Run()
	out := Outcome{
		BestVector:    encode(res.BestState),
		BestEnergy:    res.BestEnergy,
		FinalEnergy:   res.FinalEnergy,
		InitialEnergy: initialEnergy,
		Iterations:    res.Iterations,
		Accepted:      res.Accepted,
		Rejected:      res.Rejected,
		Reason:        res.Reason,
	}
	return out, runErr
}
