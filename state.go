package anneal

import "math/rand"

// State is a candidate solution in the search space. The type parameter is
// self-referential so that the annealer is monomorphized per problem and
// neighbor generation needs no type assertions.
//
// Neighbor must return a local perturbation of the receiver as a fresh value
// sharing no mutable structure with it; the annealer aliases accepted states
// into its best-so-far tracker and relies on them never changing afterwards.
// All randomness must come from the supplied generator, and Neighbor must not
// read or write anything outside the receiver and that generator, or
// reproducibility across seeded runs is lost.
type State[S any] interface {
	Neighbor(r *rand.Rand) S
}

// Energy maps a state to the scalar cost being minimized. Cost must be a
// deterministic pure function of the state's value. Returning NaN or an
// infinity is a contract violation that aborts the run (NonFiniteEnergyError).
type Energy[S any] interface {
	Cost(s S) float64
}

// EnergyFunc adapts a plain function to the Energy interface.
type EnergyFunc[S any] func(S) float64

func (f EnergyFunc[S]) Cost(s S) float64 { return f(s) }
