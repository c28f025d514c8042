package problems

import (
	"fmt"
	"math/rand"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/rng"
)

const quadraticRange = 10.0

// vecState is a point in n-dimensional space. Neighbors perturb one random
// coordinate by a small uniform step.
type vecState struct {
	coords []float64
}

func (s vecState) Neighbor(r *rand.Rand) vecState {
	coords := append([]float64(nil), s.coords...)
	idx := r.Intn(len(coords))
	coords[idx] += -0.1 + 0.2*r.Float64()
	return vecState{coords: coords}
}

// quadratic is the sum-of-squares bowl: global minimum 0 at the origin.
// A smooth sanity workload with no local minima.
type quadratic struct {
	dims int
}

func newQuadratic(dims int) *quadratic {
	return &quadratic{dims: dims}
}

func (q *quadratic) Name() string { return "quadratic" }
func (q *quadratic) Size() int    { return q.dims }

func (q *quadratic) energy() anneal.Energy[vecState] {
	return anneal.EnergyFunc[vecState](func(s vecState) float64 {
		var sum float64
		for _, x := range s.coords {
			sum += x * x
		}
		return sum
	})
}

func (q *quadratic) initial(r *rand.Rand, encoded []float64) (vecState, error) {
	if encoded != nil {
		if len(encoded) != q.dims {
			return vecState{}, fmt.Errorf("%w: initial vector has %d coords, want %d", anneal.ErrInvalidConfig, len(encoded), q.dims)
		}
		return vecState{coords: append([]float64(nil), encoded...)}, nil
	}
	coords := make([]float64, q.dims)
	for i := range coords {
		coords[i] = -quadraticRange + 2*quadraticRange*r.Float64()
	}
	return vecState{coords: coords}, nil
}

func (q *quadratic) Run(s Settings) (Outcome, error) {
	r := rng.New(s.Seed)
	energy := q.energy()
	initial, err := q.initial(r, s.Initial)
	if err != nil {
		return Outcome{}, err
	}
	return run(s, initial, energy.Cost(initial), energy, r, func(st vecState) []float64 {
		return append([]float64(nil), st.coords...)
	})
}
