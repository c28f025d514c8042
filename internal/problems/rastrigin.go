package problems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/rng"
)

const rastriginBound = 5.12

// rastriginState is a point in the Rastrigin domain [-5.12, 5.12]^n.
// Neighbors modify up to three coordinates, mostly with fine steps and
// occasionally with larger jumps to escape the lattice of local minima.
type rastriginState struct {
	coords []float64
}

func (s rastriginState) Neighbor(r *rand.Rand) rastriginState {
	coords := append([]float64(nil), s.coords...)
	mods := 1 + r.Intn(min(len(coords), 3))
	for i := 0; i < mods; i++ {
		idx := r.Intn(len(coords))
		var step float64
		if r.Float64() < 0.8 {
			step = -0.05 + 0.1*r.Float64()
		} else {
			step = -0.5 + 1.0*r.Float64()
		}
		coords[idx] = clampFloat(coords[idx]+step, -rastriginBound, rastriginBound)
	}
	return rastriginState{coords: coords}
}

// rastrigin is the classic highly multimodal benchmark:
//
//	f(x) = 10n + sum(x_i^2 - 10 cos(2 pi x_i))
//
// Global minimum 0 at the origin, surrounded by a regular grid of local
// minima.
type rastrigin struct {
	dims int
}

func newRastrigin(dims int) *rastrigin {
	return &rastrigin{dims: dims}
}

func (p *rastrigin) Name() string { return "rastrigin" }
func (p *rastrigin) Size() int    { return p.dims }

func (p *rastrigin) energy() anneal.Energy[rastriginState] {
	return anneal.EnergyFunc[rastriginState](func(s rastriginState) float64 {
		sum := 10 * float64(len(s.coords))
		for _, x := range s.coords {
			sum += x*x - 10*math.Cos(2*math.Pi*x)
		}
		return sum
	})
}

func (p *rastrigin) initial(r *rand.Rand, encoded []float64) (rastriginState, error) {
	if encoded != nil {
		if len(encoded) != p.dims {
			return rastriginState{}, fmt.Errorf("%w: initial vector has %d coords, want %d", anneal.ErrInvalidConfig, len(encoded), p.dims)
		}
		coords := make([]float64, p.dims)
		for i, v := range encoded {
			coords[i] = clampFloat(v, -rastriginBound, rastriginBound)
		}
		return rastriginState{coords: coords}, nil
	}
	coords := make([]float64, p.dims)
	for i := range coords {
		coords[i] = -rastriginBound + 2*rastriginBound*r.Float64()
	}
	return rastriginState{coords: coords}, nil
}

func (p *rastrigin) Run(s Settings) (Outcome, error) {
	r := rng.New(s.Seed)
	energy := p.energy()
	initial, err := p.initial(r, s.Initial)
	if err != nil {
		return Outcome{}, err
	}
	return run(s, initial, energy.Cost(initial), energy, r, func(st rastriginState) []float64 {
		return append([]float64(nil), st.coords...)
	})
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
