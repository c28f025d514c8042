package problems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/rng"
)

// city is a point on the [0,100]^2 plane.
type city struct {
	x, y float64
}

// tourState is a permutation of city indices. Neighbors swap two distinct
// positions.
type tourState struct {
	tour []int
}

func (s tourState) Neighbor(r *rand.Rand) tourState {
	tour := append([]int(nil), s.tour...)
	if len(tour) >= 2 {
		i := r.Intn(len(tour))
		j := r.Intn(len(tour) - 1)
		if j >= i {
			j++
		}
		tour[i], tour[j] = tour[j], tour[i]
	}
	return tourState{tour: tour}
}

// tsp is a symmetric Euclidean traveling salesman instance. Energy is the
// closed-tour length.
type tsp struct {
	cities []city
}

// newRandomTSP draws n city positions from the instance stream.
func newRandomTSP(n int, instRNG *rand.Rand) *tsp {
	cities := make([]city, n)
	for i := range cities {
		cities[i] = city{x: 100 * instRNG.Float64(), y: 100 * instRNG.Float64()}
	}
	return &tsp{cities: cities}
}

// newTSP wraps an explicit city table; used by tests with known optima.
func newTSP(cities []city) *tsp {
	return &tsp{cities: cities}
}

func (p *tsp) Name() string { return "tsp" }
func (p *tsp) Size() int    { return len(p.cities) }

func (p *tsp) distance(a, b int) float64 {
	dx := p.cities[a].x - p.cities[b].x
	dy := p.cities[a].y - p.cities[b].y
	return math.Sqrt(dx*dx + dy*dy)
}

func (p *tsp) energy() anneal.Energy[tourState] {
	return anneal.EnergyFunc[tourState](func(s tourState) float64 {
		var total float64
		for i := range s.tour {
			total += p.distance(s.tour[i], s.tour[(i+1)%len(s.tour)])
		}
		return total
	})
}

func (p *tsp) initial(r *rand.Rand, encoded []float64) (tourState, error) {
	n := len(p.cities)
	if encoded != nil {
		tour, err := decodeTour(encoded, n)
		if err != nil {
			return tourState{}, err
		}
		return tourState{tour: tour}, nil
	}
	tour := make([]int, n)
	for i := range tour {
		tour[i] = i
	}
	// Fisher-Yates from the run stream.
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		tour[i], tour[j] = tour[j], tour[i]
	}
	return tourState{tour: tour}, nil
}

func (p *tsp) Run(s Settings) (Outcome, error) {
	r := rng.New(s.Seed)
	energy := p.energy()
	initial, err := p.initial(r, s.Initial)
	if err != nil {
		return Outcome{}, err
	}
	return run(s, initial, energy.Cost(initial), energy, r, func(st tourState) []float64 {
		vec := make([]float64, len(st.tour))
		for i, c := range st.tour {
			vec[i] = float64(c)
		}
		return vec
	})
}

// decodeTour validates an encoded permutation of 0..n-1.
func decodeTour(vec []float64, n int) ([]int, error) {
	if len(vec) != n {
		return nil, fmt.Errorf("%w: tour has %d entries, want %d", anneal.ErrInvalidConfig, len(vec), n)
	}
	tour := make([]int, n)
	seen := make([]bool, n)
	for i, v := range vec {
		c := int(v)
		if float64(c) != v || c < 0 || c >= n || seen[c] {
			return nil, fmt.Errorf("%w: tour entry %d (%v) is not a valid permutation element", anneal.ErrInvalidConfig, i, v)
		}
		seen[c] = true
		tour[i] = c
	}
	return tour, nil
}
