package problems

import (
	"fmt"
	"math/rand"

	"github.com/icefall/anneal"
	"github.com/icefall/anneal/rng"
)

// overweightPenalty makes any infeasible selection cost more than any
// feasible one, so the search is pushed back inside the capacity quickly.
const overweightPenalty = 1000.0

// knapsackItem has a weight and a value.
type knapsackItem struct {
	weight float64
	value  float64
}

// selectionState is a 0/1 item selection. Neighbors flip one random bit.
type selectionState struct {
	chosen []bool
}

func (s selectionState) Neighbor(r *rand.Rand) selectionState {
	chosen := append([]bool(nil), s.chosen...)
	idx := r.Intn(len(chosen))
	chosen[idx] = !chosen[idx]
	return selectionState{chosen: chosen}
}

// knapsack is the 0/1 knapsack problem posed as minimization: feasible
// selections cost the negated total value, overweight ones a positive
// penalty proportional to the excess.
type knapsack struct {
	items    []knapsackItem
	capacity float64
}

// newRandomKnapsack draws n items from the instance stream; capacity is half
// the total weight, which keeps instances non-trivial at any size.
func newRandomKnapsack(n int, instRNG *rand.Rand) *knapsack {
	items := make([]knapsackItem, n)
	var totalWeight float64
	for i := range items {
		items[i] = knapsackItem{
			weight: 1 + 19*instRNG.Float64(),
			value:  1 + 49*instRNG.Float64(),
		}
		totalWeight += items[i].weight
	}
	return &knapsack{items: items, capacity: totalWeight / 2}
}

// newKnapsack wraps an explicit item table; used by tests with known optima.
func newKnapsack(items []knapsackItem, capacity float64) *knapsack {
	return &knapsack{items: items, capacity: capacity}
}

func (p *knapsack) Name() string { return "knapsack" }
func (p *knapsack) Size() int    { return len(p.items) }

func (p *knapsack) totals(chosen []bool) (weight, value float64) {
	for i, c := range chosen {
		if c {
			weight += p.items[i].weight
			value += p.items[i].value
		}
	}
	return weight, value
}

func (p *knapsack) energy() anneal.Energy[selectionState] {
	return anneal.EnergyFunc[selectionState](func(s selectionState) float64 {
		weight, value := p.totals(s.chosen)
		if weight > p.capacity {
			return overweightPenalty * (weight - p.capacity)
		}
		return -value
	})
}

func (p *knapsack) initial(encoded []float64) (selectionState, error) {
	n := len(p.items)
	if encoded != nil {
		if len(encoded) != n {
			return selectionState{}, fmt.Errorf("%w: selection has %d entries, want %d", anneal.ErrInvalidConfig, len(encoded), n)
		}
		chosen := make([]bool, n)
		for i, v := range encoded {
			switch v {
			case 0:
				chosen[i] = false
			case 1:
				chosen[i] = true
			default:
				return selectionState{}, fmt.Errorf("%w: selection entry %d (%v) must be 0 or 1", anneal.ErrInvalidConfig, i, v)
			}
		}
		return selectionState{chosen: chosen}, nil
	}
	// The empty selection is always feasible.
	return selectionState{chosen: make([]bool, n)}, nil
}

func (p *knapsack) Run(s Settings) (Outcome, error) {
	r := rng.New(s.Seed)
	energy := p.energy()
	initial, err := p.initial(s.Initial)
	if err != nil {
		return Outcome{}, err
	}
	return run(s, initial, energy.Cost(initial), energy, r, func(st selectionState) []float64 {
		vec := make([]float64, len(st.chosen))
		for i, c := range st.chosen {
			if c {
				vec[i] = 1
			}
		}
		return vec
	})
}
