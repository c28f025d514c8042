package anneal

import "math"

// Probability returns the Metropolis acceptance probability for a proposed
// move with energy difference delta at the given temperature:
//
//	P = min(1, exp(-delta/T))
//
// Improving and equal-cost moves (delta <= 0) have probability exactly 1,
// which keeps the search moving across plateaus. At temperature zero a
// worsening move has probability exactly 0. The result is clamped so that a
// large negative delta can never overflow past 1.
func Probability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1
	}
	if temperature <= 0 {
		return 0
	}
	return math.Min(1, math.Exp(-delta/temperature))
}

// Accepts reports whether a move is taken given an already-drawn uniform
// sample in [0,1). Keeping the draw as an argument makes the decision a pure
// function of (delta, temperature, draw), testable without a generator.
func Accepts(delta, temperature, draw float64) bool {
	return draw < Probability(delta, temperature)
}
