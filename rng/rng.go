// Package rng centralizes deterministic random generation for the annealing
// engine. Every stochastic decision in a run flows through a single *rand.Rand
// built by this package, so identical seeds reproduce identical runs on any
// platform: math/rand's generator is algorithmically fixed and never touches
// system entropy.
//
// Concurrency: math/rand.Rand is not goroutine-safe. Never share one generator
// across concurrent runs; use Derive to create independent streams for
// ensembles or parallel restarts.
package rng

import "math/rand"

// defaultSeed is the fixed seed substituted when callers pass seed == 0.
// Arbitrary but stable, to keep zero-value configs reproducible.
const defaultSeed int64 = 1

// New returns a deterministic *rand.Rand for the given seed.
// A seed of 0 maps to defaultSeed.
func New(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// DeriveSeed mixes a parent seed and a stream identifier into a new 64-bit
// seed using the SplitMix64 finalizer. Small input changes produce large,
// well-distributed output changes, which keeps derived substreams
// decorrelated from each other and from the parent.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// Derive creates an independent deterministic stream from a base generator
// and a stream identifier. base.Int63() is consumed once so that reusing a
// stream id by mistake still yields distinct children. A nil base falls back
// to the default seed.
//
// Call during setup, not in hot loops.
func Derive(base *rand.Rand, stream uint64) *rand.Rand {
	parent := defaultSeed
	if base != nil {
		parent = base.Int63()
	}
	return rand.New(rand.NewSource(DeriveSeed(parent, stream)))
}
