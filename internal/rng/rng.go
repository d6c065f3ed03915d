// Package rng provides the seeded generators used to permute chunks.
//
// A Generator is an owned, single-consumer object: it is never shared between
// goroutines. Parallel chunk processing gets one Generator per chunk, seeded
// with Derive(master, chunkIndex), so a run is reproducible from the master
// seed alone regardless of how chunks are scheduled.
package rng

import (
	"math/rand/v2"
	"time"
)

const (
	golden = 0x9e3779b97f4a7c15
	// pcgStream is the fixed second PCG seed word.
	pcgStream = 0xda3e39cb94b95bdb
)

// Generator is a seeded pseudo-random generator. Not safe for concurrent use.
type Generator struct {
	seed uint64
	r    *rand.Rand
}

// New creates a Generator for seed.
func New(seed uint64) *Generator {
	return &Generator{
		seed: seed,
		r:    rand.New(rand.NewPCG(seed, seed^pcgStream)), //nolint:gosec // reproducibility, not secrecy
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() uint64 { return g.seed }

// IntN returns a uniform int in [0, n). It panics if n <= 0.
func (g *Generator) IntN(n int) int { return g.r.IntN(n) }

// Uint64 returns a uniform uint64.
func (g *Generator) Uint64() uint64 { return g.r.Uint64() }

// Derive returns the seed of the index-th sub-generator of master.
// Distinct indexes give statistically independent seeds.
func Derive(master, index uint64) uint64 {
	return mix(master + (index+1)*golden)
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// ClockSeed derives a seed from the high-resolution clock.
// Runs seeded this way are not reproducible unless the seed is recorded.
func ClockSeed() uint64 {
	return uint64(time.Now().UnixNano()) //nolint:gosec
}
