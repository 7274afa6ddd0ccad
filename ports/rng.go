package ports

import "math/rand"

// RNG provides seeded random number generation for deterministic operations
type RNG interface {
	// Stream returns the random stream a named operation draws from. The same
	// name and seed must always yield the same sequence.
	Stream(name string, seed int64) *rand.Rand
}

// SeededRNG derives every stream from the seed alone.
type SeededRNG struct{}

// Stream implements RNG.
func (SeededRNG) Stream(_ string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
