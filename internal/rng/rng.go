// Package rng provides the seedable random source the detector uses for
// round-robin shuffling and indirect-helper selection (§9 design note:
// "inject both as capability interfaces ... so tests can drive deterministic
// scenarios").
package rng

import (
	"math/rand"

	"github.com/meshring/swim/internal/domain"
)

// source wraps *rand.Rand to satisfy domain.RNG.
type source struct {
	r *rand.Rand
}

// New returns an RNG seeded from a time-derived, non-deterministic seed —
// suitable for production use, where uniform shuffling matters but
// reproducibility does not.
func New() domain.RNG {
	return Seeded(rand.Int63())
}

// Seeded returns an RNG with a fixed seed, for deterministic tests.
func Seeded(seed int64) domain.RNG {
	return source{r: rand.New(rand.NewSource(seed))}
}

func (s source) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }
func (s source) Intn(n int) int                     { return s.r.Intn(n) }
