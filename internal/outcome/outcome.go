// Package outcome provides the random source behind every simulated payment
// and delivery decision.
package outcome

import (
	"math/rand/v2"
	"sync"
)

// Source decides simulated outcomes.
type Source interface {
	// Succeeds reports whether an attempt with the given success rate succeeds.
	Succeeds(rate float64) bool
	// Suffix returns a six digit number in [100000, 999999].
	Suffix() int
}

// Random is the production Source backed by math/rand.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random source. A zero seed picks a random seed.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Succeeds(rate float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < rate
}

func (r *Random) Suffix() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 100000 + r.rng.IntN(900000)
}

// Fixed always returns the same decision. Tests use it to force outcomes.
type Fixed struct {
	Success bool
	N       int
}

// Always returns a Fixed source that always succeeds.
func Always() Fixed { return Fixed{Success: true, N: 123456} }

// Never returns a Fixed source that always fails.
func Never() Fixed { return Fixed{Success: false, N: 654321} }

func (f Fixed) Succeeds(float64) bool { return f.Success }

func (f Fixed) Suffix() int {
	if f.N < 100000 || f.N > 999999 {
		return 100000
	}
	return f.N
}
