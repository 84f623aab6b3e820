// Package randsrc holds the single source of randomness for a run so tests
// can replace it with a scripted sequence.
package randsrc

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness the poster consumes.
type Source interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// New returns a PCG-backed source. A zero seed derives one from the clock.
func New(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](src Source, items []T) (T, bool) {
	var zero T
	if src == nil || len(items) == 0 {
		return zero, false
	}
	return items[src.IntN(len(items))], true
}

// Scripted replays fixed values and then falls back to zero.
type Scripted struct {
	Ints   []int
	Floats []float64
}

func (s *Scripted) IntN(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	return ((v % n) + n) % n
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}
