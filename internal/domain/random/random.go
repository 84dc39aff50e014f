// Package random abstracts the randomness used by reward draws so tests can
// pin outcomes.
package random

import (
	"math/rand/v2"
	"sync"
)

type Source interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

type global struct{}

func (global) IntN(n int) int   { return rand.IntN(n) }
func (global) Float64() float64 { return rand.Float64() }

// Default is safe for concurrent use.
func Default() Source { return global{} }

// Fixed replays a scripted sequence; it is meant for tests.
type Fixed struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
}

func (f *Fixed) IntN(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Ints) == 0 {
		return 0
	}
	v := f.Ints[0]
	f.Ints = f.Ints[1:]
	return v % n
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[0]
	f.Floats = f.Floats[1:]
	return v
}
