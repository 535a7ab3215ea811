package sim

import (
	"errors"
	"math"
)

var (
	ErrInvalidProb  = errors.New("invalid probability p; must be 0..1")
	ErrAttemptLimit = errors.New("session exceeded attempt limit")
)

// Draw reports whether an event with probability p happened.
// p <= 0 never hits, p >= 1 always hits; otherwise rng.Float64() < p.
func Draw(p float64, rng RandomSource) (bool, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return false, ErrInvalidProb
	}
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return rng.Float64() < p, nil
}
