package sim

import (
	"fmt"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
)

// DefaultMaxAttempts bounds a single session so a near-dead model cannot spin forever.
const DefaultMaxAttempts = 10_000_000

// Outcome is what one attempt did.
type Outcome int

const (
	OutcomeFail Outcome = iota
	OutcomeSuccess
	OutcomeBlessed // success that skipped a level
)

// Session is one simulated run from a start level to the model's target.
type Session struct {
	Start       int
	Final       int
	Attempts    int
	Protections int
	Blessed     int

	// Arrivals counts every level reached after an attempt, the final one included.
	// The start level only counts if it is re-entered.
	Arrivals drops.Histogram
}

// Step performs one attempt from row r and returns the next level.
func Step(r enhance.Row, rng RandomSource) (int, Outcome, error) {
	ok, err := Draw(r.Success, rng)
	if err != nil {
		return 0, OutcomeFail, err
	}
	if !ok {
		return r.Landing, OutcomeFail, nil
	}
	if r.Double > 0 {
		// blessed is conditional on success
		blessed, err := Draw(r.Double/r.Success, rng)
		if err != nil {
			return 0, OutcomeFail, err
		}
		if blessed {
			return r.Level + 2, OutcomeBlessed, nil
		}
	}
	return r.Level + 1, OutcomeSuccess, nil
}

// SimulateSession runs attempts until the target is reached. maxAttempts <= 0
// uses DefaultMaxAttempts.
func SimulateSession(m enhance.Model, start int, rng RandomSource, maxAttempts int) (Session, error) {
	if start < 0 || start >= m.Target || len(m.Rows) != m.Target {
		return Session{}, fmt.Errorf("%w: start level %d outside model of target %d", enhance.ErrInvalidConfig, start, m.Target)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	s := Session{Start: start, Arrivals: drops.Histogram{}}
	level := start
	for level < m.Target {
		if s.Attempts >= maxAttempts {
			return s, fmt.Errorf("%w: %d attempts without reaching +%d", ErrAttemptLimit, s.Attempts, m.Target)
		}
		r := m.Rows[level]
		next, out, err := Step(r, rng)
		if err != nil {
			return s, err
		}
		s.Attempts++
		switch out {
		case OutcomeFail:
			if r.Protected(m.Threshold) {
				s.Protections++
			}
		case OutcomeBlessed:
			s.Blessed++
		}
		level = next
		s.Arrivals[level]++
	}
	s.Final = level
	return s, nil
}
