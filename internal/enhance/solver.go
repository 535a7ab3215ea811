package enhance

import (
	"fmt"
	"math"
)

// XPFunc returns the experience granted by one full-credit action at a level.
type XPFunc func(level int) float64

// CostModel carries the per-attempt economics that turn visit counts into costs.
type CostModel struct {
	BasePrice         float64 // price of the +0 item being enhanced
	CostPerAttempt    float64 // materials + coins consumed by one attempt
	ProtectionPrice   float64 // price of one protection unit
	SecondsPerAttempt float64
	XPPerAction       XPFunc  // nil means no XP accounting
	PartialXP         float64 // fraction of XP granted on a failed attempt, in [0,1]
}

func (c CostModel) validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"base price", c.BasePrice},
		{"cost per attempt", c.CostPerAttempt},
		{"protection price", c.ProtectionPrice},
		{"seconds per attempt", c.SecondsPerAttempt},
	}
	for _, f := range fields {
		if !finite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s %g must be a finite value >= 0", ErrInvalidConfig, f.name, f.v)
		}
	}
	return validateProb("partial xp fraction", c.PartialXP)
}

// Result is the expected-value bundle for one (threshold, start) pair.
type Result struct {
	Target    int
	Start     int
	Threshold int

	Attempts       float64
	Protection     float64 // expected protection units consumed
	MaterialCost   float64
	ProtectionCost float64
	TotalCost      float64 // base + material + protection
	XP             float64
	Seconds        float64

	// Visits is row Start of the fundamental matrix: expected attempts made at each level.
	Visits []float64
}

// Solve derives expected attempts, protection, cost, time and XP for a model
// starting at start. Identical inputs always yield identical outputs.
func Solve(m Model, start int, cost CostModel) (Result, error) {
	return Solver{}.Solve(m, start, cost)
}

// Solver evaluates models, optionally memoising fundamental matrices in a
// caller-owned Cache. The zero value is ready to use.
type Solver struct {
	Cache *Cache
}

func (s Solver) fundamental(m Model) ([][]float64, error) {
	if s.Cache == nil {
		return Fundamental(m.Matrix())
	}
	return s.Cache.Fundamental(m)
}

// Solve is the method form of the package-level Solve.
func (s Solver) Solve(m Model, start int, cost CostModel) (Result, error) {
	if err := validateLevels(m.Target, start, m.Threshold); err != nil {
		return Result{}, err
	}
	if len(m.Rows) != m.Target {
		return Result{}, fmt.Errorf("%w: model has %d rows for target %d", ErrInvalidConfig, len(m.Rows), m.Target)
	}
	if err := cost.validate(); err != nil {
		return Result{}, err
	}

	fund, err := s.fundamental(m)
	if err != nil {
		return Result{}, err
	}
	visits := fund[start]

	res := Result{
		Target:    m.Target,
		Start:     start,
		Threshold: m.Threshold,
		Visits:    append([]float64(nil), visits...),
	}
	for level, v := range visits {
		res.Attempts += v
		row := m.Rows[level]
		if row.Protected(m.Threshold) {
			res.Protection += v * row.Fail
		}
		if cost.XPPerAction != nil {
			res.XP += v * cost.XPPerAction(level) * (row.Success + cost.PartialXP*row.Fail)
		}
	}

	// round-off can leave tiny negatives on exact-zero cells
	res.Protection = math.Max(0, res.Protection)

	res.MaterialCost = res.Attempts * cost.CostPerAttempt
	res.ProtectionCost = res.Protection * cost.ProtectionPrice
	res.TotalCost = cost.BasePrice + res.MaterialCost + res.ProtectionCost
	res.Seconds = res.Attempts * cost.SecondsPerAttempt

	for _, v := range []float64{res.Attempts, res.Protection, res.TotalCost, res.XP, res.Seconds} {
		if !finite(v) {
			return Result{}, fmt.Errorf("%w: non-finite expectation from start %d", ErrDegenerateSystem, start)
		}
	}
	return res, nil
}
