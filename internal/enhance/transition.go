package enhance

import "fmt"

// RateTable maps an enhancement level to its base success probability in [0,1].
type RateTable map[int]float64

// RatesFromPercent builds a RateTable from a per-level percentage slice where
// index i holds the rate for an attempt made at level i (e.g. 50 => 0.50).
func RatesFromPercent(pct []float64) RateTable {
	t := make(RateTable, len(pct))
	for i, p := range pct {
		t[i] = p / 100
	}
	return t
}

// TransitionParams describes one enhancement chain.
type TransitionParams struct {
	Rates     RateTable
	Bonus     float64 // success multiplier from player stats
	Threshold int     // protection threshold P
	Blessed   float64 // chance of +2 given success, already concentration-scaled; 0 disables
	Target    int     // absorbing level N

	// Fallback is used for levels missing from Rates. When nil a missing level is an
	// error: a zero rate would make the level a dead end.
	Fallback *float64
}

// Row is the one-step distribution out of a transient level.
type Row struct {
	Level   int
	Success float64 // effective success chance, min(1, base*bonus)
	Fail    float64
	Next    float64 // mass routed to Level+1
	Double  float64 // mass routed to Level+2 (blessed)
	Landing int     // destination on failure
}

// Sum returns the total probability mass of the row; always 1 for a built row.
func (r Row) Sum() float64 {
	return r.Next + r.Double + r.Fail
}

// Protected reports whether a failure at this row consumes a protection unit.
func (r Row) Protected(threshold int) bool {
	return r.Level >= threshold
}

// Model is the full set of transition rows for levels 0..Target-1.
type Model struct {
	Target    int
	Threshold int
	Rows      []Row
}

// BuildModel computes a transition row for every transient level.
// - success = min(1, rate*bonus)
// - blessed only applies when L+2 < Target; otherwise the whole success mass goes to L+1
// - failure lands at L-1 when L >= Threshold, else at 0 (floored at 0)
func BuildModel(p TransitionParams) (Model, error) {
	if p.Target < 1 {
		return Model{}, fmt.Errorf("%w: target level %d must be >= 1", ErrInvalidConfig, p.Target)
	}
	if p.Threshold < 0 || p.Threshold > p.Target {
		return Model{}, fmt.Errorf("%w: protection threshold %d must be in [0,%d]", ErrInvalidConfig, p.Threshold, p.Target)
	}
	if err := validateBonus(p.Bonus); err != nil {
		return Model{}, err
	}
	if err := validateProb("blessed chance", p.Blessed); err != nil {
		return Model{}, err
	}
	if p.Fallback != nil {
		if err := validateProb("fallback rate", *p.Fallback); err != nil {
			return Model{}, err
		}
	}

	rows := make([]Row, p.Target)
	for level := 0; level < p.Target; level++ {
		base, ok := p.Rates[level]
		if !ok {
			if p.Fallback == nil {
				return Model{}, fmt.Errorf("%w: %w %d", ErrInvalidConfig, ErrMissingRate, level)
			}
			base = *p.Fallback
		}
		if err := validateProb(fmt.Sprintf("rate[%d]", level), base); err != nil {
			return Model{}, err
		}
		rows[level] = buildRow(level, base, p)
	}
	return Model{Target: p.Target, Threshold: p.Threshold, Rows: rows}, nil
}

func buildRow(level int, base float64, p TransitionParams) Row {
	success := base * p.Bonus
	if success > 1 {
		success = 1
	}
	r := Row{Level: level, Success: success, Fail: 1 - success, Next: success}

	if p.Blessed > 0 && level+2 < p.Target {
		r.Double = success * p.Blessed
		r.Next = success - r.Double
	}

	r.Landing = 0
	if level >= p.Threshold {
		r.Landing = level - 1
	}
	if r.Landing < 0 {
		r.Landing = 0
	}
	return r
}

// Matrix assembles the transient-to-transient matrix Q. Mass that reaches Target
// is absorption and is left out, so row sums may be < 1.
func (m Model) Matrix() [][]float64 {
	n := m.Target
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
	}
	for _, r := range m.Rows {
		if r.Level+1 < n {
			q[r.Level][r.Level+1] += r.Next
		}
		if r.Double > 0 && r.Level+2 < n {
			q[r.Level][r.Level+2] += r.Double
		}
		q[r.Level][r.Landing] += r.Fail
	}
	return q
}
