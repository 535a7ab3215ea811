package enhance

import "fmt"

// MinOfferedThreshold is the lowest protection threshold offered by default.
const MinOfferedThreshold = 2

// ThresholdRange is an inclusive range of candidate protection thresholds.
type ThresholdRange struct {
	Min int
	Max int
}

// DefaultRange returns [2, target]. Targets below 2 collapse to [target, target]
// so there is always at least one candidate.
func DefaultRange(target int) ThresholdRange {
	if target < MinOfferedThreshold {
		return ThresholdRange{Min: target, Max: target}
	}
	return ThresholdRange{Min: MinOfferedThreshold, Max: target}
}

func (r ThresholdRange) validate(target int) error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: threshold range [%d,%d] is empty", ErrInvalidConfig, r.Min, r.Max)
	}
	if r.Min < 0 || r.Max > target {
		return fmt.Errorf("%w: threshold range [%d,%d] must lie within [0,%d]", ErrInvalidConfig, r.Min, r.Max, target)
	}
	return nil
}

// Sweep holds the winning candidate and every evaluated candidate in ascending order.
type Sweep struct {
	Best       Result
	Candidates []Result
}

// Optimize runs the solver for every threshold in rng (DefaultRange when nil) and
// keeps the cheapest total cost. Comparison is strict, so the lowest threshold wins ties.
// p.Threshold is ignored.
func Optimize(p TransitionParams, start int, cost CostModel, rng *ThresholdRange) (Sweep, error) {
	return Solver{}.Optimize(p, start, cost, rng)
}

// Optimize is the method form of the package-level Optimize.
func (s Solver) Optimize(p TransitionParams, start int, cost CostModel, rng *ThresholdRange) (Sweep, error) {
	r := DefaultRange(p.Target)
	if rng != nil {
		r = *rng
	}
	if err := r.validate(p.Target); err != nil {
		return Sweep{}, err
	}

	sweep := Sweep{Candidates: make([]Result, 0, r.Max-r.Min+1)}
	found := false
	for threshold := r.Min; threshold <= r.Max; threshold++ {
		p.Threshold = threshold
		m, err := BuildModel(p)
		if err != nil {
			return Sweep{}, err
		}
		res, err := s.Solve(m, start, cost)
		if err != nil {
			return Sweep{}, err
		}
		sweep.Candidates = append(sweep.Candidates, res)
		if !found || res.TotalCost < sweep.Best.TotalCost {
			sweep.Best = res
			found = true
		}
	}
	return sweep, nil
}
