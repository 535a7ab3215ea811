package enhance

import "time"

// PlanRequest is everything needed to plan an enhancement from Start to Target.
type PlanRequest struct {
	Rates    RateTable
	Fallback *float64 // rate for levels missing from Rates; nil makes them an error
	Bonus    float64
	Target   int
	Start    int
	Blessed  float64         // 0 when blessed tea is not active
	Range    *ThresholdRange // nil => DefaultRange(Target)
	Cost     CostModel
}

// Plan is the optimizer's answer for a PlanRequest.
type Plan struct {
	BestThreshold      int
	ExpectedAttempts   float64
	ExpectedProtection float64
	ExpectedCost       float64
	ExpectedXP         float64
	ExpectedTime       time.Duration

	Best       Result
	Candidates []Result
}

// ComputePlan picks the cost-minimising protection threshold and reports its
// expectations. Errors wrap ErrInvalidConfig or ErrDegenerateSystem.
func ComputePlan(req PlanRequest) (Plan, error) {
	return Solver{}.ComputePlan(req)
}

// ComputePlan is the method form of the package-level ComputePlan.
func (s Solver) ComputePlan(req PlanRequest) (Plan, error) {
	if err := validateLevels(req.Target, req.Start, 0); err != nil {
		return Plan{}, err
	}
	params := TransitionParams{
		Rates:    req.Rates,
		Bonus:    req.Bonus,
		Blessed:  req.Blessed,
		Target:   req.Target,
		Fallback: req.Fallback,
	}
	sweep, err := s.Optimize(params, req.Start, req.Cost, req.Range)
	if err != nil {
		return Plan{}, err
	}
	best := sweep.Best
	return Plan{
		BestThreshold:      best.Threshold,
		ExpectedAttempts:   best.Attempts,
		ExpectedProtection: best.Protection,
		ExpectedCost:       best.TotalCost,
		ExpectedXP:         best.XP,
		ExpectedTime:       time.Duration(best.Seconds * float64(time.Second)),
		Best:               best,
		Candidates:         sweep.Candidates,
	}, nil
}
