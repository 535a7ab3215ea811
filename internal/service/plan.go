package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/logger"
	"github.com/sdwr/cowprofit/internal/metrics"
	"github.com/sdwr/cowprofit/internal/pricing"
	"github.com/sdwr/cowprofit/internal/sim"
)

// MaxSimulateTrials caps the Monte Carlo check attached to a plan.
const MaxSimulateTrials = 100_000

// PlanInput asks for the cheapest way to take an item from Start to Target.
type PlanInput struct {
	Item           string `json:"item" validate:"required,startswith=/items/"`
	Target         int    `json:"target" validate:"min=1,max=20"`
	Start          int    `json:"start" validate:"min=0,ltfield=Target"`
	Profile        string `json:"profile,omitempty" validate:"omitempty,profile_name"`
	PriceMode      string `json:"price_mode,omitempty" validate:"omitempty,oneof=pessimistic optimistic midpoint"`
	Blessed        *bool  `json:"blessed,omitempty"`
	EnhancingLevel *int   `json:"enhancing_level,omitempty" validate:"omitempty,min=1"`
	MinThreshold   *int   `json:"min_threshold,omitempty" validate:"omitempty,min=0"`
	MaxThreshold   *int   `json:"max_threshold,omitempty" validate:"omitempty,min=0"`
	Simulate       int    `json:"simulate,omitempty" validate:"min=0,max=100000"`
	Seed           uint64 `json:"seed,omitempty"`
}

// Candidate is one evaluated protection threshold.
type Candidate struct {
	Threshold  int     `json:"threshold"`
	Attempts   float64 `json:"attempts"`
	Protection float64 `json:"protection"`
	TotalCost  float64 `json:"total_cost"`
	XP         float64 `json:"xp"`
	Seconds    float64 `json:"seconds"`
}

func candidateFrom(r enhance.Result) Candidate {
	return Candidate{
		Threshold:  r.Threshold,
		Attempts:   r.Attempts,
		Protection: r.Protection,
		TotalCost:  r.TotalCost,
		XP:         r.XP,
		Seconds:    r.Seconds,
	}
}

// PlanOutput is a plan priced against the current market.
type PlanOutput struct {
	Item        string `json:"item"`
	Profile     string `json:"profile"`
	GameVersion string `json:"game_version"`
	PriceMode   string `json:"price_mode"`
	Target      int    `json:"target"`
	Start       int    `json:"start"`

	BestThreshold      int     `json:"best_threshold"`
	ExpectedAttempts   float64 `json:"expected_attempts"`
	ExpectedProtection float64 `json:"expected_protection"`
	ExpectedCost       float64 `json:"expected_cost"`
	ExpectedXP         float64 `json:"expected_xp"`
	ExpectedSeconds    float64 `json:"expected_seconds"`

	SuccessBonus   float64                   `json:"success_bonus"`
	BlessedChance  float64                   `json:"blessed_chance"`
	BasePrice      float64                   `json:"base_price"`
	CostPerAttempt float64                   `json:"cost_per_attempt"`
	Materials      []pricing.MaterialLine    `json:"materials"`
	Protection     *pricing.ProtectionOption `json:"protection,omitempty"`
	TeaCost        float64                   `json:"tea_cost"`
	Profit         pricing.Profit            `json:"profit"`

	Visits     []float64    `json:"visits"`
	Candidates []Candidate  `json:"candidates"`
	Simulation *sim.Summary `json:"simulation,omitempty"`
}

// Plan resolves the item under the profile, prices its inputs and picks the
// protection threshold with the lowest expected total cost.
func (s *Service) Plan(ctx context.Context, in PlanInput) (out PlanOutput, err error) {
	started := time.Now()
	defer func() {
		metrics.PlansTotal.WithLabelValues(TransportFrom(ctx), outcome(err)).Inc()
		s.reportCache()
	}()

	if err := GetValidator().ValidateStruct(in); err != nil {
		return PlanOutput{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	log := logger.FromContext(ctx)

	profile := s.profile(in.Profile)
	r, err := s.game.Resolve(in.Item, profile, game.Overrides{
		Blessed:        in.Blessed,
		EnhancingLevel: in.EnhancingLevel,
	})
	if err != nil {
		return PlanOutput{}, err
	}
	calc := r.Calculator
	pr, err := s.pricer(calc, in.PriceMode)
	if err != nil {
		return PlanOutput{}, err
	}

	item := r.Item
	priced, err := buildRequest(ctx, r, pr, in.Target, in.Start, thresholdRange(in))
	if err != nil {
		return PlanOutput{}, err
	}
	req := priced.req

	plan, err := s.solver.ComputePlan(req)
	metrics.PlanDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		log.Warn("Plan failed", "item", item.Hrid, "target", in.Target, "error", err)
		return PlanOutput{}, err
	}

	g, err := s.game.LoadGame()
	if err != nil {
		return PlanOutput{}, err
	}
	teas := teaSchedule(g, calc, pr)
	profit := pricing.ComputeProfit(
		pr.SellPrice(item.Hrid, in.Target),
		plan.ExpectedCost,
		plan.Best.Seconds,
		plan.ExpectedXP,
		calc.Constants.MarketFee,
	)

	out = PlanOutput{
		Item:               item.Hrid,
		Profile:            calc.Profile.Name,
		GameVersion:        r.Version,
		PriceMode:          string(pr.Mode),
		Target:             in.Target,
		Start:              in.Start,
		BestThreshold:      plan.BestThreshold,
		ExpectedAttempts:   plan.ExpectedAttempts,
		ExpectedProtection: plan.ExpectedProtection,
		ExpectedCost:       plan.ExpectedCost,
		ExpectedXP:         plan.ExpectedXP,
		ExpectedSeconds:    plan.ExpectedTime.Seconds(),
		SuccessBonus:       req.Bonus,
		BlessedChance:      req.Blessed,
		BasePrice:          priced.basePrice,
		CostPerAttempt:     req.Cost.CostPerAttempt,
		Materials:          priced.materials,
		Protection:         priced.protection,
		TeaCost:            teas.Cost(plan.ExpectedTime),
		Profit:             profit,
		Visits:             plan.Best.Visits,
		Candidates:         make([]Candidate, 0, len(plan.Candidates)),
	}
	for _, c := range plan.Candidates {
		out.Candidates = append(out.Candidates, candidateFrom(c))
	}

	if in.Simulate > 0 {
		summary, err := simulate(req, plan.BestThreshold, in.Simulate, in.Seed)
		if err != nil {
			return PlanOutput{}, err
		}
		out.Simulation = &summary
	}

	log.Debug("Plan computed",
		"item", item.Hrid,
		"target", in.Target,
		"threshold", out.BestThreshold,
		"expected_cost", out.ExpectedCost)
	return out, nil
}

// pricedRequest is a plan request with the market inputs it was priced from.
type pricedRequest struct {
	req        enhance.PlanRequest
	basePrice  float64
	materials  []pricing.MaterialLine
	protection *pricing.ProtectionOption
}

// buildRequest prices a resolved item and assembles its plan request. When no
// protection item has a price and rng is nil, only the never-protect threshold
// is offered.
func buildRequest(ctx context.Context, r game.Resolved, pr pricing.Pricer, target, start int, rng *enhance.ThresholdRange) (pricedRequest, error) {
	calc, item := r.Calculator, r.Item
	out := pricedRequest{materials: pr.Materials(item)}
	out.basePrice, _ = pr.ItemPrice(item.Hrid, 0)

	opt, err := pr.CheapestProtection(item, calc.Constants.MirrorItem)
	switch {
	case err == nil:
		out.protection = &opt
	case errors.Is(err, pricing.ErrNoProtection) && rng == nil:
		logger.FromContext(ctx).Warn("No protection price, planning without protection", "item", item.Hrid)
		rng = &enhance.ThresholdRange{Min: target, Max: target}
	default:
		return pricedRequest{}, err
	}

	out.req = enhance.PlanRequest{
		Rates:   calc.Rates(target),
		Bonus:   calc.TotalBonus(item.Level),
		Target:  target,
		Start:   start,
		Blessed: calc.BlessedChance(),
		Range:   rng,
		Cost: enhance.CostModel{
			BasePrice:         out.basePrice,
			CostPerAttempt:    pricing.CostPerAttempt(out.materials),
			SecondsPerAttempt: calc.AttemptSeconds(item.Level),
			XPPerAction:       calc.XPFunc(item.Level),
			PartialXP:         calc.Constants.PartialXP,
		},
	}
	if out.protection != nil {
		out.req.Cost.ProtectionPrice = out.protection.Price
	}
	return out, nil
}

func thresholdRange(in PlanInput) *enhance.ThresholdRange {
	if in.MinThreshold == nil && in.MaxThreshold == nil {
		return nil
	}
	r := enhance.DefaultRange(in.Target)
	if in.MinThreshold != nil {
		r.Min = *in.MinThreshold
	}
	if in.MaxThreshold != nil {
		r.Max = *in.MaxThreshold
	}
	return &r
}

// simulate replays the chosen threshold with Monte Carlo trials. Seed 0 uses
// the crypto source.
func simulate(req enhance.PlanRequest, threshold, trials int, seed uint64) (sim.Summary, error) {
	m, err := enhance.BuildModel(enhance.TransitionParams{
		Rates:     req.Rates,
		Bonus:     req.Bonus,
		Threshold: threshold,
		Blessed:   req.Blessed,
		Target:    req.Target,
		Fallback:  req.Fallback,
	})
	if err != nil {
		return sim.Summary{}, err
	}
	rng := sim.DefaultRNG()
	if seed != 0 {
		rng = sim.NewSeededRNG(seed)
	}
	return sim.RunMonteCarlo(m, req.Start, min(trials, MaxSimulateTrials), rng)
}
