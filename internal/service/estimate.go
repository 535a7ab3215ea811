package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/logger"
	"github.com/sdwr/cowprofit/internal/metrics"
	"github.com/sdwr/cowprofit/internal/pricing"
)

// Where the protection threshold of an estimate came from.
const (
	ThresholdGiven = "given"
	ThresholdPlan  = "plan"
	ThresholdScan  = "scan"
)

// minPlanTarget is the lowest target assumed when a session's threshold is
// taken from a plan.
const minPlanTarget = 10

// EstimateInput describes one captured session: the level-arrival histogram,
// where it started and where the item ended up.
type EstimateInput struct {
	Histogram       map[int]int `json:"histogram" validate:"dive,keys,min=0,max=20,endkeys,min=0"`
	Threshold       *int        `json:"threshold,omitempty" validate:"omitempty,min=0,max=20"`
	Start           int         `json:"start" validate:"min=0,max=20"`
	Final           int         `json:"final" validate:"min=0,max=20"`
	Item            string      `json:"item,omitempty" validate:"omitempty,startswith=/items/"`
	Profile         string      `json:"profile,omitempty" validate:"omitempty,profile_name"`
	PriceMode       string      `json:"price_mode,omitempty" validate:"omitempty,oneof=pessimistic optimistic midpoint"`
	DurationSeconds float64     `json:"duration_seconds,omitempty" validate:"min=0"`
	ProtectionPrice *float64    `json:"protection_price,omitempty" validate:"omitempty,min=0"`
	SalePrice       *float64    `json:"sale_price,omitempty" validate:"omitempty,min=0"`
}

// LevelBreakdown is the reconstructed activity at one level.
type LevelBreakdown struct {
	Level     int `json:"level"`
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// EstimateView is a drops.Estimate shaped for transport.
type EstimateView struct {
	Threshold       int              `json:"threshold"`
	Start           int              `json:"start"`
	Final           int              `json:"final"`
	MaxLevel        int              `json:"max_level"`
	ProtectionCount int              `json:"protection_count"`
	Consistent      bool             `json:"consistent"`
	Levels          []LevelBreakdown `json:"levels"`
	Warnings        []string         `json:"warnings,omitempty"`
}

func viewOf(e drops.Estimate) *EstimateView {
	v := &EstimateView{
		Threshold:       e.Threshold,
		Start:           e.Start,
		Final:           e.Final,
		MaxLevel:        e.MaxLevel,
		ProtectionCount: e.ProtectionCount,
		Consistent:      e.Consistent(),
		Levels:          make([]LevelBreakdown, len(e.Attempts)),
	}
	for l := range e.Attempts {
		v.Levels[l] = LevelBreakdown{
			Level:     l,
			Attempts:  e.Attempts[l],
			Successes: e.Successes[l],
			Failures:  e.Failures[l],
		}
	}
	for _, w := range e.Warnings {
		v.Warnings = append(v.Warnings, w.String())
	}
	return v
}

// ScanEntry is the protection count a session implies under one threshold.
type ScanEntry struct {
	Threshold       int  `json:"threshold"`
	ProtectionCount int  `json:"protection_count"`
	Consistent      bool `json:"consistent"`
}

// SessionCosts is what a session consumed.
type SessionCosts struct {
	Materials  float64 `json:"materials"`
	Protection float64 `json:"protection"`
	Tea        float64 `json:"tea"`
	BaseItem   float64 `json:"base_item"` // only charged on success
	Total      float64 `json:"total"`
}

// EstimateOutput prices a captured session.
type EstimateOutput struct {
	Item            string        `json:"item,omitempty"`
	Profile         string        `json:"profile"`
	ThresholdSource string        `json:"threshold_source"`
	Estimate        *EstimateView `json:"estimate,omitempty"`
	Scan            []ScanEntry   `json:"scan,omitempty"`

	Attempts        int     `json:"attempts"`
	DurationSeconds float64 `json:"duration_seconds"`
	ProtectionPrice float64 `json:"protection_price"`
	TeaUses         float64 `json:"tea_uses"`

	Costs        SessionCosts `json:"costs"`
	Success      bool         `json:"success"`
	SalePrice    float64      `json:"sale_price"`
	Fee          float64      `json:"fee"`
	Profit       float64      `json:"profit"`
	ProfitPerDay float64      `json:"profit_per_day"`
}

// Estimate reconstructs how many protections a session used and prices the
// session. Without a threshold the item's planned threshold is used, or every
// threshold is scanned when no item is given.
func (s *Service) Estimate(ctx context.Context, in EstimateInput) (out EstimateOutput, err error) {
	defer func() {
		metrics.EstimatesTotal.WithLabelValues(TransportFrom(ctx), outcome(err)).Inc()
		s.reportCache()
	}()

	if err := GetValidator().ValidateStruct(in); err != nil {
		return EstimateOutput{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	log := logger.FromContext(ctx)
	h := drops.Histogram(in.Histogram)

	g, err := s.game.LoadGame()
	if err != nil {
		return EstimateOutput{}, err
	}
	p, err := s.game.LoadProfile(s.profile(in.Profile))
	if err != nil {
		return EstimateOutput{}, err
	}
	calc := game.NewCalculator(g, p)
	pr, err := s.pricer(calc, in.PriceMode)
	if err != nil {
		return EstimateOutput{}, err
	}

	var resolved *game.Resolved
	if in.Item != "" {
		r, err := s.game.Resolve(in.Item, p.Name, game.Overrides{})
		if err != nil {
			return EstimateOutput{}, err
		}
		resolved = &r
	}

	out = EstimateOutput{Item: in.Item, Profile: p.Name}

	threshold, source, err := s.sessionThreshold(ctx, in, h, resolved, pr)
	if err != nil {
		return EstimateOutput{}, err
	}
	out.ThresholdSource = source

	var est drops.Estimate
	if source == ThresholdScan {
		scanned, err := drops.Scan(h, in.Start, in.Final)
		if err != nil {
			return EstimateOutput{}, err
		}
		for _, e := range scanned {
			out.Scan = append(out.Scan, ScanEntry{
				Threshold:       e.Threshold,
				ProtectionCount: e.ProtectionCount,
				Consistent:      e.Consistent(),
			})
		}
		// attempts do not depend on the threshold, so any entry will do
		if len(scanned) > 0 {
			est = scanned[0]
		} else if est, err = drops.EstimateProtection(h, in.Start, in.Start, in.Final); err != nil {
			return EstimateOutput{}, err
		}
	} else {
		if est, err = drops.EstimateProtection(h, threshold, in.Start, in.Final); err != nil {
			return EstimateOutput{}, err
		}
		out.Estimate = viewOf(est)
		if len(est.Warnings) > 0 {
			metrics.EstimateWarnings.Add(float64(len(est.Warnings)))
			log.Warn("Session histogram inconsistent with levels",
				"start", in.Start,
				"final", in.Final,
				"warnings", len(est.Warnings))
		}
	}

	for _, a := range est.Attempts {
		out.Attempts += a
	}

	costPerAttempt := 0.0
	if resolved != nil {
		costPerAttempt = pricing.CostPerAttempt(pr.Materials(resolved.Item))
	}
	out.Costs.Materials = float64(out.Attempts) * costPerAttempt

	out.ProtectionPrice = sessionProtectionPrice(in, resolved, pr)
	if out.Estimate != nil {
		out.Costs.Protection = float64(out.Estimate.ProtectionCount) * out.ProtectionPrice
	}

	out.DurationSeconds = in.DurationSeconds
	if out.DurationSeconds == 0 && resolved != nil {
		out.DurationSeconds = float64(out.Attempts) * calc.AttemptSeconds(resolved.Item.Level)
	}
	duration := time.Duration(out.DurationSeconds * float64(time.Second))
	teas := teaSchedule(g, calc, pr)
	out.TeaUses = teas.Uses(duration)
	out.Costs.Tea = teas.Cost(duration)

	priceOutcome(&out, in, est, resolved, pr, g.Constants.MarketFee)
	return out, nil
}

// sessionThreshold picks the threshold used for a session: the given one, the
// one a plan would choose for the item, or none (scan).
func (s *Service) sessionThreshold(ctx context.Context, in EstimateInput, h drops.Histogram, r *game.Resolved, pr pricing.Pricer) (int, string, error) {
	if in.Threshold != nil {
		return *in.Threshold, ThresholdGiven, nil
	}
	if r == nil {
		return 0, ThresholdScan, nil
	}

	highest, _ := h.MaxLevel()
	target := max(highest, minPlanTarget, in.Start+1)
	if target > len(r.Calculator.Constants.SuccessRate) {
		return 0, ThresholdScan, nil
	}
	priced, err := buildRequest(ctx, *r, pr, target, in.Start, nil)
	if err != nil {
		return 0, "", err
	}
	plan, err := s.solver.ComputePlan(priced.req)
	if err != nil {
		if errors.Is(err, enhance.ErrDegenerateSystem) {
			return 0, ThresholdScan, nil
		}
		return 0, "", err
	}
	return plan.BestThreshold, ThresholdPlan, nil
}

// sessionProtectionPrice prefers the caller's price, then the item's cheapest
// protection option.
func sessionProtectionPrice(in EstimateInput, r *game.Resolved, pr pricing.Pricer) float64 {
	if in.ProtectionPrice != nil {
		return *in.ProtectionPrice
	}
	if r == nil {
		return 0
	}
	opt, err := pr.CheapestProtection(r.Item, r.Calculator.Constants.MirrorItem)
	if err != nil {
		return 0
	}
	return opt.Price
}

// priceOutcome fills costs and profit. A session succeeded when it climbed and
// ended on its highest level; success pays the sale net of fee and is charged
// the base item.
func priceOutcome(out *EstimateOutput, in EstimateInput, est drops.Estimate, r *game.Resolved, pr pricing.Pricer, feeRate float64) {
	out.Success = in.Final > in.Start && in.Final == est.MaxLevel
	running := out.Costs.Materials + out.Costs.Protection + out.Costs.Tea

	if out.Success {
		switch {
		case in.SalePrice != nil:
			out.SalePrice = *in.SalePrice
		case r != nil:
			out.SalePrice = pr.SellPrice(r.Item.Hrid, in.Final)
		}
		if r != nil {
			out.Costs.BaseItem, _ = pr.ItemPrice(r.Item.Hrid, in.Start)
		}
		out.Fee = math.Floor(out.SalePrice * feeRate)
		out.Costs.Total = running + out.Costs.BaseItem
		out.Profit = out.SalePrice - out.Fee - out.Costs.Total
	} else {
		out.Costs.Total = running
		out.Profit = -running
	}

	if hours := out.DurationSeconds / 3600; hours > 0.01 {
		out.ProfitPerDay = out.Profit / hours * 24
	}
}
