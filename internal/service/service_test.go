package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/metrics"
	"github.com/sdwr/cowprofit/internal/pricing"
)

const testGameYAML = `
version: "svc"
constants:
  market_fee: 0.02
teas:
  ultra_enhancing: { item: /items/ultra_enhancing_tea }
  blessed: { item: /items/blessed_tea }
items:
  /items/test_hood:
    name: Test Hood
    level: 10
    sell_price: 50
    enhancement_costs:
      - { item: /items/fiber, count: 10 }
      - { item: /items/coin, count: 100 }
    protection_items: [/items/test_hood_refined, /items/cloth]
  /items/bare_ring:
    name: Bare Ring
    level: 1
    enhancement_costs:
      - { item: /items/coin, count: 10 }
  /items/fiber: { name: Fiber, sell_price: 5 }
  /items/cloth: { name: Cloth }
`

const testProfileYAML = `
enhancing_level: 50
observatory_level: 0
teas:
  ultra_enhancing: true
`

const testMarketJSON = `{
  "timestamp": 1700000000,
  "marketData": {
    "/items/fiber": {"0": {"a": 6, "b": 4}},
    "/items/cloth": {"0": {"a": 300, "b": 250}},
    "/items/test_hood_refined": {"0": {"a": 10, "b": 5}},
    "/items/mirror_of_protection": {"0": {"a": 1000, "b": 900}},
    "/items/test_hood": {"0": {"a": 400, "b": 350}, "5": {"a": 12000, "b": 11000}},
    "/items/ultra_enhancing_tea": {"0": {"a": 20, "b": 18}}
  }
}`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newTestService(t *testing.T, withMarket bool) *Service {
	t.Helper()
	l := game.NewLoader(t.TempDir())
	writeFile(t, l.Paths().GamePath(), testGameYAML)
	writeFile(t, l.Paths().DefaultProfilePath(), testProfileYAML)

	s := New(l, Options{Cache: enhance.NewCache(32, 0)})
	if withMarket {
		m, err := pricing.LoadMarket(strings.NewReader(testMarketJSON))
		require.NoError(t, err)
		s.SetMarket(m)
	}
	return s
}

func TestPlan_MatchesEngine(t *testing.T) {
	s := newTestService(t, true)
	out, err := s.Plan(context.Background(), PlanInput{Item: "/items/test_hood", Target: 5})
	require.NoError(t, err)

	assert.InDelta(t, 1.024, out.SuccessBonus, 1e-12)
	assert.Zero(t, out.BlessedChance)
	assert.Equal(t, 400.0, out.BasePrice)
	assert.Equal(t, 160.0, out.CostPerAttempt)
	require.NotNil(t, out.Protection)
	assert.Equal(t, pricing.ProtectionOption{Item: "/items/cloth", Price: 300}, *out.Protection)
	require.Len(t, out.Materials, 2)
	assert.Equal(t, pricing.SourceMarket, out.Materials[0].Source)
	assert.Equal(t, pricing.SourceFixed, out.Materials[1].Source)

	want, err := enhance.ComputePlan(enhance.PlanRequest{
		Rates:  enhance.RatesFromPercent(game.DefaultSuccessRate[:5]),
		Bonus:  out.SuccessBonus,
		Target: 5,
		Cost:   enhance.CostModel{BasePrice: 400, CostPerAttempt: 160, ProtectionPrice: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, want.BestThreshold, out.BestThreshold)
	assert.InDelta(t, want.ExpectedCost, out.ExpectedCost, 1e-9)
	assert.InDelta(t, want.ExpectedAttempts, out.ExpectedAttempts, 1e-9)
	assert.InDelta(t, want.ExpectedProtection, out.ExpectedProtection, 1e-9)

	assert.Len(t, out.Candidates, 4, "thresholds 2..5")
	for _, c := range out.Candidates {
		assert.GreaterOrEqual(t, c.TotalCost, out.ExpectedCost)
	}

	assert.Equal(t, 11000.0, out.Profit.SellPrice)
	assert.InDelta(t, out.ExpectedCost, out.Profit.TotalCost, 1e-9)
	assert.InDelta(t, 220, out.Profit.MarketFee, 1e-9)
	assert.InDelta(t, out.ExpectedSeconds/300*20, out.TeaCost, 1e-6)
	assert.Equal(t, "svc", out.GameVersion)
	assert.Equal(t, string(pricing.Pessimistic), out.PriceMode)
}

func TestPlan_RecordsMetrics(t *testing.T) {
	s := newTestService(t, true)
	ok := metrics.PlansTotal.WithLabelValues(TransportDirect, metrics.OutcomeOK)
	invalid := metrics.PlansTotal.WithLabelValues("test", metrics.OutcomeInvalid)
	okBefore, invalidBefore := testutil.ToFloat64(ok), testutil.ToFloat64(invalid)

	_, err := s.Plan(context.Background(), PlanInput{Item: "/items/test_hood", Target: 3})
	require.NoError(t, err)
	_, err = s.Plan(WithTransport(context.Background(), "test"), PlanInput{Item: "/items/test_hood"})
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, invalidBefore+1, testutil.ToFloat64(invalid))
}

func TestPlan_CacheReusedAcrossRequests(t *testing.T) {
	s := newTestService(t, true)
	in := PlanInput{Item: "/items/test_hood", Target: 4}
	first, err := s.Plan(context.Background(), in)
	require.NoError(t, err)
	_, misses := s.opts.Cache.Stats()

	second, err := s.Plan(context.Background(), in)
	require.NoError(t, err)
	hits, missesAfter := s.opts.Cache.Stats()

	assert.Equal(t, misses, missesAfter)
	assert.GreaterOrEqual(t, hits, uint64(3))
	assert.Equal(t, first.ExpectedCost, second.ExpectedCost)

	s.InvalidateCache()
	assert.Zero(t, s.opts.Cache.Len())
}

func TestPlan_ValidationErrors(t *testing.T) {
	s := newTestService(t, true)
	tests := []struct {
		name  string
		in    PlanInput
		field string
	}{
		{"missing item", PlanInput{Target: 5}, "item"},
		{"item without prefix", PlanInput{Item: "test_hood", Target: 5}, "item"},
		{"target too high", PlanInput{Item: "/items/test_hood", Target: 21}, "target"},
		{"start not below target", PlanInput{Item: "/items/test_hood", Target: 5, Start: 5}, "start"},
		{"profile path", PlanInput{Item: "/items/test_hood", Target: 5, Profile: "../x"}, "profile"},
		{"price mode", PlanInput{Item: "/items/test_hood", Target: 5, PriceMode: "greedy"}, "price_mode"},
		{"too many trials", PlanInput{Item: "/items/test_hood", Target: 5, Simulate: MaxSimulateTrials + 1}, "simulate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Plan(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, FormatValidationError(err), tt.field)
		})
	}
}

func TestPlan_UnknownItem(t *testing.T) {
	_, err := newTestService(t, true).Plan(context.Background(), PlanInput{Item: "/items/nope", Target: 5})
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestPlan_ThresholdRangeOverride(t *testing.T) {
	s := newTestService(t, true)
	lo, hi := 4, 4
	out, err := s.Plan(context.Background(), PlanInput{
		Item: "/items/test_hood", Target: 5, MinThreshold: &lo, MaxThreshold: &hi,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.BestThreshold)
	assert.Len(t, out.Candidates, 1)

	bad := 6
	_, err = s.Plan(context.Background(), PlanInput{Item: "/items/test_hood", Target: 5, MaxThreshold: &bad})
	assert.ErrorIs(t, err, enhance.ErrInvalidConfig)
}

func TestPlan_NoProtectionPriced(t *testing.T) {
	s := newTestService(t, false)
	out, err := s.Plan(context.Background(), PlanInput{Item: "/items/bare_ring", Target: 3})
	require.NoError(t, err)

	assert.Nil(t, out.Protection)
	assert.Equal(t, 3, out.BestThreshold)
	assert.Len(t, out.Candidates, 1)
	assert.Zero(t, out.ExpectedProtection)
	assert.Equal(t, 10.0, out.CostPerAttempt)
	assert.Zero(t, out.Profit.SellPrice)
}

func TestPlan_Simulation(t *testing.T) {
	s := newTestService(t, true)
	out, err := s.Plan(context.Background(), PlanInput{
		Item: "/items/test_hood", Target: 4, Simulate: 20000, Seed: 11,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Simulation)
	assert.Equal(t, 20000, out.Simulation.Trials)
	assert.InEpsilon(t, out.ExpectedAttempts, out.Simulation.Attempts.Mean, 0.05)
}

func TestPlan_BlessedOverride(t *testing.T) {
	s := newTestService(t, true)
	on := true
	out, err := s.Plan(context.Background(), PlanInput{Item: "/items/test_hood", Target: 5, Blessed: &on})
	require.NoError(t, err)
	assert.InDelta(t, 0.01, out.BlessedChance, 1e-12)
}

// 0>1>2>F0>1>2>3>F2>3>4>5
var climbHistogram = map[int]int{0: 1, 1: 2, 2: 3, 3: 2, 4: 1, 5: 1}

func TestEstimate_GivenThresholdSuccess(t *testing.T) {
	s := newTestService(t, true)
	threshold, sale := 3, 10000.0
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram:       climbHistogram,
		Threshold:       &threshold,
		Start:           0,
		Final:           5,
		Item:            "/items/test_hood",
		DurationSeconds: 3600,
		SalePrice:       &sale,
	})
	require.NoError(t, err)

	assert.Equal(t, ThresholdGiven, out.ThresholdSource)
	require.NotNil(t, out.Estimate)
	assert.Equal(t, 1, out.Estimate.ProtectionCount)
	assert.True(t, out.Estimate.Consistent)
	assert.Len(t, out.Estimate.Levels, 6)
	assert.Equal(t, 10, out.Attempts)

	assert.Equal(t, 300.0, out.ProtectionPrice)
	assert.InDelta(t, 12, out.TeaUses, 1e-9)
	assert.Equal(t, SessionCosts{
		Materials:  1600,
		Protection: 300,
		Tea:        240,
		BaseItem:   400,
		Total:      2540,
	}, roundCosts(out.Costs))

	assert.True(t, out.Success)
	assert.Equal(t, 10000.0, out.SalePrice)
	assert.Equal(t, 200.0, out.Fee)
	assert.InDelta(t, 7260, out.Profit, 1e-6)
	assert.InDelta(t, 7260*24, out.ProfitPerDay, 1e-6)
}

func TestEstimate_FailureUsesMarketAndDerivedDuration(t *testing.T) {
	s := newTestService(t, true)
	threshold := 3
	// 4>5>F4>F3>F2>F0
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram: map[int]int{0: 1, 2: 1, 3: 1, 4: 1, 5: 1},
		Threshold: &threshold,
		Start:     4,
		Final:     0,
		Item:      "/items/test_hood",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Estimate.ProtectionCount)
	assert.Equal(t, 5, out.Attempts)
	assert.False(t, out.Success)
	assert.InDelta(t, 5*12/1.54, out.DurationSeconds, 1e-9)
	assert.Equal(t, 800.0, out.Costs.Materials)
	assert.Equal(t, 900.0, out.Costs.Protection)
	assert.Zero(t, out.Costs.BaseItem)
	assert.Zero(t, out.SalePrice)
	assert.InDelta(t, -out.Costs.Total, out.Profit, 1e-9)
	assert.InDelta(t, 1700+out.Costs.Tea, out.Costs.Total, 1e-9)
	assert.InDelta(t, out.Profit/(out.DurationSeconds/3600)*24, out.ProfitPerDay, 1e-6)
}

func TestEstimate_ScanWithoutItem(t *testing.T) {
	s := newTestService(t, true)
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram:       climbHistogram,
		Final:           5,
		DurationSeconds: 3600,
	})
	require.NoError(t, err)

	assert.Equal(t, ThresholdScan, out.ThresholdSource)
	assert.Nil(t, out.Estimate)
	counts := make([]int, 0, len(out.Scan))
	for _, e := range out.Scan {
		counts = append(counts, e.ProtectionCount)
	}
	assert.Equal(t, []int{2, 2, 1, 0, 0}, counts)
	assert.Equal(t, 1, out.Scan[0].Threshold)
	assert.Equal(t, 10, out.Attempts)
	assert.Zero(t, out.Costs.Materials)
	assert.Zero(t, out.Costs.Protection)
	assert.InDelta(t, 240, out.Costs.Tea, 1e-9)
	assert.InDelta(t, -240, out.Profit, 1e-9)
}

func TestEstimate_ThresholdFromPlan(t *testing.T) {
	s := newTestService(t, true)
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram: climbHistogram,
		Final:     5,
		Item:      "/items/test_hood",
	})
	require.NoError(t, err)

	plan, err := s.Plan(context.Background(), PlanInput{Item: "/items/test_hood", Target: 10})
	require.NoError(t, err)

	assert.Equal(t, ThresholdPlan, out.ThresholdSource)
	require.NotNil(t, out.Estimate)
	assert.Equal(t, plan.BestThreshold, out.Estimate.Threshold)
	want, err := drops.EstimateProtection(climbHistogram, plan.BestThreshold, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, want.ProtectionCount, out.Estimate.ProtectionCount)
}

func TestEstimate_InconsistentHistogramWarns(t *testing.T) {
	s := newTestService(t, true)
	threshold := 3
	before := testutil.ToFloat64(metrics.EstimateWarnings)
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram: map[int]int{3: 1, 4: 1, 5: 1},
		Threshold: &threshold,
		Start:     4,
		Final:     0,
	})
	require.NoError(t, err)
	assert.False(t, out.Estimate.Consistent)
	assert.Len(t, out.Estimate.Warnings, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EstimateWarnings))
}

func TestEstimate_FinalAboveObservedWarns(t *testing.T) {
	s := newTestService(t, true)
	threshold := 3
	out, err := s.Estimate(context.Background(), EstimateInput{
		Histogram: map[int]int{4: 1, 5: 1},
		Threshold: &threshold,
		Start:     4,
		Final:     6,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Estimate)
	assert.Equal(t, 2, out.Estimate.ProtectionCount)
	assert.False(t, out.Estimate.Consistent)
	assert.Len(t, out.Estimate.Warnings, 1)
	assert.Equal(t, 3, out.Attempts)
}

func TestEstimate_Errors(t *testing.T) {
	s := newTestService(t, true)

	_, err := s.Estimate(context.Background(), EstimateInput{Histogram: map[int]int{1: -1}})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, FormatValidationError(err), "histogram[1]")

	_, err = s.Estimate(context.Background(), EstimateInput{Histogram: climbHistogram, Final: 5, Profile: "ghost"})
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestFormatValidationError_NonValidation(t *testing.T) {
	assert.Nil(t, FormatValidationError(nil))
	assert.Equal(t, map[string]string{"error": "Invalid request format"}, FormatValidationError(assert.AnError))
}

// roundCosts trims float noise so costs can be compared exactly.
func roundCosts(c SessionCosts) SessionCosts {
	r := func(v float64) float64 { return float64(int64(v*1e6+0.5)) / 1e6 }
	return SessionCosts{
		Materials:  r(c.Materials),
		Protection: r(c.Protection),
		Tea:        r(c.Tea),
		BaseItem:   r(c.BaseItem),
		Total:      r(c.Total),
	}
}
