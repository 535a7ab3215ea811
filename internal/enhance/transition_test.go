package enhance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowSums(q [][]float64) []float64 {
	sums := make([]float64, len(q))
	for i, row := range q {
		for _, v := range row {
			sums[i] += v
		}
	}
	return sums
}

func TestBuildModel_BlessedBoundary(t *testing.T) {
	base := TransitionParams{Rates: flatRates(4, 0.5), Bonus: 1, Threshold: 2, Target: 4}
	plain, err := BuildModel(base)
	require.NoError(t, err)

	blessedParams := base
	blessedParams.Blessed = 0.1
	blessed, err := BuildModel(blessedParams)
	require.NoError(t, err)

	// L+2 < N: success mass is split
	assert.InDelta(t, 0.05, blessed.Rows[1].Double, 1e-12)
	assert.InDelta(t, 0.45, blessed.Rows[1].Next, 1e-12)

	// L+2 == N: nothing is split off
	assert.Zero(t, blessed.Rows[2].Double)
	assert.InDelta(t, 0.5, blessed.Rows[2].Next, 1e-12)
	assert.Zero(t, blessed.Rows[3].Double)

	assert.InDeltaSlice(t, rowSums(plain.Matrix()), rowSums(blessed.Matrix()), 1e-12)
	for i := range blessed.Rows {
		assert.InDelta(t, 1.0, blessed.Rows[i].Sum(), 1e-12, "row %d", i)
	}
}

func TestBuildModel_Landing(t *testing.T) {
	m, err := BuildModel(TransitionParams{Rates: flatRates(6, 0.4), Bonus: 1, Threshold: 3, Target: 6})
	require.NoError(t, err)

	want := []int{0, 0, 0, 2, 3, 4}
	for level, r := range m.Rows {
		assert.Equal(t, want[level], r.Landing, "level %d", level)
		assert.Equal(t, level >= 3, r.Protected(m.Threshold))
	}
}

func TestBuildModel_ThresholdZeroFloorsLanding(t *testing.T) {
	m, err := BuildModel(TransitionParams{Rates: flatRates(3, 0.4), Bonus: 1, Threshold: 0, Target: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Rows[0].Landing)
	assert.True(t, m.Rows[0].Protected(0))
}

func TestBuildModel_BonusCapsAtOne(t *testing.T) {
	m, err := BuildModel(TransitionParams{Rates: RateTable{0: 0.8, 1: 0.4}, Bonus: 1.5, Threshold: 2, Target: 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Rows[0].Success)
	assert.Zero(t, m.Rows[0].Fail)
	assert.InDelta(t, 0.6, m.Rows[1].Success, 1e-12)
}

func TestBuildModel_MissingRate(t *testing.T) {
	params := TransitionParams{Rates: RateTable{0: 0.5, 2: 0.5}, Bonus: 1, Threshold: 2, Target: 3}
	_, err := BuildModel(params)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrMissingRate)

	fallback := 0.3
	params.Fallback = &fallback
	m, err := BuildModel(params)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, m.Rows[1].Success, 1e-12)
}

func TestBuildModel_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params TransitionParams
	}{
		{"target zero", TransitionParams{Rates: flatRates(1, 0.5), Bonus: 1, Target: 0}},
		{"threshold above target", TransitionParams{Rates: flatRates(2, 0.5), Bonus: 1, Threshold: 3, Target: 2}},
		{"negative threshold", TransitionParams{Rates: flatRates(2, 0.5), Bonus: 1, Threshold: -1, Target: 2}},
		{"negative bonus", TransitionParams{Rates: flatRates(2, 0.5), Bonus: -0.1, Target: 2}},
		{"rate above one", TransitionParams{Rates: RateTable{0: 1.2, 1: 0.5}, Bonus: 1, Target: 2}},
		{"blessed above one", TransitionParams{Rates: flatRates(2, 0.5), Bonus: 1, Blessed: 2, Target: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildModel(tt.params)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRatesFromPercent(t *testing.T) {
	rates := RatesFromPercent([]float64{50, 45, 30})
	assert.InDelta(t, 0.5, rates[0], 1e-12)
	assert.InDelta(t, 0.45, rates[1], 1e-12)
	assert.InDelta(t, 0.3, rates[2], 1e-12)
	assert.Len(t, rates, 3)
}
