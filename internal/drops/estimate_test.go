package drops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateProtection_Breakdown(t *testing.T) {
	est, err := EstimateProtection(Histogram{0: 3, 1: 2, 2: 1, 3: 1}, 3, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, est.MaxLevel)
	assert.Equal(t, []int{4, 2, 1, 0}, est.Attempts)
	assert.Equal(t, []int{2, 1, 1, 0}, est.Successes)
	assert.Equal(t, []int{2, 1, 0, 0}, est.Failures)
	assert.Equal(t, 0, est.ProtectionCount)
	assert.True(t, est.Consistent())
}

// Paths are written out so each expectation can be checked by hand.
func TestEstimateProtection_Paths(t *testing.T) {
	tests := []struct {
		name      string
		h         Histogram
		threshold int
		start     int
		final     int
		want      int
	}{
		{
			name: "0>1>2>F0>1>2>3>F2>3>4>5",
			h:    Histogram{0: 1, 1: 2, 2: 3, 3: 2, 4: 1, 5: 1}, threshold: 3, start: 0, final: 5,
			want: 1,
		},
		{
			name: "4>5>F4>F3>F2>F0, cascade from above threshold",
			h:    Histogram{0: 1, 2: 1, 3: 1, 4: 1, 5: 1}, threshold: 3, start: 4, final: 0,
			want: 3,
		},
		{
			name: "4>5>6>F5>6>7>8, start and finish above threshold",
			h:    Histogram{5: 2, 6: 2, 7: 1, 8: 1}, threshold: 3, start: 4, final: 8,
			want: 1,
		},
		{
			name: "3>4>F3>F2>F0, start at threshold",
			h:    Histogram{0: 1, 2: 1, 3: 1, 4: 1}, threshold: 3, start: 3, final: 0,
			want: 2,
		},
		{
			name: "3>4>F3>4>5",
			h:    Histogram{3: 1, 4: 2, 5: 1}, threshold: 3, start: 3, final: 5,
			want: 1,
		},
		{
			name: "0>1>F0>1>2>3, end on threshold",
			h:    Histogram{0: 1, 1: 2, 2: 1, 3: 1}, threshold: 3, start: 0, final: 3,
			want: 0,
		},
		{
			name: "1>2>3>4>5>F4, end mid-way",
			h:    Histogram{2: 1, 3: 1, 4: 2, 5: 1}, threshold: 3, start: 1, final: 4,
			want: 1,
		},
		{
			name: "2>3>F2, no net progress",
			h:    Histogram{2: 1, 3: 1}, threshold: 3, start: 2, final: 2,
			want: 1,
		},
		{
			name: "4>5>F4 three times",
			h:    Histogram{4: 3, 5: 3}, threshold: 3, start: 4, final: 4,
			want: 3,
		},
		{
			name: "threshold zero protects everything",
			h:    Histogram{0: 1, 1: 2, 2: 1, 3: 1}, threshold: 0, start: 0, final: 3,
			want: 1,
		},
		{
			name: "threshold above every observed level",
			h:    Histogram{0: 1, 1: 2, 2: 1, 3: 1, 4: 1, 5: 1}, threshold: 10, start: 0, final: 5,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := EstimateProtection(tt.h, tt.threshold, tt.start, tt.final)
			require.NoError(t, err)
			assert.Equal(t, tt.want, est.ProtectionCount)
			assert.True(t, est.Consistent())
			for level := range est.Failures {
				assert.GreaterOrEqual(t, est.Failures[level], 0)
				assert.GreaterOrEqual(t, est.Successes[level], 0)
				assert.GreaterOrEqual(t, est.Attempts[level], 0)
			}
		})
	}
}

func TestEstimateProtection_NegativeAttemptsWarn(t *testing.T) {
	// same cascade as 4>5>F4>F3>F2>F0 but the arrivals at 2 and 0 were never captured
	est, err := EstimateProtection(Histogram{3: 1, 4: 1, 5: 1}, 3, 4, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, est.ProtectionCount)
	require.Len(t, est.Warnings, 1)
	assert.Equal(t, Warning{Level: 0, Attempts: -1}, est.Warnings[0])
	assert.Equal(t, 0, est.Attempts[0])
	assert.False(t, est.Consistent())
	assert.Contains(t, est.Warnings[0].String(), "level 0")
}

func TestEstimateProtection_BlessedStepBias(t *testing.T) {
	// 0>1>3: the +2 jump from 1 is read as 1>2>3, leaving a phantom failure at 1
	est, err := EstimateProtection(Histogram{1: 1, 3: 1}, 1, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0, 0}, est.Failures)
	assert.Equal(t, 1, est.ProtectionCount, "true usage is 0; the estimator over-counts")
}

func TestEstimateProtection_StartAboveObserved(t *testing.T) {
	est, err := EstimateProtection(Histogram{}, 2, 6, 6)
	require.NoError(t, err)

	assert.Equal(t, 6, est.MaxLevel)
	assert.Zero(t, est.ProtectionCount)
	assert.Len(t, est.Attempts, 7)
}

func TestEstimateProtection_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		h         Histogram
		threshold int
		start     int
		final     int
	}{
		{"negative count", Histogram{0: -1, 1: 2}, 1, 0, 1},
		{"negative level", Histogram{-1: 1}, 1, 0, 0},
		{"negative threshold", Histogram{1: 1}, -1, 0, 1},
		{"negative start", Histogram{1: 1}, 1, -2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateProtection(tt.h, tt.threshold, tt.start, tt.final)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestEstimateProtection_FinalAboveObservedWarns(t *testing.T) {
	// the arrival at +6 was not captured; the session still reached it
	est, err := EstimateProtection(Histogram{4: 1, 5: 1}, 3, 4, 6)
	require.NoError(t, err)

	assert.Equal(t, 5, est.MaxLevel)
	assert.Equal(t, []int{0, 0, 0, 0, 2, 1}, est.Attempts)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1}, est.Failures)
	assert.Equal(t, 2, est.ProtectionCount)

	require.Len(t, est.Warnings, 1)
	assert.Equal(t, Warning{Kind: FinalUnobserved, Level: 6}, est.Warnings[0])
	assert.Contains(t, est.Warnings[0].String(), "final level 6")
	assert.False(t, est.Consistent())
}

func TestScan(t *testing.T) {
	h := Histogram{0: 1, 1: 2, 2: 3, 3: 2, 4: 1, 5: 1}
	ests, err := Scan(h, 0, 5)
	require.NoError(t, err)
	require.Len(t, ests, 5)

	counts := make([]int, len(ests))
	for i, e := range ests {
		assert.Equal(t, i+1, e.Threshold)
		counts[i] = e.ProtectionCount
	}
	assert.Equal(t, []int{2, 2, 1, 0, 0}, counts)

	best, ok := ClosestTo(ests, 1)
	require.True(t, ok)
	assert.Equal(t, 3, best.Threshold)

	none, err := Scan(Histogram{}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistogram(t *testing.T) {
	h := Histogram{3: 2, 0: 1, 7: 0, 5: 4}

	hi, ok := h.MaxLevel()
	require.True(t, ok)
	assert.Equal(t, 5, hi)

	lo, ok := h.MinLevel()
	require.True(t, ok)
	assert.Equal(t, 0, lo)

	assert.Equal(t, 7, h.Total())
	assert.Equal(t, []int{0, 3, 5, 7}, h.Levels())

	_, ok = Histogram{}.MaxLevel()
	assert.False(t, ok)
}
