package drops

import (
	"fmt"
	"math"
)

// WarningKind tells what made a histogram inconsistent with its session.
type WarningKind int

const (
	// NegativeAttempts: an attempt count went negative and was clamped to 0.
	NegativeAttempts WarningKind = iota
	// FinalUnobserved: the final level is above every observed level, so its
	// arrival was not captured and no attempt is removed for it.
	FinalUnobserved
)

// Warning flags a histogram that is inconsistent with the given start/final
// levels (often a capture gap). The estimate is still returned.
type Warning struct {
	Kind     WarningKind
	Level    int
	Attempts int // raw value before clamping to zero
}

func (w Warning) String() string {
	if w.Kind == FinalUnobserved {
		return fmt.Sprintf("final level %d above highest observed level, not counted", w.Level)
	}
	return fmt.Sprintf("negative attempts (%d) at level %d clamped to 0", w.Attempts, w.Level)
}

// Estimate is the per-level breakdown behind an estimated protection count.
// Slices are indexed by level, 0..MaxLevel.
type Estimate struct {
	Threshold int
	Start     int
	Final     int
	MaxLevel  int

	ProtectionCount int
	Attempts        []int
	Successes       []int
	Failures        []int
	Warnings        []Warning
}

// Consistent reports whether no clamping was needed on attempt counts.
func (e Estimate) Consistent() bool {
	return len(e.Warnings) == 0
}

// EstimateProtection reconstructs departures per level top-down and sums the
// failures at or above threshold.
//
// Arrivals at L+1 are successes from L plus protected failures from L+2, so
// successes[L] = h[L+1] - failures[L+2] and failures[L] = attempts[L] - successes[L].
// A blessed +2 step looks like two single steps in h, which biases the result.
func EstimateProtection(h Histogram, threshold, start, final int) (Estimate, error) {
	if err := h.validate(); err != nil {
		return Estimate{}, err
	}
	if threshold < 0 || start < 0 || final < 0 {
		return Estimate{}, fmt.Errorf("%w: threshold=%d start=%d final=%d must be >= 0", ErrInvalidSession, threshold, start, final)
	}

	maxLevel, ok := h.MaxLevel()
	if !ok || start > maxLevel {
		maxLevel = start
	}
	est := Estimate{
		Threshold: threshold,
		Start:     start,
		Final:     final,
		MaxLevel:  maxLevel,
		Attempts:  make([]int, maxLevel+1),
		Successes: make([]int, maxLevel+1),
		Failures:  make([]int, maxLevel+1),
	}
	if final > maxLevel {
		est.Warnings = append(est.Warnings, Warning{Kind: FinalUnobserved, Level: final})
	}

	// the first attempt has no arrival; the last level reached is never left
	for level := 0; level <= maxLevel; level++ {
		a := h[level]
		if level == start {
			a++
		}
		if level == final {
			a--
		}
		if a < 0 {
			est.Warnings = append(est.Warnings, Warning{Level: level, Attempts: a})
			a = 0
		}
		est.Attempts[level] = a
	}

	est.Failures[maxLevel] = est.Attempts[maxLevel]
	for level := maxLevel - 1; level >= 0; level-- {
		landing := 0
		if level+2 <= maxLevel && level+2 >= threshold {
			landing = est.Failures[level+2]
		}
		est.Successes[level] = max(0, h[level+1]-landing)
		est.Failures[level] = max(0, est.Attempts[level]-est.Successes[level])
	}

	sum := 0.0
	for level := threshold; level <= maxLevel; level++ {
		sum += float64(est.Failures[level])
	}
	est.ProtectionCount = int(math.Round(sum))
	return est, nil
}
