package enhance

import (
	"fmt"
	"math"
)

// validateProb rejects NaN, Inf and anything outside [0,1].
func validateProb(name string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: %s is not a finite number", ErrInvalidConfig, name)
	}
	if p < 0 || p > 1 {
		return fmt.Errorf("%w: %s=%g must be in [0,1]", ErrInvalidConfig, name, p)
	}
	return nil
}

// validateLevels checks target, start and threshold against each other.
// - target >= 1
// - 0 <= start < target
// - 0 <= threshold <= target
func validateLevels(target, start, threshold int) error {
	if target < 1 {
		return fmt.Errorf("%w: target level %d must be >= 1", ErrInvalidConfig, target)
	}
	if start < 0 || start >= target {
		return fmt.Errorf("%w: start level %d must satisfy 0 <= start < target (%d)", ErrInvalidConfig, start, target)
	}
	if threshold < 0 || threshold > target {
		return fmt.Errorf("%w: protection threshold %d must be in [0,%d]", ErrInvalidConfig, threshold, target)
	}
	return nil
}

func validateBonus(bonus float64) error {
	if math.IsNaN(bonus) || math.IsInf(bonus, 0) || bonus < 0 {
		return fmt.Errorf("%w: bonus multiplier %g must be a finite value >= 0", ErrInvalidConfig, bonus)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
