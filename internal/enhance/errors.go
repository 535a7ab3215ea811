package enhance

import "errors"

// Error message constants, shared with transport layers that match on text.
const (
	ErrMsgDegenerateSystem = "target unreachable / degenerate success rates"
	ErrMsgInvalidConfig    = "invalid enhancement configuration"
	ErrMsgMissingRate      = "missing success rate for level"
)

var (
	// ErrDegenerateSystem is returned when (I - Q) cannot be inverted: some transient
	// level has no meaningful path to the target.
	ErrDegenerateSystem = errors.New(ErrMsgDegenerateSystem)

	// ErrInvalidConfig covers out-of-range thresholds, start/target levels, bonuses
	// and probabilities.
	ErrInvalidConfig = errors.New(ErrMsgInvalidConfig)

	// ErrMissingRate is wrapped together with ErrInvalidConfig when a level has no
	// base rate and no fallback was supplied.
	ErrMissingRate = errors.New(ErrMsgMissingRate)
)
