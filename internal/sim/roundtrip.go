package sim

import (
	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
)

// RoundTripReport compares simulated protection usage with what the drops
// estimator recovers from each session's arrival histogram.
type RoundTripReport struct {
	Sessions  int
	Actual    int // protections actually consumed
	Estimated int
	AbsError  int // sum of per-session |estimated - actual|
	Exact     int // sessions where the estimate matched
	Warnings  int // sessions whose histogram needed clamping
}

// MeanAbsError is AbsError per session.
func (r RoundTripReport) MeanAbsError() float64 {
	if r.Sessions == 0 {
		return 0
	}
	return float64(r.AbsError) / float64(r.Sessions)
}

// RelativeError is AbsError as a fraction of actual usage; 0 when nothing was used.
func (r RoundTripReport) RelativeError() float64 {
	if r.Actual == 0 {
		return 0
	}
	return float64(r.AbsError) / float64(r.Actual)
}

// RoundTrip simulates sessions on m and feeds each histogram back through
// drops.EstimateProtection with the model's threshold.
func RoundTrip(m enhance.Model, start, sessions int, rng RandomSource) (RoundTripReport, error) {
	var rep RoundTripReport
	for i := 0; i < sessions; i++ {
		s, err := SimulateSession(m, start, rng, 0)
		if err != nil {
			return rep, err
		}
		est, err := drops.EstimateProtection(s.Arrivals, m.Threshold, s.Start, s.Final)
		if err != nil {
			return rep, err
		}
		diff := est.ProtectionCount - s.Protections
		if diff < 0 {
			diff = -diff
		}
		rep.Sessions++
		rep.Actual += s.Protections
		rep.Estimated += est.ProtectionCount
		rep.AbsError += diff
		if diff == 0 {
			rep.Exact++
		}
		if !est.Consistent() {
			rep.Warnings++
		}
	}
	return rep, nil
}
