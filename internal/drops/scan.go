package drops

// Scan runs EstimateProtection for every threshold from one above the lowest
// observed level up to the highest, for sessions whose threshold was not recorded.
func Scan(h Histogram, start, final int) ([]Estimate, error) {
	lo, ok := h.MinLevel()
	if !ok {
		return nil, nil
	}
	hi, _ := h.MaxLevel()

	out := make([]Estimate, 0, hi-lo)
	for threshold := lo + 1; threshold <= hi; threshold++ {
		est, err := EstimateProtection(h, threshold, start, final)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}

// ClosestTo returns the scanned estimate whose count is nearest to actual,
// preferring the lower threshold on ties.
func ClosestTo(estimates []Estimate, actual int) (Estimate, bool) {
	var best Estimate
	found := false
	bestDiff := 0
	for _, e := range estimates {
		diff := e.ProtectionCount - actual
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = e, diff, true
		}
	}
	return best, found
}
