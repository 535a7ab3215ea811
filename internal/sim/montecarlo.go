package sim

import (
	"math"
	"sort"

	"github.com/sdwr/cowprofit/internal/enhance"
)

// Stats summarizes integer samples.
type Stats struct {
	Mean    float64 `json:"mean"`
	Var     float64 `json:"var"`
	StdDev  float64 `json:"std_dev"`
	P50     float64 `json:"p50"`
	P90     float64 `json:"p90"`
	P99     float64 `json:"p99"`
	Samples []int   `json:"-"` // raw samples for callers that export histograms
}

// Summary is the Monte Carlo view of a plan.
type Summary struct {
	Trials      int   `json:"trials"`
	Attempts    Stats `json:"attempts"`
	Protections Stats `json:"protections"`
	Blessed     Stats `json:"blessed"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// RunMonteCarlo repeats SimulateSession and returns summary stats.
func RunMonteCarlo(m enhance.Model, start, trials int, rng RandomSource) (Summary, error) {
	if trials <= 0 {
		return Summary{}, nil
	}
	attempts := make([]int, trials)
	prots := make([]int, trials)
	blessed := make([]int, trials)
	for i := 0; i < trials; i++ {
		s, err := SimulateSession(m, start, rng, 0)
		if err != nil {
			return Summary{}, err
		}
		attempts[i], prots[i], blessed[i] = s.Attempts, s.Protections, s.Blessed
	}
	return Summary{
		Trials:      trials,
		Attempts:    calcStats(attempts),
		Protections: calcStats(prots),
		Blessed:     calcStats(blessed),
	}, nil
}
