package dataprocessing

import (
	"math"
	"sort"
)

// quantile estimates the p-th quantile (0 <= p <= 1) of sorted values using
// linear interpolation between adjacent order statistics: rank = p*(n-1),
// interpolated between the two nearest sorted values. This matches the
// estimator the summary thresholds were calibrated against.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// quartiles returns Q1 and Q3 of values. ok is false for degenerate sets
// (fewer than two values), which apply no additional filtering rather than
// failing.
func quartiles(values []float64) (q1, q3 float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return quantile(sorted, 0.25), quantile(sorted, 0.75), true
}
