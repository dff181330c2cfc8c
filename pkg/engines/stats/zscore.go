package stats

import "math"

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStdDev returns the population standard deviation of values.
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// zScore returns the standard score of value against the given reference
// sample. With fewer than two samples or a degenerate distribution the
// score is 0.
func zScore(value float64, sample []float64) float64 {
	if len(sample) < 2 {
		return 0
	}
	sd := popStdDev(sample)
	if sd == 0 {
		return 0
	}
	return (value - mean(sample)) / sd
}
