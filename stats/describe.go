package stats

import (
	"math"
	"sort"
)

// bucket holds the descriptive statistics of one winner/loser bucket.
// All fields are nil for an empty bucket.
type bucket struct {
	avg, median, min, max *float64
}

func describe(values []float64) bucket {
	if len(values) == 0 {
		return bucket{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return bucket{
		avg:    ptr(mean(values)),
		median: ptr(median(sorted)),
		min:    ptr(sorted[0]),
		max:    ptr(sorted[len(sorted)-1]),
	}
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleVariance uses the n-1 denominator and needs at least two values.
func sampleVariance(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(n-1), true
}

func sum(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
