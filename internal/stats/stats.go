// Package stats implements the Statistics record: the N/sum/sum^2/mean/
// variance/deviation value type shared by the integral image, quad-tree
// nodes, and segment union-find records.
package stats

import "math"

// Statistics carries first- and second-order moments of a sample set.
type Statistics struct {
	N         int64
	Sum       float64
	SumSq     float64
	Mean      float64
	Variance  float64
	Deviation float64
}

// Zero is the statistics of an empty sample set.
func Zero() Statistics {
	return Statistics{}
}

// derive fills Mean/Variance/Deviation from N/Sum/SumSq, clamping variance
// to zero to absorb floating-point noise.
func derive(n int64, sum, sumSq float64) Statistics {
	if n <= 0 {
		return Zero()
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return Statistics{
		N: n, Sum: sum, SumSq: sumSq,
		Mean: mean, Variance: variance, Deviation: math.Sqrt(variance),
	}
}

// FromMoments builds a Statistics from raw N/sum/sum^2, deriving the rest.
func FromMoments(n int64, sum, sumSq float64) Statistics {
	return derive(n, sum, sumSq)
}

// Combine merges two disjoint sample sets' statistics (a.N, b.N samples
// drawn from non-overlapping support).
func Combine(a, b Statistics) Statistics {
	return derive(a.N+b.N, a.Sum+b.Sum, a.SumSq+b.SumSq)
}
