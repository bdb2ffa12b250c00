package mathutil

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalSurvival returns P(X >= x) for X ~ N(mean, stddev²).
// A non-positive stddev collapses to a point mass at mean.
func NormalSurvival(x, mean, stddev float64) float64 {
	if stddev <= 0 {
		if mean >= x {
			return 1
		}
		return 0
	}
	return distuv.Normal{Mu: mean, Sigma: stddev}.Survival(x)
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
