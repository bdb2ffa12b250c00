package odds

import "math"

// NoVigProbability strips the book's margin from one side of a two-way
// market using the power method: find k with pA^k + pB^k = 1 and return
// pA^k. Longshots are deflated more than favorites, matching the
// favorite-longshot bias in posted prices.
func NoVigProbability(odds, opposite int) (float64, error) {
	pA, err := ImpliedProbability(odds)
	if err != nil {
		return 0, err
	}
	pB, err := ImpliedProbability(opposite)
	if err != nil {
		return 0, err
	}

	if math.Abs(pA+pB-1.0) < 1e-9 {
		return pA, nil
	}
	return math.Pow(pA, powerExponent(pA, pB)), nil
}

// powerExponent bisects for k in [0.01, 10]. For 0 < p < 1, p^k falls as k
// rises, so an overround market needs k > 1 and an underround one k < 1.
func powerExponent(pA, pB float64) float64 {
	const (
		tolerance = 1e-9
		maxIters  = 100
	)

	low, high := 0.01, 10.0
	for i := 0; i < maxIters; i++ {
		mid := (low + high) / 2
		sum := math.Pow(pA, mid) + math.Pow(pB, mid)

		if math.Abs(sum-1.0) < tolerance {
			return mid
		}
		if sum > 1 {
			low = mid
		} else {
			high = mid
		}
	}
	return (low + high) / 2
}
