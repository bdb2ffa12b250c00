package odds

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOdds is returned for American odds of 0, which have no payout meaning.
var ErrInvalidOdds = errors.New("invalid American odds")

// ErrOddsOutOfRange is returned when decimal odds have no American
// equivalent that fits in an int. It wraps ErrInvalidOdds.
var ErrOddsOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidOdds)

// AmericanToDecimal converts American odds to decimal odds (stake included)
// Example: +350 → 4.5, -110 → 1.909
func AmericanToDecimal(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: cannot be 0", ErrInvalidOdds)
	}

	if odds > 0 {
		// Underdog: profit per 100 staked
		return float64(odds)/100.0 + 1.0, nil
	}
	// Favorite: stake |odds| to win 100
	return 100.0/math.Abs(float64(odds)) + 1.0, nil
}

// ImpliedProbability converts American odds to the book's implied probability
// Example: +350 → 0.2222, -110 → 0.5238
func ImpliedProbability(odds int) (float64, error) {
	decimal, err := AmericanToDecimal(odds)
	if err != nil {
		return 0, err
	}
	return 1.0 / decimal, nil
}

// CalculatePayout returns the total return (stake included) of a winning bet.
func CalculatePayout(odds int, stake float64) (float64, error) {
	decimal, err := AmericanToDecimal(odds)
	if err != nil {
		return 0, err
	}
	return stake * decimal, nil
}

// DecimalToAmerican converts decimal odds back to the American convention.
// Decimal 2.0 and above map to positive odds.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("%w: decimal odds %v must be > 1", ErrInvalidOdds, decimal)
	}

	var american float64
	if decimal >= 2.0 {
		american = math.Round((decimal - 1.0) * 100.0)
	} else {
		american = math.Round(-100.0 / (decimal - 1.0))
	}
	// float64(math.MaxInt) rounds up to 2^63, which is itself unrepresentable.
	if american >= float64(math.MaxInt) || american < float64(math.MinInt) {
		return 0, fmt.Errorf("%w: decimal odds %v", ErrOddsOutOfRange, decimal)
	}
	return int(american), nil
}
