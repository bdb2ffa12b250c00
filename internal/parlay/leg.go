package parlay

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"parlay-lab/internal/mathutil"
	"parlay-lab/internal/odds"
)

// RiskLevel is the qualitative risk bucket of a single leg.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// Adjusted leg probabilities are clamped into [minLegProb, maxLegProb] so a
// single leg can never zero out (or guarantee) the whole parlay.
const (
	minLegProb = 0.001
	maxLegProb = 0.999

	// backToBackPenalty scales a leg on the second night of a back-to-back.
	backToBackPenalty = 0.94
)

// RiskLevelFor buckets an implied probability.
//
//	>= 60%  low
//	>= 45%  medium
//	>= 25%  high
//	else    extreme
func RiskLevelFor(impliedProb float64) RiskLevel {
	switch {
	case impliedProb >= 0.60:
		return RiskLow
	case impliedProb >= 0.45:
		return RiskMedium
	case impliedProb >= 0.25:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// ContextualFactors nudge a leg's probability away from the book's number.
// Nil multipliers are unset and count as neutral (1.0).
type ContextualFactors struct {
	InjuryImpact   float64  `json:"injury_impact,omitempty"`   // additive, only negative values apply
	DefenseRating  *float64 `json:"defense_rating,omitempty"`  // multiplier
	BackToBack     bool     `json:"back_to_back,omitempty"`    // fixed 6% haircut
	PaceAdjustment *float64 `json:"pace_adjustment,omitempty"` // multiplier
	RecentForm     *float64 `json:"recent_form,omitempty"`     // multiplier
}

// Validate rejects negative or non-finite multipliers.
func (f ContextualFactors) Validate() error {
	for name, m := range map[string]*float64{
		"defense_rating":  f.DefenseRating,
		"pace_adjustment": f.PaceAdjustment,
		"recent_form":     f.RecentForm,
	} {
		if m != nil && (*m < 0 || math.IsNaN(*m) || math.IsInf(*m, 0)) {
			return fmt.Errorf("contextual multiplier %s must be finite and non-negative, got %v", name, *m)
		}
	}
	if math.IsNaN(f.InjuryImpact) || math.IsInf(f.InjuryImpact, 0) {
		return fmt.Errorf("injury impact must be finite, got %v", f.InjuryImpact)
	}
	return nil
}

// Apply adjusts a base probability.
// Order: multiplicative scalers (pace, form, defense, back-to-back), then the
// additive injury impact, then clamp.
func (f ContextualFactors) Apply(baseProb float64) float64 {
	p := baseProb * multiplier(f.PaceAdjustment) * multiplier(f.RecentForm) * multiplier(f.DefenseRating)
	if f.BackToBack {
		p *= backToBackPenalty
	}
	if f.InjuryImpact < 0 {
		p += f.InjuryImpact
	}
	return mathutil.Clamp(p, minLegProb, maxLegProb)
}

func (f ContextualFactors) clone() ContextualFactors {
	c := f
	for _, m := range []**float64{&c.DefenseRating, &c.PaceAdjustment, &c.RecentForm} {
		if *m != nil {
			v := **m
			*m = &v
		}
	}
	return c
}

func multiplier(m *float64) float64 {
	if m == nil {
		return 1
	}
	return *m
}

// Leg is one proposition inside a parlay.
type Leg struct {
	ID                 string             `json:"id"`
	Description        string             `json:"description"`
	Odds               int                `json:"odds"`
	ImpliedProbability float64            `json:"implied_probability"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	Factors            *ContextualFactors `json:"contextual_factors,omitempty"`

	// OppositeOdds is the other side of a two-way market. When present
	// FairProbability carries the no-vig probability of this side.
	OppositeOdds    *int    `json:"opposite_odds,omitempty"`
	FairProbability float64 `json:"fair_probability,omitempty"`
}

// NewLeg builds a leg with derived probability and risk level.
func NewLeg(description string, americanOdds int, factors *ContextualFactors) (Leg, error) {
	leg := Leg{
		ID:          uuid.NewString(),
		Description: description,
		Odds:        americanOdds,
		Factors:     factors,
	}
	if err := leg.derive(); err != nil {
		return Leg{}, err
	}
	return leg, nil
}

// derive recomputes the fields that come from Odds. Legs decoded from JSON
// go through here so client-supplied probabilities are never trusted.
func (l *Leg) derive() error {
	implied, err := odds.ImpliedProbability(l.Odds)
	if err != nil {
		return fmt.Errorf("leg %q: %w", l.Description, err)
	}
	if l.Factors != nil {
		if err := l.Factors.Validate(); err != nil {
			return fmt.Errorf("leg %q: %w", l.Description, err)
		}
	}
	l.FairProbability = 0
	if l.OppositeOdds != nil {
		fair, err := odds.NoVigProbability(l.Odds, *l.OppositeOdds)
		if err != nil {
			return fmt.Errorf("leg %q opposite side: %w", l.Description, err)
		}
		l.FairProbability = fair
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.ImpliedProbability = implied
	l.RiskLevel = RiskLevelFor(implied)
	return nil
}

// fairOrImplied is the no-vig probability when the opposite side is known.
func (l Leg) fairOrImplied() float64 {
	if l.FairProbability > 0 {
		return l.FairProbability
	}
	return l.ImpliedProbability
}

// AdjustedProbability is the implied probability after contextual factors.
// Without factors it is the book's implied probability.
func (l Leg) AdjustedProbability() float64 {
	if l.Factors == nil {
		return l.ImpliedProbability
	}
	return l.Factors.Apply(l.ImpliedProbability)
}
