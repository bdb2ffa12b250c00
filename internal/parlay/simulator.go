package parlay

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"parlay-lab/internal/odds"
)

var (
	// ErrNoLegs is returned when a parlay has nothing to combine.
	ErrNoLegs = errors.New("parlay has no legs")
	// ErrInvalidStake is returned for zero, negative or non-finite stakes.
	ErrInvalidStake = errors.New("stake must be positive")
)

// Simulation is the combined result of a set of legs at a stake.
type Simulation struct {
	ID                  string          `json:"id"`
	Legs                []Leg           `json:"legs"`
	Stake               float64         `json:"stake"`
	TotalOdds           float64         `json:"total_odds"` // decimal
	TotalAmericanOdds   *int            `json:"total_american_odds,omitempty"` // nil when too large for an int
	PotentialPayout     float64         `json:"potential_payout"`
	CombinedProbability float64         `json:"combined_probability"`
	BookProbability     float64         `json:"book_probability"` // 1 / TotalOdds
	FairProbability     float64         `json:"fair_probability"` // no-vig where opposite odds were given
	ExpectedValue       float64         `json:"expected_value"`
	DegenerateLevel     DegenerateLevel `json:"degenerate_level"`
	Highlights          []Highlight     `json:"simulation_highlights,omitempty"`
	TrashTalk           string          `json:"trash_talk,omitempty"`
}

// Simulate combines legs into a Simulation.
// Legs are treated as independent: probabilities and decimal odds multiply.
// The input slice is copied; leg order only affects highlight order.
func Simulate(legs []Leg, stake float64, cfg TierConfig) (*Simulation, error) {
	if len(legs) == 0 {
		return nil, ErrNoLegs
	}
	if stake <= 0 || math.IsNaN(stake) || math.IsInf(stake, 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidStake, stake)
	}

	snapshot := make([]Leg, len(legs))
	copy(snapshot, legs)

	combinedProb := 1.0
	fairProb := 1.0
	totalDecimal := 1.0
	for i := range snapshot {
		if snapshot[i].Factors != nil {
			f := snapshot[i].Factors.clone()
			snapshot[i].Factors = &f
		}
		if snapshot[i].OppositeOdds != nil {
			o := *snapshot[i].OppositeOdds
			snapshot[i].OppositeOdds = &o
		}
		if err := snapshot[i].derive(); err != nil {
			return nil, err
		}
		decimal, err := odds.AmericanToDecimal(snapshot[i].Odds)
		if err != nil {
			return nil, err
		}
		combinedProb *= snapshot[i].AdjustedProbability()
		fairProb *= snapshot[i].fairOrImplied()
		totalDecimal *= decimal
	}

	var american *int
	switch a, err := odds.DecimalToAmerican(totalDecimal); {
	case err == nil:
		american = &a
	case !errors.Is(err, odds.ErrOddsOutOfRange):
		return nil, err
	}

	payout := stake * totalDecimal
	level := Classify(combinedProb, len(snapshot), totalDecimal, cfg)

	return &Simulation{
		ID:                  uuid.NewString(),
		Legs:                snapshot,
		Stake:               stake,
		TotalOdds:           totalDecimal,
		TotalAmericanOdds:   american,
		PotentialPayout:     payout,
		CombinedProbability: combinedProb,
		BookProbability:     1 / totalDecimal,
		FairProbability:     fairProb,
		ExpectedValue:       combinedProb*payout - stake,
		DegenerateLevel:     level,
		Highlights:          Highlights(snapshot),
		TrashTalk:           TrashTalk(level),
	}, nil
}

// EVPercent is expected value as a share of stake.
func (s *Simulation) EVPercent() float64 {
	return s.ExpectedValue / s.Stake
}
