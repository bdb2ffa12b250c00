package roi

import (
	"fmt"
	"strings"
	"time"

	"parlay-lab/internal/odds"
)

// Outcome is the settlement state of a parlay.
type Outcome string

const (
	Won     Outcome = "won"
	Lost    Outcome = "lost"
	Push    Outcome = "push"
	Pending Outcome = "pending"
)

// Normalize lower-cases and trims an outcome string.
func (o Outcome) Normalize() Outcome {
	return Outcome(strings.ToLower(strings.TrimSpace(string(o))))
}

// Settled reports whether the outcome counts toward ROI.
func (o Outcome) Settled() bool {
	switch o.Normalize() {
	case Won, Lost, Push:
		return true
	}
	return false
}

// SettledParlay is one historical ticket.
type SettledParlay struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	TotalOdds   int       `json:"total_odds"` // American
	Stake       float64   `json:"stake"`
	Outcome     Outcome   `json:"outcome"`
	SettledAt   time.Time `json:"settled_at"`
}

// Stats is the money side of a betting history.
type Stats struct {
	TotalStaked   float64 `json:"total_staked"`
	TotalReturned float64 `json:"total_returned"`
	NetProfit     float64 `json:"net_profit"`
	ROIPercentage float64 `json:"roi_percentage"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Pushes        int     `json:"pushes"`
}

// Aggregate rolls up staked, returned, profit and ROI. Only won, lost and
// push tickets count; a push returns its stake.
func Aggregate(history []SettledParlay) (Stats, error) {
	var s Stats
	for _, p := range history {
		switch p.Outcome.Normalize() {
		case Won:
			payout, err := odds.CalculatePayout(p.TotalOdds, p.Stake)
			if err != nil {
				return Stats{}, fmt.Errorf("parlay %s: %w", p.ID, err)
			}
			s.TotalStaked += p.Stake
			s.TotalReturned += payout
			s.Wins++
		case Lost:
			s.TotalStaked += p.Stake
			s.Losses++
		case Push:
			s.TotalStaked += p.Stake
			s.TotalReturned += p.Stake
			s.Pushes++
		}
	}

	s.NetProfit = s.TotalReturned - s.TotalStaked
	if s.TotalStaked > 0 {
		s.ROIPercentage = s.NetProfit / s.TotalStaked * 100
	}
	return s, nil
}
