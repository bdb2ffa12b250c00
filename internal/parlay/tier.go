package parlay

import (
	"fmt"
	"strconv"
	"strings"
)

// DegenerateLevel is the qualitative tier of a parlay, ordered from worst to best.
type DegenerateLevel int

const (
	LoanNeeded DegenerateLevel = iota
	LotteryTicket
	Degenerate
	Sweaty
	Respectable
)

var levelNames = map[DegenerateLevel]string{
	LoanNeeded:    "LOAN_NEEDED",
	LotteryTicket: "LOTTERY_TICKET",
	Degenerate:    "DEGENERATE",
	Sweaty:        "SWEATY",
	Respectable:   "RESPECTABLE",
}

func (d DegenerateLevel) String() string {
	if name, ok := levelNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText encodes the tier by name.
func (d DegenerateLevel) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a tier name.
func (d *DegenerateLevel) UnmarshalText(text []byte) error {
	for level, name := range levelNames {
		if strings.EqualFold(name, string(text)) {
			*d = level
			return nil
		}
	}
	return fmt.Errorf("unknown degenerate level %q", text)
}

// TierConfig holds the policy constants behind Classify.
type TierConfig struct {
	// Minimum combined probability for Respectable, Sweaty, Degenerate and
	// LotteryTicket, in that order. Anything lower is LoanNeeded.
	Thresholds [4]float64

	// Parlays with at least this many legs drop one tier.
	LegPenaltyAt int

	// Parlays paying at least this decimal multiple cap at LotteryTicket.
	LongshotDecimal float64
}

// DefaultTierConfig returns the stock tier boundaries.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		Thresholds:      [4]float64{0.40, 0.20, 0.08, 0.02},
		LegPenaltyAt:    10,
		LongshotDecimal: 101,
	}
}

// Validate checks thresholds are strictly descending inside (0,1).
func (c TierConfig) Validate() error {
	prev := 1.0
	for i, th := range c.Thresholds {
		if th <= 0 || th >= prev {
			return fmt.Errorf("tier threshold %d (%v) must be in (0, %v)", i, th, prev)
		}
		prev = th
	}
	if c.LegPenaltyAt < 2 {
		return fmt.Errorf("leg penalty must start at 2 or more legs, got %d", c.LegPenaltyAt)
	}
	if c.LongshotDecimal <= 1 {
		return fmt.Errorf("longshot decimal must be > 1, got %v", c.LongshotDecimal)
	}
	return nil
}

// ParseThresholds reads "0.40,0.20,0.08,0.02" into the threshold array.
func ParseThresholds(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("expected %d comma-separated thresholds, got %d", len(out), len(parts))
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("threshold %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// Classify maps a parlay onto its tier. It is a pure function of its
// inputs and never moves toward LoanNeeded as combinedProb rises.
func Classify(combinedProb float64, legCount int, totalDecimal float64, cfg TierConfig) DegenerateLevel {
	level := LoanNeeded
	for i, th := range cfg.Thresholds {
		if combinedProb >= th {
			level = Respectable - DegenerateLevel(i)
			break
		}
	}

	if legCount >= cfg.LegPenaltyAt && level > LoanNeeded {
		level--
	}
	if totalDecimal >= cfg.LongshotDecimal && level > LotteryTicket {
		level = LotteryTicket
	}
	return level
}
