package mispricing

import (
	"fmt"
	"math"
	"strings"
)

// Side is the direction of the bet being scored.
type Side string

const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Classification describes how the live line compares to the model.
type Classification string

const (
	Soft  Classification = "SOFT"  // line underestimates the bettor's side
	Sharp Classification = "SHARP" // line tracks the model
	Stale Classification = "STALE" // line overestimates the bettor's side
)

// Signal weights and classification cutoffs.
const (
	L10Weight   = 0.40
	ProjWeight  = 0.35
	DriftWeight = 0.25

	SoftThreshold  = 1.5
	StaleThreshold = -1.5

	neutralPace = 100.0
)

// Prop is one live player prop. Pointer fields are optional; missing values
// fall back to neutral so a single incomplete prop still scores.
type Prop struct {
	ID             string   `json:"id"`
	Player         string   `json:"player,omitempty"`
	Stat           string   `json:"stat,omitempty"`
	Book           string   `json:"book,omitempty"`
	Side           Side     `json:"side,omitempty"`
	OriginalLine   *float64 `json:"original_line,omitempty"` // opening book line
	LiveBookLine   float64  `json:"live_book_line"`
	L10Avg         *float64 `json:"l10_avg,omitempty"`         // trailing 10-game average
	PaceRating     *float64 `json:"pace_rating,omitempty"`     // 100 = league average
	ProjectedFinal *float64 `json:"projected_final,omitempty"` // model's final-stat projection
}

// Result is the per-prop output, keeping the component signals for display.
type Result struct {
	PropID         string         `json:"prop_id"`
	Score          float64        `json:"score"`
	Classification Classification `json:"classification"`
	L10Edge        float64        `json:"l10_edge"`
	ProjEdge       float64        `json:"proj_edge"`
	LineDrift      float64        `json:"line_drift"`
}

// polarity is +1 for overs and -1 for unders.
func (p Prop) polarity() float64 {
	if Side(strings.ToUpper(string(p.Side))) == SideUnder {
		return -1
	}
	return 1
}

// Score computes the composite edge for one prop.
//
//	paceAdjL10 = l10Avg * pace/100
//	l10Edge    = paceAdjL10 - live
//	projEdge   = projected - live
//	lineDrift  = original - live
//	score      = 0.4*l10Edge + 0.35*projEdge + 0.25*lineDrift
//
// All three signals flip sign for unders.
func Score(p Prop) (Result, error) {
	live := p.LiveBookLine
	if math.IsNaN(live) || math.IsInf(live, 0) {
		return Result{}, fmt.Errorf("prop %s: live book line is not finite", p.ID)
	}

	l10 := valueOr(p.L10Avg, live)
	pace := valueOr(p.PaceRating, neutralPace)
	if pace <= 0 {
		pace = neutralPace
	}
	projected := valueOr(p.ProjectedFinal, live)
	original := valueOr(p.OriginalLine, live)

	sign := p.polarity()
	res := Result{
		PropID:    p.ID,
		L10Edge:   sign * (l10*(pace/neutralPace) - live),
		ProjEdge:  sign * (projected - live),
		LineDrift: sign * (original - live),
	}
	res.Score = L10Weight*res.L10Edge + ProjWeight*res.ProjEdge + DriftWeight*res.LineDrift
	res.Classification = Classify(res.Score)
	return res, nil
}

// Classify buckets a composite score.
func Classify(score float64) Classification {
	switch {
	case score >= SoftThreshold:
		return Soft
	case score <= StaleThreshold:
		return Stale
	default:
		return Sharp
	}
}

// ScoreBatch scores every prop independently, keyed by prop id. Props that
// cannot be scored are left out rather than failing the batch.
func ScoreBatch(props []Prop) map[string]Result {
	out := make(map[string]Result, len(props))
	for _, p := range props {
		res, err := Score(p)
		if err != nil {
			continue
		}
		out[p.ID] = res
	}
	return out
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	return *v
}
