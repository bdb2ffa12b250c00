package parlay

// Highlight is a per-leg annotation shown next to a simulation.
type Highlight struct {
	LegID       string    `json:"leg_id"`
	Description string    `json:"description"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Note        string    `json:"note"`
}

var riskNotes = map[RiskLevel]string{
	RiskLow:     "Chalk. This one should hold.",
	RiskMedium:  "Coin flip with a little juice on it.",
	RiskHigh:    "Needs things to break your way.",
	RiskExtreme: "This is the leg that sinks the ticket.",
}

var tierTaunts = map[DegenerateLevel]string{
	LoanNeeded:    "Call the bank now and save yourself the trip later.",
	LotteryTicket: "Might as well buy a scratch-off on the way home.",
	Degenerate:    "Bold. Your group chat will hear about this one either way.",
	Sweaty:        "You'll be refreshing the box score all night.",
	Respectable:   "Almost responsible. Almost.",
}

// Highlights annotates each leg by risk level, in leg order.
func Highlights(legs []Leg) []Highlight {
	out := make([]Highlight, 0, len(legs))
	for _, leg := range legs {
		out = append(out, Highlight{
			LegID:       leg.ID,
			Description: leg.Description,
			RiskLevel:   leg.RiskLevel,
			Note:        riskNotes[leg.RiskLevel],
		})
	}
	return out
}

// TrashTalk returns the one-liner for a tier.
func TrashTalk(level DegenerateLevel) string {
	return tierTaunts[level]
}
