package roi

// StreakType is W for wins, L for losses, empty when there is no history.
type StreakType string

const (
	WinStreak  StreakType = "W"
	LossStreak StreakType = "L"
)

// Streak is a run of identical results.
type Streak struct {
	Type  StreakType `json:"type"`
	Count int        `json:"count"`
}

// StreakSummary is the streak view of a history.
type StreakSummary struct {
	Current         Streak `json:"current"`
	BestWinStreak   int    `json:"best_win_streak"`
	WorstLossStreak int    `json:"worst_loss_streak"`
}

// Streaks reads outcomes newest-first. Pushes, pending and unknown
// outcomes are skipped: they neither extend nor break a run.
func Streaks(outcomes []Outcome) StreakSummary {
	var sum StreakSummary
	var run Streak
	currentDone := false

	for _, o := range outcomes {
		var t StreakType
		switch o.Normalize() {
		case Won:
			t = WinStreak
		case Lost:
			t = LossStreak
		default:
			continue
		}

		if t == run.Type {
			run.Count++
		} else {
			if run.Type != "" {
				currentDone = true
			}
			run = Streak{Type: t, Count: 1}
		}

		if !currentDone {
			sum.Current = run
		}
		switch {
		case run.Type == WinStreak && run.Count > sum.BestWinStreak:
			sum.BestWinStreak = run.Count
		case run.Type == LossStreak && run.Count > sum.WorstLossStreak:
			sum.WorstLossStreak = run.Count
		}
	}
	return sum
}

// OutcomesOf extracts outcomes in the order given.
func OutcomesOf(history []SettledParlay) []Outcome {
	out := make([]Outcome, len(history))
	for i, p := range history {
		out[i] = p.Outcome
	}
	return out
}
