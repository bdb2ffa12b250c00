package parlay

import (
	"errors"
	"math"
	"testing"

	"parlay-lab/internal/odds"
)

func mustLeg(t *testing.T, desc string, americanOdds int, f *ContextualFactors) Leg {
	t.Helper()
	leg, err := NewLeg(desc, americanOdds, f)
	if err != nil {
		t.Fatalf("NewLeg(%q, %d): %v", desc, americanOdds, err)
	}
	return leg
}

// TestSimulateThreeLegScenario checks a -110 / -115 / +350 ticket at $25
// against hand-computed values.
func TestSimulateThreeLegScenario(t *testing.T) {
	legs := []Leg{
		mustLeg(t, "Celtics -4.5", -110, nil),
		mustLeg(t, "Tatum over 27.5 pts", -115, nil),
		mustLeg(t, "Knicks ML", 350, nil),
	}

	sim, err := Simulate(legs, 25, DefaultTierConfig())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	// 1.90909 * 1.86957 * 4.5
	wantDecimal := (100.0/110 + 1) * (100.0/115 + 1) * 4.5
	if math.Abs(sim.TotalOdds-16.0613) > 0.001 || math.Abs(sim.TotalOdds-wantDecimal) > 1e-9 {
		t.Errorf("TotalOdds = %v, want %v", sim.TotalOdds, wantDecimal)
	}
	if sim.TotalAmericanOdds == nil || *sim.TotalAmericanOdds != 1506 {
		t.Errorf("TotalAmericanOdds = %v, want 1506", sim.TotalAmericanOdds)
	}
	if math.Abs(sim.PotentialPayout-401.53) > 0.01 {
		t.Errorf("PotentialPayout = %v, want 401.53", sim.PotentialPayout)
	}
	if math.Abs(sim.CombinedProbability-0.06226) > 0.0001 {
		t.Errorf("CombinedProbability = %v, want 0.06226", sim.CombinedProbability)
	}
	// With no contextual factors the model agrees with the book, so EV is zero.
	if math.Abs(sim.ExpectedValue) > 1e-9 {
		t.Errorf("ExpectedValue = %v, want 0", sim.ExpectedValue)
	}
	if sim.DegenerateLevel != LotteryTicket {
		t.Errorf("DegenerateLevel = %v, want LOTTERY_TICKET", sim.DegenerateLevel)
	}

	wantRisk := []RiskLevel{RiskMedium, RiskMedium, RiskExtreme}
	if len(sim.Highlights) != len(wantRisk) {
		t.Fatalf("got %d highlights, want %d", len(sim.Highlights), len(wantRisk))
	}
	for i, h := range sim.Highlights {
		if h.RiskLevel != wantRisk[i] {
			t.Errorf("highlight %d risk = %s, want %s", i, h.RiskLevel, wantRisk[i])
		}
		if h.Note == "" {
			t.Errorf("highlight %d has no note", i)
		}
	}
	if sim.TrashTalk == "" {
		t.Error("expected trash talk for tier")
	}
}

func TestSimulateRejectsBadInput(t *testing.T) {
	leg := mustLeg(t, "Lakers ML", 120, nil)

	if _, err := Simulate(nil, 10, DefaultTierConfig()); !errors.Is(err, ErrNoLegs) {
		t.Errorf("empty legs err = %v, want ErrNoLegs", err)
	}

	for _, stake := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := Simulate([]Leg{leg}, stake, DefaultTierConfig()); !errors.Is(err, ErrInvalidStake) {
			t.Errorf("stake %v err = %v, want ErrInvalidStake", stake, err)
		}
	}

	bad := Leg{Description: "typo", Odds: 0}
	if _, err := Simulate([]Leg{leg, bad}, 10, DefaultTierConfig()); !errors.Is(err, odds.ErrInvalidOdds) {
		t.Errorf("zero odds err = %v, want ErrInvalidOdds", err)
	}
}

func TestSimulateLongShotOverflow(t *testing.T) {
	legs := make([]Leg, 20)
	for i := range legs {
		legs[i] = mustLeg(t, "long shot", 1000, nil)
	}

	sim, err := Simulate(legs, 10, DefaultTierConfig())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	want := math.Pow(11, 20)
	if math.Abs(sim.TotalOdds-want)/want > 1e-12 {
		t.Errorf("TotalOdds = %v, want %v", sim.TotalOdds, want)
	}
	if sim.TotalAmericanOdds != nil {
		t.Errorf("TotalAmericanOdds = %d, want nil past int range", *sim.TotalAmericanOdds)
	}
	if sim.DegenerateLevel != LoanNeeded {
		t.Errorf("DegenerateLevel = %s, want LOAN_NEEDED", sim.DegenerateLevel)
	}
}

func TestSimulateOrderIndependent(t *testing.T) {
	a := mustLeg(t, "A", -110, &ContextualFactors{PaceAdjustment: fp(1.05)})
	b := mustLeg(t, "B", 250, &ContextualFactors{BackToBack: true})
	c := mustLeg(t, "C", -200, &ContextualFactors{InjuryImpact: -0.05})

	s1, err := Simulate([]Leg{a, b, c}, 10, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Simulate([]Leg{c, a, b}, 10, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(s1.CombinedProbability-s2.CombinedProbability) > 1e-12 {
		t.Errorf("CombinedProbability differs by order: %v vs %v", s1.CombinedProbability, s2.CombinedProbability)
	}
	if math.Abs(s1.TotalOdds-s2.TotalOdds) > 1e-12 {
		t.Errorf("TotalOdds differs by order: %v vs %v", s1.TotalOdds, s2.TotalOdds)
	}
	if s1.Highlights[0].LegID != a.ID || s2.Highlights[0].LegID != c.ID {
		t.Error("highlights should follow leg order")
	}
}

func TestSimulateDoesNotMutateInput(t *testing.T) {
	f := &ContextualFactors{RecentForm: fp(1.1)}
	legs := []Leg{{ID: "leg-1", Description: "raw", Odds: -130, ImpliedProbability: 0.99, Factors: f}}

	sim, err := Simulate(legs, 5, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if legs[0].ImpliedProbability != 0.99 {
		t.Error("input leg was modified")
	}
	if sim.Legs[0].Factors == f || sim.Legs[0].Factors.RecentForm == f.RecentForm {
		t.Error("snapshot shares factor pointers with input")
	}
	if math.Abs(sim.Legs[0].ImpliedProbability-130.0/230.0) > 1e-9 {
		t.Errorf("snapshot implied prob = %v, want recomputed from odds", sim.Legs[0].ImpliedProbability)
	}
}

func TestSimulatePositiveEVWithFavorableFactors(t *testing.T) {
	legs := []Leg{
		mustLeg(t, "A", -110, &ContextualFactors{PaceAdjustment: fp(1.1), RecentForm: fp(1.05)}),
		mustLeg(t, "B", -110, &ContextualFactors{DefenseRating: fp(1.08)}),
	}
	sim, err := Simulate(legs, 20, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sim.ExpectedValue <= 0 {
		t.Errorf("ExpectedValue = %v, want > 0", sim.ExpectedValue)
	}
	if sim.CombinedProbability <= sim.BookProbability {
		t.Errorf("model prob %v should beat book prob %v", sim.CombinedProbability, sim.BookProbability)
	}
	if math.Abs(sim.EVPercent()-sim.ExpectedValue/20) > 1e-12 {
		t.Errorf("EVPercent = %v", sim.EVPercent())
	}
}

func TestSimulatePayoutAtLeastStake(t *testing.T) {
	legs := []Leg{mustLeg(t, "heavy fav", -10000, nil), mustLeg(t, "fav", -500, nil)}
	sim, err := Simulate(legs, 100, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sim.PotentialPayout < sim.Stake {
		t.Errorf("PotentialPayout %v < stake %v", sim.PotentialPayout, sim.Stake)
	}
	if sim.CombinedProbability <= 0 || sim.CombinedProbability > 1 {
		t.Errorf("CombinedProbability %v out of (0,1]", sim.CombinedProbability)
	}
}

func TestSimulateFairProbability(t *testing.T) {
	opp := -110
	withOpp := mustLeg(t, "Celtics -4.5", -110, nil)
	withOpp.OppositeOdds = &opp
	plain := mustLeg(t, "Knicks ML", 350, nil)

	sim, err := Simulate([]Leg{withOpp, plain}, 10, DefaultTierConfig())
	if err != nil {
		t.Fatal(err)
	}

	// -110/-110 is a coin flip once the margin is removed.
	if math.Abs(sim.Legs[0].FairProbability-0.5) > 1e-6 {
		t.Errorf("leg fair probability = %v, want 0.5", sim.Legs[0].FairProbability)
	}
	if sim.Legs[1].FairProbability != 0 {
		t.Errorf("leg without opposite odds should have no fair probability, got %v", sim.Legs[1].FairProbability)
	}
	want := 0.5 * (1 / 4.5)
	if math.Abs(sim.FairProbability-want) > 1e-6 {
		t.Errorf("FairProbability = %v, want %v", sim.FairProbability, want)
	}
	// The fair price does not move the model probability.
	if math.Abs(sim.CombinedProbability-sim.BookProbability) > 1e-9 {
		t.Errorf("CombinedProbability %v should still equal BookProbability %v", sim.CombinedProbability, sim.BookProbability)
	}

	bad := 0
	withOpp.OppositeOdds = &bad
	if _, err := Simulate([]Leg{withOpp}, 10, DefaultTierConfig()); !errors.Is(err, odds.ErrInvalidOdds) {
		t.Errorf("zero opposite odds err = %v, want ErrInvalidOdds", err)
	}
}
