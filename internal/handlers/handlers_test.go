package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"parlay-lab/internal/alerts"
	"parlay-lab/internal/config"
	"parlay-lab/internal/engine"
	"parlay-lab/internal/ledger"
	"parlay-lab/internal/montecarlo"
	"parlay-lab/internal/oddscache"
	"parlay-lab/internal/parlay"
)

func newTestRouter(t *testing.T, withLedger bool) http.Handler {
	t.Helper()
	cfg := config.Config{
		MCWorkers:           2,
		MCDefaultSims:       1000,
		MCMaxSims:           20000,
		MCSeed:              11,
		OddsCacheTTL:        time.Hour,
		OddsCacheMaxEntries: 100,
		AlertCooldown:       time.Minute,
		TierThresholds:      parlay.DefaultTierConfig().Thresholds,
	}

	pool := montecarlo.NewPool(montecarlo.PoolConfig{Workers: cfg.MCWorkers, MaxSimCount: cfg.MCMaxSims, Seed: cfg.MCSeed})
	t.Cleanup(pool.Close)

	var db *ledger.DB
	if withLedger {
		tmpFile, err := os.CreateTemp("", "test_handlers_*.db")
		if err != nil {
			t.Fatalf("creating temp file: %v", err)
		}
		tmpFile.Close()
		t.Cleanup(func() { os.Remove(tmpFile.Name()) })

		db, err = ledger.NewDB(tmpFile.Name())
		if err != nil {
			t.Fatalf("NewDB: %v", err)
		}
		t.Cleanup(func() { db.Close() })
	}

	e := engine.New(pool, oddscache.NewMemoryCache(cfg.OddsCacheTTL, cfg.OddsCacheMaxEntries), db, alerts.NewNotifier(cfg.AlertCooldown), cfg)
	return NewRouter(NewHandler(e), []string{"*"})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t, false)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSimulateParlay(t *testing.T) {
	h := newTestRouter(t, false)

	body := `{"stake":25,"legs":[
		{"description":"Knicks ML","odds":-110},
		{"description":"Over 221.5","odds":-115},
		{"description":"Brunson 35+","odds":350}
	]}`
	rec := do(t, h, http.MethodPost, "/api/v1/parlay/simulate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var sim struct {
		TotalOdds         float64 `json:"total_odds"`
		TotalAmericanOdds int     `json:"total_american_odds"`
		PotentialPayout   float64 `json:"potential_payout"`
		DegenerateLevel   string  `json:"degenerate_level"`
		Legs              []struct {
			ID        string `json:"id"`
			RiskLevel string `json:"risk_level"`
		} `json:"legs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sim); err != nil {
		t.Fatal(err)
	}

	if math.Abs(sim.TotalOdds-16.0613) > 0.001 {
		t.Errorf("TotalOdds = %v, want ~16.0613", sim.TotalOdds)
	}
	if sim.TotalAmericanOdds != 1506 {
		t.Errorf("TotalAmericanOdds = %d, want 1506", sim.TotalAmericanOdds)
	}
	if math.Abs(sim.PotentialPayout-401.53) > 0.01 {
		t.Errorf("PotentialPayout = %v, want ~401.53", sim.PotentialPayout)
	}
	if sim.DegenerateLevel != "LOTTERY_TICKET" {
		t.Errorf("DegenerateLevel = %q, want LOTTERY_TICKET", sim.DegenerateLevel)
	}
	if len(sim.Legs) != 3 || sim.Legs[0].ID == "" {
		t.Errorf("legs = %+v", sim.Legs)
	}
}

func TestSimulateParlayBadInput(t *testing.T) {
	h := newTestRouter(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"stake":`},
		{"no legs", `{"stake":10,"legs":[]}`},
		{"zero stake", `{"stake":0,"legs":[{"odds":150}]}`},
		{"zero odds", `{"stake":10,"legs":[{"odds":0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/parlay/simulate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestMonteCarloBatch(t *testing.T) {
	h := newTestRouter(t, false)

	body := `{"requests":[
		{"id":"x","projected":30,"sigma_rem":0,"line":20},
		{"id":"y","projected":30,"sigma_rem":3,"line":20,"sim_count":-1},
		{"projected":25,"sigma_rem":4,"line":24.5,"current_value":12}
	]}`
	rec := do(t, h, http.MethodPost, "/api/v1/montecarlo", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Results []MonteCarloResult `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.Results))
	}
	if out.Results[0].ID != "x" || out.Results[0].POver == nil || *out.Results[0].POver != montecarlo.MaxPOver {
		t.Errorf("x = %+v", out.Results[0])
	}
	if out.Results[1].ID != "y" || out.Results[1].Error == "" || out.Results[1].POver != nil {
		t.Errorf("y = %+v, want error", out.Results[1])
	}
	if out.Results[2].ID == "" || out.Results[2].POver == nil {
		t.Errorf("third = %+v, want generated id and p_over", out.Results[2])
	}
}

func TestMonteCarloEmpty(t *testing.T) {
	h := newTestRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/montecarlo", `{"requests":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMispricing(t *testing.T) {
	h := newTestRouter(t, false)

	body := `{"props":[
		{"id":"soft","side":"OVER","original_line":28.5,"live_book_line":24.5,"l10_avg":28,"projected_final":27.5},
		{"id":"sharp","live_book_line":20}
	]}`
	rec := do(t, h, http.MethodPost, "/api/v1/mispricing", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Results map[string]struct {
			Classification string  `json:"classification"`
			Score          float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Results["soft"].Classification != "SOFT" {
		t.Errorf("soft = %+v", out.Results["soft"])
	}
	if out.Results["sharp"].Classification != "SHARP" {
		t.Errorf("sharp = %+v", out.Results["sharp"])
	}
}

func TestLedgerAndROI(t *testing.T) {
	h := newTestRouter(t, true)

	for _, body := range []string{
		`{"total_odds":200,"stake":10,"outcome":"won","settled_at":"2026-03-01T01:00:00Z"}`,
		`{"total_odds":150,"stake":10,"outcome":"lost","settled_at":"2026-03-01T02:00:00Z"}`,
		`{"total_odds":-110,"stake":11,"outcome":"LOST","settled_at":"2026-03-01T03:00:00Z"}`,
	} {
		rec := do(t, h, http.MethodPost, "/api/v1/ledger", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("ledger status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/roi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("roi status = %d, body %s", rec.Code, rec.Body.String())
	}

	var report engine.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Count != 3 {
		t.Errorf("Count = %d, want 3", report.Count)
	}
	// Staked 31, returned 30.
	if math.Abs(report.Stats.NetProfit-(-1)) > 1e-9 {
		t.Errorf("NetProfit = %v, want -1", report.Stats.NetProfit)
	}
	if report.Streaks.Current.Count != 2 || report.Streaks.Current.Type != "L" {
		t.Errorf("Current = %+v, want L2", report.Streaks.Current)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/roi?limit=1", "")
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Count != 1 {
		t.Errorf("limited Count = %d, want 1", report.Count)
	}
}

func TestLedgerErrors(t *testing.T) {
	h := newTestRouter(t, true)

	rec := do(t, h, http.MethodPost, "/api/v1/ledger", `{"total_odds":0,"stake":10,"outcome":"won"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero odds status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/roi?limit=-3", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}

	noDB := newTestRouter(t, false)
	rec = do(t, noDB, http.MethodGet, "/api/v1/roi", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no ledger status = %d, want 503", rec.Code)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	h := newTestRouter(t, true)

	rec := do(t, h, http.MethodPost, "/api/v1/ledger", `{"description":"SGP","total_odds":600,"stake":5,"outcome":"pending"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	path := "/api/v1/ledger/" + created.ID

	rec = do(t, h, http.MethodPatch, path, `{"outcome":"won"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, path, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"outcome":"won"`) {
		t.Errorf("get status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPatch, path, `{"outcome":"cashed_out"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad outcome status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, path, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = do(t, h, method, path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete status = %d, want 404", method, rec.Code)
		}
	}
	rec = do(t, h, http.MethodPatch, path, `{"outcome":"lost"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("patch after delete status = %d, want 404", rec.Code)
	}
}
