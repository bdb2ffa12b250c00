package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"parlay-lab/internal/alerts"
	"parlay-lab/internal/config"
	"parlay-lab/internal/ledger"
	"parlay-lab/internal/mispricing"
	"parlay-lab/internal/montecarlo"
	"parlay-lab/internal/odds"
	"parlay-lab/internal/oddscache"
	"parlay-lab/internal/parlay"
	"parlay-lab/internal/roi"
)

var (
	// ErrNoLedger is returned by ledger-backed operations when no database is configured.
	ErrNoLedger = errors.New("ledger not configured")
	// ErrInvalidSettlement marks a settlement the ledger refuses to store.
	ErrInvalidSettlement = errors.New("invalid settlement")
)

// Report is the ROI and streak view of the ledger.
type Report struct {
	Stats   roi.Stats         `json:"stats"`
	Streaks roi.StreakSummary `json:"streaks"`
	Count   int               `json:"count"`
}

// pruner is implemented by caches that need explicit expiry sweeps.
type pruner interface {
	Prune() int
}

// Engine wires the pure calculators to the pool, cache, ledger and alerts.
type Engine struct {
	pool     *montecarlo.Pool
	cache    oddscache.Cache
	db       *ledger.DB
	notifier *alerts.Notifier
	cfg      config.Config
	tierCfg  parlay.TierConfig
}

// New creates a new Engine with all dependencies. db may be nil.
func New(
	pool *montecarlo.Pool,
	cache oddscache.Cache,
	db *ledger.DB,
	notifier *alerts.Notifier,
	cfg config.Config,
) *Engine {
	return &Engine{
		pool:     pool,
		cache:    cache,
		db:       db,
		notifier: notifier,
		cfg:      cfg,
		tierCfg:  cfg.TierConfig(),
	}
}

// Run does periodic maintenance until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(config.DefaultCleanupInterval)
	defer cleanupTicker.Stop()

	slog.Info("Starting maintenance loop")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Engine stopped gracefully")
			return

		case <-cleanupTicker.C:
			e.Maintain()
		}
	}
}

// Maintain clears stale alert records and expired cache entries.
func (e *Engine) Maintain() {
	e.notifier.CleanupOldAlerts()
	if p, ok := e.cache.(pruner); ok {
		if n := p.Prune(); n > 0 {
			slog.Debug("Pruned odds cache", "removed", n)
		}
	}
}

// SimulateParlay runs the parlay calculator with the configured tiers.
func (e *Engine) SimulateParlay(legs []parlay.Leg, stake float64) (*parlay.Simulation, error) {
	sim, err := parlay.Simulate(legs, stake, e.tierCfg)
	if err != nil {
		return nil, err
	}
	e.notifier.AlertParlay(sim)
	return sim, nil
}

// EstimateOver runs one Monte-Carlo request on the pool. A missing ID is
// generated and a missing sim count takes the configured default.
func (e *Engine) EstimateOver(ctx context.Context, req montecarlo.Request) (montecarlo.Response, error) {
	req = e.prepare(req)
	return e.pool.Do(ctx, req)
}

// EstimateBatch submits every request before waiting on any, so the pool
// works on them concurrently. Responses come back in request order, each
// carrying its own error.
func (e *Engine) EstimateBatch(ctx context.Context, reqs []montecarlo.Request) []montecarlo.Response {
	out := make([]montecarlo.Response, len(reqs))
	pending := make([]<-chan montecarlo.Response, len(reqs))

	for i, req := range reqs {
		req = e.prepare(req)
		out[i].ID = req.ID
		ch, err := e.pool.Submit(ctx, req)
		if err != nil {
			out[i].Err = err
			continue
		}
		pending[i] = ch
	}

	for i, ch := range pending {
		if ch == nil {
			continue
		}
		select {
		case resp := <-ch:
			out[i] = resp
		case <-ctx.Done():
			out[i].Err = ctx.Err()
		}
	}
	return out
}

func (e *Engine) prepare(req montecarlo.Request) montecarlo.Request {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.SimCount == 0 {
		req.SimCount = e.cfg.MCDefaultSims
	}
	return req
}

// ScoreProps scores a batch of live props. A prop without an opening line
// takes the first line the cache saw for the same player, stat and book;
// a prop never seen before has its live line remembered as the opener.
func (e *Engine) ScoreProps(ctx context.Context, props []mispricing.Prop) map[string]mispricing.Result {
	filled := make([]mispricing.Prop, len(props))
	byID := make(map[string]mispricing.Prop, len(props))

	for i, p := range props {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Player != "" && p.Stat != "" {
			p = e.fillOriginalLine(ctx, p)
		}
		filled[i] = p
		byID[p.ID] = p
	}

	results := mispricing.ScoreBatch(filled)
	for id, res := range results {
		e.notifier.AlertMispricing(byID[id], res)
	}

	slog.Info("Scored props", "requested", len(props), "scored", len(results))
	return results
}

func (e *Engine) fillOriginalLine(ctx context.Context, p mispricing.Prop) mispricing.Prop {
	key := oddscache.Key(p.Player, p.Stat, p.Book)

	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.notifier.LogError("odds cache get", err)
		return p
	}

	if ok {
		if p.OriginalLine == nil {
			v := cached.Value
			p.OriginalLine = &v
		}
		return p
	}

	opener := p.LiveBookLine
	if p.OriginalLine != nil {
		opener = *p.OriginalLine
	}
	if err := e.cache.Set(ctx, key, oddscache.Line{Value: opener, SeenAt: time.Now().UTC()}); err != nil {
		e.notifier.LogError("odds cache set", err)
	}
	return p
}

// RecordSettlement stores a settled parlay in the ledger.
func (e *Engine) RecordSettlement(p roi.SettledParlay) (roi.SettledParlay, error) {
	if e.db == nil {
		return roi.SettledParlay{}, ErrNoLedger
	}
	if p.Stake <= 0 || math.IsNaN(p.Stake) || math.IsInf(p.Stake, 0) {
		return roi.SettledParlay{}, fmt.Errorf("%w: stake must be positive, got %v", ErrInvalidSettlement, p.Stake)
	}
	if p.TotalOdds == 0 {
		return roi.SettledParlay{}, fmt.Errorf("%w: %w", ErrInvalidSettlement, odds.ErrInvalidOdds)
	}
	if o := p.Outcome.Normalize(); !o.Settled() && o != roi.Pending {
		return roi.SettledParlay{}, fmt.Errorf("%w: unknown outcome %q", ErrInvalidSettlement, p.Outcome)
	}
	return e.db.AddSettlement(p)
}

// Settlement fetches one recorded parlay; nil when absent.
func (e *Engine) Settlement(id string) (*roi.SettledParlay, error) {
	if e.db == nil {
		return nil, ErrNoLedger
	}
	return e.db.GetSettlement(id)
}

// UpdateOutcome settles (or re-settles) a recorded parlay.
func (e *Engine) UpdateOutcome(id string, outcome roi.Outcome) error {
	if e.db == nil {
		return ErrNoLedger
	}
	if o := outcome.Normalize(); !o.Settled() && o != roi.Pending {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidSettlement, outcome)
	}
	return e.db.UpdateOutcome(id, outcome)
}

// DeleteSettlement removes a recorded parlay.
func (e *Engine) DeleteSettlement(id string) error {
	if e.db == nil {
		return ErrNoLedger
	}
	return e.db.DeleteSettlement(id)
}

// Stats aggregates up to limit of the most recent settlements (0 = all).
func (e *Engine) Stats(limit int) (Report, error) {
	if e.db == nil {
		return Report{}, ErrNoLedger
	}

	history, err := e.db.ListNewestFirst(limit)
	if err != nil {
		return Report{}, err
	}

	stats, err := roi.Aggregate(history)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Stats:   stats,
		Streaks: roi.Streaks(roi.OutcomesOf(history)),
		Count:   len(history),
	}, nil
}
