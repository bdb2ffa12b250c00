package alerts

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"parlay-lab/internal/mispricing"
	"parlay-lab/internal/parlay"
)

// staleAlertAge is how long a dedupe record is kept after it fired.
const staleAlertAge = 1 * time.Hour

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
}

// NewNotifier creates a new notifier
func NewNotifier(cooldown time.Duration) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
	}
}

// checkCooldown reports whether key fired within the cooldown window.
// A key that is not suppressed is stamped with the current time.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return true
		}
	}
	n.lastAlerts[key] = time.Now()
	return false
}

// AlertMispricing logs a SOFT or STALE prop. SHARP props are not news.
// Returns true when a line was emitted.
func (n *Notifier) AlertMispricing(prop mispricing.Prop, result mispricing.Result) bool {
	if result.Classification == mispricing.Sharp {
		return false
	}

	key := fmt.Sprintf("prop-%s-%s", result.PropID, result.Classification)
	if n.checkCooldown(key) {
		return false
	}

	side := strings.ToUpper(string(prop.Side))
	if side == "" {
		side = string(mispricing.SideOver)
	}

	slog.Info(fmt.Sprintf("%s PROP: %s %s %s %.1f", result.Classification, prop.Player, side, prop.Stat, prop.LiveBookLine),
		"prop_id", result.PropID,
		"book", prop.Book,
		"score", result.Score,
		"l10_edge", result.L10Edge,
		"proj_edge", result.ProjEdge,
		"line_drift", result.LineDrift,
	)
	return true
}

// AlertParlay logs parlays that land in the LOAN_NEEDED tier.
// Returns true when a line was emitted.
func (n *Notifier) AlertParlay(sim *parlay.Simulation) bool {
	if sim == nil || sim.DegenerateLevel != parlay.LoanNeeded {
		return false
	}
	if n.checkCooldown("parlay-" + sim.ID) {
		return false
	}

	price := fmt.Sprintf("%.0fx", sim.TotalOdds)
	if sim.TotalAmericanOdds != nil {
		price = fmt.Sprintf("%+d", *sim.TotalAmericanOdds)
	}
	slog.Warn(fmt.Sprintf("%s: %d legs %s", sim.DegenerateLevel, len(sim.Legs), price),
		"simulation_id", sim.ID,
		"stake", sim.Stake,
		"payout", sim.PotentialPayout,
		"prob", sim.CombinedProbability,
		"ev_pct", sim.EVPercent(),
	)
	return true
}

// LogError logs an error
func (n *Notifier) LogError(context string, err error) {
	slog.Error("ERROR", "context", context, "err", err)
}

// LogStartup logs service startup
func (n *Notifier) LogStartup(config string) {
	slog.Info("Service started", "config", config)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-staleAlertAge)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
