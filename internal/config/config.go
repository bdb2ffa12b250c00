package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"parlay-lab/internal/parlay"
)

// Defaults for configuration values.
const (
	DefaultPort                = "8080"
	DefaultDBPath              = "/data/ledger.db"
	DefaultMCDefaultSims       = 10000
	DefaultMCMaxSims           = 1000000
	DefaultMCQueueSize         = 256
	DefaultOddsCacheTTL        = 6 * time.Hour
	DefaultOddsCacheMaxEntries = 50000
	DefaultAlertCooldown       = 5 * time.Minute
	DefaultCleanupInterval     = 10 * time.Minute
	DefaultShutdownTimeout     = 10 * time.Second
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string

	// Monte-Carlo worker pool
	MCWorkers     int
	MCDefaultSims int
	MCMaxSims     int
	MCSeed        int64 // 0 = seed from the clock

	// Last-known-line cache. Redis is used when RedisURL is set.
	OddsCacheTTL        time.Duration
	OddsCacheMaxEntries int
	RedisURL            string

	AlertCooldown  time.Duration
	TierThresholds [4]float64
	CORSOrigins    []string
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		Port:                DefaultPort,
		DBPath:              DefaultDBPath,
		MCWorkers:           runtime.NumCPU(),
		MCDefaultSims:       DefaultMCDefaultSims,
		MCMaxSims:           DefaultMCMaxSims,
		OddsCacheTTL:        DefaultOddsCacheTTL,
		OddsCacheMaxEntries: DefaultOddsCacheMaxEntries,
		RedisURL:            os.Getenv("REDIS_URL"),
		AlertCooldown:       DefaultAlertCooldown,
		TierThresholds:      parlay.DefaultTierConfig().Thresholds,
		CORSOrigins:         []string{"*"},
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("MC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MCWorkers = n
		}
	}

	if v := os.Getenv("MC_DEFAULT_SIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MCDefaultSims = n
		}
	}

	if v := os.Getenv("MC_MAX_SIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MCMaxSims = n
		}
	}

	if v := os.Getenv("MC_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MCSeed = n
		}
	}

	if v := os.Getenv("ODDS_CACHE_TTL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.OddsCacheTTL = time.Duration(sec) * time.Second
		}
	}

	if v := os.Getenv("ODDS_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OddsCacheMaxEntries = n
		}
	}

	if v := os.Getenv("ALERT_COOLDOWN_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.AlertCooldown = time.Duration(sec) * time.Second
		}
	}

	if v := os.Getenv("TIER_THRESHOLDS"); v != "" {
		if th, err := parlay.ParseThresholds(v); err == nil {
			cfg.TierThresholds = th
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	return cfg
}

// TierConfig returns the parlay tier settings with the configured thresholds.
func (c Config) TierConfig() parlay.TierConfig {
	tc := parlay.DefaultTierConfig()
	tc.Thresholds = c.TierThresholds
	return tc
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.MCWorkers < 1 {
		return fmt.Errorf("MC_WORKERS must be at least 1, got %d", cfg.MCWorkers)
	}
	if cfg.MCDefaultSims < 1 {
		return fmt.Errorf("MC_DEFAULT_SIMS must be at least 1, got %d", cfg.MCDefaultSims)
	}
	if cfg.MCMaxSims < cfg.MCDefaultSims {
		return fmt.Errorf("MC_MAX_SIMS (%d) must be >= MC_DEFAULT_SIMS (%d)", cfg.MCMaxSims, cfg.MCDefaultSims)
	}
	if cfg.OddsCacheTTL <= 0 {
		return fmt.Errorf("ODDS_CACHE_TTL_SEC must be positive, got %v", cfg.OddsCacheTTL)
	}
	if cfg.OddsCacheMaxEntries < 1 {
		return fmt.Errorf("ODDS_CACHE_MAX_ENTRIES must be at least 1, got %d", cfg.OddsCacheMaxEntries)
	}
	if cfg.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN_SEC must be non-negative, got %v", cfg.AlertCooldown)
	}
	if err := cfg.TierConfig().Validate(); err != nil {
		return fmt.Errorf("TIER_THRESHOLDS: %w", err)
	}
	return nil
}

// FormatCache returns a human-readable description of the line cache backend.
func FormatCache(cfg Config) string {
	if cfg.RedisURL != "" {
		return "redis"
	}
	return fmt.Sprintf("memory(max=%d)", cfg.OddsCacheMaxEntries)
}
