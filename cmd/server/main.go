package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"parlay-lab/internal/alerts"
	"parlay-lab/internal/config"
	"parlay-lab/internal/engine"
	"parlay-lab/internal/handlers"
	"parlay-lab/internal/ledger"
	"parlay-lab/internal/montecarlo"
	"parlay-lab/internal/oddscache"
)

func main() {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	notifier := alerts.NewNotifier(cfg.AlertCooldown)

	// Line cache: Redis when configured, otherwise in-process
	var cache oddscache.Cache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := oddscache.NewRedisCacheFromURL(ctx, cfg.RedisURL, cfg.OddsCacheTTL)
		cancel()
		if err != nil {
			log.Printf("Redis disabled, falling back to memory cache: %v", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	if cache == nil {
		cache = oddscache.NewMemoryCache(cfg.OddsCacheTTL, cfg.OddsCacheMaxEntries)
	}

	// Ledger is optional; ROI endpoints answer 503 without it
	db, err := ledger.NewDB(cfg.DBPath)
	if err != nil {
		log.Printf("Ledger disabled: %v", err)
		db = nil
	} else {
		defer db.Close()
	}

	pool := montecarlo.NewPool(montecarlo.PoolConfig{
		Workers:     cfg.MCWorkers,
		QueueSize:   config.DefaultMCQueueSize,
		MaxSimCount: cfg.MCMaxSims,
		Seed:        cfg.MCSeed,
	})
	defer pool.Close()

	eng := engine.New(pool, cache, db, notifier, cfg)

	notifier.LogStartup(fmt.Sprintf(" port=%s workers=%d sims=%d/%d cache=%s db=%s tiers=%v cors=%s",
		cfg.Port, cfg.MCWorkers, cfg.MCDefaultSims, cfg.MCMaxSims, config.FormatCache(cfg), cfg.DBPath,
		cfg.TierThresholds, strings.Join(cfg.CORSOrigins, ",")))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(handlers.NewHandler(eng), cfg.CORSOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go eng.Run(ctx)

	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			notifier.LogError("http server", err)
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Println("Shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		notifier.LogError("shutdown", err)
	}

	log.Println("Server stopped gracefully")
}
