package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// requestTimeout bounds a single call, including queued Monte-Carlo work.
const requestTimeout = 30 * time.Second

// NewRouter mounts the handler's routes with logging, recovery and CORS.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/parlay/simulate", h.SimulateParlay)
		r.Post("/montecarlo", h.MonteCarlo)
		r.Post("/mispricing", h.Mispricing)
		r.Post("/ledger", h.RecordSettlement)
		r.Get("/ledger/{id}", h.GetSettlement)
		r.Patch("/ledger/{id}", h.UpdateOutcome)
		r.Delete("/ledger/{id}", h.DeleteSettlement)
		r.Get("/roi", h.ROI)
	})

	return r
}
