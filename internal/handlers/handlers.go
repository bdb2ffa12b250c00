package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"parlay-lab/internal/engine"
	"parlay-lab/internal/ledger"
	"parlay-lab/internal/mispricing"
	"parlay-lab/internal/montecarlo"
	"parlay-lab/internal/parlay"
	"parlay-lab/internal/roi"
)

// maxBatch caps how many Monte-Carlo requests or props one call may carry.
const maxBatch = 1000

// Engine is what the handlers need from the orchestrator.
type Engine interface {
	SimulateParlay(legs []parlay.Leg, stake float64) (*parlay.Simulation, error)
	EstimateBatch(ctx context.Context, reqs []montecarlo.Request) []montecarlo.Response
	ScoreProps(ctx context.Context, props []mispricing.Prop) map[string]mispricing.Result
	RecordSettlement(p roi.SettledParlay) (roi.SettledParlay, error)
	Settlement(id string) (*roi.SettledParlay, error)
	UpdateOutcome(id string, outcome roi.Outcome) error
	DeleteSettlement(id string) error
	Stats(limit int) (engine.Report, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	engine Engine
}

// NewHandler creates a new handler
func NewHandler(e Engine) *Handler {
	return &Handler{engine: e}
}

// SimulateRequest is the body of POST /api/v1/parlay/simulate.
type SimulateRequest struct {
	Legs  []parlay.Leg `json:"legs"`
	Stake float64      `json:"stake"`
}

// MonteCarloRequest is the body of POST /api/v1/montecarlo.
type MonteCarloRequest struct {
	Requests []montecarlo.Request `json:"requests"`
}

// MonteCarloResult is one answer; Error is set instead of POver on failure.
type MonteCarloResult struct {
	ID    string   `json:"id"`
	POver *float64 `json:"p_over,omitempty"`
	Error string   `json:"error,omitempty"`
}

// OutcomeRequest is the body of PATCH /api/v1/ledger/{id}.
type OutcomeRequest struct {
	Outcome roi.Outcome `json:"outcome"`
}

// MispricingRequest is the body of POST /api/v1/mispricing.
type MispricingRequest struct {
	Props []mispricing.Prop `json:"props"`
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "parlay-lab",
	})
}

// SimulateParlay combines the posted legs into a simulation
func (h *Handler) SimulateParlay(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	sim, err := h.engine.SimulateParlay(req.Legs, req.Stake)
	if err != nil {
		// Every Simulate failure is a problem with the submitted legs or stake.
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sim)
}

// MonteCarlo estimates P(over) for a batch of in-progress props
func (h *Handler) MonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req MonteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Requests) == 0 {
		respondError(w, http.StatusBadRequest, "requests must not be empty")
		return
	}
	if len(req.Requests) > maxBatch {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d requests per call", maxBatch))
		return
	}

	responses := h.engine.EstimateBatch(r.Context(), req.Requests)

	results := make([]MonteCarloResult, len(responses))
	for i, resp := range responses {
		results[i].ID = resp.ID
		if resp.Err != nil {
			results[i].Error = resp.Err.Error()
			continue
		}
		p := resp.POver
		results[i].POver = &p
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Mispricing scores a batch of live props
func (h *Handler) Mispricing(w http.ResponseWriter, r *http.Request) {
	var req MispricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Props) > maxBatch {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d props per call", maxBatch))
		return
	}

	results := h.engine.ScoreProps(r.Context(), req.Props)
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// RecordSettlement stores a settled parlay
func (h *Handler) RecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req roi.SettledParlay
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	saved, err := h.engine.RecordSettlement(req)
	if err != nil {
		respondError(w, ledgerStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

// GetSettlement returns one recorded parlay
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.engine.Settlement(id)
	if err != nil {
		respondError(w, ledgerStatus(err), err.Error())
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("settlement %s not found", id))
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// UpdateOutcome changes the outcome of a recorded parlay
func (h *Handler) UpdateOutcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if err := h.engine.UpdateOutcome(id, req.Outcome); err != nil {
		respondError(w, ledgerStatus(err), err.Error())
		return
	}

	p, err := h.engine.Settlement(id)
	if err != nil || p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeleteSettlement removes a recorded parlay
func (h *Handler) DeleteSettlement(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSettlement(chi.URLParam(r, "id")); err != nil {
		respondError(w, ledgerStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ROI returns aggregate stats and streaks, optionally over the newest ?limit= rows
func (h *Handler) ROI(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	report, err := h.engine.Stats(limit)
	if err != nil {
		respondError(w, ledgerStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func ledgerStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidSettlement):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNoLedger):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
