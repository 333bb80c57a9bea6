// Package analysis exposes the rightsizing engine over HTTP.
package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// Runner triggers one analysis over the configured subscription.
type Runner interface {
	AnalyzeSubscription(ctx context.Context) (*domain.AnalysisReport, error)
}

// ReportStore serves stored run history. GetReport returns nil for an
// unknown run ID.
type ReportStore interface {
	GetReport(ctx context.Context, runID string) (*domain.AnalysisReport, error)
	ListReports(ctx context.Context, limit int) ([]domain.ReportSummary, error)
}

type Handler struct {
	runner Runner
	store  ReportStore
}

// NewHandler wires the endpoints. store may be nil when persistence is
// not configured; the history endpoints then report 503.
func NewHandler(runner Runner, store ReportStore) *Handler {
	return &Handler{runner: runner, store: store}
}

// Analyze runs a full analysis synchronously and returns the report.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.runner.AnalyzeSubscription(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("analysis run failed")
		http.Error(w, "analysis failed", http.StatusBadGateway)
		return
	}
	writeJSON(ctx, w, http.StatusOK, report)
}

// ListReports returns the most recent stored runs.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "report persistence is not configured", http.StatusServiceUnavailable)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summaries, err := h.store.ListReports(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list reports")
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []domain.ReportSummary{}
	}
	writeJSON(r.Context(), w, http.StatusOK, summaries)
}

// GetReport returns one stored run by ID.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "report persistence is not configured", http.StatusServiceUnavailable)
		return
	}
	runID := chi.URLParam(r, "id")
	report, err := h.store.GetReport(r.Context(), runID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", runID).Msg("failed to load report")
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, report)
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
