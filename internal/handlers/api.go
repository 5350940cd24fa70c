package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"voicebank/internal/config"
	"voicebank/internal/errors"
	"voicebank/internal/observability"
	"voicebank/internal/services"
)

const noStore = "no-store"

type APIHandlers struct {
	analytics *services.Analytics
	mode      config.Mode
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, mode config.Mode, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		mode:      mode,
		logger:    logger,
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Ping(r.Context()); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).Error("health check failed", "error", err)
		h.fail(w, r, errors.ServiceUnavailable("Database unavailable"))
		return
	}

	errors.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "VoiceBank Pro API is running",
		"mode":    string(h.mode),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context())
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to load stats"))
		return
	}
	stats["mode"] = h.mode

	errors.WriteSuccess(w, stats)
}

func (h *APIHandlers) HandleSpending(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.SpendingByCategory(r.Context())
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to load spending"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleTrends(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", services.DefaultTrendDays)

	data, err := h.analytics.DailyTrend(r.Context(), days)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to load trends"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

// HandleInsights never fails; a broken store yields the empty bundle.
func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.GenerateInsights(r.Context()), map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.DetectAnomalies(r.Context())
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to detect anomalies"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleTopMerchants(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", services.DefaultMerchantLimit)

	data, err := h.analytics.TopMerchants(r.Context(), limit)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to load merchants"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleBudget(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	budget := int64(intParam(r, "budget", services.DefaultBudget))

	data, err := h.analytics.BudgetAnalysis(r.Context(), category, budget)
	switch {
	case stderrors.Is(err, services.ErrInvalidBudget):
		h.fail(w, r, errors.Input("Budget must be a positive number"))
		return
	case err != nil:
		h.fail(w, r, errors.InternalWrap(err, "Failed to analyse budget"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.ComparativeAnalysis(r.Context(), r.PathValue("category"))
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to compare months"))
		return
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, observability.LoggerFrom(r.Context(), h.logger), err, observability.GetRequestID(r.Context()))
}

// intParam falls back to def when the query parameter is absent or not an
// integer.
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
