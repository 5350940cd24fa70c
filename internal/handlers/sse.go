package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"voicebank/internal/models"
	"voicebank/internal/observability"
	"voicebank/internal/services"
	"voicebank/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func renderInsights(ctx context.Context, insights []models.Insight) (string, error) {
	var buf strings.Builder
	err := templates.InsightList(insights).Render(ctx, &buf)
	return buf.String(), err
}

// HandleInsights patches the insight list and pushes the bundle as signals.
func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFrom(r.Context(), h.logger)
	bundle := h.analytics.GenerateInsights(r.Context())

	html, err := renderInsights(r.Context(), bundle.Insights)
	if err != nil {
		logger.Error("render insights", "error", err)
		return
	}
	signals, err := json.Marshal(map[string]any{
		"insights":  bundle.Insights,
		"anomalies": bundle.Anomalies,
	})
	if err != nil {
		logger.Error("marshal insight signals", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		logger.Warn("patch insights", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch insight signals", "error", err)
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFrom(r.Context(), h.logger)
	bundle := h.analytics.GenerateInsights(r.Context())

	html, err := renderInsights(r.Context(), bundle.Insights)
	if err != nil {
		logger.Error("render insights", "error", err)
		return
	}
	signals, err := json.Marshal(bundle)
	if err != nil {
		logger.Error("marshal dashboard signals", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		logger.Warn("patch insights", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch dashboard signals", "error", err)
	}
}
