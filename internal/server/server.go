package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicebank/internal/config"
	"voicebank/internal/handlers"
	"voicebank/internal/middleware"
	"voicebank/internal/services"
	"voicebank/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type Server struct {
	mux               *http.ServeMux
	handler           http.Handler
	logger            *slog.Logger
	apiHandlers       *handlers.APIHandlers
	assistantHandlers *handlers.AssistantHandlers
	sseHandlers       *handlers.SSEHandlers
}

func NewServer(analytics *services.Analytics, assistant *services.Assistant, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		mux:               http.NewServeMux(),
		logger:            logger,
		apiHandlers:       handlers.NewAPIHandlers(analytics, cfg.Mode, logger),
		assistantHandlers: handlers.NewAssistantHandlers(assistant, cfg.Server.MaxAudioBytes, logger),
		sseHandlers:       handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes()
	s.handler = middleware.Metrics()(s.mux)
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /api/health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Analytics
	s.mux.HandleFunc("GET /api/analytics/spending", s.apiHandlers.HandleSpending)
	s.mux.HandleFunc("GET /api/analytics/trends", s.apiHandlers.HandleTrends)
	s.mux.HandleFunc("GET /api/analytics/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/analytics/anomalies", s.apiHandlers.HandleAnomalies)
	s.mux.HandleFunc("GET /api/analytics/top-merchants", s.apiHandlers.HandleTopMerchants)
	s.mux.HandleFunc("GET /api/analytics/budget/{category}", s.apiHandlers.HandleBudget)
	s.mux.HandleFunc("GET /api/analytics/compare/{category}", s.apiHandlers.HandleCompare)

	// Assistant
	s.mux.HandleFunc("POST /api/process-text", s.assistantHandlers.HandleProcessText)
	s.mux.HandleFunc("POST /api/process-voice", s.assistantHandlers.HandleProcessVoice)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/insights", s.sseHandlers.HandleInsights)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		s.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
