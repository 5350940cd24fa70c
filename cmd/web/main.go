package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"voicebank/internal/config"
	"voicebank/internal/llm"
	"voicebank/internal/middleware"
	"voicebank/internal/observability"
	"voicebank/internal/query"
	"voicebank/internal/server"
	"voicebank/internal/services"
	"voicebank/internal/simulator"
	"voicebank/internal/speech"
	"voicebank/internal/store"
	"voicebank/internal/summary"
)

const startupTimeout = 30 * time.Second

// utcNow is the clock for everything that reads or writes stored dates.
func utcNow() time.Time { return time.Now().UTC() }

// buildAssistant wires the pipelines for the configured mode. Demo mode
// answers both channels from rules and templates without any provider.
func buildAssistant(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (*services.Assistant, error) {
	rules := services.Pipeline{
		Compiler:    query.NewRuleCompiler(),
		Synthesizer: summary.NewTemplateSynthesizer(utcNow),
	}

	deps := services.AssistantDeps{
		Mode:   cfg.Mode,
		Store:  st,
		Text:   rules,
		Voice:  rules,
		Logger: logger,
	}

	if cfg.Demo() {
		deps.Transcriber = speech.NewDemoTranscriber(time.Now)
		return services.NewAssistant(deps), nil
	}

	p := cfg.Providers
	gemini, err := llm.NewGemini(ctx, p.GeminiAPIKey, p.GeminiModel, p.Timeout)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	deps.Transcriber = speech.NewWhisperTranscriber(p.STTAPIKey, p.STTBaseURL, p.STTModel, p.Timeout)
	deps.Voice = services.Pipeline{
		Compiler:    query.NewModelCompiler(gemini),
		Synthesizer: summary.NewModelSynthesizer(gemini),
	}
	if p.MurfAPIKey != "" {
		deps.Speaker = speech.NewMurfSpeaker(p.MurfURL, p.MurfAPIKey, p.MurfVoice, p.Timeout)
	} else {
		logger.Warn("MURF_API_KEY not set, voice replies will be returned as text")
	}

	return services.NewAssistant(deps), nil
}

func newHandler(srv http.Handler, cfg *config.Config, logger *slog.Logger) http.Handler {
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(logger),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)
	return chain(srv)
}

// startSimulator runs the transaction generator until the returned stop
// function is called.
func startSimulator(cfg *config.Config, st *store.Store, logger *slog.Logger) func(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sim := simulator.New(st, cfg.Simulator.Interval, cfg.Simulator.Delay, logger, simulator.WithClock(utcNow))
	go func() {
		defer close(done)
		sim.Run(ctx)
	}()

	return func(stopCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"mode", cfg.Mode,
		"addr", cfg.Address(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := store.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	if cfg.Database.Seed {
		if _, err := st.Seed(ctx); err != nil {
			logger.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	assistant, err := buildAssistant(ctx, cfg, st, logger)
	if err != nil {
		logger.Error("failed to configure providers", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(st, utcNow, logger)
	srv := server.NewServer(analytics, assistant, cfg, logger)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(srv, cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	if cfg.Simulator.Enabled {
		gracefulServer.RegisterShutdownHook("simulator", startSimulator(cfg, st, logger))
	}

	logger.Info("starting graceful server")
	serveErr := gracefulServer.ListenAndServe(context.Background())

	// Requests and the simulator have stopped by now.
	if err := st.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if serveErr != nil {
		logger.Error("server failed", "error", serveErr)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
