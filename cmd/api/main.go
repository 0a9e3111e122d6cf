package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brightlearn/tutor-ai-platform/cmd/mainconfig"
	"github.com/brightlearn/tutor-ai-platform/internal/api/handlers"
	"github.com/brightlearn/tutor-ai-platform/internal/api/router"
	appconfig "github.com/brightlearn/tutor-ai-platform/internal/config"
	"github.com/brightlearn/tutor-ai-platform/internal/chat"
	"github.com/brightlearn/tutor-ai-platform/internal/history"
	"github.com/brightlearn/tutor-ai-platform/internal/observability/metrics"
	"github.com/brightlearn/tutor-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting tutor-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	board := chat.NewStatusBoard()
	providers := buildProviders(ctx, cfg, board, logger)
	if len(providers) == 0 {
		logger.Warn("no provider credentials configured; all replies will use the local fallback generator")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	orchestrationMetrics := metrics.NewOrchestrationMetrics(registry)

	orchestrator := chat.NewOrchestrator(providers, logger.Component("orchestrator"),
		chat.WithAttemptTimeout(cfg.ProviderAttemptTimeout),
		chat.WithStatusBoard(board),
		chat.WithMetrics(orchestrationMetrics),
		chat.WithCompletionDefaults(int32(cfg.DefaultMaxTokens), float32(cfg.DefaultTemperature)),
		chat.WithFallbackGenerator(fallbackGenerator(cfg)),
	)

	var transcript handlers.TranscriptStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		transcript = history.NewStore(redis.NewClient(opts), cfg.HistoryTTL)
	}

	completionHandler := handlers.NewCompletionHandler(orchestrator, transcript, logger.Component("api"))
	statusHandler := handlers.NewProviderStatusHandler(board)

	r := router.New(&router.Config{
		Logger:             logger,
		CompletionHandler:  completionHandler,
		ProviderStatus:     statusHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		OperatorAuthSecret: cfg.OperatorJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildProviders assembles the adapter chain in priority order: the fast
// OpenAI model first, its larger sibling second, Gemini third, Bedrock
// last. Adapters without credentials are registered on the status board
// but excluded from the chain for the process lifetime.
func buildProviders(ctx context.Context, cfg *appconfig.Config, board *chat.StatusBoard, logger *logging.Logger) []chat.Provider {
	var providers []chat.Provider

	fast, err := chat.NewOpenAIProvider(cfg.OpenAIAPIKey, "openai-fast", cfg.OpenAIFastModel)
	board.Register("openai-fast", cfg.OpenAIFastModel, err == nil)
	if err != nil {
		logger.Warn("openai-fast provider unavailable", "error", err)
	} else {
		providers = append(providers, fast)
	}

	smart, err := chat.NewOpenAIProvider(cfg.OpenAIAPIKey, "openai-smart", cfg.OpenAISmartModel)
	board.Register("openai-smart", cfg.OpenAISmartModel, err == nil)
	if err != nil {
		logger.Warn("openai-smart provider unavailable", "error", err)
	} else {
		providers = append(providers, smart)
	}

	gemini, err := chat.NewGeminiProvider(ctx, cfg.GeminiAPIKey, "gemini", cfg.GeminiModel)
	board.Register("gemini", cfg.GeminiModel, err == nil)
	if err != nil {
		logger.Warn("gemini provider unavailable", "error", err)
	} else {
		providers = append(providers, gemini)
	}

	if mainconfig.HasBedrockCredentials(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			board.Register("bedrock", cfg.BedrockModelID, false)
			logger.Warn("bedrock provider unavailable", "error", err)
		} else {
			bedrock, err := chat.NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), "bedrock", cfg.BedrockModelID)
			board.Register("bedrock", cfg.BedrockModelID, err == nil)
			if err != nil {
				logger.Warn("bedrock provider unavailable", "error", err)
			} else {
				providers = append(providers, bedrock)
			}
		}
	} else {
		board.Register("bedrock", cfg.BedrockModelID, false)
	}

	return providers
}

func fallbackGenerator(cfg *appconfig.Config) *chat.FallbackGenerator {
	seed := cfg.FallbackSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return chat.NewFallbackGenerator(seed)
}
