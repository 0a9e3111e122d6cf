package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightlearn/tutor-ai-platform/internal/api/handlers"
	httpmiddleware "github.com/brightlearn/tutor-ai-platform/internal/http/middleware"
	"github.com/brightlearn/tutor-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CompletionHandler  *handlers.CompletionHandler
	ProviderStatus     *handlers.ProviderStatusHandler
	MetricsHandler     http.Handler
	OperatorAuthSecret string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.CompletionHandler.HealthCheck)
		public.Route("/v1", func(v1 chi.Router) {
			v1.Post("/chat/completions", cfg.CompletionHandler.HandleCompletion)
			v1.Get("/conversations/{conversationID}/history", cfg.CompletionHandler.HandleHistory)
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Operator routes (protected by HMAC JWT).
	if cfg.ProviderStatus != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.OperatorJWT(cfg.OperatorAuthSecret))
			admin.Get("/providers/status", cfg.ProviderStatus.HandleStatus)
		})
	}

	return r
}
