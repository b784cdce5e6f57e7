package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oxypet/petcare-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/oxypet/petcare-ai-platform/internal/http/middleware"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger        *logging.Logger
	Conversations *handlers.ConversationHandler
	Reports       *handlers.ReportsHandler
	Health        *handlers.HealthHandler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests per second per IP on the conversation endpoints. Zero
	// disables rate limiting.
	MessageRateLimit float64
}

// New creates a Chi router with all routes configured.
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

	// Public endpoints.
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant API. Every route below requires X-Org-Id.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(requireOrgID)

		api.Route("/conversations", func(conv chi.Router) {
			if cfg.MessageRateLimit > 0 {
				conv.Use(httpmiddleware.RateLimit(cfg.MessageRateLimit, int(cfg.MessageRateLimit)*2))
			}
			if cfg.Conversations != nil {
				conv.Post("/client/messages", cfg.Conversations.ClientMessage)
				conv.Post("/owner/messages", cfg.Conversations.OwnerMessage)
			}
		})

		if cfg.Reports != nil {
			api.Route("/aurora", func(aurora chi.Router) {
				aurora.Get("/daily-summary", cfg.Reports.DailySummary)
				aurora.Get("/opportunities", cfg.Reports.Opportunities)
			})
		}
	})

	return r
}
