package api

import (
	"net/http"

	"github.com/Rrens/ollama-chat/internal/api/handler"
	customMiddleware "github.com/Rrens/ollama-chat/internal/api/middleware"
	"github.com/Rrens/ollama-chat/internal/config"
	"github.com/Rrens/ollama-chat/internal/display"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/Rrens/ollama-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the components served by the router
type Deps struct {
	Store       *service.SessionStore
	Recall      *service.InputRecall
	Models      *service.ModelDirectory
	Turn        *service.TurnOrchestrator
	Feed        *display.Feed
	LLMRouter   *llm.Router
	Storage     domain.Pinger
	RateLimiter customMiddleware.Limiter
	Host        string
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	defaults := domain.SamplingOptions{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}

	sessionHandler := handler.NewSessionHandler(deps.Store, deps.Feed)
	chatHandler := handler.NewChatHandler(deps.Turn, deps.Recall, defaults)
	modelHandler := handler.NewModelHandler(deps.Models, deps.Host)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Storage))
		r.Get("/llm-providers", handler.ListLLMProviders(deps.LLMRouter))

		r.Route("/models", func(r chi.Router) {
			r.Get("/", modelHandler.List)
			r.Post("/refresh", modelHandler.Refresh)
			r.Put("/selected", modelHandler.Select)
			r.Get("/running", modelHandler.Running)
			r.Get("/{name}", modelHandler.Show)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/active", sessionHandler.Active)
			r.Put("/active", sessionHandler.Switch)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", sessionHandler.Rename)
				r.Delete("/", sessionHandler.Delete)
				r.Get("/messages", sessionHandler.Messages)
				r.Delete("/messages", sessionHandler.Clear)
				r.Get("/display", sessionHandler.Display)
			})
		})

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
			}
			r.Post("/chat", chatHandler.Submit)
		})

		r.Post("/recall/previous", chatHandler.RecallPrevious)
		r.Post("/recall/next", chatHandler.RecallNext)
	})

	return r
}
