package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/ollama-chat/internal/api"
	"github.com/Rrens/ollama-chat/internal/config"
	"github.com/Rrens/ollama-chat/internal/display"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/Rrens/ollama-chat/internal/llm/anthropic"
	"github.com/Rrens/ollama-chat/internal/llm/deepseek"
	"github.com/Rrens/ollama-chat/internal/llm/gemini"
	"github.com/Rrens/ollama-chat/internal/llm/ollama"
	"github.com/Rrens/ollama-chat/internal/llm/openai"
	"github.com/Rrens/ollama-chat/internal/logger"
	"github.com/Rrens/ollama-chat/internal/repository"
	"github.com/Rrens/ollama-chat/internal/repository/redis"
	"github.com/Rrens/ollama-chat/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Ollama chat server")

	ctx := context.Background()

	// Redis backs the model cache, the rate limiter and optionally session storage
	var redisClient *redis.Client
	if cfg.Redis.Enabled || cfg.Storage.Driver == "redis" {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	backend, err := repository.Open(ctx, cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session storage")
	}
	defer backend.Close()

	llmRouter := newLLMRouter(cfg)
	transport, err := llmRouter.GetProvider("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select LLM provider")
	}

	feed := display.NewFeed()

	store := service.NewSessionStore(backend, feed)
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load sessions")
	}
	if _, err := store.EnsureSession(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create initial session")
	}
	recall := service.NewInputRecall(store)

	var modelCache service.ModelCache
	if cfg.Redis.Enabled && redisClient != nil {
		modelCache = redis.NewModelCache(redisClient, cfg.Redis.ModelTTL)
	}
	models := service.NewModelDirectory(transport, modelCache, cfg.LLM.DefaultModel(transport.Name()))
	if _, err := models.Load(ctx); err != nil {
		log.Warn().
			Err(err).
			Str("provider", transport.Name()).
			Msg(llm.Diagnose(err, llm.HostOf(transport)))
	}

	turn := service.NewTurnOrchestrator(store, recall, models, transport, feed, service.TurnOptions{
		SystemPrompt: cfg.Chat.SystemPrompt,
		AutoTitle:    cfg.Chat.AutoTitle,
	})

	deps := api.Deps{
		Store:     store,
		Recall:    recall,
		Models:    models,
		Turn:      turn,
		Feed:      feed,
		LLMRouter: llmRouter,
		Storage:   backend,
		Host:      llm.HostOf(transport),
	}
	if cfg.Security.RateLimit.Enabled && redisClient != nil {
		deps.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newLLMRouter registers every transport that has enough configuration to run
func newLLMRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)

	router.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.Timeout))

	if cfg.LLM.OpenAI.APIKey != "" || cfg.LLM.OpenAI.BaseURL != "" {
		var opts []openai.Option
		if cfg.LLM.OpenAI.APIKey == "" {
			opts = append(opts, openai.WithKeyless())
		}
		router.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, opts...))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.BaseURL))
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.LLM.DeepSeek.APIKey))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini.APIKey))
	}

	log.Info().
		Strs("providers", router.ListProviders()).
		Str("default", router.DefaultProvider()).
		Msg("LLM providers registered")
	return router
}
