// Package main is the entrypoint for the NicheGen API server.
package main

import (
	"bufio"
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nichegen/nichegen/internal/analytics"
	"github.com/nichegen/nichegen/internal/cache"
	"github.com/nichegen/nichegen/internal/config"
	"github.com/nichegen/nichegen/internal/engine"
	"github.com/nichegen/nichegen/internal/handler"
	"github.com/nichegen/nichegen/internal/metrics"
	"github.com/nichegen/nichegen/internal/middleware"
	"github.com/nichegen/nichegen/internal/repository"
	"github.com/nichegen/nichegen/internal/server"
	"github.com/nichegen/nichegen/internal/service"
	"github.com/nichegen/nichegen/internal/translate"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	categories, err := loadCategories(cfg.CategoryDataPath)
	if err != nil {
		// The generator works without the category list; only the
		// categories endpoint degrades to an empty response.
		logger.Warn("failed to load category data", "path", cfg.CategoryDataPath, "error", err)
	} else {
		logger.Info("loaded category data", "path", cfg.CategoryDataPath, "count", len(categories))
	}

	recorder := metrics.NewInMemory()

	tokens := cache.NewTokenStore(cacheClient, cfg.TokenTTL)
	sessions := cache.NewSessionStore(cacheClient, cfg.SessionTTL)

	dispatcher := engine.NewDispatcher(
		engine.NewOllama(cfg.OllamaURL, cfg.OllamaModel, logger),
		engine.NewOpenAI(cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger),
	)
	translator := translate.New(cfg.TranslateURL, logger)

	publisher := analytics.NewPublisher(cacheClient.Client(), logger, recorder)
	worker := analytics.NewWorker(cacheClient.Client(), repo, logger, analytics.NewConsumerID(), recorder)

	generationService := service.NewGenerationService(repo, dispatcher, translator, publisher, recorder, logger)

	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Users:         repo,
		Tokens:        tokens,
		Sessions:      sessions,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		SecureCookie:  cfg.IsProduction(),
		Metrics:       recorder,
		Logger:        logger,
	})
	generateHandler := handler.NewGenerateHandler(generationService, categories, logger)
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder, repo, logger)

	r := setupRouter(authHandler, generateHandler, healthHandler, metricsHandler, repo, sessions, tokens, cfg, recorder, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	go func() {
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("usage worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("usage-worker", func(ctx context.Context) error {
		stopWorker()
		return worker.Shutdown(ctx)
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadCategories reads the niche combination list, one entry per line.
// Blank lines and surrounding whitespace are dropped.
func loadCategories(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var categories []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		categories = append(categories, line)
	}
	return categories, scanner.Err()
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	authHandler *handler.AuthHandler,
	generateHandler *handler.GenerateHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	repo *repository.Repository,
	sessions *cache.SessionStore,
	tokens *cache.TokenStore,
	cfg *config.Config,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	r.Use(middleware.Identity(middleware.IdentityConfig{
		Logger:        logger,
		Sessions:      sessions,
		Tokens:        tokens,
		Users:         repo,
		SessionSecret: cfg.SessionSecret,
	}))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics/snapshot", metricsHandler.Snapshot)
	r.Get("/metrics/usage", metricsHandler.Usage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Logger:   logger,
		Quota:    repo,
		Metrics:  recorder,
		QuotaFor: cfg.QuotaFor,
	})

	r.Route("/generate", func(r chi.Router) {
		r.Get("/categories", generateHandler.Categories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(rateLimit).Post("/", generateHandler.Generate)
			r.Get("/history", generateHandler.History)
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
