// Package main is the entrypoint for the tmplkit API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tmplkit/tmplkit/internal/auth"
	"github.com/tmplkit/tmplkit/internal/cache"
	"github.com/tmplkit/tmplkit/internal/config"
	"github.com/tmplkit/tmplkit/internal/handler"
	"github.com/tmplkit/tmplkit/internal/metrics"
	"github.com/tmplkit/tmplkit/internal/middleware"
	"github.com/tmplkit/tmplkit/internal/repository"
	"github.com/tmplkit/tmplkit/internal/server"
	"github.com/tmplkit/tmplkit/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
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

	// Apply schema migrations
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		os.Exit(1)
	}
	logger.Info("schema up to date")

	// Initialize cache
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

	// Token codec
	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL)
	if err != nil {
		logger.Error("failed to configure token codec", "error", err)
		os.Exit(1)
	}

	// Services
	recorder := metrics.NewInMemory()
	resolver := auth.NewResolver(repo, cacheClient, recorder)
	accountService := service.NewAccountService(repo, cacheClient, codec, recorder)
	templateService := service.NewTemplateService(repo, cacheClient, recorder)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	accountHandler := handler.NewAccountHandler(accountService, logger)
	templateHandler := handler.NewTemplateHandler(templateService, logger)

	r := setupRouter(routerDeps{
		base:      h,
		health:    healthHandler,
		accounts:  accountHandler,
		templates: templateHandler,
		codec:     codec,
		resolver:  resolver,
		metrics:   recorder,
		cfg:       cfg,
		logger:    logger,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

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

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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

type routerDeps struct {
	base      *handler.Handler
	health    *handler.HealthHandler
	accounts  *handler.AccountHandler
	templates *handler.TemplateHandler
	codec     *auth.Codec
	resolver  *auth.Resolver
	metrics   metrics.Recorder
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router. Each route declares its access
// policy explicitly.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.cfg.IsDevelopment(),
		MaxRequestBodySize: deps.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	// Open endpoints
	r.Post("/register", deps.accounts.Register)
	r.Post("/login", deps.accounts.Login)

	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Logger:   deps.logger,
		Verifier: deps.codec,
		Resolver: deps.resolver,
		Metrics:  deps.metrics,
	})
	guard := middleware.NewGuard(deps.logger, deps.metrics)

	// Template routes
	r.Route("/template", func(r chi.Router) {
		r.Use(authenticate)

		r.With(guard.RequireViewPermission).Get("/", deps.templates.List)
		r.Post("/", deps.templates.Create)

		r.Get("/{id}", deps.templates.Get)
		r.With(guard.RequireTemplateOwner).Put("/{id}", deps.templates.Update)
		r.With(guard.RequireTemplateOwner).Delete("/{id}", deps.templates.Delete)
	})

	// Permission administration
	r.With(authenticate, guard.RequirePermissionAdmin).Put("/permission", deps.accounts.SetPermission)

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

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
