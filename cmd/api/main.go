// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imotor-app/marketplace-api/internal/admin"
	"github.com/imotor-app/marketplace-api/internal/auth"
	"github.com/imotor-app/marketplace-api/internal/billing"
	"github.com/imotor-app/marketplace-api/internal/catalog"
	"github.com/imotor-app/marketplace-api/internal/config"
	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
	"github.com/imotor-app/marketplace-api/internal/favorite"
	"github.com/imotor-app/marketplace-api/internal/health"
	"github.com/imotor-app/marketplace-api/internal/listing"
	"github.com/imotor-app/marketplace-api/internal/mailer"
	"github.com/imotor-app/marketplace-api/internal/middleware"
	"github.com/imotor-app/marketplace-api/internal/server"
	"github.com/imotor-app/marketplace-api/internal/upload"
	"github.com/imotor-app/marketplace-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	dispatcher := mailer.NewDispatcher(
		mailer.NewSendGrid(cfg.Mail),
		cfg.Mail.QueueSize,
		logger,
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, dispatcher)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		redis.Client,
		dispatcher,
		cfg.App.FrontendURL+"/reset-password",
	)
	authHandler := auth.NewHandler(authSvc)

	entStore := entitlement.NewStore(db.DB)
	entCatalog := entitlement.NewCatalog(cfg.Stripe)
	entService := entitlement.NewService(
		db.DB,
		entStore,
		entitlement.NewReconciler(entCatalog),
		listing.NewDemotionExecutor(logger),
		mailer.NewNotices(dispatcher),
		logger,
	)

	stripeClient := billing.NewClient(cfg.Stripe)
	billingHandler := billing.NewHandler(stripeClient, entService)
	webhookHandler := billing.NewWebhookHandler(
		cfg.Stripe,
		entService,
		stripeClient,
		logger,
	)

	imageStore, err := upload.NewStore(cfg.Upload, logger)
	if err != nil {
		return err
	}

	listingRepo := listing.NewRepository(db.DB)
	listingSvc := listing.NewService(db.DB, listingRepo, entStore, logger)
	listingHandler := listing.NewHandler(listingSvc, imageStore)

	favoriteRepo := favorite.NewRepository(db.DB)
	favoriteHandler := favorite.NewHandler(favoriteRepo, listingRepo)

	catalogHandler := catalog.NewHandler(catalog.NewRepository(db.DB))

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		DB:         db.DB,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	router.Mount("/uploads", imageStore.Handler())

	authenticator := middleware.Authenticator(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		// Stripe signs its own requests; the webhook sits outside the
		// bearer token chain.
		r.Method("POST", "/billing/webhook", webhookHandler)

		authHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			listingHandler.RegisterRoutes(r, authenticator)
			catalogHandler.RegisterRoutes(r)
		})

		billingHandler.RegisterRoutes(r, authenticator)
		favoriteHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		catalogHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	dispatcher.Close()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	logLevel := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
