package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/meli/auth-server/internal/api/http"
	"github.com/meli/auth-server/internal/api/http/handlers"
	"github.com/meli/auth-server/internal/auth"
	"github.com/meli/auth-server/internal/config"
	"github.com/meli/auth-server/internal/events"
	"github.com/meli/auth-server/internal/observability"
	"github.com/meli/auth-server/internal/persistence"
	"github.com/meli/auth-server/internal/repository"
	"github.com/meli/auth-server/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger, metrics).RegisterHandlers()

	identities := repository.NewCachedIdentityRepository(
		repository.NewIdentityRepository(pg.PoolHandle()),
		redis.ClientHandle(),
		cfg.Redis.IdentityCacheTTL(),
	)

	matcher, err := auth.MatcherFor(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Fatal("invalid password scheme", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Identities: identities,
		Matcher:    matcher,
		Dispatcher: dispatcher,
	})
	authMiddleware := auth.NewAuthMiddleware(authService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.Resource)
	loginLimiter := httptransport.NewLoginLimiter(httptransport.LoginLimiterConfig{
		PerMinute: cfg.Auth.LoginRatePerMinute,
		Burst:     cfg.Auth.LoginBurst,
	})
	defer loginLimiter.Stop()

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		LoginLimiter:   loginLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("auth server started",
		zap.String("addr", cfg.App.Addr()),
		zap.Duration("access_ttl", authService.AccessTTL()))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
