package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/content-gateway/internal/api/http"
	"github.com/spec-kit/content-gateway/internal/api/http/handlers"
	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/config"
	"github.com/spec-kit/content-gateway/internal/events"
	"github.com/spec-kit/content-gateway/internal/observability"
	"github.com/spec-kit/content-gateway/internal/persistence"
	"github.com/spec-kit/content-gateway/internal/repository"
	"github.com/spec-kit/content-gateway/internal/service"
	"github.com/spec-kit/content-gateway/internal/signer"
	"github.com/spec-kit/content-gateway/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	urlSigner, err := signer.New(cfg.Signing.Domain, cfg.Signing.KeyPairID,
		cfg.Signing.PrivateKeyPath, cfg.Signing.DefaultTTL())
	if err != nil {
		logger.Fatal("failed to load signing key", zap.Error(err))
	}
	if !urlSigner.Configured() {
		logger.Warn("url signing not configured; access grants will fail closed")
	}

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	accessLogRepo := repository.NewAccessLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	hashPool := worker.NewHashPool(cfg.Auth.HashPoolWorkers, cfg.Auth.BcryptCost)
	defer hashPool.Close()

	worker.StartAuditWorker(dispatcher, accessLogRepo, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo: accountRepo,
		HashPool:    hashPool,
		Dispatcher:  dispatcher,
	})
	contentService := service.NewContentService(service.ContentDependencies{
		ContentRepo:   contentRepo,
		AccessLogRepo: accessLogRepo,
		Cache:         redis.Client,
		Signer:        urlSigner,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(authService),
		Content:        handlers.NewContentHandler(contentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
