package main

import (
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
	"github.com/spec-kit/content-gateway/internal/edge"
	"github.com/spec-kit/content-gateway/internal/observability"
	"github.com/spec-kit/content-gateway/internal/persistence"
)

// The edge binary serves delivery traffic only: gatekeeper, cache,
// enrichment, upstream proxy. It never touches the database; the token
// secret arrives through deployment configuration so verification needs
// no outbound calls.
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL())
	metrics := observability.NewMetrics()

	gatekeeper := edge.NewGatekeeper(tokens, metrics)
	cache := edge.NewCache(redis.Client, cfg.Edge.CacheTTL(), logger)
	delivery := edge.NewDeliveryHandler(cache, edge.NewEnricher(), cfg.Edge.UpstreamURL, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name+"-edge", cfg.App.Version, nil, redis)
	app.Get("/health/live", healthHandler.Live)
	app.Get("/health/ready", healthHandler.Ready)

	// Gatekeeper first: tier gating happens before any cache lookup.
	app.Use(gatekeeper.Handle)
	app.Get("/*", delivery.Handle)

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
