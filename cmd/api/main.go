package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/ebookshop-backend/api/routes"
	"github.com/angelmondragon/ebookshop-backend/internal/admin"
	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/catalog"
	"github.com/angelmondragon/ebookshop-backend/internal/checkout"
	"github.com/angelmondragon/ebookshop-backend/internal/fulfillment"
	"github.com/angelmondragon/ebookshop-backend/pkg/auth/session"
	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/db"
	"github.com/angelmondragon/ebookshop-backend/pkg/env"
	"github.com/angelmondragon/ebookshop-backend/pkg/instance"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
	"github.com/angelmondragon/ebookshop-backend/pkg/migrate"
	"github.com/angelmondragon/ebookshop-backend/pkg/pubsub"
	"github.com/angelmondragon/ebookshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"instance": instance.ID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)

	var notifier fulfillment.Notifier = fulfillment.NewNoop(logg)
	if cfg.PubSub.Enabled(cfg.GCP) {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, psClient.Close()) }()

		publisher := psClient.OrdersPublisher()
		defer publisher.Stop()
		if notifier, err = fulfillment.NewPubSubNotifier(publisher, logg); err != nil {
			return err
		}
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	cartRepo, err := cart.NewRedisRepository(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, catalogService, cartMetrics, logg)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:    cartService,
		Notifier: notifier,
		Sales:    catalogService,
		Metrics:  cartMetrics,
		Logger:   logg,
		Shop:     cfg.Shop,
	})
	if err != nil {
		return err
	}
	adminService, err := admin.NewService(admin.ServiceParams{
		Repo:           admin.NewRepository(dbClient.DB()),
		Sessions:       sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AllowRegister:  !cfg.App.IsProd(),
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + env.FirstOf(cfg.App.Port, "PORT")
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			metrics.NewHTTPMetrics(registry),
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			catalogService,
			cartService,
			checkoutService,
			adminService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}
