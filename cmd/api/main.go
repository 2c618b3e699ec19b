package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/niyastp88/zayancart/api"
	"github.com/niyastp88/zayancart/api/routes"
	cartsvc "github.com/niyastp88/zayancart/internal/cart"
	checkoutsvc "github.com/niyastp88/zayancart/internal/checkout"
	ordersvc "github.com/niyastp88/zayancart/internal/orders"
	productsvc "github.com/niyastp88/zayancart/internal/products"
	usersvc "github.com/niyastp88/zayancart/internal/users"
	"github.com/niyastp88/zayancart/pkg/config"
	"github.com/niyastp88/zayancart/pkg/db"
	"github.com/niyastp88/zayancart/pkg/logger"
	"github.com/niyastp88/zayancart/pkg/metrics"
	"github.com/niyastp88/zayancart/pkg/migrate"
	"github.com/niyastp88/zayancart/pkg/razorpay"
	"github.com/niyastp88/zayancart/pkg/redis"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, dbErr := db.New(ctx, cfg.DB, logg)
	if dbErr != nil {
		return dbErr
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if migErr := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); migErr != nil {
		return migErr
	}

	redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
	if redisErr != nil {
		return redisErr
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	gateway, gwErr := razorpay.NewClient(ctx, cfg.Razorpay, logg)
	if gwErr != nil {
		return gwErr
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	usersService, svcErr := usersvc.NewService(usersvc.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password)
	if svcErr != nil {
		return svcErr
	}

	productsRepo := productsvc.NewRepository(dbClient.DB())
	productsService, svcErr := productsvc.NewService(dbClient, productsRepo, usersService)
	if svcErr != nil {
		return svcErr
	}

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	cartService, svcErr := cartsvc.NewService(cartRepo, productsRepo)
	if svcErr != nil {
		return svcErr
	}

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	ordersService, svcErr := ordersvc.NewService(dbClient, ordersRepo)
	if svcErr != nil {
		return svcErr
	}

	checkoutService, svcErr := checkoutsvc.NewService(
		dbClient,
		checkoutsvc.NewRepository(dbClient.DB()),
		ordersRepo,
		cartRepo,
		gateway,
		gateway.KeySecret(),
		checkoutMetrics,
	)
	if svcErr != nil {
		return svcErr
	}

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, metricsHandler,
		usersService, productsService, cartService, checkoutService, ordersService)

	server := api.NewServer(cfg, handler, logg)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr(),
	}), "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case startErr := <-errCh:
		return startErr
	case <-ctx.Done():
	}

	// Shutdown uses a fresh context; ctx is already cancelled.
	return multierr.Append(err, server.Shutdown(context.Background()))
}
