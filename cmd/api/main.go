package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quickcart/quickcart-backend/api"
	"github.com/quickcart/quickcart-backend/api/routes"
	"github.com/quickcart/quickcart-backend/internal/addresses"
	"github.com/quickcart/quickcart-backend/internal/analytics"
	"github.com/quickcart/quickcart-backend/internal/auth"
	"github.com/quickcart/quickcart-backend/internal/banners"
	"github.com/quickcart/quickcart-backend/internal/cart"
	"github.com/quickcart/quickcart-backend/internal/catalog"
	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/internal/orders"
	"github.com/quickcart/quickcart-backend/internal/users"
	"github.com/quickcart/quickcart-backend/internal/wishlist"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db"
	"github.com/quickcart/quickcart-backend/pkg/logger"
	"github.com/quickcart/quickcart-backend/pkg/metrics"
	"github.com/quickcart/quickcart-backend/pkg/migrate"
	"github.com/quickcart/quickcart-backend/pkg/redis"
	"github.com/quickcart/quickcart-backend/pkg/sms"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	smsProvider, err := sms.NewProvider(cfg.SMS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms provider", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	catalogRepo := catalog.NewRepository(gdb)
	offerRepo := offers.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:      auth.NewRepository(gdb),
		Store:     redisClient,
		SMS:       smsProvider,
		JWT:       cfg.JWT,
		OTP:       cfg.OTP,
		RateLimit: cfg.AuthRateLimit,
		AppEnv:    cfg.App.Env,
		Metrics:   m,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Pricing: cfg.Pricing})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{Repo: wishlist.NewRepository(gdb)})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	addressesService, err := addresses.NewService(addresses.ServiceParams{Repo: addresses.NewRepository(gdb)})
	if err != nil {
		logg.Error(context.Background(), "failed to create addresses service", err)
		os.Exit(1)
	}

	offersService, err := offers.NewService(offers.ServiceParams{Repo: offerRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	bannersService, err := banners.NewService(banners.ServiceParams{Repo: banners.NewRepository(gdb)})
	if err != nil {
		logg.Error(context.Background(), "failed to create banners service", err)
		os.Exit(1)
	}

	calculator, err := orders.NewCalculator(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing calculator", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        orders.NewRepository(gdb),
		CatalogRepo: catalogRepo,
		OfferRepo:   offerRepo,
		CartRepo:    cartRepo,
		Tx:          dbClient,
		Calculator:  calculator,
		Policy:      orders.DefaultTransitionPolicy(cfg.Orders.AllowAnyStatusTransition),
		Orders:      cfg.Orders,
		Metrics:     m,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{Repo: users.NewRepository(gdb)})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.ServiceParams{Repo: analytics.NewRepository(gdb)})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, m, registry, dbClient, redisClient, routes.Services{
		Auth:      authService,
		Addresses: addressesService,
		Catalog:   catalogService,
		Cart:      cartService,
		Wishlist:  wishlistService,
		Offers:    offersService,
		Banners:   bannersService,
		Orders:    ordersService,
		Users:     usersService,
		Analytics: analyticsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}
