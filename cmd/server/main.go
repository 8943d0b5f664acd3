package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/api/handlers"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/auth"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/cache"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/config"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/database"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/events"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/metrics"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/payment"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "quickship:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New("quickship", cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	decimal.MarshalJSONWithoutQuotes = true
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	users := repository.NewUserRepository(pool)
	shops := repository.NewShopRepository(pool)
	var orders repository.OrderRepository = repository.NewOrderRepository(pool)
	apps := repository.NewApplicationRepository(pool)

	var products repository.ProductRepository = repository.NewProductRepository(pool)
	rdb, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, product cache disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		cached := cache.NewCachedProductRepository(products, rdb, log)
		products = cached
		orders = cache.NewStockInvalidatingOrderRepository(orders, cached)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close event publisher", zap.Error(err))
		}
	}()

	gateway := payment.NewRazorpayClient(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Currency:  cfg.Currency,
		Timeout:   cfg.GatewayTimeout,
	}, func(d time.Duration) { m.GatewayLatency.Observe(d.Seconds()) })

	tokens := auth.NewTokenManager(cfg.AuthSecret, cfg.TokenTTL)

	router := handlers.NewRouter(handlers.RouterDeps{
		Checkout:     service.NewCheckoutService(gateway, cfg.RazorpayKeySecret, users, products, orders, publisher, m, log),
		Orders:       service.NewOrderService(orders, shops, publisher, log),
		Catalog:      service.NewCatalogService(products, shops, log),
		Applications: service.NewApplicationService(apps, users, log),
		Accounts:     service.NewAccountService(users, tokens, log),
		Tokens:       tokens,
		DB:           pool,
		Metrics:      m,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
