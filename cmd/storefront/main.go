package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/metrics"
	"github.com/fjod/go_storefront/internal/payment/paytm"
	"github.com/fjod/go_storefront/internal/payment/upi"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/repository/filestore"
	"github.com/fjod/go_storefront/internal/repository/mongostore"
	"github.com/fjod/go_storefront/internal/repository/sqlstore"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var carts cart.Store = cart.NewDocumentStore(store)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis cart cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CartTTL)
		carts = cart.NewCachedStore(carts, cart.NewRedisCache(redisClient, cfg.CartTTL), log)
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.Info("publishing order events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	paytmClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	paytmProvider, err := paytm.New(cfg.Paytm, paytmClient)
	if err != nil {
		return fmt.Errorf("configure paytm: %w", err)
	}
	upiGenerator := upi.NewGenerator(cfg.UPI)
	log.Info("payment adapters configured", "paytm_mode", paytmProvider.Mode(), "upi_enabled", upiGenerator.Enabled())

	m := metrics.New()
	validator := validation.New()
	calculator := pricing.NewCalculator(cfg.Pricing)

	catalogService, err := service.NewCatalogService(service.CatalogServiceDeps{
		Store:     store,
		Validator: validator,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	cartService, err := service.NewCartService(service.CartServiceDeps{
		Carts:     carts,
		Store:     store,
		Pricer:    calculator,
		Validator: validator,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	orderService, err := service.NewOrderService(service.OrderServiceDeps{
		Store:     store,
		Carts:     carts,
		Pricer:    calculator,
		Validator: validator,
		UPI:       upiGenerator,
		Paytm:     paytmProvider,
		Events:    publisher,
		Metrics:   m,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	router := h.NewRouter(h.RouterDeps{
		Catalog:        catalogService,
		Carts:          cartService,
		Orders:         orderService,
		Metrics:        m,
		Logger:         log,
		AdminAPIKey:    cfg.AdminAPIKey,
		RequestTimeout: cfg.RequestTimeout,
		BaseURL:        cfg.BaseURL,
		StaticDir:      cfg.StaticDir,
		UploadDir:      cfg.UploadDir,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})
	if cfg.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY is not set; admin routes will reject every request")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", "port", cfg.Port, "store", cfg.StoreDriver, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

// openStore connects the configured document backend. Non-file backends are seeded
// from the JSON files in DATA_DIR while their collections are empty.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreFile:
		fs, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info("using file store", "dir", cfg.DataDir)
		return fs, nil

	case config.StoreSQLite, config.StorePostgres:
		ss, err := sqlstore.Open(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := ss.RunMigrations(cfg.MigrationsPath); err != nil {
			ss.Close()
			return nil, err
		}
		log.Info("using sql store", "driver", cfg.StoreDriver)
		store = ss

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		ms, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := ms.CreateIndexes(connectCtx,
			repository.Products, repository.Orders, repository.Customers, repository.Offers, repository.Carts,
		); err != nil {
			ms.Close()
			return nil, err
		}
		log.Info("using mongo store", "database", cfg.MongoDB)
		store = ms

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	n, err := repository.Seed(ctx, store, cfg.DataDir, repository.Products, repository.Offers)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if n > 0 {
		log.Info("seeded catalog", "documents", n, "from", cfg.DataDir)
	}
	return store, nil
}
