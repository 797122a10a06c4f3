package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger(os.Stdout, "storefront")

	var cfg config.Storefront
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Tracer("storefront"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var products catalog.Store = catalog.NewProductRepository(db)
	var orderOpts []orders.Option

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}

		cached, err := catalog.NewCachedStore(products, rdb, cfg.ProductCacheTTL, logger)
		if err != nil {
			logger.Error("failed to create product cache", "error", err)
			os.Exit(1)
		}
		products = cached
		orderOpts = append(orderOpts, orders.WithInvalidator(cached))
		logger.Info("product cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProductCacheTTL)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
		orderOpts = append(orderOpts, orders.WithPublisher(producer))
		logger.Info("order events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic)
	}

	service, err := orders.NewService(orders.NewOrderRepository(db), products, logger, orderOpts...)
	if err != nil {
		logger.Error("failed to create orders service", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	catalog.NewHandler(products, logger).Register(mux, telemetry.WithHTTPRoute)
	orders.NewHandler(service, logger).Register(mux, telemetry.WithHTTPRoute)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, "storefront", otelhttp.WithSpanNameFormatter(telemetry.SpanNameFormatter)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
