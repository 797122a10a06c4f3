package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/adminauth"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/gateway"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger(os.Stdout, "gateway")

	var cfg config.Gateway
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Tracer("gateway"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("gateway", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var authority *adminauth.Authority
	if cfg.AdminJWTSecret != "" {
		authority = adminauth.New(cfg.AdminJWTSecret)
	} else {
		logger.Warn("ADMIN_JWT_SECRET is not set, admin routes are unauthenticated")
	}

	handler := gateway.NewHandler(gateway.NewServiceProxy(cfg.StorefrontURL, httpClient), logger)

	mux := http.NewServeMux()
	handler.Register(mux, gateway.Routes{
		Wrap:  telemetry.WithHTTPRoute,
		Admin: gateway.RequireAdmin(authority, logger),
		Track: gateway.RateLimit(gateway.NewIPLimiter(cfg.TrackRatePerMinute, cfg.TrackBurst), logger),
	})
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, "gateway", otelhttp.WithSpanNameFormatter(telemetry.SpanNameFormatter)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", cfg.Port, "storefront", cfg.StorefrontURL)
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
