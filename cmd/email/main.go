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

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/email"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger(os.Stdout, "email")

	var cfg config.Email
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Tracer("email"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("email", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	handler, err := email.NewHandler(logger)
	if err != nil {
		logger.Error("failed to create email handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", telemetry.WithHTTPRoute(handler.HandleSend))
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, "email", otelhttp.WithSpanNameFormatter(telemetry.SpanNameFormatter)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting email service", "port", cfg.Port)
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
