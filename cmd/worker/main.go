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
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/worker"
)

func main() {
	logger := telemetry.NewLogger(os.Stdout, "worker")

	var cfg config.Worker
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Tracer("worker"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.OrderTopic, cfg.ConsumerGroup)
	defer func() { _ = consumer.Close() }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	emailClient := worker.NewEmailClient(cfg.EmailServiceURL, httpClient, logger)
	notificationHandler := worker.NewNotificationHandler(emailClient, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notification worker", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic, "group", cfg.ConsumerGroup)

	if err := consumer.Consume(ctx, notificationHandler.Handle); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
