// Package config reads each service's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const DefaultOrderEventsTopic = "storefront.orders"

// Telemetry is shared by every service.
type Telemetry struct {
	ServiceVersion   string  `env:"SERVICE_VERSION" env-default:"0.1.0"`
	OTLPEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	TraceSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" env-default:"1"`
}

func (t Telemetry) Tracer(serviceName string) telemetry.TracerConfig {
	return telemetry.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: t.ServiceVersion,
		Endpoint:       t.OTLPEndpoint,
		SampleRatio:    t.TraceSampleRatio,
	}
}

type Storefront struct {
	Port            string        `env:"PORT" env-default:"8081"`
	PostgresURL     string        `env:"POSTGRES_URL" env-required:"true"`
	KafkaBrokers    []string      `env:"KAFKA_BROKERS" env-separator:","`
	OrderTopic      string        `env:"ORDER_EVENTS_TOPIC" env-default:"storefront.orders"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	ProductCacheTTL time.Duration `env:"PRODUCT_CACHE_TTL" env-default:"10m"`
	Telemetry
}

type Gateway struct {
	Port               string `env:"PORT" env-default:"8080"`
	StorefrontURL      string `env:"STOREFRONT_SERVICE_URL" env-required:"true"`
	AdminJWTSecret     string `env:"ADMIN_JWT_SECRET"`
	TrackRatePerMinute int    `env:"TRACK_RATE_PER_MINUTE" env-default:"10"`
	TrackBurst         int    `env:"TRACK_BURST" env-default:"5"`
	Telemetry
}

type Worker struct {
	KafkaBrokers    []string `env:"KAFKA_BROKERS" env-separator:"," env-required:"true"`
	OrderTopic      string   `env:"ORDER_EVENTS_TOPIC" env-default:"storefront.orders"`
	EmailServiceURL string   `env:"EMAIL_SERVICE_URL" env-required:"true"`
	ConsumerGroup   string   `env:"CONSUMER_GROUP" env-default:"notification-worker"`
	Telemetry
}

type Email struct {
	Port string `env:"PORT" env-default:"8084"`
	Telemetry
}

// Load fills cfg from the environment after applying a .env file in the
// working directory, if there is one. Variables already set win over the file.
func Load(cfg any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
