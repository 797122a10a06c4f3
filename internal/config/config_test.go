package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStorefront(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/storefront")

		var cfg Storefront
		require.NoError(t, Load(&cfg))

		assert.Equal(t, "8081", cfg.Port)
		assert.Equal(t, DefaultOrderEventsTopic, cfg.OrderTopic)
		assert.Equal(t, 10*time.Minute, cfg.ProductCacheTTL)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Empty(t, cfg.RedisAddr)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/storefront")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("PRODUCT_CACHE_TTL", "30s")

		var cfg Storefront
		require.NoError(t, Load(&cfg))

		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 30*time.Second, cfg.ProductCacheTTL)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "")
		os.Unsetenv("POSTGRES_URL")

		var cfg Storefront
		assert.Error(t, Load(&cfg))
	})
}

func TestLoadGateway(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_SERVICE_URL", "http://storefront:8081")

	var cfg Gateway
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.TrackRatePerMinute)
	assert.Equal(t, 5, cfg.TrackBurst)
	assert.Empty(t, cfg.AdminJWTSecret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("EMAIL_SERVICE_URL=http://email:8084\nCONSUMER_GROUP=from-file\n"), 0o600))

	t.Setenv("KAFKA_BROKERS", "kafka:9092")
	t.Setenv("CONSUMER_GROUP", "from-env")
	t.Cleanup(func() { os.Unsetenv("EMAIL_SERVICE_URL") })

	var cfg Worker
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "http://email:8084", cfg.EmailServiceURL)
	assert.Equal(t, "from-env", cfg.ConsumerGroup)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoadTelemetry(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("defaults", func(t *testing.T) {
		var cfg Email
		require.NoError(t, Load(&cfg))

		tc := cfg.Tracer("email")
		assert.Equal(t, "email", tc.ServiceName)
		assert.Equal(t, "0.1.0", tc.ServiceVersion)
		assert.Equal(t, "localhost:4317", tc.Endpoint)
		assert.Equal(t, 1.0, tc.SampleRatio)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
		t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "0.25")
		t.Setenv("SERVICE_VERSION", "1.4.2")

		var cfg Email
		require.NoError(t, Load(&cfg))

		tc := cfg.Tracer("email")
		assert.Equal(t, "otel-collector:4317", tc.Endpoint)
		assert.Equal(t, 0.25, tc.SampleRatio)
		assert.Equal(t, "1.4.2", tc.ServiceVersion)
	})
}
