package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 300, cfg.APIRateLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:5000/api", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.InDelta(t, 20.0, cfg.BackendRPS, 0)
	assert.Equal(t, 10, cfg.BackendBurst)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 4, cfg.SeriesConcurrency)
	assert.Equal(t, 10, cfg.ComparisonTop)
	assert.Equal(t, "Media_de_radianza", cfg.DefaultMetric)
	assert.Zero(t, cfg.RefreshInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "dashboard-selection-events", cfg.KafkaSelectionTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("API_RATE_LIMIT", "0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BACKEND_URL", "http://radiance:5000/api/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("BACKEND_RPS", "2.5")
	t.Setenv("BACKEND_BURST", "1")
	t.Setenv("CACHE_SIZE", "0")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SERIES_CONCURRENCY", "8")
	t.Setenv("COMPARISON_TOP", "5")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SELECTION_TOPIC", "custom-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 0, cfg.APIRateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://radiance:5000/api", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.InDelta(t, 2.5, cfg.BackendRPS, 0)
	assert.Equal(t, 1, cfg.BackendBurst)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.SeriesConcurrency)
	assert.Equal(t, 5, cfg.ComparisonTop)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.True(t, cfg.KafkaEnabled, "explicit brokers enable publishing")
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-events", cfg.KafkaSelectionTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BACKEND_TIMEOUT", "bad"},
		{"BACKEND_TIMEOUT", "0s"},
		{"CACHE_TTL", "-5m"},
		{"REFRESH_INTERVAL", "soon"},
		{"BACKEND_RPS", "0"},
		{"BACKEND_RPS", "fast"},
		{"BACKEND_BURST", "0"},
		{"API_RATE_LIMIT", "-3"},
		{"CACHE_SIZE", "-1"},
		{"SERIES_CONCURRENCY", "0"},
		{"COMPARISON_TOP", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaEnabledWithDefaultBroker(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
}
