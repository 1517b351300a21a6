package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	APIRateLimit    int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Radiance backend.
	BackendURL     string
	BackendTimeout time.Duration
	BackendRPS     float64
	BackendBurst   int
	CacheSize      int
	CacheTTL       time.Duration

	// Loader behaviour.
	SeriesConcurrency int
	ComparisonTop     int
	DefaultMetric     string
	RefreshInterval   time.Duration

	// Selection event publishing.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaSelectionTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		BackendURL:          strings.TrimRight(sharedcfg.EnvOrDefault("BACKEND_URL", "http://localhost:5000/api"), "/"),
		DefaultMetric:       sharedcfg.EnvOrDefault("DEFAULT_METRIC", "Media_de_radianza"),
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSelectionTopic: sharedcfg.EnvOrDefault("KAFKA_SELECTION_TOPIC", "dashboard-selection-events"),
	}

	if cfg.BackendTimeout, err = parseDuration("BACKEND_TIMEOUT", "10s", false); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", "5m", false); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = parseDuration("REFRESH_INTERVAL", "0", true); err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("BACKEND_RPS", "20"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("invalid BACKEND_RPS: must be a positive number")
	}
	cfg.BackendRPS = rps

	if cfg.APIRateLimit, err = parseInt("API_RATE_LIMIT", 300, 0); err != nil {
		return nil, err
	}
	if cfg.BackendBurst, err = parseInt("BACKEND_BURST", 10, 1); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = parseInt("CACHE_SIZE", 256, 0); err != nil {
		return nil, err
	}
	if cfg.SeriesConcurrency, err = parseInt("SERIES_CONCURRENCY", 4, 1); err != nil {
		return nil, err
	}
	if cfg.ComparisonTop, err = parseInt("COMPARISON_TOP", 10, 1); err != nil {
		return nil, err
	}

	// Publishing is implied by an explicit broker list unless switched off.
	_, brokersSet := os.LookupEnv("KAFKA_BROKERS")
	cfg.KafkaEnabled = brokersSet
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSelectionTopic == "" {
		return nil, errors.New("KAFKA_SELECTION_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}
