package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultUpstreamBaseURL is the public EYDAP open-data savings endpoint.
const DefaultUpstreamBaseURL = "https://opendata-api-eydap.growthfund.gr/api/Savings"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr         string
	HTTPWriteTimeout time.Duration
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// Upstream API configuration.
	UpstreamBaseURL  string
	UpstreamTimeout  time.Duration
	FetchConcurrency int

	MaxYears     int
	DefaultYears int
	Location     *time.Location

	// Optional snapshot publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSeriesTopic string
}

// LoadDotEnv reads a .env file from the working directory if one exists.
// Variables already present in the environment take precedence.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	writeTimeout, err := parsePositiveDuration("HTTP_WRITE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	concurrency, err := parseInt("FETCH_CONCURRENCY", 0)
	if err != nil || concurrency < 0 {
		return nil, errors.New("invalid FETCH_CONCURRENCY: must be 0 or greater")
	}

	maxYears, err := parseInt("MAX_YEARS", 10)
	if err != nil || maxYears < 1 {
		return nil, errors.New("invalid MAX_YEARS: must be at least 1")
	}

	defaultYears, err := parseInt("DEFAULT_YEARS", 1)
	if err != nil || defaultYears < 1 || defaultYears > maxYears {
		return nil, fmt.Errorf("invalid DEFAULT_YEARS: must be 1-%d", maxYears)
	}

	loc, err := parseLocation(sharedcfg.EnvOrDefault("DATA_TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		HTTPWriteTimeout: writeTimeout,
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		UpstreamBaseURL:  strings.TrimRight(sharedcfg.EnvOrDefault("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL), "/"),
		UpstreamTimeout:  upstreamTimeout,
		FetchConcurrency: concurrency,

		MaxYears:     maxYears,
		DefaultYears: defaultYears,
		Location:     loc,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSeriesTopic: sharedcfg.EnvOrDefault("KAFKA_SERIES_TOPIC", "reservoir-series"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSeriesTopic == "" {
			return nil, errors.New("KAFKA_SERIES_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseLocation(name string) (*time.Location, error) {
	if name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid DATA_TIMEZONE: %w", err)
	}
	return loc, nil
}
