package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/platform/resilience"
)

type AppEnv string

const (
	EnvDev   AppEnv = "dev"
	EnvStage AppEnv = "stage"
	EnvProd  AppEnv = "prod"
)

// Config carries everything the API process needs. Load fails fast on
// malformed values so a bad deploy dies at startup, not mid-request.
type Config struct {
	AppEnv         AppEnv
	ServiceName    string
	ServiceVersion string

	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	CORSAllowedOrigins []string
	LogLevel           logging.Level

	BackendBaseURL    string
	BackendToken      string
	BackendTimeout    time.Duration
	BackendMaxRetries int
	BackendCircuit    resilience.CircuitBreakerConfig

	SnapshotTTL       time.Duration
	StatsCacheTTL     time.Duration
	StandingsCacheTTL time.Duration

	StatsFetchConcurrency int
}

func Load() (Config, error) {
	cfg := Config{
		ServiceName:    getEnv("APP_SERVICE_NAME", "draft-engine-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", string(EnvDev)))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_ENV: %w", err)
	}
	cfg.AppEnv = appEnv

	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout, err = time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	cfg.WriteTimeout, err = time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS must not be empty")
	}
	if cfg.IsProd() {
		for _, origin := range cfg.CORSAllowedOrigins {
			if origin == "*" {
				return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain a wildcard in prod")
			}
		}
	}

	cfg.BackendTimeout, err = time.ParseDuration(getEnv("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_TIMEOUT: %w", err)
	}
	cfg.BackendMaxRetries, err = getEnvAsInt("BACKEND_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	if cfg.BackendMaxRetries < 0 {
		return Config{}, fmt.Errorf("BACKEND_MAX_RETRIES must be >= 0")
	}

	cfg.BackendCircuit, err = loadCircuitConfig()
	if err != nil {
		return Config{}, err
	}

	cfg.SnapshotTTL, err = time.ParseDuration(getEnv("SNAPSHOT_TTL", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_TTL: %w", err)
	}
	cfg.StatsCacheTTL, err = time.ParseDuration(getEnv("STATS_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_CACHE_TTL: %w", err)
	}
	cfg.StandingsCacheTTL, err = time.ParseDuration(getEnv("STANDINGS_CACHE_TTL", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STANDINGS_CACHE_TTL: %w", err)
	}

	cfg.StatsFetchConcurrency, err = getEnvAsInt("STATS_FETCH_CONCURRENCY", 8)
	if err != nil {
		return Config{}, err
	}
	if cfg.StatsFetchConcurrency < 1 {
		return Config{}, fmt.Errorf("STATS_FETCH_CONCURRENCY must be >= 1")
	}

	return cfg, nil
}

func loadCircuitConfig() (resilience.CircuitBreakerConfig, error) {
	circuit := resilience.DefaultCircuitBreakerConfig()

	enabled, err := strconv.ParseBool(getEnv("BACKEND_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return circuit, fmt.Errorf("parse BACKEND_CIRCUIT_ENABLED: %w", err)
	}
	circuit.Enabled = enabled

	circuit.FailureThreshold, err = getEnvAsInt("BACKEND_CIRCUIT_FAILURE_COUNT", circuit.FailureThreshold)
	if err != nil {
		return circuit, err
	}
	if circuit.FailureThreshold < 1 {
		return circuit, fmt.Errorf("BACKEND_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	circuit.OpenTimeout, err = time.ParseDuration(getEnv("BACKEND_CIRCUIT_OPEN_TIMEOUT", circuit.OpenTimeout.String()))
	if err != nil {
		return circuit, fmt.Errorf("parse BACKEND_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}

	circuit.HalfOpenMaxReq, err = getEnvAsInt("BACKEND_CIRCUIT_HALF_OPEN_MAX_REQ", circuit.HalfOpenMaxReq)
	if err != nil {
		return circuit, err
	}
	if circuit.HalfOpenMaxReq < 1 {
		return circuit, fmt.Errorf("BACKEND_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return circuit, nil
}

func (c Config) IsProd() bool {
	return c.AppEnv == EnvProd
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(raw string) logging.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseAppEnv(raw string) (AppEnv, error) {
	switch AppEnv(strings.ToLower(raw)) {
	case EnvDev, EnvStage, EnvProd:
		return AppEnv(strings.ToLower(raw)), nil
	default:
		return "", fmt.Errorf("unknown environment %q", raw)
	}
}
