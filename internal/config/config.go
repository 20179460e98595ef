package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort            = "8080"
	defaultDatabaseURL     = "smarttrack.db"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTTTL          = "24h"
	defaultUploadDir       = "uploads"
	defaultPublicBaseURL   = "http://localhost:8080"
	defaultEventsExchange  = "smarttrack.events"
	defaultBaseFee         = "2.50"
	defaultPerKm           = "0.90"
	defaultTaxRate         = "0.12"
	defaultSnowflakeNode   = "1"
	defaultOutboxInterval  = "5s"
	defaultOutboxBatch     = "100"
	defaultOutboxRetention = "720h"
	defaultOutboxAttempts  = "10"
)

type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	FrontendURL    string
	RedisURL       string
	RabbitMQURL    string
	EventsExchange string
	UploadDir      string
	PublicBaseURL  string
	SnowflakeNode  int64
	MetricsToken   string

	Pricing   PricingConfig
	Outbox    OutboxConfig
	RateLimit RateLimitConfig
}

type PricingConfig struct {
	BaseFee float64
	PerKm   float64
	TaxRate float64
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Retention    time.Duration
	HealthAddr   string
}

// Load reads the process environment. Call godotenv.Load() first when a
// .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.FrontendURL = strings.TrimSpace(os.Getenv("FRONTEND_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	cfg.EventsExchange = strings.TrimSpace(getEnv("EVENTS_EXCHANGE", defaultEventsExchange))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/")
	cfg.MetricsToken = strings.TrimSpace(os.Getenv("METRICS_TOKEN"))
	cfg.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if cfg.FrontendURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.SnowflakeNode, err = parseIntEnv("SNOWFLAKE_NODE", defaultSnowflakeNode); err != nil {
		return nil, err
	}
	if cfg.Pricing.BaseFee, err = parseFloatEnv("DELIVERY_BASE_FEE", defaultBaseFee); err != nil {
		return nil, err
	}
	if cfg.Pricing.PerKm, err = parseFloatEnv("DELIVERY_PER_KM", defaultPerKm); err != nil {
		return nil, err
	}
	if cfg.Pricing.TaxRate, err = parseFloatEnv("TAX_RATE", defaultTaxRate); err != nil {
		return nil, err
	}
	if cfg.Outbox.PollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", defaultOutboxInterval); err != nil {
		return nil, err
	}
	if cfg.Outbox.Retention, err = parseDurationEnv("OUTBOX_RETENTION", defaultOutboxRetention); err != nil {
		return nil, err
	}
	batch, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatch)
	if err != nil {
		return nil, err
	}
	cfg.Outbox.BatchSize = int(batch)
	attempts, err := parseIntEnv("OUTBOX_MAX_ATTEMPTS", defaultOutboxAttempts)
	if err != nil {
		return nil, err
	}
	cfg.Outbox.MaxAttempts = int(attempts)
	cfg.Outbox.HealthAddr = strings.TrimSpace(getEnv("RELAY_HEALTH_ADDR", ":8090"))

	cfg.RateLimit = LoadRateLimitConfig()

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s port=%s redis=%t rabbitmq=%t", cfg.AppEnv, cfg.Port, cfg.RedisURL != "", cfg.RabbitMQURL != "")

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.SnowflakeNode < 0 || cfg.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be within 0..1023")
	}
	if cfg.Pricing.BaseFee < 0 || cfg.Pricing.PerKm < 0 {
		return fmt.Errorf("delivery fees must not be negative")
	}
	if cfg.Pricing.TaxRate < 0 || cfg.Pricing.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be within [0, 1)")
	}
	if cfg.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be > 0")
	}
	if cfg.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be > 0")
	}
	if cfg.Outbox.PollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if len(cfg.AllowedOrigins) == 0 {
			return fmt.Errorf("in prod/release CORS_ALLOWED_ORIGINS or FRONTEND_URL must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseIntEnv(name, fallback string) (int64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
