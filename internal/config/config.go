package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreDriver        string
	DatabaseURL        string
	RunMigrations      bool
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string

	Pricing  Pricing
	Checkout Checkout

	CartTTL         time.Duration
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	LockTTL         time.Duration
	LockRetry       time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Notify Notify
	Obs    Obs
}

// Pricing is the order pricing policy in minor units.
type Pricing struct {
	Currency              string
	TaxPercent            decimal.Decimal
	ShippingFlatFee       int64
	FreeShippingThreshold int64
}

// Checkout tunes order placement.
type Checkout struct {
	Timeout         time.Duration
	RateLimit       int64
	RateWindow      time.Duration
	ConflictRetries int
}

// Notify configures notification delivery.
type Notify struct {
	EmailEnabled      bool
	EmailFrom         string
	WorkerConcurrency int
	BreakerThreshold  int
	BreakerCooldown   time.Duration
	// SMTPAddr is host:port of the relay. Empty logs emails instead of sending.
	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
}

// Obs configures logging, metrics and tracing.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ReadyTimeout     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	tax, err := decimal.NewFromString(valueOrDefault(k.String("TAX_RATE_PERCENT"), "18"))
	if err != nil || tax.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE_PERCENT must be a non-negative number")
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreDriver:        strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), StorePostgres)),
		DatabaseURL:        k.String("DATABASE_URL"),
		RunMigrations:      parseBool(k.String("RUN_MIGRATIONS")),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          k.String("JWT_ISSUER"),
		JWTAudience:        k.String("JWT_AUDIENCE"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		Pricing: Pricing{
			Currency:              strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "INR")),
			TaxPercent:            tax,
			ShippingFlatFee:       parseInt(k.String("SHIPPING_FLAT_FEE"), 4900),
			FreeShippingThreshold: parseInt(k.String("FREE_SHIPPING_THRESHOLD"), 99900),
		},
		Checkout: Checkout{
			Timeout:         parseDuration(k.String("CHECKOUT_TIMEOUT"), "10s"),
			RateLimit:       parseInt(k.String("CHECKOUT_RATE_LIMIT"), 10),
			RateWindow:      parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),
			ConflictRetries: int(parseInt(k.String("CONFLICT_RETRIES"), 3)),
		},
		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:         parseDuration(k.String("LOCK_TTL"), "1m"),
		LockRetry:       parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		KafkaBrokers:    splitAndTrim(k.String("KAFKA_BROKERS")),
		KafkaTopic:      valueOrDefault(k.String("KAFKA_TOPIC"), "toko.orders"),
		Notify: Notify{
			EmailEnabled:      parseBool(valueOrDefault(k.String("NOTIFY_EMAIL_ENABLED"), "true")),
			EmailFrom:         valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "orders@toko.local"),
			WorkerConcurrency: int(parseInt(k.String("WORKER_CONCURRENCY"), 10)),
			BreakerThreshold:  int(parseInt(k.String("CIRCUIT_EMAIL_THRESHOLD"), 5)),
			BreakerCooldown:   parseDuration(k.String("CIRCUIT_EMAIL_COOLDOWN"), "30s"),
			SMTPAddr:          k.String("SMTP_ADDR"),
			SMTPUsername:      k.String("SMTP_USERNAME"),
			SMTPPassword:      k.String("SMTP_PASSWORD"),
		},
		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBool(valueOrDefault(k.String("OBS_ENABLE_PROMETHEUS"), "true")),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "none"),
			OTLPEndpoint:     k.String("OBS_OTLP_ENDPOINT"),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			ReadyTimeout:     parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),
		},
	}

	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %s or %s", StorePostgres, StoreMemory)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Pricing.ShippingFlatFee < 0 || cfg.Pricing.FreeShippingThreshold < 0 {
		return nil, errors.New("shipping amounts cannot be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(valueOrDefault(value, fallback))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests sets env for the duration of Load and restores it afterwards.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := os.Setenv(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func restoreEnv(values map[string]*string) error {
	var errs []error
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
