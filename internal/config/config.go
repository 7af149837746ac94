// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting of the service.
type Config struct {
	// Storage
	PostgresDSN   string        `env:"POSTGRES_DSN"`
	PostgresConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	ClickHouseDSN string        `env:"CLICKHOUSE_DSN"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// HTTP
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr      string `env:"METRICS_ADDR" envDefault:":9090"`
	WebhookAuthToken string `env:"WEBHOOK_AUTH_TOKEN"`

	// Providers
	BirdeyeAPIKey      string        `env:"BIRDEYE_API_KEY"`
	BirdeyeBaseURL     string        `env:"BIRDEYE_BASE_URL" envDefault:"https://public-api.birdeye.so"`
	MoniAPIKey         string        `env:"MONI_API_KEY"`
	MoniBaseURL        string        `env:"MONI_BASE_URL" envDefault:"https://api.discover.getmoni.io/api/v2"`
	SafetyBaseURL      string        `env:"SAFETY_BASE_URL" envDefault:"https://l7db1lpgkb.execute-api.us-east-2.amazonaws.com/prod"`
	AlternativeBaseURL string        `env:"ALTERNATIVE_BASE_URL" envDefault:"https://api.alternative.me"`
	DefiLlamaBaseURL   string        `env:"DEFILLAMA_BASE_URL" envDefault:"https://api.llama.fi"`
	ProviderTimeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
	SocialTimeout      time.Duration `env:"SOCIAL_TIMEOUT" envDefault:"20s"`
	Chain              string        `env:"CHAIN" envDefault:"solana"`

	// Watch queue
	WatchInterval       time.Duration `env:"WATCH_INTERVAL" envDefault:"60s"`
	WatchBatchSize      int           `env:"WATCH_BATCH_SIZE" envDefault:"50"`
	WatchItemDelay      time.Duration `env:"WATCH_ITEM_DELAY" envDefault:"5s"`
	WatchCooldown       time.Duration `env:"WATCH_COOLDOWN" envDefault:"1h"`
	WatchActivityWindow time.Duration `env:"WATCH_ACTIVITY_WINDOW" envDefault:"168h"`
	WatchConcurrency    int           `env:"WATCH_CONCURRENCY" envDefault:"1"`

	// Jobs
	JobsSchedule string `env:"JOBS_SCHEDULE" envDefault:"0 0 * * * *"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads files (default ".env") into the environment without overriding
// variables already set, then parses Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// a missing file is fine, the environment alone is enough
		_ = godotenv.Load(f)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.WatchInterval <= 0 {
		errs = append(errs, errors.New("WATCH_INTERVAL must be positive"))
	}
	if c.WatchBatchSize <= 0 {
		errs = append(errs, errors.New("WATCH_BATCH_SIZE must be positive"))
	}
	if c.WatchItemDelay < 0 {
		errs = append(errs, errors.New("WATCH_ITEM_DELAY must not be negative"))
	}
	if c.WatchCooldown < 0 || c.WatchActivityWindow <= 0 {
		errs = append(errs, errors.New("WATCH_COOLDOWN and WATCH_ACTIVITY_WINDOW must be positive"))
	}
	if c.WatchConcurrency <= 0 {
		errs = append(errs, errors.New("WATCH_CONCURRENCY must be positive"))
	}
	if c.ProviderTimeout <= 0 || c.SocialTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT and SOCIAL_TIMEOUT must be positive"))
	}
	if c.PostgresConns <= 0 {
		errs = append(errs, errors.New("POSTGRES_MAX_CONNS must be positive"))
	}
	return errors.Join(errs...)
}
