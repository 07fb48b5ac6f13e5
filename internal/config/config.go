package config

import (
	"fmt"
	"time"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/database"
	pkgconfig "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/config"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/tracing"
)

// Search engine backends.
const (
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"
)

// Catalog sources for reindexing.
const (
	SourceNone     = "none"
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// Config holds all configuration for the materials search service.
type Config struct {
	// Version is the build version, set by the binary rather than the
	// environment.
	Version string

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort            int           `env:"MATERIALS_HTTP_PORT" envDefault:"8010"`
	HTTPRequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Search engine selection (memory or elasticsearch)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"memory"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"materials"`

	// Ranking and result bounds
	SearchDefaultLimit int     `env:"SEARCH_DEFAULT_LIMIT" envDefault:"50"`
	SearchMaxLimit     int     `env:"SEARCH_MAX_LIMIT" envDefault:"100"`
	FuzzyFloor         float64 `env:"SEARCH_FUZZY_FLOOR" envDefault:"0.3"`
	SuggestFloor       float64 `env:"SEARCH_SUGGEST_FLOOR" envDefault:"0.15"`

	// Autocomplete
	AutocompleteMinChars       int     `env:"AUTOCOMPLETE_MIN_CHARS" envDefault:"2"`
	AutocompleteMaxSuggestions int     `env:"AUTOCOMPLETE_MAX_SUGGESTIONS" envDefault:"8"`
	AutocompleteRateRPS        float64 `env:"AUTOCOMPLETE_RATE_RPS" envDefault:"20"`
	AutocompleteRateBurst      int     `env:"AUTOCOMPLETE_RATE_BURST" envDefault:"40"`

	// Catalog source for reindexing (none, postgres or http)
	CatalogSource     string `env:"CATALOG_SOURCE" envDefault:"none"`
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8080"`
	CatalogPageSize   int    `env:"CATALOG_PAGE_SIZE" envDefault:"500"`
	ReindexOnStart    bool   `env:"REINDEX_ON_START" envDefault:"false"`

	// PostgreSQL (catalog reads and the zero-result search log)
	PostgresEnabled bool   `env:"POSTGRES_ENABLED" envDefault:"false"`
	PostgresHost    string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER" envDefault:"elecmate"`
	PostgresPass    string `env:"POSTGRES_PASSWORD" envDefault:"elecmate_secret"`
	PostgresDB      string `env:"MATERIALS_DB_NAME" envDefault:"elecmate"`
	PostgresSSL     string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Queries at or above this duration are logged; zero disables it.
	DBSlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis (response cache and event idempotency)
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"materials-search"`

	// Circuit breaker around the search backend
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporter   string  `env:"OTEL_TRACES_EXPORTER" envDefault:"otlp"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load materials search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchEngine {
	case EngineMemory:
	case EngineElasticsearch:
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required when SEARCH_ENGINE=%s", EngineElasticsearch)
		}
	default:
		return fmt.Errorf("SEARCH_ENGINE must be %q or %q, got %q", EngineMemory, EngineElasticsearch, c.SearchEngine)
	}
	if c.FuzzyFloor < 0 || c.FuzzyFloor > 1 {
		return fmt.Errorf("SEARCH_FUZZY_FLOOR must be between 0.0 and 1.0, got %f", c.FuzzyFloor)
	}
	if c.SuggestFloor < 0 || c.SuggestFloor > 1 {
		return fmt.Errorf("SEARCH_SUGGEST_FLOOR must be between 0.0 and 1.0, got %f", c.SuggestFloor)
	}
	if c.SearchDefaultLimit < 1 || c.SearchMaxLimit < c.SearchDefaultLimit || c.SearchMaxLimit > domain.MaxSearchLimit {
		return fmt.Errorf("search limits must satisfy 1 <= default (%d) <= max (%d) <= %d", c.SearchDefaultLimit, c.SearchMaxLimit, domain.MaxSearchLimit)
	}
	if c.AutocompleteMinChars < 1 {
		return fmt.Errorf("AUTOCOMPLETE_MIN_CHARS must be at least 1, got %d", c.AutocompleteMinChars)
	}
	if c.AutocompleteMaxSuggestions < 1 || c.AutocompleteMaxSuggestions > 20 {
		return fmt.Errorf("AUTOCOMPLETE_MAX_SUGGESTIONS must be between 1 and 20, got %d", c.AutocompleteMaxSuggestions)
	}
	if c.AutocompleteRateRPS < 0 {
		return fmt.Errorf("AUTOCOMPLETE_RATE_RPS must not be negative, got %f", c.AutocompleteRateRPS)
	}
	switch c.CatalogSource {
	case SourceNone, SourceHTTP:
	case SourcePostgres:
		if !c.PostgresEnabled {
			return fmt.Errorf("CATALOG_SOURCE=%s requires POSTGRES_ENABLED=true", SourcePostgres)
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of %q, %q, %q, got %q", SourceNone, SourcePostgres, SourceHTTP, c.CatalogSource)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.BreakerFailureRatio)
	}
	if c.OTELExporter != tracing.ExporterOTLP && c.OTELExporter != tracing.ExporterStdout {
		return fmt.Errorf("OTEL_TRACES_EXPORTER must be %q or %q, got %q", tracing.ExporterOTLP, tracing.ExporterStdout, c.OTELExporter)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Breaker returns the search backend circuit breaker configuration.
func (c *Config) Breaker(name string) httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig(name)
	cb.Timeout = c.BreakerTimeout
	cb.FailureRatio = c.BreakerFailureRatio
	cb.MinRequests = c.BreakerMinRequests
	return cb
}
