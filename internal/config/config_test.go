package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, EngineMemory, cfg.SearchEngine)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticsearchURL)
	assert.Equal(t, "materials", cfg.ElasticsearchIndex)
	assert.Equal(t, 50, cfg.SearchDefaultLimit)
	assert.Equal(t, 100, cfg.SearchMaxLimit)
	assert.InDelta(t, 0.3, cfg.FuzzyFloor, 1e-9)
	assert.InDelta(t, 0.15, cfg.SuggestFloor, 1e-9)
	assert.Equal(t, 2, cfg.AutocompleteMinChars)
	assert.Equal(t, 8, cfg.AutocompleteMaxSuggestions)
	assert.Equal(t, SourceNone, cfg.CatalogSource)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.PostgresEnabled)
	assert.Equal(t, 200*time.Millisecond, cfg.DBSlowQueryThreshold)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"MATERIALS_HTTP_PORT":    "9000",
		"SEARCH_ENGINE":          "elasticsearch",
		"ELASTICSEARCH_URL":      "http://es:9200",
		"SEARCH_FUZZY_FLOOR":     "0.4",
		"AUTOCOMPLETE_MIN_CHARS": "3",
		"CATALOG_SOURCE":         "http",
		"CATALOG_SERVICE_URL":    "http://catalog:8080",
		"KAFKA_ENABLED":          "true",
		"KAFKA_BROKERS":          "k1:9092,k2:9092",
		"CACHE_TTL":              "90s",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, EngineElasticsearch, cfg.SearchEngine)
	assert.Equal(t, "http://es:9200", cfg.ElasticsearchURL)
	assert.InDelta(t, 0.4, cfg.FuzzyFloor, 1e-9)
	assert.Equal(t, 3, cfg.AutocompleteMinChars)
	assert.Equal(t, SourceHTTP, cfg.CatalogSource)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"http port", map[string]string{"MATERIALS_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"engine", map[string]string{"SEARCH_ENGINE": "solr"}, "SEARCH_ENGINE"},
		{"fuzzy floor", map[string]string{"SEARCH_FUZZY_FLOOR": "1.5"}, "SEARCH_FUZZY_FLOOR"},
		{"suggest floor", map[string]string{"SEARCH_SUGGEST_FLOOR": "-0.1"}, "SEARCH_SUGGEST_FLOOR"},
		{"limits", map[string]string{"SEARCH_DEFAULT_LIMIT": "200", "SEARCH_MAX_LIMIT": "100"}, "search limits"},
		{"max limit above engine cap", map[string]string{"SEARCH_MAX_LIMIT": "200"}, "search limits"},
		{"min chars", map[string]string{"AUTOCOMPLETE_MIN_CHARS": "0"}, "AUTOCOMPLETE_MIN_CHARS"},
		{"max suggestions", map[string]string{"AUTOCOMPLETE_MAX_SUGGESTIONS": "50"}, "AUTOCOMPLETE_MAX_SUGGESTIONS"},
		{"catalog source", map[string]string{"CATALOG_SOURCE": "ftp"}, "CATALOG_SOURCE"},
		{"postgres source without postgres", map[string]string{"CATALOG_SOURCE": "postgres"}, "POSTGRES_ENABLED"},
		{"breaker ratio", map[string]string{"BREAKER_FAILURE_RATIO": "0"}, "BREAKER_FAILURE_RATIO"},
		{"otel sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2"}, "OTEL_SAMPLE_RATE"},
		{"otel exporter", map[string]string{"OTEL_TRACES_EXPORTER": "jaeger"}, "OTEL_TRACES_EXPORTER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_PostgresSource(t *testing.T) {
	setEnvs(t, map[string]string{
		"CATALOG_SOURCE":   "postgres",
		"POSTGRES_ENABLED": "true",
		"POSTGRES_HOST":    "db",
		"DB_MAX_CONNS":     "4",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, int32(4), pg.MaxConns)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)
	assert.Equal(t, "postgres://elecmate:elecmate_secret@db:5432/elecmate?sslmode=disable", pg.DSN())
}

func TestConfig_Breaker(t *testing.T) {
	setEnvs(t, map[string]string{
		"BREAKER_TIMEOUT":      "10s",
		"BREAKER_MIN_REQUESTS": "3",
	})

	cfg, err := Load()
	require.NoError(t, err)

	cb := cfg.Breaker("search-engine")
	assert.Equal(t, "search-engine", cb.Name)
	assert.Equal(t, 10*time.Second, cb.Timeout)
	assert.Equal(t, uint32(3), cb.MinRequests)
	assert.InDelta(t, 0.5, cb.FailureRatio, 1e-9)
}

func TestConfig_Redis(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6379", cfg.Redis().Addr())
	assert.Equal(t, 2, cfg.Redis().DB)
}
