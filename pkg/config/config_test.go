package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Host      string        `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Port      int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	Brokers   []string      `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CacheTTL  time.Duration `env:"TEST_CFG_CACHE_TTL" envDefault:"5m"`
	Threshold float64       `env:"TEST_CFG_FUZZY_FLOOR" envDefault:"0.3"`
	Enabled   bool          `env:"TEST_CFG_ENABLED"`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want testConfig
	}{
		{
			name: "defaults",
			want: testConfig{Host: "localhost", Port: 8080, Brokers: []string{"localhost:9092"}, CacheTTL: 5 * time.Minute, Threshold: 0.3},
		},
		{
			name: "environment",
			env: map[string]string{
				"TEST_CFG_HOST":        "search.internal",
				"TEST_CFG_PORT":        "8010",
				"TEST_CFG_BROKERS":     "k1:9092,k2:9092",
				"TEST_CFG_CACHE_TTL":   "90s",
				"TEST_CFG_FUZZY_FLOOR": "0.45",
				"TEST_CFG_ENABLED":     "true",
			},
			want: testConfig{Host: "search.internal", Port: 8010, Brokers: []string{"k1:9092", "k2:9092"}, CacheTTL: 90 * time.Second, Threshold: 0.45, Enabled: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var cfg testConfig
			require.NoError(t, Load(&cfg))
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	type required struct {
		URL string `env:"TEST_CFG_CATALOG_URL,required"`
	}

	t.Run("missing required", func(t *testing.T) {
		var cfg required
		err := Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TEST_CFG_CACHE_TTL", "five minutes")
		var cfg testConfig
		err := Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materials.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetAfter removes variables godotenv wrote straight into the process
// environment.
func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoad_FromEnvFile(t *testing.T) {
	t.Setenv(EnvFileVar, writeEnvFile(t, "TEST_CFG_HOST=catalog.internal\nTEST_CFG_PORT=9191\n"))
	unsetAfter(t, "TEST_CFG_HOST", "TEST_CFG_PORT")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "catalog.internal", cfg.Host)
	assert.Equal(t, 9191, cfg.Port)
}

func TestLoad_EnvironmentOverridesEnvFile(t *testing.T) {
	t.Setenv("TEST_CFG_HOST", "from-env")
	t.Setenv(EnvFileVar, writeEnvFile(t, "TEST_CFG_HOST=from-file\n"))

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "from-env", cfg.Host)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "absent.env"))

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load env file")
}
