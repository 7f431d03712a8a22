package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "gtfslite.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: postgres
  postgres_url: postgres://localhost/gtfs
  clear_db: true
server:
  addr: ":9000"
  allowed_origins: ["https://example.com"]
log:
  level: debug
fetch:
  timeout: 5s
  cache_ttl: 10m
  headers:
    Authorization: secret
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/gtfs", cfg.Storage.PostgresURL)
	assert.True(t, cfg.Storage.ClearDB)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Fetch.CacheTTL)
	assert.Equal(t, map[string]string{"Authorization": "secret"}, cfg.Fetch.Headers)

	// Untouched values keep their defaults.
	assert.Equal(t, 800, cfg.Fetch.MaxSizeMB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  sqlite_dir: /var/lib/gtfs
server:
  addr: ":9000"
`)

	t.Setenv("GTFSLITE_STORAGE", "memory")
	t.Setenv("GTFSLITE_ADDR", ":7000")
	t.Setenv("GTFSLITE_LOG_LEVEL", "warn")
	t.Setenv("GTFSLITE_LOG_FILE", "/tmp/gtfslite.log")
	t.Setenv("GTFSLITE_TIMEOUT", "30s")
	t.Setenv("GTFSLITE_MAX_SIZE_MB", "12")
	t.Setenv("GTFSLITE_CLEAR_DB", "true")
	t.Setenv("GTFSLITE_CACHE_DIR", "/tmp/gtfs-cache")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/gtfs", cfg.Storage.SQLiteDir)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/gtfslite.log", cfg.Log.File)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 12, cfg.Fetch.MaxSizeMB)
	assert.True(t, cfg.Storage.ClearDB)
	assert.Equal(t, "/tmp/gtfs-cache", cfg.Fetch.CacheDir)
}

func TestLoadInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"unknown backend", "storage:\n  backend: redis\n", nil},
		{"postgres without url", "storage:\n  backend: postgres\n", nil},
		{"bad log level", "log:\n  level: loud\n", nil},
		{"empty addr", "server:\n  addr: \"\"\n", nil},
		{"malformed yaml", "storage: [", nil},
		{"bad duration", "", map[string]string{"GTFSLITE_TIMEOUT": "soon"}},
		{"bad size", "", map[string]string{"GTFSLITE_MAX_SIZE_MB": "big"}},
		{"bad bool", "", map[string]string{"GTFSLITE_CLEAR_DB": "maybe"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
