package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Duration(0), cfg.SuggestCacheTTL)
	assert.Equal(t, 1024, cfg.SuggestCacheMax)
	assert.Equal(t, 5.0, cfg.SuggestRate)
	assert.Equal(t, 10, cfg.SuggestBurst)
	assert.Empty(t, cfg.ClickHouseDSN)
	assert.Equal(t, ":8081", cfg.ListenAddr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TOOL_CATALOG_BACKEND_URL", "http://backend:5000/")
	t.Setenv("TOOL_CATALOG_HTTP_PORT", "9090")
	t.Setenv("TOOL_CATALOG_LOG_LEVEL", "DEBUG")
	t.Setenv("TOOL_CATALOG_SUGGEST_CACHE_TTL", "30s")
	t.Setenv("TOOL_CATALOG_SUGGEST_CACHE_MAX", "64")
	t.Setenv("CLICKHOUSE_DSN", "clickhouse://localhost:9000/default")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://backend:5000", cfg.BackendURL)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.SuggestCacheTTL)
	assert.Equal(t, 64, cfg.SuggestCacheMax)
	assert.Equal(t, "clickhouse://localhost:9000/default", cfg.ClickHouseDSN)
}

func TestLoad_PrefixedDSNWins(t *testing.T) {
	t.Setenv("TOOL_CATALOG_CLICKHOUSE_DSN", "clickhouse://catalog:9000/events")
	t.Setenv("CLICKHOUSE_DSN", "clickhouse://shared:9000/default")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "clickhouse://catalog:9000/events", cfg.ClickHouseDSN)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "backend_url: http://files:5000\nsuggest_rate: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://files:5000", cfg.BackendURL)
	assert.Equal(t, 0.0, cfg.SuggestRate)
}

func TestReadFile_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 7000\n"), 0o600))
	t.Setenv("TOOL_CATALOG_HTTP_PORT", "7001")

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.HTTPPort)
}

func TestReadFile_Missing(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestReadFile_EmptyPathIsNoop(t *testing.T) {
	require.NoError(t, ReadFile(New(), "  "))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"empty backend", map[string]string{"TOOL_CATALOG_BACKEND_URL": " "}},
		{"port out of range", map[string]string{"TOOL_CATALOG_HTTP_PORT": "70000"}},
		{"unknown level", map[string]string{"TOOL_CATALOG_LOG_LEVEL": "verbose"}},
		{"negative rate", map[string]string{"TOOL_CATALOG_SUGGEST_RATE": "-1"}},
		{"zero burst", map[string]string{"TOOL_CATALOG_SUGGEST_BURST": "0"}},
		{"zero cache max", map[string]string{"TOOL_CATALOG_SUGGEST_CACHE_MAX": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New())
			require.Error(t, err)
		})
	}
}
