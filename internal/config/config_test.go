package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.themealdb.com/api/json/v1/1", cfg.Catalog.URL())
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 10, cfg.Engine.DefaultLimit)
	assert.Equal(t, []string{"Seafood", "Chicken", "Beef", "Dessert", "Vegetarian"}, cfg.Engine.DefaultCategories)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "culina.db", filepath.Base(cfg.Storage.Path))
	assert.False(t, cfg.Auth.GoogleEnabled())
}

func TestFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
catalog:
  api_key: "9973533"
  timeout: 5s
storage:
  path: /tmp/culina-test.db
engine:
  default_categories: [Pasta, Dessert]
  default_limit: 4
  query_timeout: 2s
auth:
  google_client_id: file-client
log:
  level: debug
`)
	t.Setenv("CULINA_ENGINE_DEFAULT_LIMIT", "6")
	t.Setenv("CULINA_AUTH_GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("CULINA_CATALOG_BASE_URL", "http://localhost:9000/api/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api", cfg.Catalog.URL())
	assert.Equal(t, "9973533", cfg.Catalog.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "/tmp/culina-test.db", cfg.Storage.Path)
	assert.Equal(t, []string{"Pasta", "Dessert"}, cfg.Engine.DefaultCategories)
	assert.Equal(t, 6, cfg.Engine.DefaultLimit)
	assert.Equal(t, 2*time.Second, cfg.Engine.QueryTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Auth.GoogleEnabled())
}

func TestAPIKeySelectsCatalogURL(t *testing.T) {
	c := CatalogConfig{APIKey: "abc"}
	assert.Equal(t, "https://www.themealdb.com/api/json/v1/abc", c.URL())
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing explicit file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{"bad yaml", func(t *testing.T) string { return writeConfig(t, "catalog: [unclosed") }},
		{"negative limit", func(t *testing.T) string { return writeConfig(t, "engine:\n  default_limit: -1\n") }},
		{"unknown level", func(t *testing.T) string { return writeConfig(t, "log:\n  level: loud\n") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestQueryTimeout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		body string
		want time.Duration
	}{
		{"unset uses default", "engine:\n  default_limit: 3\n", 15 * time.Second},
		{"zero uses default", "engine:\n  query_timeout: 0s\n", 15 * time.Second},
		{"explicit", "engine:\n  query_timeout: 750ms\n", 750 * time.Millisecond},
		{"negative disables", "engine:\n  query_timeout: -1s\n", NoQueryTimeout},
		{"any negative disables", "engine:\n  query_timeout: -30m\n", NoQueryTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Engine.QueryTimeout)
		})
	}
}
