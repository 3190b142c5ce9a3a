package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 384, cfg.RAG.Dimensions)
	assert.Equal(t, 3, cfg.RAG.SearchK)
	assert.Equal(t, 2000, cfg.RAG.ContextMaxTokens)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  http_port: 9000
rag:
  chunk_size: 500
  chunk_overlap: 50
llm:
  model: llama-3.1-8b
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "llama-3.1-8b", cfg.LLM.Model)
	// untouched sections keep defaults
	assert.Equal(t, 384, cfg.RAG.Dimensions)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o600))

	t.Setenv("SABIA_SERVER_HTTP_PORT", "9100")
	t.Setenv("SABIA_EMBEDDING_TIMEOUT", "45s")
	t.Setenv("SABIA_REDIS_ENABLED", "true")
	t.Setenv("SABIA_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SABIA_LLM_TEMPERATURE", "0.2")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.Embedding.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("APP_SERVER_HTTP_PORT", "7070")

	cfg, err := NewLoader().WithEnvPrefix("APP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
}

func TestValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }, true},
		{"zero chunk size", func(c *Config) { c.RAG.ChunkSize = 0 }, true},
		{"overlap >= chunk size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }, true},
		{"zero dimensions", func(c *Config) { c.RAG.Dimensions = 0 }, true},
		{"temperature out of range", func(c *Config) { c.LLM.Temperature = 3 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
