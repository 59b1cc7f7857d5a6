package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 20, cfg.Session.MaxTurns)
	assert.Equal(t, 10000, cfg.LLM.ChunkSize)
	assert.Equal(t, "0.0.0.0:5000", cfg.HTTPAddr())
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
}

func TestLoadTOMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[session]
backend = "redis"
max_turns = 8

[llm]
provider = "openai"
model = "qwen-max"

[log]
level = "warn"
format = "console"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_MAX_TURNS", "12")
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 12, cfg.Session.MaxTurns)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "qwen-max", cfg.LLM.Model)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: genie-yaml
rate_limit:
  enabled: false
prompt:
  history_turns: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "genie-yaml", cfg.App.Name)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 4, cfg.Prompt.HistoryTurns)
	assert.Equal(t, 100, cfg.RateLimit.APIRequests)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Session.Backend = "etcd" }, wantErr: true},
		{name: "mongo backend without mongo", mutate: func(c *Config) { c.Session.Backend = SessionBackendMongo }, wantErr: true},
		{name: "mongo backend with mongo", mutate: func(c *Config) {
			c.Session.Backend = SessionBackendMongo
			c.Mongo.Enabled = true
		}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "bard" }, wantErr: true},
		{name: "console log format", mutate: func(c *Config) { c.Log.Format = "console" }},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
