package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotNil(t, cfg.Models.Providers)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3*time.Second, cfg.DecisionSinkTimeout)
	assert.False(t, cfg.AllowQueryAPIKey)
	assert.Empty(t, cfg.APIKeys)
}

func TestDefaultMediaToolsConfig(t *testing.T) {
	cfg := DefaultMediaToolsConfig()
	assert.Nil(t, cfg.Enabled, "auto by default")
	assert.Nil(t, cfg.Audio.Enabled)
	assert.Empty(t, cfg.Models)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}

func TestDefaultRedisAndDatabaseDisabled(t *testing.T) {
	assert.False(t, DefaultRedisConfig().Enabled)
	assert.False(t, DefaultDatabaseConfig().Enabled)
	assert.Equal(t, "postgres", DefaultDatabaseConfig().Driver)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

// --- ModelsConfig ordering ---

func TestModelsConfig_ProviderIDsKeepYAMLOrder(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte(`
models:
  providers:
    zeta: {api_key: z}
    alpha: {api_key: a}
    mid: {api_key: m}
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, cfg.Models.ProviderIDs())
}

func TestModelsConfig_SetProviderAppends(t *testing.T) {
	m := DefaultModelsConfig()
	m.SetProvider("openai", ProviderConfig{APIKey: "k"})
	m.SetProvider("deepgram", ProviderConfig{APIKey: "d"})
	m.SetProvider("openai", ProviderConfig{APIKey: "k2"})

	assert.Equal(t, []string{"openai", "deepgram"}, m.ProviderIDs())
	assert.Equal(t, "k2", m.Providers["openai"].APIKey)
}

func TestModelsConfig_UnorderedEntriesSorted(t *testing.T) {
	m := ModelsConfig{Providers: map[string]ProviderConfig{"b": {}, "a": {}, "c": {}}}
	assert.Equal(t, []string{"a", "b", "c"}, m.ProviderIDs())
}

func TestMediaToolsConfig_ForCapability(t *testing.T) {
	m := MediaToolsConfig{
		Audio:     MediaCapabilityConfig{Language: "en"},
		Vision:    MediaCapabilityConfig{Prompt: "p"},
		Embedding: MediaCapabilityConfig{Dimensions: 256},
	}
	assert.Equal(t, "en", m.ForCapability("audio").Language)
	assert.Equal(t, "p", m.ForCapability("vision").Prompt)
	assert.Equal(t, 256, m.ForCapability("embedding").Dimensions)
	assert.Equal(t, MediaCapabilityConfig{}, m.ForCapability("video"))
}
