package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LLM_PROVIDER", "LLM_MODEL", "LLM_TIMEOUT_SECONDS",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "GEMINI_API_KEY", "OLLAMA_URL",
		"GEOCODER_BASE_URL", "EMERGENCY_API_BASE", "HTTP_TIMEOUT_SECONDS", "MAX_RETRIES",
		"USER_AGENT", "GEOCODER_RPS", "CACHE_DB_PATH", "CACHE_TTL", "WORKERS", "QUEUE_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, time.Second, cfg.Lookups.Timeout)
	assert.Equal(t, 2, cfg.Lookups.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Workers.Count)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "normalize.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
llm:
  provider: ollama
  model: mistral
  timeout: 30s
lookups:
  max_retries: 5
cache:
  db_path: /tmp/lookups.db
  ttl: 1h
workers:
  count: 8
`), 0o644))

	t.Setenv("MAX_RETRIES", "1")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.Lookups.MaxRetries, "env wins over file")
	assert.Equal(t, 2500*time.Millisecond, cfg.Lookups.Timeout)
	assert.Equal(t, "/tmp/lookups.db", cfg.Cache.DBPath)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Workers.Count)
	assert.Equal(t, 64, cfg.Workers.QueueSize)
}

func TestKeysAreEnvOnly(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "normalize.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  openaikey: from-file\n  openai_key: from-file\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.OpenAIKey)
	assert.Equal(t, "none", cfg.LLM.Provider)
}

func TestProviderFromKeys(t *testing.T) {
	t.Run("openai key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-1")
		t.Setenv("GEMINI_API_KEY", "g-1")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "sk-1", cfg.APIKey())
	})

	t.Run("gemini key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-1")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "g-1", cfg.APIKey())
	})

	t.Run("explicit provider wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-1")
		t.Setenv("LLM_PROVIDER", "None")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "none", cfg.LLM.Provider)
	})
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"port":          {"PORT", "http"},
		"workers":       {"WORKERS", "0"},
		"retries":       {"MAX_RETRIES", "many"},
		"ttl":           {"CACHE_TTL", "forever"},
		"provider":      {"LLM_PROVIDER", "hal9000"},
		"missing key":   {"LLM_PROVIDER", "openai"},
		"log level":     {"LOG_LEVEL", "loud"},
		"negative rate": {"GEOCODER_RPS", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
