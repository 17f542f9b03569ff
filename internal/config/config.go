// Package config loads service settings from an optional YAML file and the
// environment. The environment always wins; API keys come only from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	LLM     LLMConfig     `yaml:"llm"`
	Lookups LookupConfig  `yaml:"lookups"`
	Cache   CacheConfig   `yaml:"cache"`
	Workers WorkersConfig `yaml:"workers"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	// Provider is openai, gemini, ollama or none. Empty picks one from the
	// keys that are set.
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	OllamaURL     string        `yaml:"ollama_url"`

	OpenAIKey string `yaml:"-"`
	GeminiKey string `yaml:"-"`
}

// LookupConfig covers the geocoder and the emergency number API.
type LookupConfig struct {
	GeocoderBaseURL  string        `yaml:"geocoder_base_url"`
	EmergencyAPIBase string        `yaml:"emergency_api_base"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	UserAgent        string        `yaml:"user_agent"`
	GeocoderRPS      float64       `yaml:"geocoder_rps"`
}

// CacheConfig configures the lookup cache. An empty DBPath keeps it in
// memory.
type CacheConfig struct {
	DBPath string        `yaml:"db_path"`
	TTL    time.Duration `yaml:"ttl"`
}

type WorkersConfig struct {
	Count     int `yaml:"count"`
	QueueSize int `yaml:"queue_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		LLM: LLMConfig{
			Timeout:   10 * time.Second,
			OllamaURL: "http://localhost:11434",
		},
		Lookups: LookupConfig{
			GeocoderBaseURL:  "https://nominatim.openstreetmap.org",
			EmergencyAPIBase: "https://emergencynumberapi.com/api",
			Timeout:          time.Second,
			MaxRetries:       2,
			UserAgent:        "normalize-bot/1.0 (contact@example.com)",
			GeocoderRPS:      1,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Workers: WorkersConfig{
			Count:     4,
			QueueSize: 64,
		},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path or a missing file means defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.resolveProvider()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides copies set environment variables into c.
func (c *Config) applyEnvOverrides() error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	seconds := func(key string, dst *time.Duration) {
		var f float64 = -1
		float(key, &f)
		if f >= 0 {
			*dst = time.Duration(f * float64(time.Second))
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_MODEL", &c.LLM.Model)
	seconds("LLM_TIMEOUT_SECONDS", &c.LLM.Timeout)
	str("OPENAI_API_KEY", &c.LLM.OpenAIKey)
	str("OPENAI_BASE_URL", &c.LLM.OpenAIBaseURL)
	str("GEMINI_API_KEY", &c.LLM.GeminiKey)
	str("OLLAMA_URL", &c.LLM.OllamaURL)

	str("GEOCODER_BASE_URL", &c.Lookups.GeocoderBaseURL)
	str("EMERGENCY_API_BASE", &c.Lookups.EmergencyAPIBase)
	seconds("HTTP_TIMEOUT_SECONDS", &c.Lookups.Timeout)
	num("MAX_RETRIES", &c.Lookups.MaxRetries)
	str("USER_AGENT", &c.Lookups.UserAgent)
	float("GEOCODER_RPS", &c.Lookups.GeocoderRPS)

	str("CACHE_DB_PATH", &c.Cache.DBPath)
	duration("CACHE_TTL", &c.Cache.TTL)

	num("WORKERS", &c.Workers.Count)
	num("QUEUE_SIZE", &c.Workers.QueueSize)

	return errors.Join(errs...)
}

// resolveProvider picks a provider from the configured keys when none was
// named: OpenAI first, then Gemini, else none.
func (c *Config) resolveProvider() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider != "" {
		return
	}
	switch {
	case c.LLM.OpenAIKey != "":
		c.LLM.Provider = "openai"
	case c.LLM.GeminiKey != "":
		c.LLM.Provider = "gemini"
	default:
		c.LLM.Provider = "none"
	}
}

// APIKey returns the key of the selected provider.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case "openai":
		return c.LLM.OpenAIKey
	case "gemini":
		return c.LLM.GeminiKey
	}
	return ""
}

// ValidProviders lists the supported LLM providers.
var ValidProviders = []string{"openai", "gemini", "ollama", "none"}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("invalid log level %q (valid: %v)", c.LogLevel, validLevels))
	}

	if !contains(ValidProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("invalid LLM provider %q (valid: %v)", c.LLM.Provider, ValidProviders))
	}
	if (c.LLM.Provider == "openai" || c.LLM.Provider == "gemini") && c.APIKey() == "" {
		errs = append(errs, fmt.Errorf("LLM provider %s needs an API key (set %s_API_KEY)",
			c.LLM.Provider, strings.ToUpper(c.LLM.Provider)))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM timeout must be positive"))
	}

	if c.Lookups.GeocoderBaseURL == "" || c.Lookups.EmergencyAPIBase == "" {
		errs = append(errs, errors.New("geocoder and emergency API base URLs are required"))
	}
	if c.Lookups.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP timeout must be positive"))
	}
	if c.Lookups.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Lookups.GeocoderRPS <= 0 {
		errs = append(errs, errors.New("geocoder rps must be positive"))
	}
	if strings.TrimSpace(c.Lookups.UserAgent) == "" {
		errs = append(errs, errors.New("user agent is required by the geocoder usage policy"))
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache ttl cannot be negative"))
	}
	if c.Workers.Count < 1 || c.Workers.QueueSize < 1 {
		errs = append(errs, errors.New("workers and queue size must be at least 1"))
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
