// Package config loads xagent configuration from an optional YAML file with
// environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the chat model endpoint.
type LLMConfig struct {
	// APIKey authenticates against the model endpoint. Usually set via the
	// DEEPSEEK_API_KEY environment variable rather than the file.
	APIKey string `yaml:"api_key"`
	// BaseURL is an OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`
	// Model is the chat model name.
	Model string `yaml:"model"`
	// Temperature is the sampling temperature.
	Temperature float32 `yaml:"temperature"`
}

// EmbeddingConfig configures how text is vectorized for retrieval.
type EmbeddingConfig struct {
	// Provider selects the embedder: "hash" (offline, deterministic) or
	// "openai" (an OpenAI-compatible embedding endpoint).
	Provider string `yaml:"provider"`
	// Model is the embedding model name in openai mode.
	Model string `yaml:"model"`
	// Dim is the vector dimension in hash mode.
	Dim int `yaml:"dim"`
}

// TwitterConfig configures the post fetcher.
type TwitterConfig struct {
	// Mode selects the fetcher: "api" or "scrape".
	Mode string `yaml:"mode"`
	// BearerToken authenticates against the X API. Usually set via the
	// TWITTER_BEARER_TOKEN environment variable.
	BearerToken string `yaml:"bearer_token"`
	// MirrorURL is the base URL of the mirror used in scrape mode.
	MirrorURL string `yaml:"mirror_url"`
	// MaxResults caps posts per keyword in api mode.
	MaxResults int `yaml:"max_results"`
}

// CacheConfig configures the optional retrieval cache.
type CacheConfig struct {
	// RedisAddr enables the cache when non-empty, e.g. "localhost:6379".
	RedisAddr string `yaml:"redis_addr"`
	// RedisPassword is the redis AUTH password.
	RedisPassword string `yaml:"redis_password"`
	// TTL is how long cached search results stay fresh.
	TTL time.Duration `yaml:"ttl"`
}

// HistoryConfig configures session-history persistence.
type HistoryConfig struct {
	// Driver selects the backend: "memory", "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
	// ConnString is the postgres connection string.
	ConnString string `yaml:"conn_string"`
}

// AgentConfig bounds the answer loop.
type AgentConfig struct {
	MaxRetries          int           `yaml:"max_retries"`
	MaxGenerateAttempts int           `yaml:"max_generate_attempts"`
	GradeConcurrency    int           `yaml:"grade_concurrency"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
	LLMTimeout          time.Duration `yaml:"llm_timeout"`
}

// Config is the root configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string        `yaml:"log_level"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Cache    CacheConfig   `yaml:"cache"`
	History  HistoryConfig `yaml:"history"`
	Agent    AgentConfig   `yaml:"agent"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
		LLM: LLMConfig{
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Temperature: 0,
		},
		Embedding: EmbeddingConfig{
			Provider: "hash",
			Model:    "text-embedding-3-small",
			Dim:      256,
		},
		Twitter: TwitterConfig{
			Mode:       "api",
			MaxResults: 10,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		History: HistoryConfig{
			Driver: "memory",
			Path:   "xagent.db",
		},
		Agent: AgentConfig{
			MaxRetries:          3,
			MaxGenerateAttempts: 3,
			GradeConcurrency:    4,
			FetchTimeout:        30 * time.Second,
			LLMTimeout:          60 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Listen, "XAGENT_LISTEN")
	setString(&c.LogLevel, "XAGENT_LOG_LEVEL")
	setString(&c.LLM.APIKey, "DEEPSEEK_API_KEY", "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "XAGENT_LLM_BASE_URL")
	setString(&c.LLM.Model, "XAGENT_LLM_MODEL")
	setString(&c.Embedding.Provider, "XAGENT_EMBEDDING_PROVIDER")
	setString(&c.Twitter.BearerToken, "TWITTER_BEARER_TOKEN")
	setString(&c.Twitter.Mode, "XAGENT_TWITTER_MODE")
	setString(&c.Cache.RedisAddr, "XAGENT_REDIS_ADDR")
	setString(&c.History.Driver, "XAGENT_HISTORY_DRIVER")
	setString(&c.History.ConnString, "XAGENT_HISTORY_CONN")
}

func (c *Config) validate() error {
	switch c.Twitter.Mode {
	case "api", "scrape":
	default:
		return fmt.Errorf("unknown twitter mode %q", c.Twitter.Mode)
	}
	switch c.Embedding.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.History.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}
	if c.Agent.MaxRetries < 0 || c.Agent.MaxGenerateAttempts < 1 {
		return fmt.Errorf("invalid agent bounds: retries=%d, generate attempts=%d",
			c.Agent.MaxRetries, c.Agent.MaxGenerateAttempts)
	}
	return nil
}
