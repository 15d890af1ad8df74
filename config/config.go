package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chat engine.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Session   SessionConfig   `mapstructure:"session"`
	DocStore  DocStoreConfig  `mapstructure:"docstore"`
	Duplex    DuplexConfig    `mapstructure:"duplex"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains settings for the language-model capability.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig contains settings for the embedding capability.
// Dimension is fixed per deployment; vectors of any other length are
// rejected by the index.
type EmbeddingConfig struct {
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IndexConfig contains vector index settings.
type IndexConfig struct {
	Path string `mapstructure:"path"` // empty means in-memory only
}

// RetrievalConfig bounds retrieval behaviour. TopK is a deployment
// constant, never supplied by the user.
type RetrievalConfig struct {
	TopK    int           `mapstructure:"top_k"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig controls conversation state storage.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"` // inmemory | redis
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	HistoryWindow int           `mapstructure:"history_window"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings for the session backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DocStoreConfig selects where restaurant records are read from.
type DocStoreConfig struct {
	Backend     string `mapstructure:"backend"` // file | postgres
	Path        string `mapstructure:"path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

// DuplexConfig controls the websocket client's reconnect behaviour.
type DuplexConfig struct {
	Backoff     time.Duration `mapstructure:"backoff"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// LoadConfig reads configuration from the given path (or the working
// directory), applies environment overrides and defaults, and returns the
// resulting Config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASTEBUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		// Anything else, a parse error in particular, must surface.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.default_timeout", 30*time.Second)

	v.SetDefault("server.address", ":8000")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.timeout", 10*time.Second)

	v.SetDefault("index.path", "")

	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.timeout", 5*time.Second)

	v.SetDefault("session.backend", "inmemory")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.history_window", 6)
	v.SetDefault("session.redis.addr", "127.0.0.1:6379")

	v.SetDefault("docstore.backend", "file")
	v.SetDefault("docstore.path", "data/restaurant_data.json")

	v.SetDefault("duplex.backoff", 2*time.Second)
	v.SetDefault("duplex.max_attempts", 5)
}
