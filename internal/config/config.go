// Package config holds the typed configuration and its defaults.
// Values are layered: flags over CHEQUEO_* environment variables over
// the config file over the defaults below.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// DatabaseConfig locates the corpus database.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FetchConfig configures the article fetcher used for URL queries.
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int           `yaml:"burst" mapstructure:"burst"`
	ProxyURL      string        `yaml:"proxy_url" mapstructure:"proxy_url"`
}

// CacheConfig configures the page/reference caches.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig configures the optional assistant LLM rung. Disabled when
// Provider is empty.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"-" mapstructure:"api_key"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "chequeo.db",
		},
		Fetch: FetchConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "Chequeo/0.1 (+https://github.com/rmontanez/chequeo)",
			MaxBodyBytes:  2_000_000,
			RatePerSecond: 1,
			Burst:         3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".chequeo-cache",
			MemoryTTL: 5 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		LLM: LLMConfig{},
	}
}

// Load overlays whatever viper has read (file, env) on the defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
