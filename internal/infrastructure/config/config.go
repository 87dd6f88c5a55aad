package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultRelays is the fixed relay try order.
var DefaultRelays = []string{
	"https://corsproxy.io/?",
	"https://api.allorigins.win/raw?url=",
	"https://thingproxy.freeboard.io/fetch/",
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Relay     RelayConfig
	Search    SearchConfig
	Suggest   SuggestConfig
	Engine    EngineConfig
	Prefs     PrefsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins empty means any origin
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// RelayConfig holds CORS relay configuration.
type RelayConfig struct {
	URLs    []string      `envconfig:"RELAY_URLS"`
	Timeout time.Duration `envconfig:"RELAY_TIMEOUT" default:"15s"`
	// RequestsPerSecond of 0 means unlimited
	RequestsPerSecond float64 `envconfig:"RELAY_RPS" default:"0"`
}

// SearchConfig holds search target configuration.
type SearchConfig struct {
	BaseURL  string `envconfig:"SEARCH_BASE_URL" default:"https://duckduckgo.com/html/"`
	Contract string `envconfig:"SEARCH_CONTRACT" default:"ddg-html/v1"`
}

// SuggestConfig holds suggestion configuration.
type SuggestConfig struct {
	Language string `envconfig:"SUGGEST_LANG" default:"en"`
}

// EngineConfig holds frame relay configuration.
type EngineConfig struct {
	Retries    int           `envconfig:"ENGINE_RETRIES" default:"2"`
	Timeout    time.Duration `envconfig:"ENGINE_TIMEOUT" default:"20s"`
	PublicPath string        `envconfig:"ENGINE_PUBLIC_PATH" default:"/engine"`
}

// PrefsConfig holds preference storage configuration.
type PrefsConfig struct {
	Backend   string `envconfig:"PREFS_BACKEND" default:"file"`
	Path      string `envconfig:"PREFS_PATH" default:"/tmp/foxsearch/preferences.toml"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Relay.URLs) == 0 {
		cfg.Relay.URLs = append([]string(nil), DefaultRelays...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Prefs.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("invalid PREFS_BACKEND %q (must be memory, file or redis)", c.Prefs.Backend)
	}
	if c.Engine.Retries < 0 {
		return fmt.Errorf("ENGINE_RETRIES cannot be negative")
	}
	if c.Relay.RequestsPerSecond < 0 {
		return fmt.Errorf("RELAY_RPS cannot be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Relay: RelayConfig{
			URLs:    append([]string(nil), DefaultRelays...),
			Timeout: 15 * time.Second,
		},
		Search: SearchConfig{
			BaseURL:  "https://duckduckgo.com/html/",
			Contract: "ddg-html/v1",
		},
		Suggest: SuggestConfig{
			Language: "en",
		},
		Engine: EngineConfig{
			Retries:    2,
			Timeout:    20 * time.Second,
			PublicPath: "/engine",
		},
		Prefs: PrefsConfig{
			Backend:   "file",
			Path:      "/tmp/foxsearch/preferences.toml",
			RedisAddr: "localhost:6379",
		},
	}
}
