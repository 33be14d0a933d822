package core

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DemoAPIKey is the placeholder credential shipped in sample .env files.
// A provider configured with it is treated as having no live backend.
const DemoAPIKey = "demo_key"

// Config represents the main configuration for curator
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Log       LogConfig       `json:"log"`
	Auth      AuthConfig      `json:"auth"`
	Providers ProvidersConfig `json:"providers"`
	Cache     CacheConfig     `json:"cache"`
	Features  FeatureConfig   `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `json:"level"`
}

// AuthConfig contains account-related configuration
type AuthConfig struct {
	SeedDemoAccount bool `json:"seed_demo_account"`
	BcryptCost      int  `json:"bcrypt_cost"`
}

// ProvidersConfig contains the content provider settings
type ProvidersConfig struct {
	News    NewsProviderConfig   `json:"news"`
	Movies  MovieProviderConfig  `json:"movies"`
	Social  SocialProviderConfig `json:"social"`
	Timeout time.Duration        `json:"timeout"`
	Retries int                  `json:"retries"`
	Rate    float64              `json:"rate"`
}

// NewsProviderConfig configures the NewsAPI client
type NewsProviderConfig struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url"`
}

// MovieProviderConfig configures the TMDB client
type MovieProviderConfig struct {
	APIKey       string `json:"-"`
	BaseURL      string `json:"base_url"`
	ImageBaseURL string `json:"image_base_url"`
	SiteURL      string `json:"site_url"`
}

// SocialProviderConfig configures the hashtag feed client
type SocialProviderConfig struct {
	InstanceURL string `json:"instance_url"`
}

// CacheConfig contains response cache configuration
type CacheConfig struct {
	Backend       string        `json:"backend"`
	TTL           time.Duration `json:"ttl"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"`
	RedisDB       int           `json:"redis_db"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	AutoRefreshInterval time.Duration `json:"auto_refresh_interval"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("CURATOR_PORT", 4000),
			Host: getEnvOrDefault("CURATOR_HOST", "127.0.0.1"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("CURATOR_DB_PATH", "./curator.db"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("CURATOR_LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SeedDemoAccount: getEnvAsBool("CURATOR_SEED_DEMO_ACCOUNT", true),
			BcryptCost:      getEnvAsInt("CURATOR_BCRYPT_COST", 12),
		},
		Providers: ProvidersConfig{
			News: NewsProviderConfig{
				APIKey:  getEnvOrDefault("CURATOR_NEWS_API_KEY", os.Getenv("NEWS_API_KEY")),
				BaseURL: getEnvOrDefault("CURATOR_NEWS_BASE_URL", "https://newsapi.org/v2"),
			},
			Movies: MovieProviderConfig{
				APIKey:       getEnvOrDefault("CURATOR_TMDB_API_KEY", os.Getenv("TMDB_API_KEY")),
				BaseURL:      getEnvOrDefault("CURATOR_TMDB_BASE_URL", "https://api.themoviedb.org/3"),
				ImageBaseURL: getEnvOrDefault("CURATOR_TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
				SiteURL:      getEnvOrDefault("CURATOR_TMDB_SITE_URL", "https://www.themoviedb.org"),
			},
			Social: SocialProviderConfig{
				InstanceURL: strings.TrimRight(getEnvOrDefault("CURATOR_SOCIAL_INSTANCE_URL", ""), "/"),
			},
			Timeout: time.Duration(getEnvAsInt("CURATOR_FETCH_TIMEOUT", 10)) * time.Second,
			Retries: getEnvAsInt("CURATOR_FETCH_RETRIES", 0),
			Rate:    getEnvAsFloat("CURATOR_FETCH_RATE", 5),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnvOrDefault("CURATOR_CACHE_BACKEND", "memory")),
			TTL:           time.Duration(getEnvAsInt("CURATOR_CACHE_TTL", 300)) * time.Second,
			RedisAddr:     getEnvOrDefault("CURATOR_REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword: getEnvOrDefault("CURATOR_REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("CURATOR_REDIS_DB", 0),
		},
		Features: FeatureConfig{
			AutoRefreshInterval: time.Duration(getEnvAsInt("CURATOR_AUTO_REFRESH_INTERVAL", 300)) * time.Second,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigurationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Path == "" {
		return NewConfigurationError("database path is required", nil)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return NewConfigurationError("invalid log level", err)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return NewConfigurationError(fmt.Sprintf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost), nil)
	}

	if c.Providers.Timeout <= 0 {
		return NewConfigurationError("fetch timeout must be positive", nil)
	}

	if c.Providers.Retries < 0 || c.Providers.Retries > 5 {
		return NewConfigurationError("fetch retries must be between 0 and 5", nil)
	}

	if c.Providers.Rate <= 0 {
		return NewConfigurationError("fetch rate must be positive", nil)
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return NewConfigurationError("redis address is required when the redis cache is enabled", nil)
		}
	default:
		return NewConfigurationError(fmt.Sprintf("unknown cache backend: %s", c.Cache.Backend), nil)
	}

	if c.Features.AutoRefreshInterval < 30*time.Second {
		return NewConfigurationError("auto refresh interval must be at least 30 seconds", nil)
	}

	return nil
}

// HasLiveCredential reports whether key can reach a live provider.
// Empty keys and the demo placeholder both force fallback data.
func HasLiveCredential(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != DemoAPIKey
}

// ParseLevel converts a level name into a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
