// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"gtahub/internal/cache"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig
	CMS     CMSConfig
	Cache   CacheConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          string
	BodySizeLimit string
}

// CMSConfig holds the upstream CMS connection settings.
type CMSConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CacheConfig holds the response cache settings. RedisURL empty selects
// the in-process memory store. TTL overrides of zero fall back to the
// built-in per-kind defaults.
type CacheConfig struct {
	RedisURL   string
	ArticleTTL time.Duration
	AuthorTTL  time.Duration
	SimilarTTL time.Duration
	WeeklyTTL  time.Duration
	SearchTTL  time.Duration
}

// MetricsConfig holds Prometheus exposure settings.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads configuration from a .env file and the environment.
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BODY_SIZE_LIMIT", "6M")
	viper.SetDefault("CMS_TIMEOUT", "15s")
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:          viper.GetString("PORT"),
			BodySizeLimit: viper.GetString("BODY_SIZE_LIMIT"),
		},
		CMS: CMSConfig{
			BaseURL: viper.GetString("CMS_BASE_URL"),
			Token:   viper.GetString("CMS_API_TOKEN"),
			Timeout: viper.GetDuration("CMS_TIMEOUT"),
		},
		Cache: CacheConfig{
			RedisURL:   viper.GetString("REDIS_URL"),
			ArticleTTL: viper.GetDuration("CACHE_TTL_ARTICLE"),
			AuthorTTL:  viper.GetDuration("CACHE_TTL_AUTHOR"),
			SimilarTTL: viper.GetDuration("CACHE_TTL_SIMILAR"),
			WeeklyTTL:  viper.GetDuration("CACHE_TTL_WEEKLY"),
			SearchTTL:  viper.GetDuration("CACHE_TTL_SEARCH"),
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
	}

	if cfg.CMS.BaseURL == "" {
		return nil, fmt.Errorf("CMS_BASE_URL is required")
	}

	return cfg, nil
}

// TTLs builds the per-kind freshness table: built-in defaults with any
// configured overrides applied on top.
func (c *Config) TTLs() cache.TTLTable {
	ttls := cache.DefaultTTLs()
	for kind, override := range map[cache.Kind]time.Duration{
		cache.KindArticle: c.Cache.ArticleTTL,
		cache.KindAuthor:  c.Cache.AuthorTTL,
		cache.KindSimilar: c.Cache.SimilarTTL,
		cache.KindWeekly:  c.Cache.WeeklyTTL,
		cache.KindSearch:  c.Cache.SearchTTL,
	} {
		if override > 0 {
			ttls[kind] = override
		}
	}
	return ttls
}
