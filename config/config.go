package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Rules     RulesConfig
	RateLimit RateLimitConfig
	Optimizer OptimizerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds catalog search API configuration
type CatalogConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RulesConfig holds the compatibility rule store configuration
type RulesConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// Weights holds the objective weights for bundle scoring. These are the
// canonical defaults; request payloads may override them per call.
type Weights struct {
	Price         float64 `mapstructure:"price"`
	Quality       float64 `mapstructure:"quality"`
	Compatibility float64 `mapstructure:"compatibility"`
	Availability  float64 `mapstructure:"availability"`
}

// OptimizerConfig holds bundle optimization configuration
type OptimizerConfig struct {
	Weights           Weights `mapstructure:"weights"`
	TargetPrice       float64 `mapstructure:"target_price"`
	PriceSpread       float64 `mapstructure:"price_spread"`
	MaxCombinations   int     `mapstructure:"max_combinations"`
	MaxResults        int     `mapstructure:"max_results"`
	ScoringWorkers    int     `mapstructure:"scoring_workers"`
	SearchConcurrency int     `mapstructure:"search_concurrency"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bundleup/")

	// Environment variable settings. BUNDLEUP_CATALOG_API_KEY overrides
	// catalog.api_key and so on.
	v.SetEnvPrefix("BUNDLEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Catalog defaults
	v.SetDefault("catalog.base_url", "https://google.serper.dev/shopping")

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Rule store defaults
	v.SetDefault("rules.db_path", "bundleup.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_minute", 60)
	v.SetDefault("ratelimit.burst", 10)

	// Optimizer defaults
	v.SetDefault("optimizer.weights.price", 0.35)
	v.SetDefault("optimizer.weights.quality", 0.25)
	v.SetDefault("optimizer.weights.compatibility", 0.30)
	v.SetDefault("optimizer.weights.availability", 0.10)
	v.SetDefault("optimizer.target_price", 750.0)
	v.SetDefault("optimizer.price_spread", 200.0)
	v.SetDefault("optimizer.max_combinations", 1000)
	v.SetDefault("optimizer.max_results", 10)
	v.SetDefault("optimizer.scoring_workers", 4)
	v.SetDefault("optimizer.search_concurrency", 5)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.APIKey == "" {
		return fmt.Errorf("catalog API key is required (set BUNDLEUP_CATALOG_API_KEY)")
	}

	w := config.Optimizer.Weights
	if w.Price < 0 || w.Quality < 0 || w.Compatibility < 0 || w.Availability < 0 {
		return fmt.Errorf("optimizer weights must be non-negative")
	}

	sum := w.Price + w.Quality + w.Compatibility + w.Availability
	if sum <= 0 {
		return fmt.Errorf("optimizer weights must not all be zero")
	}
	// Weights should sum to 1 so total scores stay in [0,1]
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("optimizer weights must sum to 1.0, got %.2f", sum)
	}

	if config.Optimizer.MaxCombinations <= 0 {
		return fmt.Errorf("optimizer.max_combinations must be positive")
	}

	return nil
}
