package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the quote service.
type Config struct {
	// Provider credential and endpoints
	AgroAPIKey  string `mapstructure:"agro_api_key"`
	AgroBaseURL string `mapstructure:"agro_base_url"`
	BCBBaseURL  string `mapstructure:"bcb_base_url"`

	// Local cache
	CacheDir string        `mapstructure:"cache_dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Product reference list (optional JSON file; built-in defaults otherwise)
	ProductsFile string `mapstructure:"products_file"`

	// Server and client behaviour
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DefaultWindow  int           `mapstructure:"default_window"`
	LogLevel       string        `mapstructure:"log_level"`
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - AGRO_API_KEY (required)
//   - AGRO_BASE_URL (optional, defaults to production)
//   - BCB_BASE_URL (optional, defaults to production)
//   - CACHE_DIR, CACHE_TTL (optional)
//   - PRODUCTS_FILE (optional)
//   - PORT, REQUEST_TIMEOUT, DEFAULT_WINDOW, LOG_LEVEL (optional)
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	// Defaults
	v.SetDefault("agro_base_url", "https://api.example.com/agro")
	v.SetDefault("bcb_base_url", "https://olinda.bcb.gov.br")
	v.SetDefault("cache_dir", "data/commodity_cache")
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("products_file", "data/products_list.json")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("default_window", 30)
	v.SetDefault("log_level", "info")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.cotacaoprodutos")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("agro_api_key", "AGRO_API_KEY")
	v.BindEnv("agro_base_url", "AGRO_BASE_URL")
	v.BindEnv("bcb_base_url", "BCB_BASE_URL")
	v.BindEnv("cache_dir", "CACHE_DIR")
	v.BindEnv("cache_ttl", "CACHE_TTL")
	v.BindEnv("products_file", "PRODUCTS_FILE")
	v.BindEnv("port", "PORT")
	v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("default_window", "DEFAULT_WINDOW")
	v.BindEnv("log_level", "LOG_LEVEL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if config.AgroAPIKey == "" {
		return nil, fmt.Errorf("missing required configuration: AGRO_API_KEY")
	}
	if config.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be positive, got %s", config.CacheTTL)
	}
	if config.DefaultWindow < 1 {
		return nil, fmt.Errorf("default_window must be at least 1, got %d", config.DefaultWindow)
	}

	return config, nil
}
