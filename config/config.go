package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Compare   CompareConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// ProvidersConfig holds configuration for every price source.
// A provider without credentials stays registered but degrades to
// contributing nothing; missing keys are not a startup error.
type ProvidersConfig struct {
	ShopAPI ShopAPIConfig `mapstructure:"shopapi"`
	Places  PlacesConfig  `mapstructure:"places"`
	Scraper ScraperConfig `mapstructure:"scraper"`
}

// ShopAPIConfig holds shopping search API configuration
type ShopAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// PlacesConfig holds local inventory API configuration
type PlacesConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ScraperConfig holds headless browser scraping configuration
type ScraperConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SearchURL string `mapstructure:"search_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds per-provider outbound rate limits
type RateLimitConfig struct {
	ShopAPI ProviderRateConfig `mapstructure:"shopapi"`
	Places  ProviderRateConfig `mapstructure:"places"`
	Scraper ProviderRateConfig `mapstructure:"scraper"`
}

// ProviderRateConfig shapes one provider's outbound request pacing
type ProviderRateConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MinDelay          time.Duration `mapstructure:"min_delay"`
	Jitter            time.Duration `mapstructure:"jitter"`
}

// CompareConfig holds comparison orchestration configuration
type CompareConfig struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	MinViableStores int           `mapstructure:"min_viable_stores"`
	SearchLimit     int           `mapstructure:"search_limit"`
	MarketplaceCap  int           `mapstructure:"marketplace_cap"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricescope/")

	// Environment variable settings
	v.SetEnvPrefix("PRICESCOPE")
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
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.log_level", "info")

	// Provider defaults
	v.SetDefault("providers.shopapi.base_url", "https://api.shopsearch.example.com")
	v.SetDefault("providers.places.base_url", "https://api.localinventory.example.com")
	v.SetDefault("providers.scraper.enabled", false)
	v.SetDefault("providers.scraper.search_url", "https://www.google.com/search?tbm=shop&q=%s")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.shopapi.requests_per_minute", 30)
	v.SetDefault("ratelimit.shopapi.min_delay", "200ms")
	v.SetDefault("ratelimit.shopapi.jitter", "100ms")
	v.SetDefault("ratelimit.places.requests_per_minute", 30)
	v.SetDefault("ratelimit.places.min_delay", "200ms")
	v.SetDefault("ratelimit.places.jitter", "100ms")
	v.SetDefault("ratelimit.scraper.requests_per_minute", 10)
	v.SetDefault("ratelimit.scraper.min_delay", "1s")
	v.SetDefault("ratelimit.scraper.jitter", "500ms")

	// Comparison defaults
	v.SetDefault("compare.provider_timeout", "20s")
	v.SetDefault("compare.min_viable_stores", 3)
	v.SetDefault("compare.search_limit", 20)
	v.SetDefault("compare.marketplace_cap", 15)
}

// validate validates the configuration. Provider API keys are deliberately
// not required: a keyless provider registers and degrades to a no-op.
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Compare.MinViableStores <= 0 {
		return fmt.Errorf("min viable stores must be positive, got: %d", config.Compare.MinViableStores)
	}

	if config.Compare.MarketplaceCap <= 0 {
		return fmt.Errorf("marketplace cap must be positive, got: %d", config.Compare.MarketplaceCap)
	}

	if config.Providers.Scraper.Enabled && !strings.Contains(config.Providers.Scraper.SearchURL, "%s") {
		return fmt.Errorf("scraper search URL must contain a %%s query placeholder")
	}

	return nil
}
