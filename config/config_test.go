package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("PRICESCOPE_SERVER_PORT")
		os.Unsetenv("PRICESCOPE_SERVER_ENVIRONMENT")
		os.Unsetenv("PRICESCOPE_SERVER_LOG_LEVEL")
		os.Unsetenv("PRICESCOPE_PROVIDERS_SHOPAPI_API_KEY")
		os.Unsetenv("PRICESCOPE_PROVIDERS_SHOPAPI_BASE_URL")
		os.Unsetenv("PRICESCOPE_PROVIDERS_PLACES_API_KEY")
		os.Unsetenv("PRICESCOPE_PROVIDERS_SCRAPER_ENABLED")
		os.Unsetenv("PRICESCOPE_PROVIDERS_SCRAPER_SEARCH_URL")
		os.Unsetenv("PRICESCOPE_CACHE_TTL")
		os.Unsetenv("PRICESCOPE_RATELIMIT_SHOPAPI_REQUESTS_PER_MINUTE")
		os.Unsetenv("PRICESCOPE_COMPARE_MIN_VIABLE_STORES")
		os.Unsetenv("PRICESCOPE_COMPARE_MARKETPLACE_CAP")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.LogLevel != "info" {
			t.Errorf("Server.LogLevel = %s, want info", cfg.Server.LogLevel)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.ShopAPI.RequestsPerMinute != 30 {
			t.Errorf("RateLimit.ShopAPI.RequestsPerMinute = %d, want 30", cfg.RateLimit.ShopAPI.RequestsPerMinute)
		}
		if cfg.RateLimit.Scraper.MinDelay != time.Second {
			t.Errorf("RateLimit.Scraper.MinDelay = %v, want 1s", cfg.RateLimit.Scraper.MinDelay)
		}
		if cfg.Compare.ProviderTimeout != 20*time.Second {
			t.Errorf("Compare.ProviderTimeout = %v, want 20s", cfg.Compare.ProviderTimeout)
		}
		if cfg.Compare.MinViableStores != 3 {
			t.Errorf("Compare.MinViableStores = %d, want 3", cfg.Compare.MinViableStores)
		}
		if cfg.Compare.MarketplaceCap != 15 {
			t.Errorf("Compare.MarketplaceCap = %d, want 15", cfg.Compare.MarketplaceCap)
		}
		if cfg.Providers.Scraper.Enabled {
			t.Error("Providers.Scraper.Enabled = true, want false by default")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICESCOPE_SERVER_PORT", "9090")
		os.Setenv("PRICESCOPE_SERVER_ENVIRONMENT", "production")
		os.Setenv("PRICESCOPE_PROVIDERS_SHOPAPI_API_KEY", "custom-api-key")
		os.Setenv("PRICESCOPE_PROVIDERS_SHOPAPI_BASE_URL", "https://custom.api.com")
		os.Setenv("PRICESCOPE_CACHE_TTL", "12h")
		os.Setenv("PRICESCOPE_COMPARE_MIN_VIABLE_STORES", "5")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Providers.ShopAPI.APIKey != "custom-api-key" {
			t.Errorf("Providers.ShopAPI.APIKey = %s, want custom-api-key", cfg.Providers.ShopAPI.APIKey)
		}
		if cfg.Providers.ShopAPI.BaseURL != "https://custom.api.com" {
			t.Errorf("Providers.ShopAPI.BaseURL = %s, want https://custom.api.com", cfg.Providers.ShopAPI.BaseURL)
		}
		if cfg.Cache.TTL != 12*time.Hour {
			t.Errorf("Cache.TTL = %v, want 12h", cfg.Cache.TTL)
		}
		if cfg.Compare.MinViableStores != 5 {
			t.Errorf("Compare.MinViableStores = %d, want 5", cfg.Compare.MinViableStores)
		}
	})

	t.Run("missing provider keys do not fail validation", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want keyless providers to be tolerated", err)
		}
		if cfg.Providers.ShopAPI.APIKey != "" {
			t.Errorf("Providers.ShopAPI.APIKey = %q, want empty", cfg.Providers.ShopAPI.APIKey)
		}
	})

	t.Run("fails validation for non-positive marketplace cap", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICESCOPE_COMPARE_MARKETPLACE_CAP", "0")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for zero marketplace cap")
		}
	})

	t.Run("fails validation when enabled scraper lacks query placeholder", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICESCOPE_PROVIDERS_SCRAPER_ENABLED", "true")
		os.Setenv("PRICESCOPE_PROVIDERS_SCRAPER_SEARCH_URL", "https://shop.example.com/search")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Errorf("Load() error = nil, want error for search URL without %%s")
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8080"},
			Cache:   CacheConfig{TTL: time.Hour},
			Compare: CompareConfig{MinViableStores: 3, MarketplaceCap: 15},
		}
	}

	if err := validate(base()); err != nil {
		t.Errorf("validate() error = %v on a minimal valid config", err)
	}

	cfg := base()
	cfg.Server.Port = ""
	if err := validate(cfg); err == nil {
		t.Error("validate() error = nil, want error for empty port")
	}

	cfg = base()
	cfg.Cache.TTL = 0
	if err := validate(cfg); err == nil {
		t.Error("validate() error = nil, want error for zero cache TTL")
	}

	cfg = base()
	cfg.Compare.MinViableStores = -1
	if err := validate(cfg); err == nil {
		t.Error("validate() error = nil, want error for negative min viable stores")
	}
}
