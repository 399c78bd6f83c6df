package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricescope/backend/config"
	httpDelivery "github.com/pricescope/backend/internal/delivery/http"
	"github.com/pricescope/backend/internal/domain"
	"github.com/pricescope/backend/internal/infrastructure/browser"
	"github.com/pricescope/backend/internal/infrastructure/cache"
	"github.com/pricescope/backend/internal/infrastructure/pagescrape"
	"github.com/pricescope/backend/internal/infrastructure/places"
	"github.com/pricescope/backend/internal/infrastructure/ratelimit"
	"github.com/pricescope/backend/internal/infrastructure/shopapi"
	"github.com/pricescope/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Dur("cacheTTL", cfg.Cache.TTL).
		Msg("starting pricescope backend")

	// Initialize infrastructure dependencies
	resultCache := cache.NewMemoryCache()
	browserHandle := browser.NewHandle()

	providers := buildProviders(cfg, resultCache, browserHandle, log)
	for _, p := range providers {
		log.Info().Str("provider", p.Name()).Msg("price source registered")
	}

	// Initialize usecase layer
	compareService := usecase.NewCompareService(
		providers,
		usecase.CompareServiceConfig{
			ProviderTimeout: cfg.Compare.ProviderTimeout,
			MinViableStores: cfg.Compare.MinViableStores,
			SearchLimit:     cfg.Compare.SearchLimit,
			MarketplaceCap:  cfg.Compare.MarketplaceCap,
		},
		log,
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(compareService, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Block until asked to stop, then drain in-flight requests before
	// tearing down the shared browser.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	if err := browserHandle.Close(); err != nil {
		log.Error().Err(err).Msg("browser shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}

// buildProviders wires every configured price source. Providers without
// credentials are still registered; they report unavailable per call and
// the comparison pipeline absorbs that.
func buildProviders(cfg *config.Config, resultCache domain.CacheRepository, browserHandle *browser.Handle, log zerolog.Logger) []domain.SourceProvider {
	shopGate := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.ShopAPI.RequestsPerMinute,
		MinDelay:          cfg.RateLimit.ShopAPI.MinDelay,
		Jitter:            cfg.RateLimit.ShopAPI.Jitter,
	})
	placesGate := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.Places.RequestsPerMinute,
		MinDelay:          cfg.RateLimit.Places.MinDelay,
		Jitter:            cfg.RateLimit.Places.Jitter,
	})
	scraperGate := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.Scraper.RequestsPerMinute,
		MinDelay:          cfg.RateLimit.Scraper.MinDelay,
		Jitter:            cfg.RateLimit.Scraper.Jitter,
	})

	return []domain.SourceProvider{
		shopapi.NewClient(cfg.Providers.ShopAPI.APIKey, cfg.Providers.ShopAPI.BaseURL, shopGate, resultCache, cfg.Cache.TTL, log),
		places.NewClient(cfg.Providers.Places.APIKey, cfg.Providers.Places.BaseURL, placesGate, resultCache, cfg.Cache.TTL, log),
		pagescrape.NewScraper(browserHandle, cfg.Providers.Scraper.SearchURL, cfg.Providers.Scraper.Enabled, scraperGate, resultCache, cfg.Cache.TTL, log),
	}
}

// newLogger builds the process logger. Development gets human-readable
// console output; anything else logs JSON lines.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Server.Environment == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}

	return log.Level(level).With().Timestamp().Logger()
}
