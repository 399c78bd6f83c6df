package pagescrape

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/pricescope/backend/internal/domain"
	"github.com/pricescope/backend/internal/infrastructure/browser"
	"github.com/pricescope/backend/internal/infrastructure/cache"
)

const providerName = "pagescrape"

// Scraper extracts price candidates from a rendered comparison-shopping
// results page. The upstream markup is not contractually stable, so
// extraction runs through a chain of DOM-pattern fallbacks and degrades to
// an empty result set when nothing usable is found.
type Scraper struct {
	handle    *browser.Handle
	gate      domain.RequestGate
	cache     domain.CacheRepository
	cacheTTL  time.Duration
	searchURL string // format string receiving the escaped query
	enabled   bool
	log       zerolog.Logger
}

// NewScraper creates a new page scraper provider.
func NewScraper(handle *browser.Handle, searchURL string, enabled bool, gate domain.RequestGate, resultCache domain.CacheRepository, cacheTTL time.Duration, log zerolog.Logger) *Scraper {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Scraper{
		handle:    handle,
		gate:      gate,
		cache:     resultCache,
		cacheTTL:  cacheTTL,
		searchURL: searchURL,
		enabled:   enabled,
		log:       log.With().Str("provider", providerName).Logger(),
	}
}

// Name implements domain.SourceProvider.
func (s *Scraper) Name() string { return providerName }

// Search implements domain.SourceProvider.
func (s *Scraper) Search(ctx context.Context, query string, limit int) ([]domain.RawCandidate, error) {
	if !s.enabled || s.searchURL == "" {
		return nil, domain.ErrProviderUnavailable
	}
	if limit <= 0 {
		limit = 20
	}

	key := cache.Key(providerName, map[string]string{"q": query})
	if cached, err := s.cache.Get(ctx, key); err == nil {
		s.log.Debug().Str("query", query).Int("count", len(cached)).Msg("cache hit")
		return cached, nil
	}

	if err := s.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	html, err := s.renderSearchPage(ctx, query)
	if err != nil {
		// A failed render is operator-visible but never fatal to the
		// comparison; the provider simply contributes nothing.
		s.log.Warn().Err(err).Str("query", query).Msg("page render failed")
		return []domain.RawCandidate{}, nil
	}

	candidates, err := ExtractCandidates(html, limit)
	if err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("extraction failed")
		return []domain.RawCandidate{}, nil
	}

	s.log.Debug().Str("query", query).Int("count", len(candidates)).Msg("extraction completed")

	if err := s.cache.Set(ctx, key, candidates, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("cache write failed")
	}

	return candidates, nil
}

// renderSearchPage loads the search URL in the shared headless browser and
// returns the rendered HTML after the page stabilizes.
func (s *Scraper) renderSearchPage(ctx context.Context, query string) (string, error) {
	b, err := s.handle.Acquire()
	if err != nil {
		return "", fmt.Errorf("acquire browser: %w", err)
	}
	defer s.handle.Release()

	pageURL := fmt.Sprintf(s.searchURL, url.QueryEscape(query))
	page, err := b.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		return "", fmt.Errorf("set viewport: %w", err)
	}

	// Give dynamic content a bounded chance to settle
	timedPage := page.Context(ctx).Timeout(15 * time.Second)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("get page HTML: %w", err)
	}

	return html, nil
}
