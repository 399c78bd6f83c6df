package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricescope/backend/internal/domain"
	"github.com/pricescope/backend/internal/infrastructure/cache"
)

const providerName = "places"

// Client wraps a local-inventory places API. It reports which nearby
// retailers stock a product and at what price, so its candidates carry a
// stock flag directly from the upstream.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	gate       domain.RequestGate
	cache      domain.CacheRepository
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewClient creates a new places API client. An empty apiKey yields a
// client that reports ErrProviderUnavailable instead of calling upstream.
func NewClient(apiKey, baseURL string, gate domain.RequestGate, resultCache domain.CacheRepository, cacheTTL time.Duration, log zerolog.Logger) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:   apiKey,
		baseURL:  baseURL,
		gate:     gate,
		cache:    resultCache,
		cacheTTL: cacheTTL,
		log:      log.With().Str("provider", providerName).Logger(),
	}
}

// Name implements domain.SourceProvider.
func (c *Client) Name() string { return providerName }

// Search implements domain.SourceProvider.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.RawCandidate, error) {
	if c.apiKey == "" {
		return nil, domain.ErrProviderUnavailable
	}
	if limit <= 0 {
		limit = 20
	}

	key := cache.Key(providerName, map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	})
	if cached, err := c.cache.Get(ctx, key); err == nil {
		c.log.Debug().Str("query", query).Int("count", len(cached)).Msg("cache hit")
		return cached, nil
	}

	if err := c.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/inventory/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("limit", strconv.Itoa(limit))
	params.Add("key", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "PriceScope/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ErrProviderTimeout
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrProviderRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderParseError, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload inventoryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("unrecognized payload shape")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParseError, err)
	}

	candidates := mapCandidates(payload)
	c.log.Debug().Str("query", query).Int("count", len(candidates)).Msg("search completed")

	if err := c.cache.Set(ctx, key, candidates, c.cacheTTL); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}

	return candidates, nil
}
