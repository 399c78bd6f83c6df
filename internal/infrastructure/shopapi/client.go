package shopapi

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

const providerName = "shopapi"

// Client wraps a structured shopping-search API behind the SourceProvider
// contract. Responses are cached by normalized request parameters so
// repeated variants short-circuit the upstream call.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	gate       domain.RequestGate
	cache      domain.CacheRepository
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewClient creates a new shopping API client. An empty apiKey yields a
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

	endpoint := fmt.Sprintf("%s/v1/shopping/search", c.baseURL)
	params := url.Values{}
	params.Add("q", query)
	params.Add("num", strconv.Itoa(limit))
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var payload searchResponse
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

// doWithRetry executes the request with up to 3 attempts, retrying
// transient upstream failures with linear backoff.
func (c *Client) doWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
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
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("request failed")
			lastErr = err
			if err := backoff(ctx, attempt); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, domain.ErrProviderTimeout
				}
				return nil, err
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, domain.ErrProviderRateLimited
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, domain.ErrProviderUnavailable
		case resp.StatusCode >= 500:
			c.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("upstream error")
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			if err := backoff(ctx, attempt); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, domain.ErrProviderTimeout
				}
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrProviderParseError, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

// backoff waits out the linear retry delay, aborting as soon as the
// caller's context ends.
func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt*500) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
