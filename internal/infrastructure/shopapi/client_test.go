package shopapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescope/backend/internal/domain"
	"github.com/pricescope/backend/internal/infrastructure/cache"
	"github.com/pricescope/backend/internal/infrastructure/ratelimit"
)

func newTestClient(baseURL string) *Client {
	gate := ratelimit.New(ratelimit.Config{RequestsPerMinute: 6000, MinDelay: time.Millisecond})
	return NewClient("test-api-key", baseURL, gate, cache.NewMemoryCache(), time.Minute, zerolog.Nop())
}

func TestNewClient(t *testing.T) {
	client := newTestClient("https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, "shopapi", client.Name())
}

func TestSearch_MissingAPIKey(t *testing.T) {
	gate := ratelimit.New(ratelimit.Config{RequestsPerMinute: 6000, MinDelay: time.Millisecond})
	client := NewClient("", "https://api.example.com", gate, cache.NewMemoryCache(), time.Minute, zerolog.Nop())

	_, err := client.Search(context.Background(), "iphone 15", 10)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/shopping/search", r.URL.Path)
		assert.Equal(t, "iphone 15 pro max", r.URL.Query().Get("q"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"shopping_results": [
				{"title": "Apple iPhone 15 Pro Max 256GB", "price": "$1,199.00", "source": "Best Buy", "link": "https://example.com/a", "thumbnail": "https://example.com/a.jpg"},
				{"title": "iPhone 15 Pro Max 256GB Unlocked", "extracted_price": 1149.99, "currency": "USD", "source": "Walmart", "link": "https://example.com/b"},
				{"title": "", "extracted_price": 10, "source": "Junk"},
				{"title": "No price listing", "source": "Junk"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	candidates, err := client.Search(context.Background(), "iphone 15 pro max", 10)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Apple iPhone 15 Pro Max 256GB", candidates[0].Title)
	assert.Equal(t, 1199.0, candidates[0].Price)
	assert.Equal(t, "USD", candidates[0].Currency)
	assert.Equal(t, "Best Buy", candidates[0].Source)
	assert.Equal(t, 1149.99, candidates[1].Price)
	assert.True(t, candidates[0].InStock)
	assert.Equal(t, "shopapi", candidates[0].Provider)
}

func TestSearch_UsesCache(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"shopping_results": [{"title": "iPhone 15", "extracted_price": 999, "source": "Target", "link": "https://example.com/c"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	first, err := client.Search(ctx, "iphone 15", 10)
	require.NoError(t, err)
	second, err := client.Search(ctx, "iphone 15", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func TestSearch_RateLimitedUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Search(context.Background(), "iphone 15", 10)
	assert.ErrorIs(t, err, domain.ErrProviderRateLimited)
}

func TestSearch_RetryStopsOnCancelledContext(t *testing.T) {
	var calls int
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	start := time.Now()
	_, err := client.Search(ctx, "iphone 15", 10)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "no retry should fire after cancellation")
	assert.Less(t, time.Since(start), 400*time.Millisecond, "backoff should abort on cancellation")
}

func TestSearch_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Search(context.Background(), "iphone 15", 10)
	assert.ErrorIs(t, err, domain.ErrProviderParseError)
}

func TestParseDisplayPrice(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"$1,199.00", 1199.00},
		{"999.99 USD", 999.99},
		{"from $49", 49},
		{"free", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseDisplayPrice(tt.input))
		})
	}
}
