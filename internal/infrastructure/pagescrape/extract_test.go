package pagescrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const containerHTML = `
<html><body>
  <div data-testid="product-card">
    <h3>Apple iPhone 15 Pro Max 256GB</h3>
    <span>$1,199.00</span>
    <span class="merchant">Best Buy</span>
    <a href="https://www.bestbuy.com/site/iphone-15-pro-max">view</a>
    <img src="https://img.example.com/iphone.jpg">
  </div>
  <div data-testid="product-card">
    <h3>Sign in for member pricing</h3>
    <span>$0.00</span>
    <a href="https://example.com/login">go</a>
  </div>
  <div data-testid="product-card">
    <h3>iPhone 15 Pro Max Unlocked</h3>
    <span>$1,149.99</span>
    <a href="https://redirect.example.com/track?url=https%3A%2F%2Fwww.walmart.com%2Fip%2F12345">view</a>
  </div>
</body></html>`

func TestExtractCandidates_Containers(t *testing.T) {
	candidates, err := ExtractCandidates(containerHTML, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Apple iPhone 15 Pro Max 256GB", candidates[0].Title)
	assert.Equal(t, 1199.0, candidates[0].Price)
	assert.Equal(t, "Best Buy", candidates[0].Source)
	assert.Equal(t, "https://img.example.com/iphone.jpg", candidates[0].ImageURL)

	// Redirect-wrapped link resolved to the true merchant destination
	assert.Equal(t, "https://www.walmart.com/ip/12345", candidates[1].URL)
	assert.Equal(t, "walmart.com", candidates[1].Source)
}

const genericHTML = `
<html><body>
  <div class="unknown-layout">
    <div>
      <a href="https://www.target.com/p/ps5-console">Sony PlayStation 5 Console Slim</a>
      <span>$499.99</span>
    </div>
  </div>
</body></html>`

func TestExtractCandidates_PriceHeuristicFallback(t *testing.T) {
	candidates, err := ExtractCandidates(genericHTML, 10)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	assert.Equal(t, 499.99, candidates[0].Price)
	assert.Equal(t, "https://www.target.com/p/ps5-console", candidates[0].URL)
}

func TestExtractCandidates_NothingUsable(t *testing.T) {
	candidates, err := ExtractCandidates(`<html><body><p>No products here</p></body></html>`, 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestExtractCandidates_RespectsLimit(t *testing.T) {
	html := `<html><body>`
	for i := 0; i < 10; i++ {
		html += `<div data-testid="product-card"><h3>Samsung 55 Inch QLED TV Model ` +
			string(rune('A'+i)) + `</h3><span>$799.99</span><a href="https://example.com/tv/` +
			string(rune('a'+i)) + `">view</a></div>`
	}
	html += `</body></html>`

	candidates, err := ExtractCandidates(html, 3)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestResolveOutboundURL(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "url param unwrapped",
			href:     "https://redirect.example.com/track?url=https%3A%2F%2Fwww.bestbuy.com%2Fsite%2Fx",
			expected: "https://www.bestbuy.com/site/x",
		},
		{
			name:     "adurl param unwrapped",
			href:     "https://ads.example.com/click?adurl=https%3A%2F%2Fwww.target.com%2Fp%2Fy",
			expected: "https://www.target.com/p/y",
		},
		{
			name:     "plain link passes through",
			href:     "https://www.walmart.com/ip/123",
			expected: "https://www.walmart.com/ip/123",
		},
		{
			name:     "non-http param ignored",
			href:     "https://example.com/page?url=javascript:void(0)",
			expected: "https://example.com/page?url=javascript:void(0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveOutboundURL(tt.href))
		})
	}
}

func TestIsChromeText(t *testing.T) {
	assert.True(t, IsChromeText("Sign in to your account"))
	assert.True(t, IsChromeText("View your Shopping Cart"))
	assert.True(t, IsChromeText("Sponsored"))
	assert.False(t, IsChromeText("Apple iPhone 15 Pro Max 256GB"))
	assert.False(t, IsChromeText("Samsung 55 Class QLED 4K TV"))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 1199.0, parsePrice("now $1,199.00 at checkout"))
	assert.Equal(t, 49.99, parsePrice("$49.99"))
	assert.Equal(t, 0.0, parsePrice("no price here"))
}

func TestHostLabel(t *testing.T) {
	assert.Equal(t, "bestbuy.com", hostLabel("https://www.bestbuy.com/site/x"))
	assert.Equal(t, "ebay.com", hostLabel("https://ebay.com/itm/1"))
	assert.Equal(t, "", hostLabel("not a url"))
}
