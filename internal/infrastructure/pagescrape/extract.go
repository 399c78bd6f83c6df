package pagescrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricescope/backend/internal/domain"
)

// containerSelectors are tried first, in order. They cover the result-card
// markup variants observed on comparison search pages; when the upstream
// reshuffles its DOM the generic heuristics below take over.
var containerSelectors = []string{
	"[data-testid='product-card']",
	"div.sh-dgr__grid-result",
	"li.product-result",
	"div.product-card",
}

var titleSelectors = []string{
	"h3", "h4", "[role='heading']", ".product-title", ".title",
}

// priceRegex matches a currency-prefixed amount inside arbitrary text.
var priceRegex = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{1,2})?)`)

// chromePhrases are page-chrome strings that must never surface as a
// product title.
var chromePhrases = []string{
	"sign in", "log in", "create account", "your cart", "shopping cart",
	"cookie", "privacy policy", "terms of service", "customer service",
	"track order", "store locator", "gift card", "weekly ad",
	"skip to main content", "feedback", "see more", "view all",
	"sponsored", "advertisement", "filter", "sort by",
}

// redirectParams are query parameters that wrap the true destination of an
// outbound link.
var redirectParams = []string{"url", "u", "adurl", "target", "dest"}

// ExtractCandidates pulls product candidates out of rendered search-page
// HTML. Extraction strategies are tried in order of markup specificity;
// the first one that yields candidates wins.
func ExtractCandidates(html string, limit int) ([]domain.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParseError, err)
	}

	for _, selector := range containerSelectors {
		if candidates := extractFromContainers(doc, selector, limit); len(candidates) > 0 {
			return candidates, nil
		}
	}

	if candidates := extractByPriceNodes(doc, limit); len(candidates) > 0 {
		return candidates, nil
	}

	return extractFromOutboundLinks(doc, limit), nil
}

// extractFromContainers handles the well-structured case: one container
// element per product with recognizable title/price/link children.
func extractFromContainers(doc *goquery.Document, selector string, limit int) []domain.RawCandidate {
	var candidates []domain.RawCandidate
	seen := make(map[string]bool)

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := findTitle(sel)
		if title == "" || IsChromeText(title) {
			return true
		}

		price := parsePrice(sel.Text())
		if price <= 0 {
			return true
		}

		link := ResolveOutboundURL(sel.Find("a[href]").First().AttrOr("href", ""))
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true

		candidates = append(candidates, domain.RawCandidate{
			Title:    title,
			Price:    price,
			Currency: "USD",
			Source:   sourceLabel(sel, link),
			URL:      link,
			ImageURL: sel.Find("img[src]").First().AttrOr("src", ""),
			InStock:  true,
			Provider: providerName,
		})
		return len(candidates) < limit
	})

	return candidates
}

// extractByPriceNodes is the generic fallback: locate price-looking text
// nodes and climb to the nearest ancestor that also carries a link and a
// plausible title.
func extractByPriceNodes(doc *goquery.Document, limit int) []domain.RawCandidate {
	var candidates []domain.RawCandidate
	seen := make(map[string]bool)

	doc.Find("span, div, b").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		own := strings.TrimSpace(sel.Text())
		if len(own) > 24 || !priceRegex.MatchString(own) {
			return true
		}

		container := sel
		for depth := 0; depth < 4; depth++ {
			container = container.Parent()
			if container.Length() == 0 {
				return true
			}
			if container.Find("a[href]").Length() > 0 {
				break
			}
		}

		title := findTitle(container)
		if title == "" {
			title = firstTextLine(container)
		}
		if title == "" || IsChromeText(title) {
			return true
		}

		price := parsePrice(own)
		link := ResolveOutboundURL(container.Find("a[href]").First().AttrOr("href", ""))
		if price <= 0 || link == "" || seen[link] {
			return true
		}
		seen[link] = true

		candidates = append(candidates, domain.RawCandidate{
			Title:    title,
			Price:    price,
			Currency: "USD",
			Source:   sourceLabel(container, link),
			URL:      link,
			ImageURL: container.Find("img[src]").First().AttrOr("src", ""),
			InStock:  true,
			Provider: providerName,
		})
		return len(candidates) < limit
	})

	return candidates
}

// extractFromOutboundLinks is the last resort: outbound anchors whose link
// text looks like a product and whose surrounding text carries a price.
func extractFromOutboundLinks(doc *goquery.Document, limit int) []domain.RawCandidate {
	candidates := []domain.RawCandidate{}
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if len(title) < 10 || IsChromeText(title) {
			return true
		}

		link := ResolveOutboundURL(sel.AttrOr("href", ""))
		if !strings.HasPrefix(link, "http") || seen[link] {
			return true
		}

		price := parsePrice(sel.Parent().Text())
		if price <= 0 {
			return true
		}
		seen[link] = true

		candidates = append(candidates, domain.RawCandidate{
			Title:    title,
			Price:    price,
			Currency: "USD",
			Source:   hostLabel(link),
			URL:      link,
			InStock:  true,
			Provider: providerName,
		})
		return len(candidates) < limit
	})

	return candidates
}

// findTitle returns the first plausible title inside sel.
func findTitle(sel *goquery.Selection) string {
	for _, ts := range titleSelectors {
		if title := strings.TrimSpace(sel.Find(ts).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// firstTextLine returns the first non-price, non-chrome text line.
func firstTextLine(sel *goquery.Selection) string {
	for _, line := range strings.Split(sel.Text(), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 10 || priceRegex.MatchString(line) {
			continue
		}
		return line
	}
	return ""
}

// parsePrice extracts the first currency amount from text. Returns 0 when
// nothing parses.
func parsePrice(text string) float64 {
	match := priceRegex.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return price
}

// IsChromeText reports whether text is page chrome rather than a product
// title.
func IsChromeText(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range chromePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ResolveOutboundURL unwraps redirect-style links to their true
// destination, so store labels derive from the real merchant host rather
// than the search engine's redirect domain.
func ResolveOutboundURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}

	query := parsed.Query()
	for _, param := range redirectParams {
		if dest := query.Get(param); strings.HasPrefix(dest, "http") {
			return dest
		}
	}

	return href
}

// sourceLabel prefers an explicit merchant element, falling back to the
// destination host.
func sourceLabel(sel *goquery.Selection, link string) string {
	for _, ms := range []string{".merchant", ".store-name", "[data-merchant]", "cite"} {
		if label := strings.TrimSpace(sel.Find(ms).First().Text()); label != "" {
			return label
		}
	}
	return hostLabel(link)
}

// hostLabel derives a merchant label from a URL host ("www.bestbuy.com"
// becomes "bestbuy.com").
func hostLabel(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
