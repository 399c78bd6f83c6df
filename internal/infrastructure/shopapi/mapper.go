package shopapi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pricescope/backend/internal/domain"
)

// searchResponse is the upstream shopping-search payload. All shape-specific
// parsing stays in this file; nothing downstream sees raw upstream JSON.
type searchResponse struct {
	ShoppingResults []shoppingItem `json:"shopping_results"`
}

type shoppingItem struct {
	Title          string  `json:"title"`
	Price          string  `json:"price"`           // display string, e.g. "$1,199.00"
	ExtractedPrice float64 `json:"extracted_price"` // numeric when the upstream provides it
	Currency       string  `json:"currency"`
	Source         string  `json:"source"`
	Link           string  `json:"link"`
	Thumbnail      string  `json:"thumbnail"`
	InStock        *bool   `json:"in_stock"`
}

// priceRegex pulls the first numeric amount out of a display price string.
var priceRegex = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// mapCandidates converts the upstream payload into domain candidates,
// dropping items without a usable title or price.
func mapCandidates(payload searchResponse) []domain.RawCandidate {
	candidates := make([]domain.RawCandidate, 0, len(payload.ShoppingResults))

	for _, item := range payload.ShoppingResults {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		price := item.ExtractedPrice
		if price <= 0 {
			price = parseDisplayPrice(item.Price)
		}
		if price <= 0 {
			continue
		}

		currency := item.Currency
		if currency == "" {
			currency = "USD"
		}

		inStock := true
		if item.InStock != nil {
			inStock = *item.InStock
		}

		candidates = append(candidates, domain.RawCandidate{
			Title:    title,
			Price:    price,
			Currency: currency,
			Source:   strings.TrimSpace(item.Source),
			URL:      item.Link,
			ImageURL: item.Thumbnail,
			InStock:  inStock,
			Provider: providerName,
		})
	}

	return candidates
}

// parseDisplayPrice extracts a numeric price from a display string like
// "$1,199.00" or "from 999.99 USD". Returns 0 when nothing parses.
func parseDisplayPrice(s string) float64 {
	match := priceRegex.FindString(s)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}
