package places

import (
	"strings"

	"github.com/pricescope/backend/internal/domain"
)

// inventoryResponse is the upstream local-inventory payload shape.
type inventoryResponse struct {
	Results []inventoryItem `json:"results"`
}

type inventoryItem struct {
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	StoreName   string  `json:"store_name"`
	StoreLink   string  `json:"store_link"`
	ImageURL    string  `json:"image_url"`
	InStock     bool    `json:"in_stock"`
}

func mapCandidates(payload inventoryResponse) []domain.RawCandidate {
	candidates := make([]domain.RawCandidate, 0, len(payload.Results))

	for _, item := range payload.Results {
		title := strings.TrimSpace(item.ProductName)
		if title == "" || item.Price <= 0 {
			continue
		}

		currency := item.Currency
		if currency == "" {
			currency = "USD"
		}

		candidates = append(candidates, domain.RawCandidate{
			Title:    title,
			Price:    item.Price,
			Currency: currency,
			Source:   strings.TrimSpace(item.StoreName),
			URL:      item.StoreLink,
			ImageURL: item.ImageURL,
			InStock:  item.InStock,
			Provider: providerName,
		})
	}

	return candidates
}
