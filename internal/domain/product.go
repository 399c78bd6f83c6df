package domain

import (
	"strings"
	"time"
)

// ProductCategory is a coarse category bucket used for match vetoes and
// price-floor selection. Unknown is valid and disables category logic.
type ProductCategory string

const (
	CategoryUnknown ProductCategory = ""
	CategoryPhone   ProductCategory = "phone"
	CategoryTV      ProductCategory = "tv"
	CategoryConsole ProductCategory = "console"
	CategoryLaptop  ProductCategory = "laptop"
	CategoryTablet  ProductCategory = "tablet"
	CategoryAudio   ProductCategory = "audio"
)

// ParseCategory maps a free-text category hint onto the canonical
// vocabulary. Unrecognized values come back as CategoryUnknown so a bad
// hint degrades to title-based detection instead of vetoing valid matches.
func ParseCategory(s string) ProductCategory {
	switch c := ProductCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryPhone, CategoryTV, CategoryConsole, CategoryLaptop, CategoryTablet, CategoryAudio:
		return c
	}
	return CategoryUnknown
}

// ProductQuery is the immutable input of one comparison request.
type ProductQuery struct {
	Description  string          `json:"description"`
	ExpectedName string          `json:"expectedName,omitempty"` // more authoritative than Description when set
	Category     ProductCategory `json:"category,omitempty"`
}

// Title returns the most authoritative product name available.
func (q ProductQuery) Title() string {
	if q.ExpectedName != "" {
		return q.ExpectedName
	}
	return q.Description
}

// RawCandidate is one unprocessed hit from a single source provider.
// Candidates are value types; pipeline stages produce new values rather
// than mutating a candidate in place.
type RawCandidate struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Source   string  `json:"source"` // free-text merchant label as the provider reported it
	URL      string  `json:"url"`
	ImageURL string  `json:"imageUrl,omitempty"`
	InStock  bool    `json:"inStock"`
	Provider string  `json:"provider"`
}

// MatchDecision is the Candidate Matcher's verdict on one candidate.
// Confidence only orders accepted candidates; it never overrides Accepted.
type MatchDecision struct {
	Candidate    RawCandidate `json:"candidate"`
	Accepted     bool         `json:"accepted"`
	Confidence   float64      `json:"confidence"` // 0..1
	RejectReason string       `json:"rejectReason,omitempty"`
}

// StorePrice is a matched, validated, store-normalized listing.
type StorePrice struct {
	StoreID    string    `json:"storeId"`
	StoreName  string    `json:"storeName"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	InStock    bool      `json:"inStock"`
	URL        string    `json:"url"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	ObservedAt time.Time `json:"observedAt"`
}

// AggregatedResult is the final comparison view for one request.
// StorePrices is sorted ascending by price with a stable storeId tie-break.
type AggregatedResult struct {
	ProductName string       `json:"productName"`
	Image       string       `json:"image,omitempty"`
	StorePrices []StorePrice `json:"storePrices"`
	BestPrice   float64      `json:"bestPrice"`
	BestStoreID string       `json:"bestStoreId"`
	TotalStores int          `json:"totalStores"`
	MaxSavings  float64      `json:"maxSavings"`
}

// CompareRequest is the logical request shape of the compare operation.
type CompareRequest struct {
	Description  string `json:"description" binding:"required"`
	ExpectedName string `json:"expectedName,omitempty"`
	Category     string `json:"category,omitempty"`
}
