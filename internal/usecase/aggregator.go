package usecase

import (
	"sort"
	"strconv"

	"github.com/pricescope/backend/internal/domain"
)

// DefaultMarketplaceCap bounds how many listings a single marketplace
// store may contribute, so one marketplace cannot drown out other stores.
const DefaultMarketplaceCap = 15

// Aggregator merges accepted, validated store prices into one ranked
// comparison view.
type Aggregator struct {
	marketplaceCap int
	isMarketplace  func(storeID string) bool
}

// NewAggregator creates an aggregator. cap <= 0 selects the default.
func NewAggregator(cap int, isMarketplace func(storeID string) bool) *Aggregator {
	if cap <= 0 {
		cap = DefaultMarketplaceCap
	}
	if isMarketplace == nil {
		isMarketplace = IsMarketplaceStore
	}
	return &Aggregator{marketplaceCap: cap, isMarketplace: isMarketplace}
}

// Aggregate deduplicates prices per store and builds the final ranked
// result. For standard retailers only the lowest-priced listing survives;
// marketplace stores keep up to the cap of distinct listings. Returns nil
// when prices is empty.
func (a *Aggregator) Aggregate(productName string, prices []domain.StorePrice) *domain.AggregatedResult {
	if len(prices) == 0 {
		return nil
	}

	deduped := a.dedupe(prices)

	// Ascending by price, stable storeId tie-break
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Price != deduped[j].Price {
			return deduped[i].Price < deduped[j].Price
		}
		return deduped[i].StoreID < deduped[j].StoreID
	})

	stores := make(map[string]bool, len(deduped))
	var image string
	for _, sp := range deduped {
		stores[sp.StoreID] = true
		if image == "" && sp.ImageURL != "" {
			image = sp.ImageURL
		}
	}

	best := deduped[0]
	worst := deduped[len(deduped)-1]

	return &domain.AggregatedResult{
		ProductName: productName,
		Image:       image,
		StorePrices: deduped,
		BestPrice:   best.Price,
		BestStoreID: best.StoreID,
		TotalStores: len(stores),
		MaxSavings:  worst.Price - best.Price,
	}
}

// dedupe applies the per-store policy: lowest price wins for standard
// retailers, capped distinct listings for marketplace stores.
func (a *Aggregator) dedupe(prices []domain.StorePrice) []domain.StorePrice {
	lowest := make(map[string]domain.StorePrice)
	marketplace := make(map[string][]domain.StorePrice)
	var storeOrder []string

	for _, sp := range prices {
		if a.isMarketplace(sp.StoreID) {
			if _, ok := marketplace[sp.StoreID]; !ok {
				storeOrder = append(storeOrder, sp.StoreID)
			}
			marketplace[sp.StoreID] = append(marketplace[sp.StoreID], sp)
			continue
		}

		current, ok := lowest[sp.StoreID]
		if !ok {
			storeOrder = append(storeOrder, sp.StoreID)
			lowest[sp.StoreID] = sp
			continue
		}
		if sp.Price < current.Price {
			lowest[sp.StoreID] = sp
		}
	}

	var out []domain.StorePrice
	for _, storeID := range storeOrder {
		if listings, ok := marketplace[storeID]; ok {
			out = append(out, capListings(listings, a.marketplaceCap)...)
			continue
		}
		out = append(out, lowest[storeID])
	}

	return out
}

// capListings keeps the cheapest distinct listings up to cap. Listings
// sharing a URL (or price when no URL distinguishes them) are one
// listing.
func capListings(listings []domain.StorePrice, cap int) []domain.StorePrice {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Price < listings[j].Price
	})

	seen := make(map[string]bool, len(listings))
	var kept []domain.StorePrice
	for _, sp := range listings {
		key := sp.URL
		if key == "" {
			key = sp.StoreID + "|" + formatPriceKey(sp.Price)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, sp)
		if len(kept) >= cap {
			break
		}
	}
	return kept
}

func formatPriceKey(price float64) string {
	// Two-decimal stability is enough to distinguish listings
	return strconv.FormatInt(int64(price*100+0.5), 10)
}
