package usecase

import (
	"regexp"
	"strings"
)

// StoreIdentity is the canonical identity of a merchant, independent of
// how any one provider labels it.
type StoreIdentity struct {
	ID          string
	Name        string
	Marketplace bool // many independent sellers share this identity
}

// storePattern maps a label pattern to a canonical store. First match
// wins, so more specific patterns belong earlier in the table.
type storePattern struct {
	pattern     *regexp.Regexp
	id          string
	name        string
	marketplace bool
}

// canonicalStores is the ordered normalization table. Patterns match the
// free-text label a provider reports, which ranges from "Walmart" through
// "Walmart - Seller X" to "walmart.com".
var canonicalStores = []storePattern{
	{regexp.MustCompile(`(?i)walmart`), "walmart", "Walmart", false},
	{regexp.MustCompile(`(?i)best\s*buy`), "bestbuy", "Best Buy", false},
	{regexp.MustCompile(`(?i)\btarget\b`), "target", "Target", false},
	{regexp.MustCompile(`(?i)amazon`), "amazon", "Amazon", true},
	{regexp.MustCompile(`(?i)\bebay\b`), "ebay", "eBay", true},
	{regexp.MustCompile(`(?i)costco`), "costco", "Costco", false},
	{regexp.MustCompile(`(?i)newegg`), "newegg", "Newegg", true},
	{regexp.MustCompile(`(?i)b\s*&\s*h(\s|$)|bhphoto`), "bhphoto", "B&H Photo", false},
	{regexp.MustCompile(`(?i)game\s*stop`), "gamestop", "GameStop", false},
	{regexp.MustCompile(`(?i)micro\s*center`), "microcenter", "Micro Center", false},
	{regexp.MustCompile(`(?i)sam'?s\s*club`), "samsclub", "Sam's Club", false},
	{regexp.MustCompile(`(?i)home\s*depot`), "homedepot", "The Home Depot", false},
	{regexp.MustCompile(`(?i)staples`), "staples", "Staples", false},
	{regexp.MustCompile(`(?i)office\s*depot`), "officedepot", "Office Depot", false},
	{regexp.MustCompile(`(?i)apple\s*(store|\.com)`), "apple", "Apple", false},
	{regexp.MustCompile(`(?i)samsung\s*(shop|store|\.com)`), "samsung", "Samsung", false},
	{regexp.MustCompile(`(?i)back\s*market`), "backmarket", "Back Market", true},
}

// marketplaceIDs indexes the marketplace flag by canonical id for the
// aggregator's dedup cap.
var marketplaceIDs = func() map[string]bool {
	ids := make(map[string]bool)
	for _, sp := range canonicalStores {
		if sp.marketplace {
			ids[sp.id] = true
		}
	}
	return ids
}()

var slugInvalidRegex = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeStore maps a provider's free-text merchant label to a canonical
// store identity. Unmatched labels pass through with a slugified id,
// preserving the original display name. Normalization is pure and
// idempotent: the same label always yields the same identity.
func NormalizeStore(label string) StoreIdentity {
	label = strings.TrimSpace(label)
	if label == "" {
		return StoreIdentity{ID: "unknown", Name: "Unknown Store"}
	}

	for _, sp := range canonicalStores {
		if sp.pattern.MatchString(label) {
			return StoreIdentity{ID: sp.id, Name: sp.name, Marketplace: sp.marketplace}
		}
	}

	return StoreIdentity{ID: slugify(label), Name: label}
}

// IsMarketplaceStore reports whether a canonical store id belongs to a
// marketplace-style source.
func IsMarketplaceStore(storeID string) bool {
	return marketplaceIDs[storeID]
}

// slugify derives a stable id from arbitrary label text.
func slugify(label string) string {
	slug := strings.ToLower(label)
	slug = slugInvalidRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}
