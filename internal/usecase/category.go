package usecase

import (
	"regexp"
	"strings"

	"github.com/pricescope/backend/internal/domain"
)

// categorySignals maps each category to keyword signals that unambiguously
// identify it in a product title. Checked in categoryOrder so detection is
// deterministic. The lists are tunable configuration, not a frozen
// contract.
var categorySignals = map[domain.ProductCategory][]string{
	domain.CategoryTV:      {"television", " tv", "tv ", "qled", "oled tv", "smart tv", "class led", "uhd tv"},
	domain.CategoryPhone:   {"iphone", "smartphone", "galaxy s", "galaxy z", "pixel 9", "pixel 8", "cell phone", " phone"},
	domain.CategoryConsole: {"playstation", "xbox", "nintendo switch", "ps5", "ps4", "game console"},
	domain.CategoryLaptop:  {"laptop", "macbook", "notebook computer", "chromebook"},
	domain.CategoryTablet:  {"ipad", " tablet"},
	domain.CategoryAudio:   {"headphones", "earbuds", "airpods", "soundbar", "bluetooth speaker"},
}

var categoryOrder = []domain.ProductCategory{
	domain.CategoryTV,
	domain.CategoryPhone,
	domain.CategoryConsole,
	domain.CategoryLaptop,
	domain.CategoryTablet,
	domain.CategoryAudio,
}

// tvSizeRegex matches screen-size tokens like `55"`, "55 inch", "55-inch",
// "55 class".
var tvSizeRegex = regexp.MustCompile(`(?i)\b(\d{2})\s*(?:["”]|-?\s?inch(?:es)?\b|in\b|class\b)`)

// modelCodeRegex matches alphanumeric model codes: letters, then digits,
// then optional trailing letters/digits (e.g. "QN55Q60C", "S24", "WH1000XM5").
var modelCodeRegex = regexp.MustCompile(`(?i)\b[a-z]{1,4}\d{2,}[a-z0-9]*\b`)

// DetectCategory infers a coarse category from a product title. Returns
// CategoryUnknown when no signal fires.
func DetectCategory(title string) domain.ProductCategory {
	lower := " " + strings.ToLower(title) + " "
	for _, category := range categoryOrder {
		for _, signal := range categorySignals[category] {
			if strings.Contains(lower, signal) {
				return category
			}
		}
	}
	return domain.CategoryUnknown
}

// resolveCategory prefers the caller-supplied hint over detection. Only
// hints from the canonical vocabulary participate; anything else falls
// back to detection so a bad hint cannot veto every candidate.
func resolveCategory(q domain.ProductQuery) domain.ProductCategory {
	if c := domain.ParseCategory(string(q.Category)); c != domain.CategoryUnknown {
		return c
	}
	return DetectCategory(q.Title())
}

// tvSize returns the screen-size token from a title, or "" when absent.
func tvSize(title string) string {
	match := tvSizeRegex.FindStringSubmatch(title)
	if match == nil {
		return ""
	}
	return match[1]
}

// modelCodes returns the lowercase model-code tokens in a title.
func modelCodes(title string) []string {
	matches := modelCodeRegex.FindAllString(title, -1)
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, strings.ToLower(m))
	}
	return codes
}
