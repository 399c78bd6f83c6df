package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricescope/backend/internal/domain"
)

// Compiled patterns for product-family shorthand detection
var (
	iphoneFamilyRegex      = regexp.MustCompile(`(?i)\biphone\s*(\d{1,2})\s*(pro\s*max|pro|plus|mini)?`)
	galaxyFamilyRegex      = regexp.MustCompile(`(?i)\bgalaxy\s*s\s*(\d{2})\s*(ultra|plus)?`)
	playstationFamilyRegex = regexp.MustCompile(`(?i)\b(?:playstation|ps)\s*(\d)\b`)
	xboxFamilyRegex        = regexp.MustCompile(`(?i)\bxbox\s+series\s+([xs])\b`)

	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// techAbbreviations maps lowercase tech tokens to their canonical casing,
// emitted as an alternate-spelling variant.
var techAbbreviations = map[string]string{
	"hd":   "HD",
	"uhd":  "UHD",
	"tv":   "TV",
	"qled": "QLED",
	"oled": "OLED",
	"led":  "LED",
	"lcd":  "LCD",
	"hdr":  "HDR",
	"4k":   "4K",
	"8k":   "8K",
	"gb":   "GB",
	"tb":   "TB",
	"ssd":  "SSD",
}

// StrategyGenerator derives an ordered list of query variants from a
// product query, highest specificity first. Variants past the first only
// fire when the orchestrator is still short of viable results.
type StrategyGenerator struct {
	log zerolog.Logger
}

// NewStrategyGenerator creates a new query strategy generator.
func NewStrategyGenerator(log zerolog.Logger) *StrategyGenerator {
	return &StrategyGenerator{log: log.With().Str("component", "query_strategy").Logger()}
}

// Variants returns the deduplicated, ordered variant list for a query.
// Category-flagged inputs (televisions) never relax down to a bare brand
// token, because a bare brand is category-ambiguous and invites
// cross-category false positives.
func (g *StrategyGenerator) Variants(q domain.ProductQuery) []string {
	base := multiSpaceRegex.ReplaceAllString(strings.TrimSpace(q.Title()), " ")
	if base == "" {
		return nil
	}

	category := resolveCategory(q)
	tokens := strings.Fields(base)

	var variants []string
	seen := make(map[string]bool)
	// Dedupe is case-sensitive on purpose: the abbreviation-casing
	// variant differs from the base only by case.
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	// Exact phrase first
	add(base)

	// Alternate spelling with canonical tech-abbreviation casing
	if alt := canonicalizeAbbreviations(base); alt != base {
		add(alt)
	}

	// Product-family shorthand (e.g. "iPhone 15 Pro Max", "PlayStation 5")
	if family := familyShorthand(base); family != "" {
		add(family)
	}

	// Brand+model truncation heuristics
	if len(tokens) > 3 {
		add(strings.Join(tokens[:3], " "))
	}
	if len(tokens) > 2 {
		add(strings.Join(tokens[:2], " "))
	}

	if category == domain.CategoryTV {
		// Specific-descriptor variants come before the generic
		// brand+keyword variant; a bare brand is never emitted.
		brand := tokens[0]
		if size := tvSize(base); size != "" {
			add(fmt.Sprintf("%s %s inch TV", brand, size))
		}
		if len(tokens) > 1 {
			add(brand + " TV")
		}
		// Only relaxations are suppressed; the exact query survives even
		// when it is a single token.
		variants = append(variants[:1], dropSingleTokens(variants[1:], seen)...)
	} else if len(tokens) > 1 {
		// Lowest-specificity fallback: the leading brand/keyword token
		add(tokens[0])
	}

	g.log.Debug().Str("query", base).Str("category", string(category)).Strs("variants", variants).Msg("variants generated")

	return variants
}

// canonicalizeAbbreviations rewrites known tech abbreviations to their
// canonical casing.
func canonicalizeAbbreviations(s string) string {
	words := strings.Fields(s)
	changed := false
	for i, w := range words {
		if canonical, ok := techAbbreviations[strings.ToLower(w)]; ok && w != canonical {
			words[i] = canonical
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(words, " ")
}

// familyShorthand emits a family-specific compact query when the text
// matches a known product-family pattern.
func familyShorthand(s string) string {
	if m := iphoneFamilyRegex.FindStringSubmatch(s); m != nil {
		shorthand := "iPhone " + m[1]
		if m[2] != "" {
			shorthand += " " + titleCaseModifier(m[2])
		}
		return shorthand
	}
	if m := galaxyFamilyRegex.FindStringSubmatch(s); m != nil {
		shorthand := "Galaxy S" + m[1]
		if m[2] != "" {
			shorthand += " " + titleCaseModifier(m[2])
		}
		return shorthand
	}
	if m := playstationFamilyRegex.FindStringSubmatch(s); m != nil {
		return "PlayStation " + m[1]
	}
	if m := xboxFamilyRegex.FindStringSubmatch(s); m != nil {
		return "Xbox Series " + strings.ToUpper(m[1])
	}
	return ""
}

// titleCaseModifier normalizes a family modifier like "pro max" to
// "Pro Max".
func titleCaseModifier(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// dropSingleTokens removes single-token variants in place, keeping the
// seen set consistent.
func dropSingleTokens(variants []string, seen map[string]bool) []string {
	kept := variants[:0]
	for _, v := range variants {
		if len(strings.Fields(v)) > 1 {
			kept = append(kept, v)
		} else {
			delete(seen, v)
		}
	}
	return kept
}
