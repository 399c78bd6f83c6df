package usecase

import (
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricescope/backend/internal/domain"
)

// Package-level compiled regex pattern for tokenization
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Confidence weights: exact match > model-code match > size match >
// generic token overlap. Confidence only orders accepted candidates.
const (
	confidenceExact     = 1.0
	confidenceContained = 0.9
	confidenceModelCode = 0.8
	confidenceSize      = 0.7
	confidenceBase      = 0.4
)

// Rejection reasons surfaced in MatchDecision and structured logs
const (
	reasonCategoryMismatch = "category mismatch"
	reasonLowOverlap       = "insufficient token overlap"
	reasonLowSpecificity   = "brand match without model, size, or descriptors"
)

// significantDescriptors are category-significant words that count toward
// the specificity requirement for category-sensitive types (televisions).
var significantDescriptors = map[string]bool{
	"crystal": true, "uhd": true, "qled": true, "oled": true, "neo": true,
	"class": true, "series": true, "smart": true, "hdr": true, "4k": true,
	"8k": true, "frame": true, "bravia": true,
}

// Matcher decides whether a raw candidate refers to the same physical
// product as the expected description. The category guard is a hard veto
// evaluated before any token-overlap scoring.
type Matcher struct {
	log zerolog.Logger
}

// NewMatcher creates a new candidate matcher.
func NewMatcher(log zerolog.Logger) *Matcher {
	return &Matcher{log: log.With().Str("component", "matcher").Logger()}
}

// Evaluate scores one candidate against the expected product.
func (m *Matcher) Evaluate(candidate domain.RawCandidate, q domain.ProductQuery) domain.MatchDecision {
	expected := q.Title()
	decision := domain.MatchDecision{Candidate: candidate}

	expectedCategory := resolveCategory(q)
	candidateCategory := DetectCategory(candidate.Title)

	// Hard veto: an unambiguous category conflict can never be rescued
	// by token overlap.
	if expectedCategory != domain.CategoryUnknown &&
		candidateCategory != domain.CategoryUnknown &&
		candidateCategory != expectedCategory {
		decision.RejectReason = reasonCategoryMismatch
		m.logRejection(candidate, decision.RejectReason)
		return decision
	}

	expectedLower := strings.ToLower(strings.TrimSpace(expected))
	candidateLower := strings.ToLower(strings.TrimSpace(candidate.Title))

	exact := expectedLower == candidateLower
	contained := strings.Contains(candidateLower, expectedLower) ||
		strings.Contains(expectedLower, candidateLower)

	expectedTokens := tokenize(expected)
	candidateTokens := tokenize(candidate.Title)
	shared := sharedTokens(expectedTokens, candidateTokens)

	required := minSharedTokens(len(expectedTokens))
	if !exact && !contained && len(shared) < required {
		decision.RejectReason = reasonLowOverlap
		m.logRejection(candidate, decision.RejectReason)
		return decision
	}

	sizeMatched := false
	codeMatched := false
	if expectedCategory == domain.CategoryTV {
		sizeMatched = tvSize(expected) != "" && tvSize(expected) == tvSize(candidate.Title)
		codeMatched = sharedModelCode(expected, candidate.Title)

		// Brand overlap alone is not enough for category-sensitive
		// types; require a size token, a model code, or two shared
		// significant descriptors.
		if !exact && !sizeMatched && !codeMatched && countSignificant(shared) < 2 {
			decision.RejectReason = reasonLowSpecificity
			m.logRejection(candidate, decision.RejectReason)
			return decision
		}
	} else {
		codeMatched = sharedModelCode(expected, candidate.Title)
	}

	decision.Accepted = true
	decision.Confidence = confidence(exact, contained, codeMatched, sizeMatched, len(shared), len(expectedTokens))
	return decision
}

func (m *Matcher) logRejection(candidate domain.RawCandidate, reason string) {
	m.log.Debug().
		Str("title", candidate.Title).
		Str("source", candidate.Source).
		Str("reason", reason).
		Msg("candidate rejected")
}

// minSharedTokens is the acceptance threshold: min(2, ceil(expected/2)).
func minSharedTokens(expectedCount int) int {
	if expectedCount == 0 {
		return 1
	}
	half := int(math.Ceil(float64(expectedCount) / 2.0))
	if half < 2 {
		return half
	}
	return 2
}

// confidence computes the ranking-only weighted score.
func confidence(exact, contained, codeMatched, sizeMatched bool, shared, expected int) float64 {
	switch {
	case exact:
		return confidenceExact
	case contained:
		return confidenceContained
	case codeMatched:
		return confidenceModelCode
	case sizeMatched:
		return confidenceSize
	}

	if expected == 0 {
		return confidenceBase
	}
	overlap := float64(shared) / float64(expected)
	if overlap > 1 {
		overlap = 1
	}
	return confidenceBase + 0.25*overlap
}

// shortSignalTokens are one/two-character tokens kept by tokenize despite
// the length cutoff; resolution classes carry real category signal.
var shortSignalTokens = map[string]bool{"4k": true, "8k": true}

// tokenize splits a string into normalized lowercase tokens longer than
// two characters, plus the known short signal tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 && !shortSignalTokens[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// sharedTokens returns the deduplicated tokens present in both lists.
func sharedTokens(tokens1, tokens2 []string) []string {
	set := make(map[string]bool, len(tokens1))
	for _, t := range tokens1 {
		set[t] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			shared = append(shared, t)
			seen[t] = true
		}
	}
	return shared
}

// sharedModelCode reports whether both titles carry a common
// alphanumeric model code.
func sharedModelCode(a, b string) bool {
	codesA := modelCodes(a)
	if len(codesA) == 0 {
		return false
	}
	set := make(map[string]bool, len(codesA))
	for _, c := range codesA {
		set[c] = true
	}
	for _, c := range modelCodes(b) {
		if set[c] {
			return true
		}
	}
	return false
}

// countSignificant counts category-significant descriptor words among the
// shared tokens.
func countSignificant(shared []string) int {
	count := 0
	for _, t := range shared {
		if significantDescriptors[t] {
			count++
		}
	}
	return count
}
