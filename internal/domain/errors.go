package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderUnavailable is returned when a provider is missing credentials or config
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRateLimited is returned when an upstream source rejects us for rate limiting
	ErrProviderRateLimited = errors.New("provider rate limited")

	// ErrProviderTimeout is returned when a provider call exceeds its deadline
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrProviderParseError is returned when an upstream payload shape is unrecognized
	ErrProviderParseError = errors.New("provider payload parse error")

	// ErrNoMatchFound is returned when all query variants are exhausted with zero accepted candidates
	ErrNoMatchFound = errors.New("no matching product found")

	// ErrAmbiguousCategory is returned when the only results unambiguously conflict with the requested category
	ErrAmbiguousCategory = errors.New("result category conflicts with requested category")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// NoMatchError carries the attempted query variants for diagnostics.
// It unwraps to ErrNoMatchFound so callers can keep using errors.Is.
type NoMatchError struct {
	Variants []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching product found (tried: %s)", strings.Join(e.Variants, ", "))
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatchFound }
