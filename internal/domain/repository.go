package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching raw provider responses
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]RawCandidate, error)
	Set(ctx context.Context, key string, candidates []RawCandidate, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SourceProvider is the uniform contract every data source adapter implements.
// Search returns raw candidates for one query variant. A provider that cannot
// extract anything returns an empty slice, not an error; errors are reserved
// for the taxonomy in errors.go.
type SourceProvider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]RawCandidate, error)
}

// RequestGate bounds outbound request cadence for one provider. Wait blocks
// until the caller may proceed or the context is cancelled.
type RequestGate interface {
	Wait(ctx context.Context) error
}
