package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pricescope/backend/internal/domain"
)

// CompareServiceConfig holds configuration for the comparison orchestrator
type CompareServiceConfig struct {
	ProviderTimeout time.Duration // per-provider call budget within one round
	MinViableStores int           // stop relaxing the query once this many stores accepted
	SearchLimit     int           // per-provider candidate limit per variant
	MarketplaceCap  int           // max listings per marketplace store
}

// CompareService drives one comparison request through the pipeline:
// variant generation, concurrent provider fan-out, matching, store
// normalization, price validation, and aggregation.
//
// Per request the service walks TryingVariant(0..n): each round fans out
// to every provider concurrently and waits for all to settle; it advances
// to the next (more relaxed) variant only while the accepted store count
// stays below the minimum viable threshold.
type CompareService struct {
	providers []domain.SourceProvider
	strategy  *StrategyGenerator
	matcher   *Matcher
	validator *PriceValidator
	agg       *Aggregator

	providerTimeout time.Duration
	minViableStores int
	searchLimit     int

	log zerolog.Logger
}

// NewCompareService creates a comparison service with dependencies.
func NewCompareService(providers []domain.SourceProvider, cfg CompareServiceConfig, log zerolog.Logger) *CompareService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 20 * time.Second
	}
	if cfg.MinViableStores <= 0 {
		cfg.MinViableStores = 3
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}

	return &CompareService{
		providers:       providers,
		strategy:        NewStrategyGenerator(log),
		matcher:         NewMatcher(log),
		validator:       NewPriceValidator(log),
		agg:             NewAggregator(cfg.MarketplaceCap, IsMarketplaceStore),
		providerTimeout: cfg.ProviderTimeout,
		minViableStores: cfg.MinViableStores,
		searchLimit:     cfg.SearchLimit,
		log:             log.With().Str("component", "compare_service").Logger(),
	}
}

// Compare resolves a product's price across all configured sources.
// Provider failures are absorbed per round; only the fully-exhausted
// not-found condition and an unambiguous category conflict surface to the
// caller.
func (s *CompareService) Compare(ctx context.Context, q domain.ProductQuery) (*domain.AggregatedResult, error) {
	if q.Title() == "" {
		return nil, domain.ErrInvalidRequest
	}

	variants := s.strategy.Variants(q)
	if len(variants) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	var (
		accepted          []domain.StorePrice
		acceptedStores    = make(map[string]bool)
		categoryRejects   int
		totalCandidates   int
		attemptedVariants []string
	)

	for i, variant := range variants {
		attemptedVariants = append(attemptedVariants, variant)
		s.log.Info().Int("round", i).Str("variant", variant).Int("stores", len(acceptedStores)).Msg("variant round started")

		candidates := s.fanOut(ctx, variant)
		totalCandidates += len(candidates)

		for _, candidate := range candidates {
			decision := s.matcher.Evaluate(candidate, q)
			if !decision.Accepted {
				if decision.RejectReason == reasonCategoryMismatch {
					categoryRejects++
				}
				continue
			}

			if ok, reason := s.validator.Validate(q.Title(), candidate.Price); !ok {
				s.log.Debug().Str("title", candidate.Title).Str("reason", reason).Msg("candidate rejected")
				continue
			}

			identity := NormalizeStore(candidate.Source)
			accepted = append(accepted, domain.StorePrice{
				StoreID:    identity.ID,
				StoreName:  identity.Name,
				Price:      candidate.Price,
				Currency:   candidate.Currency,
				InStock:    candidate.InStock,
				URL:        candidate.URL,
				ImageURL:   candidate.ImageURL,
				ObservedAt: time.Now(),
			})
			acceptedStores[identity.ID] = true
		}

		// Relaxed variants are strictly more expensive in false-positive
		// risk; only pay for them while still short of viable results.
		if len(acceptedStores) >= s.minViableStores {
			s.log.Info().Int("round", i).Int("stores", len(acceptedStores)).Msg("minimum viable store count reached")
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if len(accepted) == 0 {
		if categoryRejects > 0 && categoryRejects*2 >= totalCandidates {
			s.log.Info().Int("categoryRejects", categoryRejects).Msg("results conflict with requested category")
			return nil, domain.ErrAmbiguousCategory
		}
		return nil, &domain.NoMatchError{Variants: attemptedVariants}
	}

	result := s.agg.Aggregate(q.Title(), accepted)
	s.log.Info().
		Int("stores", result.TotalStores).
		Float64("bestPrice", result.BestPrice).
		Str("bestStore", result.BestStoreID).
		Msg("comparison completed")

	return result, nil
}

// fanOut dispatches one variant to every provider concurrently and
// collects whatever arrives before each provider's budget expires. A
// provider error or timeout is logged and contributes nothing; it never
// aborts the round.
func (s *CompareService) fanOut(ctx context.Context, variant string) []domain.RawCandidate {
	var (
		mu        sync.Mutex
		collected []domain.RawCandidate
	)

	g, groupCtx := errgroup.WithContext(ctx)
	for _, provider := range s.providers {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, s.providerTimeout)
			defer cancel()

			start := time.Now()
			candidates, err := provider.Search(callCtx, variant, s.searchLimit)
			if err != nil {
				s.logProviderError(provider.Name(), variant, err)
				return nil // absorbed: one failing source never aborts the comparison
			}

			s.log.Debug().
				Str("provider", provider.Name()).
				Str("variant", variant).
				Int("count", len(candidates)).
				Dur("elapsed", time.Since(start)).
				Msg("provider settled")

			mu.Lock()
			collected = append(collected, candidates...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return collected
}

func (s *CompareService) logProviderError(provider, variant string, err error) {
	event := s.log.Warn()
	if errors.Is(err, domain.ErrProviderUnavailable) {
		// Missing credentials are expected in partial deployments
		event = s.log.Debug()
	}
	event.Str("provider", provider).Str("variant", variant).Err(err).Msg("provider contributed nothing this round")
}
