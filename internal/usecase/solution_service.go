package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bundleup/backend/internal/domain"
)

// SolutionServiceConfig holds configuration for the solution service
type SolutionServiceConfig struct {
	CacheTTL           time.Duration
	SearchConcurrency  int
	MaxResultsPerQuery int
}

// SolutionService runs the bundle optimization pipeline: cached catalog
// search per component, spec normalization, bundle generation, compatibility
// checking and multi-objective ranking.
type SolutionService struct {
	cache     domain.CacheRepository
	catalog   domain.CatalogClient
	rules     domain.RuleRepository
	extractor *SpecExtractor
	generator *BundleGenerator
	optimizer *OptimizerService

	cacheTTL           time.Duration
	searchConcurrency  int
	maxResultsPerQuery int
}

// NewSolutionService creates a solution service with dependencies. The rule
// repository may be nil, in which case the built-in rule set is used.
func NewSolutionService(
	cache domain.CacheRepository,
	catalog domain.CatalogClient,
	rules domain.RuleRepository,
	extractor *SpecExtractor,
	generator *BundleGenerator,
	optimizer *OptimizerService,
	config SolutionServiceConfig,
) *SolutionService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	concurrency := config.SearchConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	maxResults := config.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = 10
	}

	return &SolutionService{
		cache:              cache,
		catalog:            catalog,
		rules:              rules,
		extractor:          extractor,
		generator:          generator,
		optimizer:          optimizer,
		cacheTTL:           cacheTTL,
		searchConcurrency:  concurrency,
		maxResultsPerQuery: maxResults,
	}
}

// Optimize scores, filters and ranks the bundle space spanned by the given
// per-category candidate lists. An empty or missing category yields an empty
// result, not an error; degraded dependencies (rule table unavailable) are
// reported on the result instead of failing the call.
func (s *SolutionService) Optimize(
	ctx context.Context,
	productOptions map[string][]domain.Product,
	weights *domain.Weights,
) (*domain.OptimizationResult, error) {
	normalized := make(map[string][]domain.Product, len(productOptions))
	for category, products := range productOptions {
		normalized[category] = s.extractor.NormalizeAll(products)
	}

	defs, degraded := s.loadRuleDefinitions(ctx)
	compat := NewCompatibilityService(defs)

	generated, err := s.generator.Generate(ctx, normalized)
	if err != nil {
		return nil, err
	}

	ranked, err := s.optimizer.RankBundles(ctx, generated.Bundles, compat, weights)
	if err != nil {
		return nil, err
	}

	return &domain.OptimizationResult{
		Bundles:         ranked,
		Insights:        s.optimizer.BuildInsights(ranked),
		Degraded:        degraded || compat.RulesUnavailable(),
		Truncated:       generated.Truncated,
		ConsideredCount: len(generated.Bundles),
		TotalPossible:   generated.TotalPossible,
	}, nil
}

// Solve runs the full pipeline for a decomposed intent: search the catalog
// for every component (cache-first, bounded concurrency), then optimize the
// resulting candidate lists. A failed search leaves its category empty and
// marks the result degraded rather than aborting.
func (s *SolutionService) Solve(
	ctx context.Context,
	components []domain.ComponentRequest,
	weights *domain.Weights,
) (*domain.OptimizationResult, error) {
	if len(components) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	productLists := make([][]domain.Product, len(components))

	var mu sync.Mutex
	searchDegraded := false

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.searchConcurrency)

	for i := range components {
		i := i
		g.Go(func() error {
			products, err := s.searchComponent(gCtx, components[i])
			if err != nil {
				log.Printf("[SOLVE] Search failed for %q: %v", components[i].ComponentName, err)
				mu.Lock()
				searchDegraded = true
				mu.Unlock()
				return nil
			}
			productLists[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productOptions := make(map[string][]domain.Product, len(components))
	for i, component := range components {
		category := component.Category
		if category == "" {
			category = component.ComponentName
		}
		productOptions[category] = productLists[i]
	}

	result, err := s.Optimize(ctx, productOptions, weights)
	if err != nil {
		return nil, err
	}

	result.Degraded = result.Degraded || searchDegraded
	return result, nil
}

// searchComponent looks up candidates for one component.
// Flow: check cache -> search catalog -> normalize specs -> cache -> return
func (s *SolutionService) searchComponent(ctx context.Context, component domain.ComponentRequest) ([]domain.Product, error) {
	query := component.SearchQuery
	if query == "" {
		query = component.ComponentName
	}
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := searchCacheKey(query)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if products, ok := cached.([]domain.Product); ok {
			return products, nil
		}
	}

	products, err := s.catalog.SearchProducts(ctx, query, domain.SearchOptions{
		MaxResults: s.maxResultsPerQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogAPIFailure, err)
	}

	products = s.extractor.NormalizeAll(products)

	if err := s.cache.Set(ctx, cacheKey, products, s.cacheTTL); err != nil {
		log.Printf("[SOLVE] Failed to cache results for %q: %v", query, err)
	}

	return products, nil
}

// loadRuleDefinitions loads the rule table from the repository, degrading to
// the built-in set when the store is unavailable. The degraded flag keeps
// the fallback distinguishable from a healthy load.
func (s *SolutionService) loadRuleDefinitions(ctx context.Context) ([]domain.RuleDefinition, bool) {
	if s.rules == nil {
		return DefaultRuleDefinitions(), false
	}

	defs, err := s.rules.LoadRules(ctx)
	if err != nil {
		log.Printf("[SOLVE] Rule table unavailable, using built-in rules: %v", err)
		return DefaultRuleDefinitions(), true
	}
	return defs, false
}

// searchCacheKey hashes the query so arbitrary text maps to a stable,
// bounded key. Format: "search:{16 hex chars}".
func searchCacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "search:" + hex.EncodeToString(sum[:])[:16]
}
