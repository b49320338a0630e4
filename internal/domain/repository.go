package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchOptions tune a catalog search
type SearchOptions struct {
	MaxResults int
	PriceMin   float64
	PriceMax   float64
}

// CatalogClient defines the interface for the external product search service
type CatalogClient interface {
	SearchProducts(ctx context.Context, query string, opts SearchOptions) ([]Product, error)
}

// RuleRepository defines the interface for the persisted compatibility rule
// table. Implementations return rule definitions only; rule logic lives in
// handlers registered by rule ID.
type RuleRepository interface {
	LoadRules(ctx context.Context) ([]RuleDefinition, error)
}

// QualitySignal is a per-product quality override sourced outside the
// catalog listing, such as an aggregated review store
type QualitySignal struct {
	Rating  float64
	Reviews int
}

// QualitySource defines the interface for an external quality-signal store.
// A miss is not an error; scoring falls back to the rating embedded in the
// product listing.
type QualitySource interface {
	QualitySignal(ctx context.Context, productID string) (QualitySignal, bool)
}

// IntentParser defines the interface for the LLM-backed intent decomposition
// collaborator. Non-deterministic; treated as an opaque provider.
type IntentParser interface {
	ParseIntent(ctx context.Context, userIntent string) ([]ComponentRequest, error)
}
